package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
)

// bind decodes the request body into req and runs the echo validator on it.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return oops.Code("INVALID_REQUEST_BODY").Public("Invalid request body.").
			Wrap(fmt.Errorf("%w: %w", apperrors.ErrValidation, err))
	}
	if err := c.Validate(req); err != nil {
		return oops.Code("VALIDATION_ERROR").Public(describe(err)).
			Wrap(fmt.Errorf("%w: %w", apperrors.ErrValidation, err))
	}
	return nil
}

// describe turns validator errors into a message suitable for clients.
func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.ErrValidation.Error()
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email address")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+fe.Param())
		case "strongpassword":
			msgs = append(msgs, field+" must be at least 8 characters and contain upper and lower case letters, a digit and a special character")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
