package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
	"github.com/i-yashvi/E-Commerce-Backend/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserHandler serves the admin user listing.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetUser handles GET /users/:id.
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return oops.Code("INVALID_UUID").Public("Invalid user ID.").
			Wrap(fmt.Errorf("%w: %w", apperrors.ErrValidation, err))
	}
	user, err := h.svc.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /users?offset=&limit=.
func (h *UserHandler) ListUsers(c echo.Context) error {
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		return err
	}
	switch {
	case limit == 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}

	users, err := h.svc.ListUsers(c.Request().Context(), offset, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, oops.Code("INVALID_QUERY").Public("Invalid " + name + ".").
			Wrapf(apperrors.ErrValidation, "%s=%q", name, raw)
	}
	return n, nil
}
