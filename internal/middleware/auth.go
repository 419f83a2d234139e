// Package middleware holds the echo middleware that puts the auth guard in front of handlers.
package middleware

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/samber/oops"

	"github.com/i-yashvi/E-Commerce-Backend/internal/auth"
	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
)

// ContextKey is where the authenticated *model.User is stored on the echo context.
const ContextKey = "user"

// Authenticate resolves the bearer token of every request through guard and stores the user
// under ContextKey. Requests without a usable token are rejected as unauthenticated.
func Authenticate(guard *auth.Guard) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return guard.CurrentIdentity(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// unwrap echojwt's parsing error back to what the guard returned
			if oopsErr, ok := oops.AsOops(err); ok {
				return oopsErr
			}
			// the extractor found no bearer token
			_, missing := guard.CurrentIdentity(c.Request().Context(), "")
			return missing
		},
	})
}

// RequireRole rejects requests whose authenticated user does not hold exactly role.
// It must run after Authenticate.
func RequireRole(guard *auth.Guard, role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := guard.Authorize(CurrentUser(c), role); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by Authenticate, or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(ContextKey).(*model.User)
	return user
}
