package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
	"github.com/i-yashvi/E-Commerce-Backend/internal/middleware"
	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
	"github.com/i-yashvi/E-Commerce-Backend/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService      service.AuthService
	exposeResetToken bool
	logger           *slog.Logger
}

// NewAuthHandler creates a new auth handler. When exposeResetToken is set the
// forgot-password response carries the reset token, for non-production use.
func NewAuthHandler(authService service.AuthService, exposeResetToken bool, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{authService: authService, exposeResetToken: exposeResetToken, logger: logger}
}

// SignupRequest represents a user registration request.
type SignupRequest struct {
	Name     string `json:"name" form:"name" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,strongpassword"`
	Role     string `json:"role" form:"role" validate:"omitempty,oneof=admin user"`
}

// SigninRequest represents a user login request.
type SigninRequest struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token" validate:"required"`
}

// ForgotPasswordRequest represents a password reset request.
type ForgotPasswordRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// ResetPasswordRequest carries a reset token and the replacement password.
type ResetPasswordRequest struct {
	Token       string `json:"token" form:"token" validate:"required"`
	NewPassword string `json:"new_password" form:"new_password" validate:"required,strongpassword"`
}

// MessageResponse is the body of endpoints that only confirm an action.
type MessageResponse struct {
	Message string `json:"message"`
}

// ForgotPasswordResponse confirms a reset email. ResetToken is only set outside production.
type ForgotPasswordResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}

// Signup handles POST /auth/signup. No token is issued; the user signs in separately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	_, err := h.authService.Signup(c.Request().Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "User created successfully. Please sign in."})
}

// Signin handles POST /auth/signin.
func (h *AuthHandler) Signin(c echo.Context) error {
	var req SigninRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.Signin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pair)
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req ForgotPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	issued, err := h.authService.ForgotPassword(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	resp := ForgotPasswordResponse{Message: "Password reset link sent to your email."}
	if h.exposeResetToken {
		resp.ResetToken = issued.Token
	}
	return c.JSON(http.StatusOK, resp)
}

// ResetPasswordForm handles GET /auth/reset-password-form, the page the emailed link opens.
func (h *AuthHandler) ResetPasswordForm(c echo.Context) error {
	return renderPage(c, http.StatusOK, resetFormPage, c.QueryParam("token"))
}

// ResetPassword handles POST /auth/reset-password. Form submissions from the reset page
// get an HTML result; JSON callers get JSON.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	if !isFormPost(c) {
		var req ResetPasswordRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		if err := h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset successfully."})
	}

	var req ResetPasswordRequest
	err := bind(c, &req)
	if err == nil {
		err = h.authService.ResetPassword(c.Request().Context(), req.Token, req.NewPassword)
	}
	if err != nil {
		httpErr := apperrors.MapErrorToHTTP(err)
		if httpErr.StatusCode >= http.StatusInternalServerError {
			apperrors.LogError(c.Request().Context(), h.logger, "reset password failed", err)
		}
		return renderPage(c, httpErr.StatusCode, messagePage, httpErr.Message)
	}
	return renderPage(c, http.StatusOK, messagePage, "Password has been reset successfully.")
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// AdminOnly handles POST /auth/admin-only.
func (h *AuthHandler) AdminOnly(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Hello %s, you are an admin!", user.Name)})
}

// UserOnly handles POST /auth/user-only.
func (h *AuthHandler) UserOnly(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Hello %s, you are a user!", user.Name)})
}

func isFormPost(c echo.Context) bool {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}
