package router

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/i-yashvi/E-Commerce-Backend/internal/auth"
	"github.com/i-yashvi/E-Commerce-Backend/internal/config"
	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
	"github.com/i-yashvi/E-Commerce-Backend/internal/handler"
	"github.com/i-yashvi/E-Commerce-Backend/internal/logging"
	"github.com/i-yashvi/E-Commerce-Backend/internal/metrics"
	authmw "github.com/i-yashvi/E-Commerce-Backend/internal/middleware"
	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
	"github.com/i-yashvi/E-Commerce-Backend/internal/ratelimit"
)

// Dependencies are the collaborators the routes are wired to.
type Dependencies struct {
	Config      *config.Config
	Logger      *slog.Logger
	Guard       *auth.Guard
	AuthHandler *handler.AuthHandler
	UserHandler *handler.UserHandler
	Limiter     ratelimit.Limiter
	Metrics     *metrics.Metrics
}

// Register wires routes and middleware.
func Register(e *echo.Echo, deps Dependencies) {
	e.HTTPErrorHandler = HTTPErrorHandler(deps.Logger)
	e.Validator = NewValidator()
	// Rate limits key on the client IP, so forwarding headers are never trusted.
	e.IPExtractor = echo.ExtractIPDirect()

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(deps.Metrics.Middleware())
	e.Use(logging.RequestLogger(deps.Logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}

	cfg := deps.Config
	signinLimit := ratelimit.Middleware(deps.Limiter, ratelimit.Rule{
		Route:  "/auth/signin",
		Limit:  cfg.SigninRateLimit,
		Window: cfg.RateLimitWindow,
	}, deps.Metrics)
	forgotLimit := ratelimit.Middleware(deps.Limiter, ratelimit.Rule{
		Route:  "/auth/forgot-password",
		Limit:  cfg.ForgotPasswordRateLimit,
		Window: cfg.RateLimitWindow,
	}, deps.Metrics)

	authenticated := authmw.Authenticate(deps.Guard)

	// Public routes
	a := e.Group("/auth")
	a.POST("/signup", deps.AuthHandler.Signup)
	a.POST("/signin", deps.AuthHandler.Signin, signinLimit)
	a.POST("/refresh", deps.AuthHandler.Refresh)
	a.POST("/forgot-password", deps.AuthHandler.ForgotPassword, forgotLimit)
	a.GET("/reset-password-form", deps.AuthHandler.ResetPasswordForm)
	a.POST("/reset-password", deps.AuthHandler.ResetPassword)

	// Secured routes
	a.GET("/me", deps.AuthHandler.Me, authenticated)
	a.POST("/admin-only", deps.AuthHandler.AdminOnly, authenticated, authmw.RequireRole(deps.Guard, model.RoleAdmin))
	a.POST("/user-only", deps.AuthHandler.UserOnly, authenticated, authmw.RequireRole(deps.Guard, model.RoleUser))

	users := e.Group("/users", authenticated, authmw.RequireRole(deps.Guard, model.RoleAdmin))
	users.GET("", deps.UserHandler.ListUsers)
	users.GET("/:id", deps.UserHandler.GetUser)
}

// HTTPErrorHandler renders domain errors through MapErrorToHTTP. Responses already written
// are left alone, so the handler can be invoked more than once per request.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			// routing errors (404, 405) and middleware rejections from echo itself
			msg := http.StatusText(echoErr.Code)
			if s, ok := echoErr.Message.(string); ok {
				msg = s
			}
			writeError(c, echoErr.Code, apperrors.ErrorResponse{Error: msg, Code: strings.ToUpper(strings.ReplaceAll(http.StatusText(echoErr.Code), " ", "_"))})
			return
		}

		httpErr := apperrors.MapErrorToHTTP(err)
		if httpErr.StatusCode >= http.StatusInternalServerError {
			apperrors.LogError(c.Request().Context(), logger, "request failed", err)
		}
		writeError(c, httpErr.StatusCode, httpErr.ToErrorResponse())
	}
}

func writeError(c echo.Context, status int, body apperrors.ErrorResponse) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

var passwordSpecials = regexp.MustCompile(`[@$!%*#?&]`)

// strongPassword requires at least 8 characters with a lower and an upper case letter,
// a digit and one of @$!%*#?&.
func strongPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if utf8.RuneCountInString(s) < 8 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	return lower && upper && digit && passwordSpecials.MatchString(s)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator returns the request validator with the strongpassword rule registered.
// Field names in errors are the JSON names.
func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("strongpassword", strongPassword)
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
