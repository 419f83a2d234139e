package main

import (
	"errors"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/i-yashvi/E-Commerce-Backend/internal/cache"
	apperrors "github.com/i-yashvi/E-Commerce-Backend/internal/errors"
	"github.com/i-yashvi/E-Commerce-Backend/internal/handler"
	"github.com/i-yashvi/E-Commerce-Backend/internal/metrics"
	"github.com/i-yashvi/E-Commerce-Backend/internal/model"
	"github.com/i-yashvi/E-Commerce-Backend/internal/router"
	"github.com/i-yashvi/E-Commerce-Backend/internal/service"
)

// NewSeedAdminCmd creates the seed-admin subcommand.
func NewSeedAdminCmd() *cobra.Command {
	var req handler.SignupRequest

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account",
		Long: `Create an admin account. There is no endpoint that changes roles, so this
is how the first admin gets created. An existing account is left untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Role = model.RoleAdmin.String()
			return runSeedAdmin(cmd, req)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "Administrator", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "admin email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "admin password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runSeedAdmin(cmd *cobra.Command, req handler.SignupRequest) error {
	if err := router.NewValidator().Validate(&req); err != nil {
		return oops.Code("INVALID_ADMIN").Wrap(err)
	}

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gormDB, err := openDB(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB(gormDB)

	deps, err := newStack(cfg, gormDB, cache.New("", "", 0), (*metrics.Metrics)(nil), logger)
	if err != nil {
		return err
	}

	user, err := deps.auth.Signup(cmd.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.RoleAdmin,
	})
	if errors.Is(err, apperrors.ErrConflict) {
		cmd.Printf("Account %s already exists, nothing to do\n", req.Email)
		return nil
	}
	if err != nil {
		return err
	}

	cmd.Printf("Created admin %s (%s)\n", user.Email, user.ID)
	return nil
}
