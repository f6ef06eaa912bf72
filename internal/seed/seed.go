package seed

import (
	"context"
	"errors"

	authdomain "github.com/smallbiznis/storefront/internal/auth/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/zap"
)

// EnsureAdmin creates or promotes the bootstrap admin account.
func EnsureAdmin(ctx context.Context, authSvc authdomain.Service, cfg config.BootstrapConfig, log *zap.Logger) error {
	if !cfg.EnsureAdmin {
		return nil
	}
	if authSvc == nil {
		return errors.New("seed auth service is required")
	}

	user, err := authSvc.EnsureAdmin(ctx, authdomain.SignupRequest{
		Firstname:       cfg.AdminFirstname,
		Surname:         cfg.AdminSurname,
		Email:           cfg.AdminEmail,
		Password:        cfg.AdminPassword,
		ConfirmPassword: cfg.AdminPassword,
	})
	if err != nil {
		return err
	}
	if log != nil {
		log.Named("seed").Info("bootstrap admin ready", zap.String("user_id", user.ID))
	}
	return nil
}
