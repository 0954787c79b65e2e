package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/pkg/cryptox"
	"github.com/schmeconomics/schmeconomics/pkg/slogx"
)

var (
	ErrBootstrapAlready             = errors.New("system already bootstrapped")
	ErrBootstrapFailedToCreateAdmin = errors.New("failed to create admin user")
)

// BootstrapService creates the first administrator of an empty system.
type BootstrapService struct {
	Store store.Store
	Users *UserService
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return false, err
	}
	return !empty, nil
}

// Bootstrap creates the admin described by req when no user exists yet.
// An empty password is replaced by a generated one; the password actually
// used is returned.
func (s *BootstrapService) Bootstrap(ctx context.Context, req domain.BootstrapData) (domain.User, string, error) {
	l := slogx.FromContext(ctx)

	if bootstrapped, err := s.IsBootstrapped(ctx); err != nil {
		return domain.User{}, "", err
	} else if bootstrapped {
		return domain.User{}, "", ErrBootstrapAlready
	}

	password := req.AdminPassword
	if password == "" {
		generated, err := cryptox.GeneratePassword()
		if err != nil {
			l.Error("failed to generate admin password", slog.Any("error", err))
			return domain.User{}, "", ErrBootstrapFailedToCreateAdmin
		}
		password = generated
	}

	admin, err := s.Users.CreateUser(ctx, req.AdminName, password, domain.RoleAdmin)
	if err != nil {
		l.Error("failed to create admin user",
			slog.String("admin_name", req.AdminName),
			slog.Any("error", err),
		)
		return domain.User{}, "", errors.Join(ErrBootstrapFailedToCreateAdmin, err)
	}

	l.Info("successfully bootstrapped system", slog.String("admin_user_id", admin.ID))
	return admin, password, nil
}
