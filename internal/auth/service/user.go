package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/pkg/clockx"
	"github.com/schmeconomics/schmeconomics/pkg/idx"
	"github.com/schmeconomics/schmeconomics/pkg/slogx"
)

const (
	MaxUserNameLength = 64
	MinPasswordLength = 8
	MaxPasswordLength = 256
)

var (
	ErrUserNameReuse    = errors.New("user name already exists")
	ErrUserMissing      = errors.New("user not found")
	ErrInvalidUserInput = errors.New("invalid user input")
	ErrForbidden        = errors.New("forbidden")
)

type UserService struct {
	Store  store.Store
	Hasher PasswordHasher
	Clock  clockx.Clock
}

// UpdateUserRequest changes the name and/or password of a user. A nil
// UserID targets the acting user.
type UpdateUserRequest struct {
	UserID   *string
	Name     *string
	Password *string
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	return u, mapUserStoreError(err)
}

func (s *UserService) GetUserByName(ctx context.Context, name string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByName(ctx, name)
	return u, mapUserStoreError(err)
}

// CreateUser adds a user with the given role.
func (s *UserService) CreateUser(ctx context.Context, name, password string, role domain.Role) (domain.User, error) {
	name = strings.TrimSpace(name)
	if err := validateName(name); err != nil {
		return domain.User{}, err
	}
	if err := validatePassword(password); err != nil {
		return domain.User{}, err
	}
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: unknown role", ErrInvalidUserInput)
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := clockx.OrSystem(s.Clock).Now()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		return domain.User{}, mapUserStoreError(err)
	}

	slogx.FromContext(ctx).Info("user created",
		slog.String("user_id", user.ID),
		slog.String("role", role.String()),
	)
	return user, nil
}

// UpdateUser applies req on behalf of actor. Only admins may update other
// users. A password change revokes every refresh token family of the user.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.User, req UpdateUserRequest) (domain.User, error) {
	targetID := actor.ID
	if req.UserID != nil && *req.UserID != actor.ID {
		if !actor.Role.Satisfies(domain.RoleAdmin) {
			return domain.User{}, ErrForbidden
		}
		targetID = *req.UserID
	}

	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if err := validateName(name); err != nil {
			return domain.User{}, err
		}
	}
	var hash string
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return domain.User{}, err
		}
		h, err := s.Hasher.Hash(*req.Password)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
		hash = h
	}

	now := clockx.OrSystem(s.Clock).Now()
	var updated domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, targetID)
		if err != nil {
			return err
		}
		if req.Name != nil {
			user.Name = name
		}
		if req.Password != nil {
			user.PasswordHash = hash
		}
		user.UpdatedAt = now
		if err := tx.Users().UpdateUser(ctx, user); err != nil {
			return err
		}
		if req.Password != nil {
			if _, err := tx.RefreshFamilies().RevokeUserRefreshFamilies(ctx, user.ID, now); err != nil {
				return err
			}
		}
		updated = user
		return nil
	})
	if err != nil {
		return domain.User{}, mapUserStoreError(err)
	}

	slogx.FromContext(ctx).Info("user updated",
		slog.String("user_id", updated.ID),
		slog.String("actor_id", actor.ID),
		slog.Bool("password_changed", req.Password != nil),
	)
	return updated, nil
}

// DeleteUser removes a user and, through the schema, its refresh families.
func (s *UserService) DeleteUser(ctx context.Context, userID string) (domain.User, error) {
	var deleted domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.Users().DeleteUser(ctx, userID); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		return domain.User{}, mapUserStoreError(err)
	}

	slogx.FromContext(ctx).Info("user deleted", slog.String("user_id", userID))
	return deleted, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidUserInput)
	}
	if utf8.RuneCountInString(name) > MaxUserNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidUserInput, MaxUserNameLength)
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return fmt.Errorf("%w: password must be %d to %d characters",
			ErrInvalidUserInput, MinPasswordLength, MaxPasswordLength)
	}
	return nil
}

func mapUserStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrUserMissing
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrUserNameReuse
	default:
		return err
	}
}
