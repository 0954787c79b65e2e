package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
	"github.com/schmeconomics/schmeconomics/pkg/slogx"
)

var (
	// ErrInvalidCredentials matches every sign-in failure a client may learn
	// about.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUserNotFound               = fmt.Errorf("%w: user not found", ErrInvalidCredentials)
	ErrPasswordVerificationFailed = fmt.Errorf("%w: password verification failed", ErrInvalidCredentials)

	ErrAuthRefreshProvider = errors.New("auth: refresh token provider error")
	ErrAuthTokenProvider   = errors.New("auth: access token provider error")
	ErrAuthStore           = errors.New("auth: store error")
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encodedHash, password string) error
}

// AccessTokenIssuer mints signed access tokens from a claim map.
type AccessTokenIssuer interface {
	CreateToken(ctx context.Context, claims map[string]any) (string, error)
}

// AuthService orchestrates sign-in, sign-out and refresh over the user
// store, the password hasher and the two token providers.
type AuthService struct {
	Store   store.Store
	Hasher  PasswordHasher
	Tokens  AccessTokenIssuer
	Refresh *RefreshTokenService
}

// SignIn verifies name and password and issues a token pair.
func (s *AuthService) SignIn(ctx context.Context, name, password, ip string) (domain.AuthResult, error) {
	l := slogx.FromContext(ctx)

	user, err := s.Store.Users().GetUserByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("sign-in for unknown user", slog.String("ip", ip))
			return domain.AuthResult{}, ErrUserNotFound
		}
		return domain.AuthResult{}, fmt.Errorf("%w: %w", ErrAuthStore, err)
	}

	if err := s.Hasher.Verify(user.PasswordHash, password); err != nil {
		l.Info("sign-in password verification failed",
			slog.String("user_id", user.ID),
			slog.String("ip", ip),
			slog.Any("error", err),
		)
		return domain.AuthResult{}, ErrPasswordVerificationFailed
	}

	// Mint the access token first so a signing failure leaves no family.
	access, err := s.Tokens.CreateToken(ctx, userClaims(user))
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("%w: %w", ErrAuthTokenProvider, err)
	}

	refresh, err := s.Refresh.CreateNewToken(ctx, user.ID, ip)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("%w: %w", ErrAuthRefreshProvider, err)
	}

	l.Info("user signed in", slog.String("user_id", user.ID), slog.String("ip", ip))
	return domain.AuthResult{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresAt:    refresh.ExpiresAt,
	}, nil
}

// SignOut revokes the family of refreshToken. Unknown or malformed tokens
// are not an error for the caller; only store failures and cancellation
// surface.
func (s *AuthService) SignOut(ctx context.Context, refreshToken, ip string) error {
	err := s.Refresh.RevokeToken(ctx, refreshToken, ip)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRefreshTokenStore) || errors.Is(err, ErrRefreshCancelled) {
		return fmt.Errorf("%w: %w", ErrAuthRefreshProvider, err)
	}
	slogx.FromContext(ctx).Info("sign-out with unusable refresh token", slog.Any("error", err))
	return nil
}

// RefreshToken rotates refreshToken and issues a new access token for its
// user. The result carries the rotated refresh token.
func (s *AuthService) RefreshToken(ctx context.Context, ip, refreshToken string) (domain.AuthResult, error) {
	refresh, err := s.Refresh.CreateFromToken(ctx, refreshToken, ip)
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("%w: %w", ErrAuthRefreshProvider, err)
	}

	access, err := s.Tokens.CreateToken(ctx, userClaims(refresh.User))
	if err != nil {
		return domain.AuthResult{}, fmt.Errorf("%w: %w", ErrAuthTokenProvider, err)
	}

	return domain.AuthResult{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		ExpiresAt:    refresh.ExpiresAt,
	}, nil
}

func userClaims(u domain.User) map[string]any {
	return map[string]any{
		jwtx.ClaimSubject: u.ID,
		jwtx.ClaimName:    u.Name,
		jwtx.ClaimRole:    u.Role.String(),
	}
}
