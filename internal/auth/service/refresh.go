package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/store"
	"github.com/schmeconomics/schmeconomics/pkg/clockx"
	"github.com/schmeconomics/schmeconomics/pkg/cryptox"
	"github.com/schmeconomics/schmeconomics/pkg/idx"
	"github.com/schmeconomics/schmeconomics/pkg/slogx"
)

const (
	DefaultRefreshTokenLifetime = 7 * 24 * time.Hour
	DefaultRefreshTokenLength   = cryptox.TokenSize512
	DefaultIPAddressMaxCount    = 10

	MinRefreshTokenLength = 64
	MaxRefreshTokenLength = 256
	MaxIPAddressMaxCount  = 255

	refreshTokenSeparator = "."
)

// RefreshTokenConfig tunes refresh token families. NewRefreshTokenService
// fills zero values with the defaults; Validate does not.
type RefreshTokenConfig struct {
	Lifetime           time.Duration
	RefreshTokenLength int // bytes of entropy in the active token
	FamilyTokenLength  int // bytes of entropy in the family token
	IPAddressMaxCount  int
}

func (c RefreshTokenConfig) withDefaults() RefreshTokenConfig {
	if c.Lifetime <= 0 {
		c.Lifetime = DefaultRefreshTokenLifetime
	}
	if c.RefreshTokenLength == 0 {
		c.RefreshTokenLength = DefaultRefreshTokenLength
	}
	if c.FamilyTokenLength == 0 {
		c.FamilyTokenLength = DefaultRefreshTokenLength
	}
	if c.IPAddressMaxCount == 0 {
		c.IPAddressMaxCount = DefaultIPAddressMaxCount
	}
	return c
}

// Validate checks the configured ranges on the values as given.
func (c RefreshTokenConfig) Validate() error {
	if c.RefreshTokenLength < MinRefreshTokenLength || c.RefreshTokenLength > MaxRefreshTokenLength {
		return fmt.Errorf("refresh token length must be within [%d, %d], got %d",
			MinRefreshTokenLength, MaxRefreshTokenLength, c.RefreshTokenLength)
	}
	if c.FamilyTokenLength < MinRefreshTokenLength || c.FamilyTokenLength > MaxRefreshTokenLength {
		return fmt.Errorf("family token length must be within [%d, %d], got %d",
			MinRefreshTokenLength, MaxRefreshTokenLength, c.FamilyTokenLength)
	}
	if c.IPAddressMaxCount < 1 || c.IPAddressMaxCount > MaxIPAddressMaxCount {
		return fmt.Errorf("ip address max count must be within [1, %d], got %d",
			MaxIPAddressMaxCount, c.IPAddressMaxCount)
	}
	return nil
}

// RefreshResult is a freshly minted or rotated refresh token together with
// the user it belongs to.
type RefreshResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// RefreshTokenService implements the family based refresh token protocol.
// A family keeps a stable family token and a single active token that
// rotates on every refresh. Presenting anything but the current active
// token revokes the whole family.
type RefreshTokenService struct {
	Store  store.Store
	Config RefreshTokenConfig
	Clock  clockx.Clock
}

func NewRefreshTokenService(st store.Store, cfg RefreshTokenConfig, clock clockx.Clock) (*RefreshTokenService, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &RefreshTokenService{
		Store:  st,
		Config: cfg,
		Clock:  clockx.OrSystem(clock),
	}, nil
}

// CreateNewToken starts a new family for userID.
func (s *RefreshTokenService) CreateNewToken(ctx context.Context, userID, ip string) (RefreshResult, error) {
	now := s.Clock.Now()
	cfg := s.Config.withDefaults()

	var result RefreshResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return newRefreshError(ErrUserIDNotFound, "", ip, fmt.Errorf("user %s", userID))
			}
			return err
		}

		familyToken, err := cryptox.GenerateToken(cfg.FamilyTokenLength)
		if err != nil {
			return err
		}
		activeToken, err := cryptox.GenerateToken(cfg.RefreshTokenLength)
		if err != nil {
			return err
		}

		family := domain.RefreshFamily{
			ID:                idx.NewAt(now).String(),
			UserID:            user.ID,
			FamilyToken:       familyToken,
			ActiveToken:       &activeToken,
			ExpiresAt:         now.Add(cfg.Lifetime),
			RecentIPAddresses: []string{ip},
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.RefreshFamilies().CreateRefreshFamily(ctx, family); err != nil {
			return err
		}

		result = RefreshResult{
			Token:     joinRefreshToken(familyToken, activeToken),
			ExpiresAt: family.ExpiresAt,
			User:      user,
		}
		return nil
	})
	if err != nil {
		return RefreshResult{}, s.storeError(ctx, err, "", ip)
	}

	slogx.FromContext(ctx).Debug("created refresh token family",
		slog.String("user_id", userID),
		slog.String("ip", ip),
	)
	return result, nil
}

// CreateFromToken rotates the active token of the family named by token.
func (s *RefreshTokenService) CreateFromToken(ctx context.Context, token, ip string) (RefreshResult, error) {
	familyToken, activeToken, ok := splitRefreshToken(token)
	if !ok {
		return RefreshResult{}, newRefreshError(ErrMalformedRefreshToken, token, ip, nil)
	}

	now := s.Clock.Now()
	cfg := s.Config.withDefaults()
	l := slogx.FromContext(ctx)

	var (
		result RefreshResult
		reuse  *RefreshTokenError
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		families := tx.RefreshFamilies()

		family, err := families.GetRefreshFamilyByFamilyToken(ctx, familyToken)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return newRefreshError(ErrRefreshTokenNotFound, token, ip, nil)
			}
			return err
		}

		if !family.Usable(now) {
			l.Warn("stale refresh token presented",
				slog.String("family_id", family.ID),
				slog.String("user_id", family.UserID),
				slog.String("ip", ip),
				slog.Bool("revoked", family.RevokedAt != nil),
			)
			return newRefreshError(ErrRefreshTokenStale, token, ip, nil)
		}

		family.RecordIP(ip, cfg.IPAddressMaxCount)
		family.UpdatedAt = now
		previous := *family.ActiveToken

		if subtle.ConstantTimeCompare([]byte(previous), []byte(activeToken)) != 1 {
			family.Revoke(now)
			if err := families.UpdateRefreshFamily(ctx, family); err != nil {
				return err
			}
			// Commit the revocation, report the mismatch afterwards.
			reuse = newRefreshError(ErrRefreshTokenDoesNotMatch, token, ip, nil)
			l.Warn("refresh token reuse detected, family revoked",
				slog.String("family_id", family.ID),
				slog.String("user_id", family.UserID),
				slog.String("ip", ip),
			)
			return nil
		}

		next, err := cryptox.GenerateToken(cfg.RefreshTokenLength)
		if err != nil {
			return err
		}
		family.ActiveToken = &next
		family.ExpiresAt = now.Add(cfg.Lifetime)

		if err := families.RotateRefreshFamily(ctx, family, previous); err != nil {
			if !errors.Is(err, store.ErrConflict) {
				return err
			}
			// Lost a race with a concurrent refresh of the same family.
			if err := revokeLatest(ctx, families, familyToken, ip, cfg.IPAddressMaxCount, now); err != nil {
				return err
			}
			reuse = newRefreshError(ErrRefreshTokenDoesNotMatch, token, ip, store.ErrConflict)
			l.Warn("concurrent refresh detected, family revoked",
				slog.String("family_id", family.ID),
				slog.String("user_id", family.UserID),
				slog.String("ip", ip),
			)
			return nil
		}

		user, err := tx.Users().GetUserByID(ctx, family.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return newRefreshError(ErrUserIDNotFound, token, ip, fmt.Errorf("user %s", family.UserID))
			}
			return err
		}

		result = RefreshResult{
			Token:     joinRefreshToken(familyToken, next),
			ExpiresAt: family.ExpiresAt,
			User:      user,
		}
		return nil
	})
	if err != nil {
		return RefreshResult{}, s.storeError(ctx, err, token, ip)
	}
	if reuse != nil {
		return RefreshResult{}, reuse
	}
	return result, nil
}

// RevokeToken revokes the family named by token. Revoking an already
// revoked family succeeds and keeps the original revocation time.
func (s *RefreshTokenService) RevokeToken(ctx context.Context, token, ip string) error {
	familyToken, _, ok := splitRefreshToken(token)
	if !ok {
		return newRefreshError(ErrMalformedRefreshToken, token, ip, nil)
	}

	now := s.Clock.Now()
	cfg := s.Config.withDefaults()

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		return revokeLatest(ctx, tx.RefreshFamilies(), familyToken, ip, cfg.IPAddressMaxCount, now)
	})
	if err != nil {
		var rte *RefreshTokenError
		if errors.As(err, &rte) {
			rte.Token = token
		}
		return s.storeError(ctx, err, token, ip)
	}

	slogx.FromContext(ctx).Debug("revoked refresh token family", slog.String("ip", ip))
	return nil
}

func revokeLatest(
	ctx context.Context,
	families store.RefreshFamilies,
	familyToken, ip string,
	maxIPs int,
	now time.Time,
) error {
	family, err := families.GetRefreshFamilyByFamilyToken(ctx, familyToken)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newRefreshError(ErrRefreshTokenNotFound, "", ip, nil)
		}
		return err
	}
	family.RecordIP(ip, maxIPs)
	family.Revoke(now)
	family.UpdatedAt = now
	return families.UpdateRefreshFamily(ctx, family)
}

// storeError passes RefreshTokenErrors through, reports a cancelled or
// expired context as ErrRefreshCancelled and wraps anything else as a store
// failure.
func (s *RefreshTokenService) storeError(ctx context.Context, err error, token, ip string) error {
	var rte *RefreshTokenError
	if errors.As(err, &rte) {
		return rte
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newRefreshError(ErrRefreshCancelled, token, ip, err)
	}
	// Some drivers report an interrupted query without wrapping ctx.Err().
	if ctxErr := ctx.Err(); ctxErr != nil {
		return newRefreshError(ErrRefreshCancelled, token, ip, fmt.Errorf("%w: %w", ctxErr, err))
	}
	return newRefreshError(ErrRefreshTokenStore, token, ip, err)
}

func joinRefreshToken(familyToken, activeToken string) string {
	return familyToken + refreshTokenSeparator + activeToken
}

func splitRefreshToken(token string) (familyToken, activeToken string, ok bool) {
	parts := strings.Split(token, refreshTokenSeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
