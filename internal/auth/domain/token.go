package domain

import "time"

// AuthResult is what sign-in and refresh hand back: the short-lived access
// token (JWT) and the composite refresh token with its expiry.
type AuthResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// RefreshFamily is the chain of refresh tokens issued to one login session.
// FamilyToken is stable for the life of the chain; ActiveToken rotates on
// every refresh and is nil once the family is revoked.
type RefreshFamily struct {
	ID                string // ULID
	UserID            string
	FamilyToken       string
	ActiveToken       *string
	ExpiresAt         time.Time
	RevokedAt         *time.Time
	RecentIPAddresses []string // most recent last
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Usable reports whether the family can still be refreshed at now.
func (f *RefreshFamily) Usable(now time.Time) bool {
	return f.ActiveToken != nil && f.RevokedAt == nil && !f.ExpiresAt.Before(now)
}

// Revoke clears the active token. The first revocation time is kept.
func (f *RefreshFamily) Revoke(now time.Time) {
	f.ActiveToken = nil
	if f.RevokedAt == nil {
		f.RevokedAt = &now
	}
}

// RecordIP appends ip and evicts the oldest entries beyond limit.
func (f *RefreshFamily) RecordIP(ip string, limit int) {
	f.RecentIPAddresses = append(f.RecentIPAddresses, ip)
	if limit > 0 && len(f.RecentIPAddresses) > limit {
		f.RecentIPAddresses = append([]string(nil), f.RecentIPAddresses[len(f.RecentIPAddresses)-limit:]...)
	}
}
