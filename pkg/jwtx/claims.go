package jwtx

import (
	"cmp"
	"slices"
	"time"
)

// Claim names the service relies on.
const (
	ClaimSubject   = "sub"
	ClaimName      = "name"
	ClaimRole      = "role"
	ClaimIssuer    = "iss"
	ClaimAudience  = "aud"
	ClaimIssuedAt  = "iat"
	ClaimNotBefore = "nbf"
	ClaimExpiresAt = "exp"
)

// Claim is a single name/value pair carried by an access token.
type Claim struct {
	Type  string
	Value any
}

// ClaimSet is the validated content of an access token, ordered by claim
// name.
type ClaimSet []Claim

func newClaimSet(m map[string]any) ClaimSet {
	set := make(ClaimSet, 0, len(m))
	for k, v := range m {
		set = append(set, Claim{Type: k, Value: v})
	}
	slices.SortFunc(set, func(a, b Claim) int { return cmp.Compare(a.Type, b.Type) })
	return set
}

// Get returns the value of the named claim.
func (s ClaimSet) Get(name string) (any, bool) {
	i, ok := slices.BinarySearchFunc(s, name, func(c Claim, name string) int {
		return cmp.Compare(c.Type, name)
	})
	if !ok {
		return nil, false
	}
	return s[i].Value, true
}

// String returns the named claim when it is a string, and "" otherwise.
func (s ClaimSet) String(name string) string {
	v, _ := s.Get(name)
	str, _ := v.(string)
	return str
}

func (s ClaimSet) Subject() string { return s.String(ClaimSubject) }

func (s ClaimSet) IssuedAt() time.Time  { return s.time(ClaimIssuedAt) }
func (s ClaimSet) ExpiresAt() time.Time { return s.time(ClaimExpiresAt) }

func (s ClaimSet) time(name string) time.Time {
	v, ok := s.Get(name)
	if !ok {
		return time.Time{}
	}
	switch n := v.(type) {
	case float64:
		return time.Unix(int64(n), 0).UTC()
	case int64:
		return time.Unix(n, 0).UTC()
	default:
		return time.Time{}
	}
}
