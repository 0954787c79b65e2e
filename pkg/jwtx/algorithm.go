package jwtx

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// HashAlgorithm is the HMAC variant used to sign access tokens.
type HashAlgorithm string

const (
	HS256 HashAlgorithm = "HS256"
	HS384 HashAlgorithm = "HS384"
	HS512 HashAlgorithm = "HS512"
)

// ParseHashAlgorithm accepts the JWA names (HS256, HS384, HS512) and the
// long forms HmacSha256, HmacSha384 and HmacSha512, case-insensitively.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hs256", "hmacsha256":
		return HS256, nil
	case "hs384", "hmacsha384":
		return HS384, nil
	case "hs512", "hmacsha512":
		return HS512, nil
	default:
		return "", fmt.Errorf("jwtx: unsupported hash algorithm %q", s)
	}
}

func (a HashAlgorithm) signingMethod() (*jwt.SigningMethodHMAC, error) {
	switch a {
	case HS256:
		return jwt.SigningMethodHS256, nil
	case HS384:
		return jwt.SigningMethodHS384, nil
	case HS512:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("jwtx: unsupported hash algorithm %q", string(a))
	}
}
