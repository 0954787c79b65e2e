package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/schmeconomics/schmeconomics/pkg/cryptox"
)

// Refresh token failure kinds. The text of each kind is safe to show to a
// client and never contains a '.'.
var (
	ErrMalformedRefreshToken    = errors.New("malformed refresh token")
	ErrRefreshTokenNotFound     = errors.New("refresh token not found")
	ErrRefreshTokenStale        = errors.New("refresh token is stale")
	ErrRefreshTokenDoesNotMatch = errors.New("refresh token does not match")
	ErrUserIDNotFound           = errors.New("user id not found")
	ErrRefreshTokenStore        = errors.New("refresh token store error")
	ErrRefreshCancelled         = errors.New("refresh token request cancelled")
)

// RefreshTokenError describes why a refresh token was rejected. Kind is one
// of the sentinel kinds above; errors.Is matches both Kind and Err.
type RefreshTokenError struct {
	Kind      error
	Token     string
	IPAddress string
	Err       error
}

func newRefreshError(kind error, token, ip string, cause error) *RefreshTokenError {
	return &RefreshTokenError{Kind: kind, Token: token, IPAddress: ip, Err: cause}
}

// Error carries the full diagnostic. The token appears only as a
// fingerprint.
func (e *RefreshTokenError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	b.WriteString(". ")
	if e.Token != "" {
		fmt.Fprintf(&b, "token_fp=%s ", cryptox.FingerprintToken(e.Token))
	}
	fmt.Fprintf(&b, "ip=%s", e.IPAddress)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *RefreshTokenError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// PublicMessage is the part of the message before the first '.', which is
// the kind description alone.
func (e *RefreshTokenError) PublicMessage() string {
	msg, _, _ := strings.Cut(e.Error(), ".")
	return msg
}

// StatusCode maps the kind to an HTTP status.
func (e *RefreshTokenError) StatusCode() int {
	switch e.Kind {
	case ErrMalformedRefreshToken, ErrRefreshTokenStale, ErrRefreshTokenDoesNotMatch:
		return http.StatusBadRequest
	case ErrRefreshTokenNotFound, ErrUserIDNotFound:
		return http.StatusNotFound
	case ErrRefreshCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
