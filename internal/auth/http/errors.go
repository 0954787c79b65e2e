package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/schmeconomics/schmeconomics/internal/auth/service"
	"github.com/schmeconomics/schmeconomics/pkg/httpx"
	"github.com/schmeconomics/schmeconomics/pkg/slogx"
)

// writeServiceError maps a service error to its public API error. Anything
// unrecognised is logged and reported as a server error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var refreshErr *service.RefreshTokenError
	l := slogx.FromContext(r.Context())

	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		l.Info("request cancelled", slog.Any("error", err))
		httpx.ErrUnavailable.WriteError(w)
	case errors.As(err, &refreshErr):
		status := refreshErr.StatusCode()
		apiErr := &httpx.APIError{
			StatusCode:  status,
			Code:        codeForStatus(status),
			Description: refreshErr.PublicMessage(),
		}
		if status >= http.StatusInternalServerError {
			l.Error("refresh token failure", slog.Any("error", err))
			apiErr = httpx.ErrServer
		} else {
			l.Info("refresh token rejected", slog.Any("error", err))
		}
		apiErr.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrInvalidUserInput):
		httpx.ErrBadRequest.WithDescription(err.Error()).WriteError(w)
	case errors.Is(err, service.ErrUserMissing):
		httpx.ErrNotFound.WithDescription("user not found").WriteError(w)
	case errors.Is(err, service.ErrUserNameReuse):
		httpx.ErrConflict.WithDescription("user name already exists").WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		httpx.ErrForbidden.WithDescription("cannot modify another user").WriteError(w)
	default:
		l.Error("request failed", slog.Any("error", err))
		httpx.ErrServer.WriteError(w)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusNotFound:
		return httpx.ErrorCodeNotFound
	case http.StatusBadRequest:
		return httpx.ErrorCodeInvalidRequest
	case http.StatusServiceUnavailable:
		return httpx.ErrorCodeUnavailable
	default:
		return httpx.ErrorCodeServerError
	}
}
