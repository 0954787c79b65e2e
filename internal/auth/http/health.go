package http

import (
	"context"
	"net/http"
	"time"

	"github.com/schmeconomics/schmeconomics/pkg/authsdk"
	"github.com/schmeconomics/schmeconomics/pkg/httpx"
)

const readinessTimeout = 2 * time.Second

// CurrentSecret is satisfied by jwtx.SecretManager.
type CurrentSecret interface {
	Current(ctx context.Context) ([]byte, error)
}

// Pinger is satisfied by store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

func health(status string, startTime time.Time, version string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Version: version,
	}
}

// LivezHandler godoc
//
//	@Summary		Liveness probe
//	@Description	Always 200 while the process runs.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, health("ok", startTime, version))
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	Pings the database and asks the secret manager for a current signing secret.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse
//	@Failure		503	{object}	authsdk.HealthResponse	"a dependency failed"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, db Pinger, secrets CurrentSecret) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := &authsdk.HealthChecks{
			Database: checkResult(db.Ping(ctx)),
			Secrets: checkResult(func() error {
				_, err := secrets.Current(ctx)
				return err
			}()),
		}

		resp := health("ok", startTime, version)
		resp.Checks = checks
		code := http.StatusOK
		if checks.Database != "ok" || checks.Secrets != "ok" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, code, resp)
	}
}

func checkResult(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
