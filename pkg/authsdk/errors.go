package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/schmeconomics/schmeconomics/pkg/httpx"
)

// APIError is the error returned for every non-2xx response. StatusCode
// holds the HTTP status, Code the machine-readable error code.
type APIError = httpx.APIError

// parseErrorResponse turns an error response into an *APIError, falling
// back to the status text when the body is not the usual JSON shape.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		return &apiErr
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        httpx.ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
