package httpx

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIP is reported when no client address can be determined.
const UnknownIP = "unknown"

// ClientIP returns the address of the caller. Proxy headers are honoured
// only when trustProxy is set; X-Forwarded-For wins over X-Real-IP.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host = strings.TrimSpace(host); host == "" {
		return UnknownIP
	}
	return host
}
