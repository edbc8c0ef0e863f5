package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the peer address for rate limiting and abuse logging.
// It trusts r.RemoteAddr only; forwarding headers are spoofable and the API
// is expected to face clients directly, not sit behind a proxy that rewrites
// them.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
