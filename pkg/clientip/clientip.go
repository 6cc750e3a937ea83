package clientip

import (
	"net"
	"net/http"
	"strings"
)

// ClientIDHeader lets anonymous clients identify themselves across IP changes.
const ClientIDHeader = "X-Client-ID"

const maxClientIDLength = 64

// RealClientIP returns the client IP from the request.
// Uses r.RemoteAddr only (no proxy headers); put chi's RealIP in front when the
// service runs behind a trusted proxy.
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}

// AnonymousKey returns a stable key for an unauthenticated caller: the
// X-Client-ID header when it is present and sane, otherwise the client IP.
func AnonymousKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(ClientIDHeader)); id != "" && len(id) <= maxClientIDLength && printable(id) {
		return "client:" + id
	}
	if ip := RealClientIP(r); ip != "" {
		return "ip:" + ip
	}
	return ""
}

func printable(s string) bool {
	for _, c := range s {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
