package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// UsernameHeader carries the authenticated account name. It is set by the
// auth layer in front of this server.
const UsernameHeader = "X-Username"

// usernameFrom returns the caller's account name, or "" when the header is
// missing.
func usernameFrom(r *http.Request) string {
	return sanitizeInput(r.Header.Get(UsernameHeader))
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// requestID reuses an incoming X-Request-ID or mints a new one.
func requestID(r *http.Request) string {
	if id := sanitizeInput(r.Header.Get("X-Request-ID")); id != "" && len(id) <= 64 {
		return id
	}
	return "req_" + uuid.NewString()
}
