// Package identity reads the caller identity established by the upstream
// authentication proxy.
package identity

import (
	"net/http"
	"strings"
)

// UserIDHeader carries the authenticated user's id. Requests without it are
// anonymous.
const UserIDHeader = "X-User-ID"

func UserID(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(UserIDHeader))
	return id, id != ""
}
