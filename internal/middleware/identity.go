package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID resolves the authenticated user for rate limit keying:
// JWTAuth stores the token's sub claim under "user_id", which arrives
// as a JSON number (float64) for our numeric user IDs but may also be
// a string. Unauthenticated requests share the "anon" bucket keyed by
// client IP.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID returns a stable string identity for the requester, or
// "anon" when no user is authenticated.
func currentUserID(c echo.Context) string {
	v := c.Get("user_id")
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case uint64:
		return strconv.FormatUint(t, 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatUint(uint64(t), 10)
	}
	return "anon"
}
