package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/evolutio/automated-orders/internal"
)

// Authenticate verifies the actor token from the Authorization bearer
// header or the CookieName cookie and stores the identity on the request.
func Authenticate(tokens *Tokens) internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id, err := tokens.Verify(extractToken(c.Request()))
			switch {
			case errors.Is(err, ErrExpiredToken):
				return internal.ErrUnauthorized("token expired").WithCause(err)
			case err != nil:
				return internal.ErrUnauthorized("").WithCause(err)
			}
			c.Set(identityKey{}, id)
			return next(c)
		}
	}
}

func extractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if ck, err := r.Cookie(CookieName); err == nil {
		return ck.Value
	}
	return ""
}

// MustIdentity returns the request identity or an unauthorized error.
func MustIdentity(c internal.Context) (*Identity, error) {
	id, ok := FromContext(c)
	if !ok {
		return nil, internal.ErrUnauthorized("")
	}
	return id, nil
}
