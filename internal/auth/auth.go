// Package auth verifies the actor token issued by the host application and
// gates routes on the actor's event permissions.
//
// The host signs an HS256 token whose subject is the user id. A staff
// session is only honoured when the token carries staff_session and the
// user is still staff in the database.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrMissingToken = errors.New("auth: missing token")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrExpiredToken = errors.New("auth: token expired")
	ErrShortSecret  = errors.New("auth: secret must be at least 32 bytes")
)

// CookieName is the cookie the host stores the actor token in.
const CookieName = "actor_token"

// Permissions are the actor's rights on one event.
type Permissions struct {
	Staff        bool
	ViewOrders   bool
	ChangeOrders bool
}

// Identity is the verified actor of a request.
type Identity struct {
	Email        string
	UserID       int64
	StaffSession bool
}

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
	Email        string `json:"email"`
	StaffSession bool   `json:"staff_session,omitempty"`
}

// Tokens signs and verifies actor tokens.
type Tokens struct {
	now    func() time.Time
	issuer string
	secret []byte
}

type Option func(*Tokens)

// WithIssuer requires and sets the iss claim.
func WithIssuer(iss string) Option {
	return func(t *Tokens) { t.issuer = iss }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tokens) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTokens(secret string, opts ...Option) (*Tokens, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	t := &Tokens{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Issue signs a token for id valid for ttl.
func (t *Tokens) Issue(id Identity, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(id.UserID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:        id.Email,
		StaffSession: id.StaffSession,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Verify parses token and returns the identity it grants.
func (t *Tokens) Verify(token string) (*Identity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	// Time claims are checked against the injected clock.
	now := t.now()
	if !claims.VerifyExpiresAt(now, true) {
		return nil, ErrExpiredToken
	}
	if !claims.VerifyNotBefore(now, false) {
		return nil, fmt.Errorf("%w: not valid yet", ErrInvalidToken)
	}

	if t.issuer != "" && !claims.VerifyIssuer(t.issuer, true) {
		return nil, fmt.Errorf("%w: issuer %q", ErrInvalidToken, claims.Issuer)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: subject %q", ErrInvalidToken, claims.Subject)
	}

	return &Identity{
		UserID:       userID,
		Email:        claims.Email,
		StaffSession: claims.StaffSession,
	}, nil
}

// StaffSession reports whether the actor acts with an active staff session.
func (p Permissions) StaffSession(id *Identity) bool {
	return id != nil && id.StaffSession && p.Staff
}

func (p Permissions) CanViewOrders(id *Identity) bool {
	return p.ViewOrders || p.StaffSession(id)
}

func (p Permissions) CanChangeOrders(id *Identity) bool {
	return p.ChangeOrders || p.StaffSession(id)
}

// PermissionStore loads the actor's permissions on an event.
type PermissionStore interface {
	Permissions(ctx context.Context, userID, eventID int64) (Permissions, error)
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored by the Authenticate middleware.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
