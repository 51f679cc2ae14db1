package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNotFound    = errors.New("cookie: not found")
	ErrShortSecret = errors.New("cookie: secret must be at least 32 bytes")
	ErrSignature   = errors.New("cookie: invalid signature")
)

const flashPrefix = "flash_"

// Jar signs cookie values with a shared secret.
type Jar struct {
	secret   []byte
	path     string
	secure   bool
	sameSite http.SameSite
}

type Option func(*Jar)

func WithPath(path string) Option { return func(j *Jar) { j.path = path } }

func WithSecure(secure bool) Option { return func(j *Jar) { j.secure = secure } }

func WithSameSite(s http.SameSite) Option { return func(j *Jar) { j.sameSite = s } }

func New(secret string, opts ...Option) (*Jar, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	j := &Jar{secret: []byte(secret), path: "/", sameSite: http.SameSiteLaxMode}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

func (j *Jar) Set(w http.ResponseWriter, name, value string, maxAge int) {
	mac := j.sign([]byte(value))
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value)) + "." + base64.RawURLEncoding.EncodeToString(mac)
	http.SetCookie(w, j.cookie(name, encoded, maxAge))
}

func (j *Jar) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		return "", ErrNotFound
	}

	rawValue, rawMAC, found := strings.Cut(c.Value, ".")
	if !found {
		return "", ErrSignature
	}
	value, err := base64.RawURLEncoding.DecodeString(rawValue)
	if err != nil {
		return "", ErrSignature
	}
	mac, err := base64.RawURLEncoding.DecodeString(rawMAC)
	if err != nil || !hmac.Equal(mac, j.sign(value)) {
		return "", ErrSignature
	}
	return string(value), nil
}

func (j *Jar) Delete(w http.ResponseWriter, name string) {
	http.SetCookie(w, j.cookie(name, "", -1))
}

// SetFlash stores v until the next PopFlash for the same key.
func (j *Jar) SetFlash(w http.ResponseWriter, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	j.Set(w, flashPrefix+key, string(data), 0)
	return nil
}

// PopFlash decodes the flash stored under key into dest and clears it.
func (j *Jar) PopFlash(w http.ResponseWriter, r *http.Request, key string, dest any) error {
	raw, err := j.Get(r, flashPrefix+key)
	if err != nil {
		return err
	}
	j.Delete(w, flashPrefix+key)
	return json.Unmarshal([]byte(raw), dest)
}

func (j *Jar) sign(value []byte) []byte {
	h := hmac.New(sha256.New, j.secret)
	h.Write(value)
	return h.Sum(nil)
}

func (j *Jar) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     j.path,
		MaxAge:   maxAge,
		Secure:   j.secure,
		HttpOnly: true,
		SameSite: j.sameSite,
	}
}
