package internal

import (
	"errors"
	"net/http"
)

// ErrNoCookieJar is returned by flash helpers when the app has no
// cookie jar configured.
var ErrNoCookieJar = errors.New("internal: no cookie jar configured")

// ErrStartupHook wraps the error of a failing OnStartup hook.
var ErrStartupHook = errors.New("internal: startup hook failed")

// HTTPError carries a status code and a user-facing message.
type HTTPError struct {
	// Err is logged, never shown.
	Err     error
	Message string
	Code    int
}

func (e *HTTPError) Error() string { return e.Message }

func (e *HTTPError) Unwrap() error { return e.Err }

func NewHTTPError(code int, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(code)
	}
	return &HTTPError{Code: code, Message: message}
}

// WithCause attaches the underlying error.
func (e *HTTPError) WithCause(err error) *HTTPError {
	e.Err = err
	return e
}

func ErrBadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

func ErrUnauthorized(message string) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message)
}

func ErrForbidden(message string) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message)
}

func ErrNotFound(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

func ErrInternal(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message)
}

// AsHTTPError returns the HTTPError in err's chain, or nil.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// DefaultErrorHandler writes the HTTPError status and message as plain
// text. Any other error is logged and answered with 500.
func DefaultErrorHandler(c Context, err error) error {
	httpErr := AsHTTPError(err)
	if httpErr == nil {
		httpErr = ErrInternal("").WithCause(err)
	}
	if httpErr.Code >= http.StatusInternalServerError {
		c.Logger().ErrorContext(c.Context(), "request failed",
			"status", httpErr.Code,
			"path", c.Request().URL.Path,
			"error", err,
		)
	}
	return c.String(httpErr.Code, httpErr.Message)
}
