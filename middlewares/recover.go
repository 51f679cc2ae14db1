package middlewares

import (
	"fmt"
	"runtime"

	"github.com/evolutio/automated-orders/internal"
)

const DefaultStackSize = 4096

// PanicError is returned to the error handler in place of a panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Recover turns panics into a *PanicError and logs them with a stack trace
// of at most stackSize bytes (DefaultStackSize when zero).
func Recover(stackSize ...int) internal.Middleware {
	size := DefaultStackSize
	if len(stackSize) > 0 && stackSize[0] > 0 {
		size = stackSize[0]
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				stack := make([]byte, size)
				stack = stack[:runtime.Stack(stack, false)]
				c.Logger().ErrorContext(c.Context(), "panic recovered",
					"panic", r,
					"path", c.Request().URL.Path,
					"stack", string(stack),
				)
				err = &PanicError{Value: r, Stack: stack}
			}()
			return next(c)
		}
	}
}
