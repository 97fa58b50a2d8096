// Package errors provides small helpers for cleanup and startup errors.
package errors

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// DeferClose closes closer and logs a failure at warn level. Use it in defer
// statements so close errors are not silently dropped.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}

// Must panics if err is not nil. Only for initialization code, such as
// Lambda cold starts, where failing is the only option.
func Must(err error, msg string) {
	if err != nil {
		panic(fmt.Sprintf("%s: %v", msg, err))
	}
}

// MustValue returns v and panics if err is not nil, like Must.
func MustValue[T any](v T, err error) T {
	Must(err, "initialization failed")
	return v
}
