package exchange

import (
	"errors"
	"fmt"
)

// ErrConfig is matched by every ConfigError.
var ErrConfig = errors.New("invalid exchange configuration")

// ConfigError reports a malformed exchange configuration. It is returned at
// construction time; a schedule is never built from a configuration that
// produced one.
type ConfigError struct {
	Exchange string
	Field    string
	Err      error
}

func (e *ConfigError) Error() string {
	name := e.Exchange
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("exchange %s: %s: %v", name, e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrConfig) true for any ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

func configErr(exchange, field string, format string, args ...any) *ConfigError {
	return &ConfigError{Exchange: exchange, Field: field, Err: fmt.Errorf(format, args...)}
}
