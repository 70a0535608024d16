package input

import "fmt"

// ClientError marks failures caused by the request itself: malformed tokens,
// failed validation checks, unsupported issuers. Handlers map these to 400.
type ClientError struct {
	err error
}

func (e *ClientError) Error() string { return e.err.Error() }
func (e *ClientError) Unwrap() error { return e.err }

func ClientErrorf(format string, args ...any) error {
	return &ClientError{err: fmt.Errorf(format, args...)}
}

// ConfigError marks failures caused by the service's own configuration, such
// as a signal missing from the circuit config. These indicate a deployment
// problem, not a bad request.
type ConfigError struct {
	err error
}

func (e *ConfigError) Error() string { return e.err.Error() }
func (e *ConfigError) Unwrap() error { return e.err }

func ConfigErrorf(format string, args ...any) error {
	return &ConfigError{err: fmt.Errorf(format, args...)}
}

// ServiceError marks internal failures during proving. Handlers map these to
// 500 with a generic body so internals never leak to clients.
type ServiceError struct {
	err error
}

func (e *ServiceError) Error() string { return e.err.Error() }
func (e *ServiceError) Unwrap() error { return e.err }

func ServiceErrorf(format string, args ...any) error {
	return &ServiceError{err: fmt.Errorf(format, args...)}
}
