package completion

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind describes which stage of a completion call failed
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindDecode    ErrorKind = "decode"
	KindEmpty     ErrorKind = "empty"
)

// ErrEmptyCompletion is returned when the service answers with no usable text
var ErrEmptyCompletion = errors.New("completion service returned no text")

// GatewayError is returned for every failure talking to the completion service
type GatewayError struct {
	Kind       ErrorKind
	Provider   string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s completion %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s completion %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsGatewayError returns true if err, or anything it wraps, is a GatewayError
func IsGatewayError(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge)
}

func gatewayError(provider string, kind ErrorKind, err error) *GatewayError {
	return &GatewayError{Kind: kind, Provider: provider, Err: err}
}
