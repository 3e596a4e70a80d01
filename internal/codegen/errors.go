package codegen

import (
	"fmt"

	"github.com/Anoka2002/codecraftagent/internal/completion"
	"github.com/cockroachdb/errors"
)

// Kind is the client-facing classification of a failed generation
type Kind string

const (
	KindValidation Kind = "validation"
	KindNetwork    Kind = "network"
	KindInternal   Kind = "internal"
)

// ValidationError is returned when a request is rejected before any work is done
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// UnclassifiedError wraps any failure that is neither validation nor network
type UnclassifiedError struct {
	Err error
}

func (e *UnclassifiedError) Error() string {
	return e.Err.Error()
}

func (e *UnclassifiedError) Unwrap() error {
	return e.Err
}

// Classify maps an error returned by Service.Generate to its Kind.
// A nil error has no kind.
func Classify(err error) Kind {
	var ve *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return KindValidation
	case completion.IsGatewayError(err):
		return KindNetwork
	default:
		return KindInternal
	}
}
