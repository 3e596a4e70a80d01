package formatter

import (
	"io/fs"
	"os/exec"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnsupported indicates no formatter is registered for the tag
	ErrUnsupported = errors.New("no formatter registered")

	// ErrTimeout indicates the formatter did not finish before its deadline
	ErrTimeout = errors.New("formatter timed out")
)

// Failure outcome labels
const (
	OutcomeOK          = "ok"
	OutcomeUnsupported = "unsupported"
	OutcomeNotFound    = "not_found"
	OutcomeExit        = "exit"
	OutcomeTimeout     = "timeout"
	OutcomeError       = "error"
)

// IsNotFound returns true if the formatter executable could not be located
func IsNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

// Outcome classifies a formatter error into a metrics/log label
func Outcome(err error) string {
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrUnsupported):
		return OutcomeUnsupported
	case errors.Is(err, ErrTimeout):
		return OutcomeTimeout
	case IsNotFound(err):
		return OutcomeNotFound
	case errors.As(err, &exitErr):
		return OutcomeExit
	default:
		return OutcomeError
	}
}
