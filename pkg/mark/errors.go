package mark

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateCase       = errors.New("duplicate case")
	ErrUnknownStep         = errors.New("unknown step")
	ErrInvalidOperation    = errors.New("invalid operation")
	ErrIncompleteBenchmark = errors.New("the benchmark is incomplete")
	ErrEmptySampleSet      = errors.New("empty sample set")
	ErrMissingStep         = errors.New("missing step")
	ErrInvalidRunCount     = errors.New("invalid run count")
	ErrInvalidStep         = errors.New("invalid step name")
)

// MissingStep identifies a declared step that a case does not implement.
type MissingStep struct {
	Case string
	Step string
}

// IncompleteError is returned by ValidateSetup. It matches ErrIncompleteBenchmark.
type IncompleteError struct {
	Missing []MissingStep
}

func (e *IncompleteError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, fmt.Sprintf("%s.%s", m.Case, m.Step))
	}
	return fmt.Sprintf("%v: missing %s", ErrIncompleteBenchmark, strings.Join(parts, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncompleteBenchmark
}

// AbortError is returned by Run when an operation fails or the context is done
// before every operation was measured. Partial holds the samples recorded up to
// that point; they are complete and valid.
type AbortError struct {
	Case    string
	Step    string
	Run     int
	Err     error
	Partial *ResultStore
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("run aborted at case '%s' step '%s' run %d: %v", e.Case, e.Step, e.Run, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}
