package mark

import (
	"fmt"
)

// InitializerName is the reserved step name under which the initializer
// sample of a case is stored.
const InitializerName = "initializer"

// Initializer runs once per case. The values it returns are passed as
// positional arguments to every step invocation of that case.
type Initializer func() ([]interface{}, error)

// Operation is a measured step.
type Operation func(args ...interface{}) (interface{}, error)

// Option configures a registered initializer or step.
type Option func(*registration)

// WithLabel attaches a caller-provided description which is copied into every
// Sample produced by the operation.
func WithLabel(label string) Option {
	return func(r *registration) {
		r.label = label
	}
}

type registration struct {
	label string
}

type step struct {
	op Operation
	registration
}

// Case is a named benchmark subject. Cases are created with Runner.AddCase.
type Case struct {
	name   string
	runner *Runner

	initializer      Initializer
	initializerLabel string
	steps            map[string]step
}

func (c *Case) Name() string {
	return c.name
}

// Initialize sets the initializer of the case, replacing any previous one.
// A nil initializer removes it.
func (c *Case) Initialize(fn Initializer, opts ...Option) *Case {
	var r registration
	for _, o := range opts {
		o(&r)
	}
	c.initializer = fn
	c.initializerLabel = r.label
	return c
}

// RegisterStep stores op as the implementation of the named step. The step
// must have been declared on the runner.
func (c *Case) RegisterStep(name string, op Operation, opts ...Option) error {
	if !c.runner.IsStepDeclared(name) {
		return fmt.Errorf("%w: runner does not have '%s' as a registered step", ErrUnknownStep, name)
	}
	if op == nil {
		return fmt.Errorf("%w: step '%s' of case '%s' requires a non-nil operation", ErrInvalidOperation, name, c.name)
	}
	s := step{op: op}
	for _, o := range opts {
		o(&s.registration)
	}
	c.steps[name] = s
	return nil
}

func (c *Case) HasStep(name string) bool {
	_, ok := c.steps[name]
	return ok
}

// Initializer returns the registered initializer, or nil.
func (c *Case) Initializer() Initializer {
	return c.initializer
}

// Step returns the operation registered for name. Callers should check HasStep
// first.
func (c *Case) Step(name string) (Operation, error) {
	s, ok := c.steps[name]
	if !ok {
		return nil, fmt.Errorf("%w: case '%s' does not implement '%s'", ErrMissingStep, c.name, name)
	}
	return s.op, nil
}

func (c *Case) label(name string) string {
	if name == InitializerName {
		return c.initializerLabel
	}
	return c.steps[name].label
}
