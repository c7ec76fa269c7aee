package mark

import (
	"context"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"k8s.io/klog/v2"
)

// DefaultRunCount is used when Config.RunCount is zero.
const DefaultRunCount = 1000

// Config is the explicit harness configuration passed at construction.
type Config struct {
	// RunCount is the number of measured executions of every step of every case.
	RunCount int
	// Steps lists the steps every case must implement, in execution order.
	Steps []string
}

type RunnerOption func(*Runner)

// WithSampler replaces the runtime sampler.
func WithSampler(s Sampler) RunnerOption {
	return func(r *Runner) {
		r.sampler = s
	}
}

// Runner owns the declared steps and the registered cases, and executes them.
// A Runner is not safe for concurrent use.
type Runner struct {
	steps    []string
	declared map[string]struct{}
	runCount int
	cases    *orderedmap.OrderedMap[string, *Case]
	sampler  Sampler
}

func New(cfg Config, opts ...RunnerOption) (*Runner, error) {
	r := &Runner{
		declared: make(map[string]struct{}, len(cfg.Steps)),
		runCount: DefaultRunCount,
		cases:    orderedmap.New[string, *Case](),
	}
	for _, name := range cfg.Steps {
		if name == "" || name == InitializerName {
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidStep, name)
		}
		if _, ok := r.declared[name]; ok {
			return nil, fmt.Errorf("%w: '%s' is declared more than once", ErrInvalidStep, name)
		}
		r.declared[name] = struct{}{}
		r.steps = append(r.steps, name)
	}
	if cfg.RunCount != 0 {
		if err := r.SetRunCount(cfg.RunCount); err != nil {
			return nil, err
		}
	}
	for _, o := range opts {
		o(r)
	}
	if r.sampler == nil {
		r.sampler = NewRuntimeSampler()
	}
	return r, nil
}

// Steps returns the declared steps in declaration order.
func (r *Runner) Steps() []string {
	return append([]string(nil), r.steps...)
}

func (r *Runner) IsStepDeclared(name string) bool {
	_, ok := r.declared[name]
	return ok
}

func (r *Runner) SetRunCount(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d, must be positive", ErrInvalidRunCount, n)
	}
	r.runCount = n
	return nil
}

func (r *Runner) RunCount() int {
	return r.runCount
}

// AddCase registers a new case under name and returns it.
func (r *Runner) AddCase(name string) (*Case, error) {
	if _, ok := r.cases.Get(name); ok {
		return nil, fmt.Errorf("%w: '%s'", ErrDuplicateCase, name)
	}
	c := &Case{
		name:   name,
		runner: r,
		steps:  make(map[string]step, len(r.steps)),
	}
	r.cases.Set(name, c)
	return c, nil
}

// Cases returns the registered cases in registration order.
func (r *Runner) Cases() []*Case {
	cases := make([]*Case, 0, r.cases.Len())
	for pair := r.cases.Oldest(); pair != nil; pair = pair.Next() {
		cases = append(cases, pair.Value)
	}
	return cases
}

// ValidateSetup checks that every case implements every declared step. The
// initializer is optional.
func (r *Runner) ValidateSetup() error {
	var missing []MissingStep
	for pair := r.cases.Oldest(); pair != nil; pair = pair.Next() {
		for _, name := range r.steps {
			if !pair.Value.HasStep(name) {
				missing = append(missing, MissingStep{Case: pair.Key, Step: name})
			}
		}
	}
	if len(missing) > 0 {
		return &IncompleteError{Missing: missing}
	}
	return nil
}

// Run validates the setup, then executes every case in registration order:
// the initializer once, then each declared step RunCount times. Nothing is
// executed when validation fails. When an operation fails or ctx is done, Run
// returns an *AbortError carrying the samples recorded so far.
func (r *Runner) Run(ctx context.Context) (*ResultStore, error) {
	if err := r.ValidateSetup(); err != nil {
		return nil, err
	}

	logger := klog.FromContext(ctx)
	logger.Info("Running benchmark", "cases", r.cases.Len(), "steps", r.steps, "runs", r.runCount)

	store := newResultStore()
	for pair := r.cases.Oldest(); pair != nil; pair = pair.Next() {
		if err := r.runCase(ctx, pair.Value, store); err != nil {
			return nil, err
		}
	}

	logger.Info("Benchmark finished", "samples", store.Len())
	return store, nil
}

func (r *Runner) runCase(ctx context.Context, c *Case, store *ResultStore) error {
	logger := klog.FromContext(ctx).WithValues("case", c.name)
	logger.V(2).Info("Running case")

	abort := func(stepName string, run int, err error) error {
		return &AbortError{Case: c.name, Step: stepName, Run: run, Err: err, Partial: store}
	}

	// Each invocation and each stored Sample get their own copy of initArgs.
	initArgs := []interface{}{}
	if initFn := c.initializer; initFn != nil {
		if err := ctx.Err(); err != nil {
			return abort(InitializerName, 0, err)
		}
		var values []interface{}
		sample, err := r.measure(0, []interface{}{}, c.label(InitializerName), func() (interface{}, error) {
			var err error
			values, err = initFn()
			return values, err
		})
		if err != nil {
			return abort(InitializerName, 0, err)
		}
		store.record(c.name, InitializerName, sample)
		if values != nil {
			initArgs = copyArgs(values)
		}
		logger.V(4).Info("Measured initializer", "delta", sample.Delta())
	}

	for _, name := range r.steps {
		op, err := c.Step(name)
		if err != nil {
			return err
		}
		label := c.label(name)
		for run := 1; run <= r.runCount; run++ {
			if err := ctx.Err(); err != nil {
				return abort(name, run, err)
			}
			in := copyArgs(initArgs)
			sample, err := r.measure(run, copyArgs(initArgs), label, func() (interface{}, error) {
				return op(in...)
			})
			if err != nil {
				return abort(name, run, err)
			}
			store.record(c.name, name, sample)
			logger.V(4).Info("Measured step", "step", name, "run", run, "delta", sample.Delta())
		}
	}
	return nil
}

func (r *Runner) measure(run int, args []interface{}, label string, call func() (interface{}, error)) (Sample, error) {
	start := r.sampler.Snapshot()
	result, err := call()
	end := r.sampler.Snapshot()
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Run:       run,
		Start:     start,
		End:       end,
		Arguments: args,
		Result:    result,
		Label:     label,
	}, nil
}

// copyArgs is a shallow copy: values referenced by pointers, maps or slices
// inside args are still shared.
func copyArgs(args []interface{}) []interface{} {
	return append([]interface{}{}, args...)
}

// Summarize reduces store using the runner's declared steps.
func (r *Runner) Summarize(store *ResultStore) (*Summaries, error) {
	return Summarize(store, r.steps)
}
