// Package cases is a catalogue of illustrative payloads that can be wired to
// benchmark cases by name.
package cases

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cast"

	"github.com/antoninbas/stepmark/pkg/mark"
)

var ErrUnknownPayload = errors.New("unknown payload")

const DefaultCount = 8

type definition struct {
	steps map[string]mark.Operation
}

var catalogue = map[string]definition{
	"while": {steps: map[string]mark.Operation{"loop": whileLoop}},
	"for":   {steps: map[string]mark.Operation{"loop": forLoop}},
	"goto":  {steps: map[string]mark.Operation{"loop": gotoLoop}},
	"slice": {steps: map[string]mark.Operation{"loop": appendLoop, "sort": sortInts}},
}

// Names returns the payload names in lexical order.
func Names() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Steps returns the steps implemented by a payload, in lexical order.
func Steps(payload string) ([]string, error) {
	def, ok := catalogue[payload]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownPayload, payload)
	}
	steps := make([]string, 0, len(def.steps))
	for name := range def.steps {
		steps = append(steps, name)
	}
	sort.Strings(steps)
	return steps, nil
}

// Apply installs the payload on c: an initializer returning the "count"
// argument, and the payload's implementation of each of steps. Steps the
// payload does not implement are left unregistered so that the runner's setup
// validation reports them.
func Apply(c *mark.Case, payload string, args map[string]interface{}, steps []string, opts ...mark.Option) error {
	def, ok := catalogue[payload]
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrUnknownPayload, payload)
	}
	count := DefaultCount
	if v, ok := args["count"]; ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("invalid count for case '%s': %w", c.Name(), err)
		}
		count = n
	}
	c.Initialize(func() ([]interface{}, error) {
		return []interface{}{count}, nil
	}, opts...)
	for _, step := range steps {
		op, ok := def.steps[step]
		if !ok {
			continue
		}
		if err := c.RegisterStep(step, op, opts...); err != nil {
			return err
		}
	}
	return nil
}

func countArg(args []interface{}) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a single count argument, got %d", len(args))
	}
	return cast.ToIntE(args[0])
}

func whileLoop(args ...interface{}) (interface{}, error) {
	count, err := countArg(args)
	if err != nil {
		return nil, err
	}
	i := 0
	for i < count {
		i++
	}
	return i, nil
}

func forLoop(args ...interface{}) (interface{}, error) {
	count, err := countArg(args)
	if err != nil {
		return nil, err
	}
	var i int
	for i = 0; i < count; i++ {
	}
	return i, nil
}

func gotoLoop(args ...interface{}) (interface{}, error) {
	count, err := countArg(args)
	if err != nil {
		return nil, err
	}
	i := 0
add:
	i++
	if i < count {
		goto add
	}
	return i, nil
}

func appendLoop(args ...interface{}) (interface{}, error) {
	count, err := countArg(args)
	if err != nil {
		return nil, err
	}
	var s []int
	for i := 0; i < count; i++ {
		s = append(s, i)
	}
	return len(s), nil
}

func sortInts(args ...interface{}) (interface{}, error) {
	count, err := countArg(args)
	if err != nil {
		return nil, err
	}
	s := make([]int, count)
	for i := range s {
		s[i] = count - i
	}
	sort.Ints(s)
	return len(s), nil
}
