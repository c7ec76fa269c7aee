package mark

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Sample is one measured execution of an operation. Run is 0 for the
// initializer and 1..RunCount for steps.
type Sample struct {
	Run       int           `json:"run"`
	Start     Snapshot      `json:"start"`
	End       Snapshot      `json:"end"`
	Arguments []interface{} `json:"arguments"`
	Result    interface{}   `json:"result"`
	Label     string        `json:"label,omitempty"`
}

func (s Sample) Delta() Measurement {
	return Delta(s.Start, s.End)
}

// CaseResult holds the samples recorded for one case.
type CaseResult struct {
	Initializer *Sample                                  `json:"initializer,omitempty"`
	Steps       *orderedmap.OrderedMap[string, []Sample] `json:"steps"`
}

// ResultStore maps case name to step name to the samples of that step, in
// execution order.
type ResultStore struct {
	cases *orderedmap.OrderedMap[string, *CaseResult]
}

func newResultStore() *ResultStore {
	return &ResultStore{cases: orderedmap.New[string, *CaseResult]()}
}

func (s *ResultStore) record(caseName, stepName string, sample Sample) {
	cr, ok := s.cases.Get(caseName)
	if !ok {
		cr = &CaseResult{Steps: orderedmap.New[string, []Sample]()}
		s.cases.Set(caseName, cr)
	}
	if stepName == InitializerName {
		cr.Initializer = &sample
		return
	}
	samples, _ := cr.Steps.Get(stepName)
	cr.Steps.Set(stepName, append(samples, sample))
}

// Cases returns the names of the cases that have samples, in execution order.
func (s *ResultStore) Cases() []string {
	names := make([]string, 0, s.cases.Len())
	for pair := s.cases.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

func (s *ResultStore) Case(name string) (*CaseResult, bool) {
	return s.cases.Get(name)
}

// Initializer returns the initializer sample of a case.
func (s *ResultStore) Initializer(caseName string) (Sample, bool) {
	cr, ok := s.cases.Get(caseName)
	if !ok || cr.Initializer == nil {
		return Sample{}, false
	}
	return *cr.Initializer, true
}

// Samples returns a copy of the samples recorded for a step of a case.
func (s *ResultStore) Samples(caseName, stepName string) []Sample {
	cr, ok := s.cases.Get(caseName)
	if !ok {
		return nil
	}
	samples, _ := cr.Steps.Get(stepName)
	return append([]Sample(nil), samples...)
}

// Len returns the total number of samples in the store.
func (s *ResultStore) Len() int {
	n := 0
	for pair := s.cases.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Initializer != nil {
			n++
		}
		for sp := pair.Value.Steps.Oldest(); sp != nil; sp = sp.Next() {
			n += len(sp.Value)
		}
	}
	return n
}

func (s *ResultStore) MarshalJSON() ([]byte, error) {
	return s.cases.MarshalJSON()
}
