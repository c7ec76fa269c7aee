package mark

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Ranked is the delta of a single run together with its run index.
type Ranked struct {
	Measurement
	Run int `json:"run"`
}

type MagnitudeSummary struct {
	Average float64 `json:"average"`
	Fastest float64 `json:"fastest"`
	Slowest float64 `json:"slowest"`
	Total   float64 `json:"total"`
}

// StepSummary is the reduction of all samples of one step of one case.
type StepSummary struct {
	Runs      int              `json:"runs"`
	Average   Measurement      `json:"average"`
	Fastest   Ranked           `json:"fastest"`
	Slowest   Ranked           `json:"slowest"`
	Total     Measurement      `json:"total"`
	Magnitude MagnitudeSummary `json:"magnitude"`
}

// Aggregator reduces per-run deltas one at a time. Runs must be added in
// run-index order: on equal magnitude the first run added is kept as both
// fastest and slowest.
type Aggregator struct {
	n              int
	total          Measurement
	totalMagnitude float64

	fastest          Ranked
	fastestMagnitude float64
	slowest          Ranked
	slowestMagnitude float64
}

func (a *Aggregator) Add(run int, d Measurement) {
	m := d.Magnitude()
	if a.n == 0 || m < a.fastestMagnitude {
		a.fastest = Ranked{Measurement: d, Run: run}
		a.fastestMagnitude = m
	}
	if a.n == 0 || m > a.slowestMagnitude {
		a.slowest = Ranked{Measurement: d, Run: run}
		a.slowestMagnitude = m
	}
	a.n++
	a.total = a.total.add(d)
	// The sum of per-run magnitudes, not the magnitude of the summed deltas.
	a.totalMagnitude += m
}

func (a *Aggregator) Summary() (StepSummary, error) {
	if a.n == 0 {
		return StepSummary{}, ErrEmptySampleSet
	}
	n := float64(a.n)
	return StepSummary{
		Runs:    a.n,
		Average: a.total.div(n),
		Fastest: a.fastest,
		Slowest: a.slowest,
		Total:   a.total,
		Magnitude: MagnitudeSummary{
			Average: a.totalMagnitude / n,
			Fastest: a.fastestMagnitude,
			Slowest: a.slowestMagnitude,
			Total:   a.totalMagnitude,
		},
	}, nil
}

// SummarizeDeltas reduces deltas, taking deltas[i] as run i+1.
func SummarizeDeltas(deltas []Measurement) (StepSummary, error) {
	var a Aggregator
	for i, d := range deltas {
		a.Add(i+1, d)
	}
	return a.Summary()
}

// CaseSummary holds the initializer delta, if the case had one, and the
// summary of every declared step.
type CaseSummary struct {
	Initializer *Measurement                                 `json:"initializer,omitempty"`
	Steps       *orderedmap.OrderedMap[string, *StepSummary] `json:"steps"`
}

// Summaries maps case name to its summary, in execution order.
type Summaries struct {
	cases *orderedmap.OrderedMap[string, *CaseSummary]
}

func (s *Summaries) Cases() []string {
	names := make([]string, 0, s.cases.Len())
	for pair := s.cases.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

func (s *Summaries) Case(name string) (*CaseSummary, bool) {
	return s.cases.Get(name)
}

// Step returns the summary of one step of one case.
func (s *Summaries) Step(caseName, stepName string) (*StepSummary, bool) {
	cs, ok := s.cases.Get(caseName)
	if !ok {
		return nil, false
	}
	return cs.Steps.Get(stepName)
}

func (s *Summaries) MarshalJSON() ([]byte, error) {
	return s.cases.MarshalJSON()
}

// Summarize reduces the samples of every case in store for each of steps.
// Every step must have at least one sample.
func Summarize(store *ResultStore, steps []string) (*Summaries, error) {
	summaries := &Summaries{cases: orderedmap.New[string, *CaseSummary]()}
	for pair := store.cases.Oldest(); pair != nil; pair = pair.Next() {
		cs := &CaseSummary{Steps: orderedmap.New[string, *StepSummary]()}
		if initSample := pair.Value.Initializer; initSample != nil {
			d := initSample.Delta()
			cs.Initializer = &d
		}
		for _, name := range steps {
			samples, _ := pair.Value.Steps.Get(name)
			var a Aggregator
			for _, sample := range samples {
				a.Add(sample.Run, sample.Delta())
			}
			summary, err := a.Summary()
			if err != nil {
				return nil, fmt.Errorf("%w: case '%s' step '%s'", err, pair.Key, name)
			}
			cs.Steps.Set(name, &summary)
		}
		summaries.cases.Set(pair.Key, cs)
	}
	return summaries, nil
}
