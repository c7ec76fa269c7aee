package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"unicode"

	"github.com/antoninbas/stepmark/pkg/mark"
)

// BenchmarkName returns the Go benchmark name used for a case step.
func BenchmarkName(caseName, stepName string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return '_'
			}
			return r
		}, s)
	}
	return fmt.Sprintf("Benchmark%s/%s", clean(caseName), clean(stepName))
}

// WriteGoBench writes the average of every case step in Go benchmark text
// format, so results can be read by benchmark/parse and benchstat. B/op is
// unsigned in that format: negative memory averages are written as 0.
func WriteGoBench(w io.Writer, summaries *mark.Summaries) error {
	for _, name := range summaries.Cases() {
		cs, _ := summaries.Case(name)
		for pair := cs.Steps.Oldest(); pair != nil; pair = pair.Next() {
			s := pair.Value
			bytes := math.Round(s.Average.Memory)
			if bytes < 0 {
				bytes = 0
			}
			_, err := fmt.Fprintf(w, "%s\t%d\t%.2f ns/op\t%d B/op\n",
				BenchmarkName(name, pair.Key), s.Runs, s.Average.HiTime*1e9, uint64(bytes))
			if err != nil {
				return err
			}
		}
	}
	return nil
}
