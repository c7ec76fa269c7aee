package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/antoninbas/stepmark/pkg/mark"
)

// RenderSummary writes one table row per case step, preceded by the case's
// initializer row when it has one.
func RenderSummary(w io.Writer, summaries *mark.Summaries) {
	fmt.Fprintln(w, "\nResult")
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 6))

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	headers := []string{"Case", "Step", "Runs", "Time (s)", "Microtime (s)", "Memory (B)", "Fastest", "Slowest", "Magnitude"}
	table.SetHeader(headers)
	table.SetAutoMergeCells(true)
	table.SetRowLine(true)
	table.AppendBulk(summaryRows(summaries))
	table.Render()
}

func summaryRows(summaries *mark.Summaries) [][]string {
	var rows [][]string
	for _, name := range summaries.Cases() {
		cs, _ := summaries.Case(name)
		if cs.Initializer != nil {
			d := *cs.Initializer
			rows = append(rows, []string{name, mark.InitializerName, "1",
				formatTime(d.Time), formatMicrotime(d.HiTime), formatMemory(d.Memory),
				"-", "-", formatMagnitude(d.Magnitude())})
		}
		for pair := cs.Steps.Oldest(); pair != nil; pair = pair.Next() {
			s := pair.Value
			rows = append(rows, []string{name, pair.Key, strconv.Itoa(s.Runs),
				formatTime(s.Average.Time), formatMicrotime(s.Average.HiTime), formatMemory(s.Average.Memory),
				formatRanked(s.Fastest), formatRanked(s.Slowest), formatMagnitude(s.Magnitude.Average)})
		}
	}
	return rows
}

func formatTime(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatMicrotime(v float64) string {
	return fmt.Sprintf("%.9f", v)
}

func formatMemory(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func formatMagnitude(v float64) string {
	return fmt.Sprintf("%.6g", v)
}

func formatRanked(r mark.Ranked) string {
	return fmt.Sprintf("#%d %ss %sB", r.Run, formatMicrotime(r.HiTime), formatMemory(r.Memory))
}
