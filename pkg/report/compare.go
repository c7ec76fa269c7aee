package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/tools/benchmark/parse"
)

type Ratio struct {
	Name                   string
	RatioNsPerOp           float64
	RatioAllocedBytesPerOp float64
}

// Comparison is the result of comparing a head benchmark set to a baseline.
type Comparison struct {
	Rows       [][]string
	Ratios     []Ratio
	Threshold  float64
	Scores     ComparedScore
	Regression bool
}

type ComparedScore struct {
	NsPerOp           bool
	AllocedBytesPerOp bool
}

// WhichScoreToCompare parses a comma-separated list of units.
func WhichScoreToCompare(c string) ComparedScore {
	var comparedScore ComparedScore
	for _, cc := range strings.Split(c, ",") {
		switch strings.TrimSpace(cc) {
		case "ns/op":
			comparedScore.NsPerOp = true
		case "B/op":
			comparedScore.AllocedBytesPerOp = true
		}
	}
	return comparedScore
}

type mean struct {
	nsPerOp           float64
	allocedBytesPerOp float64
}

func average(bs []*parse.Benchmark) mean {
	var m mean
	if len(bs) == 0 {
		return m
	}
	for _, b := range bs {
		m.nsPerOp += b.NsPerOp
		m.allocedBytesPerOp += float64(b.AllocedBytesPerOp)
	}
	m.nsPerOp /= float64(len(bs))
	m.allocedBytesPerOp /= float64(len(bs))
	return m
}

// Compare computes, for every benchmark of head, the relative change against
// base. Benchmarks missing from base get a placeholder row and no ratio.
func Compare(head, base parse.Set, threshold float64, compare string) *Comparison {
	c := &Comparison{Threshold: threshold, Scores: WhichScoreToCompare(compare)}

	names := make([]string, 0, len(head))
	for name := range head {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return head[names[i]][0].Ord < head[names[j]][0].Ord
	})

	for _, name := range names {
		headBench := average(head[name])
		c.Rows = append(c.Rows, generateRow(name, "head", headBench))

		prev, ok := base[name]
		if !ok || len(prev) == 0 {
			c.Rows = append(c.Rows, []string{name, "base", "-", "-"})
			continue
		}
		prevBench := average(prev)
		c.Rows = append(c.Rows, generateRow(name, "base", prevBench))

		var ratioNsPerOp float64
		if prevBench.nsPerOp != 0 {
			ratioNsPerOp = (headBench.nsPerOp - prevBench.nsPerOp) / prevBench.nsPerOp
		}

		var ratioAllocedBytesPerOp float64
		if prevBench.allocedBytesPerOp != 0 {
			ratioAllocedBytesPerOp = (headBench.allocedBytesPerOp - prevBench.allocedBytesPerOp) / prevBench.allocedBytesPerOp
		}

		r := Ratio{Name: name, RatioNsPerOp: ratioNsPerOp, RatioAllocedBytesPerOp: ratioAllocedBytesPerOp}
		if c.isRegression(r) {
			c.Regression = true
		}
		c.Ratios = append(c.Ratios, r)
	}
	return c
}

func (c *Comparison) isRegression(r Ratio) bool {
	if c.Scores.NsPerOp && c.Threshold < r.RatioNsPerOp {
		return true
	}
	return c.Scores.AllocedBytesPerOp && c.Threshold < r.RatioAllocedBytesPerOp
}

func generateRow(name, ref string, m mean) []string {
	return []string{name, ref, fmt.Sprintf(" %.2f ns/op", m.nsPerOp),
		fmt.Sprintf(" %.0f B/op", m.allocedBytesPerOp)}
}

// RenderResult writes the head and base values side by side.
func RenderResult(w io.Writer, c *Comparison) {
	fmt.Fprintln(w, "\nResult")
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 6))

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	headers := []string{"Name", "Set", "NsPerOp", "AllocedBytesPerOp"}
	table.SetHeader(headers)
	table.SetAutoMergeCells(true)
	table.SetRowLine(true)
	table.AppendBulk(c.Rows)
	table.Render()
}

// RenderRatio writes the ratio table. With onlyRegression set, only
// regressed benchmarks are listed. Nothing is written when no row remains.
func RenderRatio(w io.Writer, c *Comparison, onlyRegression bool) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	table.SetRowLine(true)
	headers := []string{"Name", "NsPerOp", "AllocedBytesPerOp"}
	table.SetHeader(headers)

	for _, result := range c.Ratios {
		if onlyRegression && !c.isRegression(result) {
			continue
		}
		row := []string{result.Name, generateRatioItem(result.RatioNsPerOp), generateRatioItem(result.RatioAllocedBytesPerOp)}
		colors := []tablewriter.Colors{{}, generateColor(result.RatioNsPerOp), generateColor(result.RatioAllocedBytesPerOp)}
		if !c.Scores.NsPerOp {
			row[1] = "-"
			colors[1] = tablewriter.Colors{}
		}
		if !c.Scores.AllocedBytesPerOp {
			row[2] = "-"
			colors[2] = tablewriter.Colors{}
		}
		table.Rich(row, colors)
	}
	if table.NumLines() > 0 {
		fmt.Fprintln(w, "\nComparison")
		fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 10))

		table.Render()
		fmt.Fprintln(w)
	}
}

func generateRatioItem(ratio float64) string {
	if -0.0001 < ratio && ratio < 0.0001 {
		ratio = 0
	}
	if 0 <= ratio {
		return fmt.Sprintf("+%.2f%%", 100*ratio)
	}
	return fmt.Sprintf("-%.2f%%", -100*ratio)
}

func generateColor(ratio float64) tablewriter.Colors {
	if ratio > 0 {
		return tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiRedColor}
	}
	return tablewriter.Colors{tablewriter.Bold, tablewriter.FgBlueColor}
}
