package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/benchmark/parse"

	"github.com/antoninbas/stepmark/pkg/mark"
)

// stepSampler advances 1µs and memDelta bytes per snapshot.
type stepSampler struct {
	tick     int64
	memDelta int64
}

func (s *stepSampler) Snapshot() mark.Snapshot {
	s.tick++
	return mark.Snapshot{WallClock: 1, HiRes: float64(s.tick) * 1e-6, MemoryBytes: 1<<20 + s.tick*s.memDelta}
}

func runFixture(t *testing.T, memDelta int64) (*mark.Runner, *mark.ResultStore, *mark.Summaries) {
	t.Helper()
	r, err := mark.New(mark.Config{RunCount: 4, Steps: []string{"loop"}}, mark.WithSampler(&stepSampler{memDelta: memDelta}))
	require.NoError(t, err)
	for _, name := range []string{"while loop", "for"} {
		c, err := r.AddCase(name)
		require.NoError(t, err)
		c.Initialize(func() ([]interface{}, error) { return []interface{}{8}, nil })
		require.NoError(t, c.RegisterStep("loop", func(args ...interface{}) (interface{}, error) {
			return args[0], nil
		}))
	}
	store, err := r.Run(context.Background())
	require.NoError(t, err)
	summaries, err := r.Summarize(store)
	require.NoError(t, err)
	return r, store, summaries
}

func TestWriteGoBench(t *testing.T) {
	testCases := []struct {
		memDelta     int64
		expectBPerOp uint64
	}{
		{memDelta: 64, expectBPerOp: 64},
		{memDelta: -64, expectBPerOp: 0},
	}
	for _, tc := range testCases {
		_, _, summaries := runFixture(t, tc.memDelta)
		var buf bytes.Buffer
		require.NoError(t, WriteGoBench(&buf, summaries))

		set, err := parse.ParseSet(&buf)
		require.NoError(t, err)
		require.Len(t, set, 2)
		b := set["Benchmarkwhile_loop/loop"]
		require.Len(t, b, 1)
		assert.Equal(t, 4, b[0].N)
		assert.InDelta(t, 1000, b[0].NsPerOp, 0.01)
		assert.Equal(t, tc.expectBPerOp, b[0].AllocedBytesPerOp)
		assert.Equal(t, 0, b[0].Ord)
		assert.Equal(t, 1, set["Benchmarkfor/loop"][0].Ord)
	}
}

func parseSet(t *testing.T, text string) parse.Set {
	t.Helper()
	set, err := parse.ParseSet(strings.NewReader(text))
	require.NoError(t, err)
	return set
}

func TestCompare(t *testing.T) {
	base := parseSet(t, "BenchmarkA/loop\t10\t100.00 ns/op\t10 B/op\nBenchmarkB/loop\t10\t100.00 ns/op\t10 B/op\n")

	testCases := []struct {
		name             string
		head             string
		compare          string
		expectRegression bool
		expectRatios     int
	}{
		{
			name:             "faster",
			head:             "BenchmarkA/loop\t10\t90.00 ns/op\t10 B/op\n",
			compare:          "ns/op,B/op",
			expectRegression: false,
			expectRatios:     1,
		},
		{
			name:             "slower over threshold",
			head:             "BenchmarkA/loop\t10\t130.00 ns/op\t10 B/op\n",
			compare:          "ns/op,B/op",
			expectRegression: true,
			expectRatios:     1,
		},
		{
			name:             "slower but ns/op not compared",
			head:             "BenchmarkA/loop\t10\t130.00 ns/op\t10 B/op\n",
			compare:          "B/op",
			expectRegression: false,
			expectRatios:     1,
		},
		{
			name:             "more memory",
			head:             "BenchmarkB/loop\t10\t100.00 ns/op\t20 B/op\n",
			compare:          "B/op",
			expectRegression: true,
			expectRatios:     1,
		},
		{
			name:             "missing from base",
			head:             "BenchmarkC/loop\t10\t100.00 ns/op\t20 B/op\n",
			compare:          "ns/op,B/op",
			expectRegression: false,
			expectRatios:     0,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := Compare(parseSet(t, tc.head), base, 0.2, tc.compare)
			assert.Equal(t, tc.expectRegression, c.Regression)
			assert.Len(t, c.Ratios, tc.expectRatios)
			assert.Len(t, c.Rows, 2)
		})
	}
}

func TestCompareAveragesRepeatedRuns(t *testing.T) {
	base := parseSet(t, "BenchmarkA/loop\t10\t100.00 ns/op\t10 B/op\n")
	head := parseSet(t, "BenchmarkA/loop\t10\t100.00 ns/op\t10 B/op\nBenchmarkA/loop\t10\t200.00 ns/op\t30 B/op\n")
	c := Compare(head, base, 0.2, "ns/op,B/op")
	require.Len(t, c.Ratios, 1)
	assert.InDelta(t, 0.5, c.Ratios[0].RatioNsPerOp, 1e-9)
	assert.InDelta(t, 1.0, c.Ratios[0].RatioAllocedBytesPerOp, 1e-9)
}

func TestRenderRatio(t *testing.T) {
	base := parseSet(t, "BenchmarkA/loop\t10\t100.00 ns/op\t10 B/op\nBenchmarkB/loop\t10\t100.00 ns/op\t10 B/op\n")
	head := parseSet(t, "BenchmarkA/loop\t10\t150.00 ns/op\t10 B/op\nBenchmarkB/loop\t10\t100.00 ns/op\t10 B/op\n")
	c := Compare(head, base, 0.2, "ns/op")

	var buf bytes.Buffer
	RenderRatio(&buf, c, true)
	out := buf.String()
	assert.Contains(t, out, "Comparison")
	assert.Contains(t, out, "BenchmarkA/loop")
	assert.NotContains(t, out, "BenchmarkB/loop")

	buf.Reset()
	RenderRatio(&buf, Compare(head, head, 0.2, "ns/op"), true)
	assert.Empty(t, buf.String())

	buf.Reset()
	RenderResult(&buf, c)
	assert.Contains(t, buf.String(), "BenchmarkB/loop")
}

func TestGenerateRatioItem(t *testing.T) {
	assert.Equal(t, "+0.00%", generateRatioItem(0.00001))
	assert.Equal(t, "+25.00%", generateRatioItem(0.25))
	assert.Equal(t, "-10.00%", generateRatioItem(-0.1))
}

func TestWhichScoreToCompare(t *testing.T) {
	assert.Equal(t, ComparedScore{NsPerOp: true, AllocedBytesPerOp: true}, WhichScoreToCompare("ns/op,B/op"))
	assert.Equal(t, ComparedScore{AllocedBytesPerOp: true}, WhichScoreToCompare("B/op"))
	assert.Equal(t, ComparedScore{}, WhichScoreToCompare(""))
}

func TestRenderSummary(t *testing.T) {
	_, _, summaries := runFixture(t, 16)
	var buf bytes.Buffer
	RenderSummary(&buf, summaries)
	out := buf.String()
	assert.Contains(t, out, "while loop")
	assert.Contains(t, out, mark.InitializerName)
	assert.Contains(t, out, "#1")
	assert.Equal(t, 4, len(summaryRows(summaries)))
}

func TestDocument(t *testing.T) {
	r, store, summaries := runFixture(t, 8)
	doc := NewDocument("1.0.0", "abc123", r, store, summaries)
	var buf bytes.Buffer
	require.NoError(t, doc.Write(&buf))

	var decoded struct {
		ID       string                                `json:"id"`
		Revision string                                `json:"revision"`
		RunCount int                                   `json:"runCount"`
		Steps    []string                              `json:"steps"`
		Results  map[string]map[string]json.RawMessage `json:"results"`
		Summary  map[string]json.RawMessage            `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotEmpty(t, decoded.ID)
	assert.Equal(t, "abc123", decoded.Revision)
	assert.Equal(t, 4, decoded.RunCount)
	assert.Equal(t, []string{"loop"}, decoded.Steps)
	assert.Contains(t, decoded.Results, "while loop")
	assert.Contains(t, decoded.Results["for"], "initializer")
	assert.Contains(t, decoded.Summary, "for")
	assert.Less(t, strings.Index(buf.String(), `"while loop"`), strings.Index(buf.String(), `"for"`))
}
