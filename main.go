package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"time"

	"github.com/blang/semver/v4"
	"github.com/spf13/cobra"
	"golang.org/x/tools/benchmark/parse"
	git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"

	"github.com/antoninbas/stepmark/pkg/cases"
	"github.com/antoninbas/stepmark/pkg/mark"
	"github.com/antoninbas/stepmark/pkg/report"
)

const harnessVersion = "1.0.0"

var (
	flagConfiguration = &BenchmarkConfiguration{}
	configPath        string
	format            string
	outputPath        string
	basePath          string
	headPath          string
	onlyRegression    bool
)

func main() {
	defer klog.Flush()

	if err := newRootCommand().Execute(); err != nil {
		klog.ErrorS(err, "Command failed")
		klog.Flush()
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "stepmark",
		Short:         "Run named benchmark cases step by step and summarize their resource usage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured cases and report a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.Flags().Changed("runs"), cmd.OutOrStdout())
		},
	}
	runCmd.Flags().StringVar(&configPath, "config", "", "path to the benchmark list; the built-in loop cases are used when empty")
	runCmd.Flags().IntVar(&flagConfiguration.Runs, "runs", mark.DefaultRunCount, "number of runs of every step of every case")
	runCmd.Flags().StringVar(&flagConfiguration.Timeout, "timeout", "10m", "abort the run after this duration, 0 disables the deadline")
	runCmd.Flags().StringVar(&format, "format", "table", "output format: table, gobench or json")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the report to this file instead of stdout")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two result files in Go benchmark format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return compare(cmd.OutOrStdout())
		},
	}
	compareCmd.Flags().StringVar(&basePath, "base", "", "baseline results")
	compareCmd.Flags().StringVar(&headPath, "head", "", "new results")
	compareCmd.Flags().Float64Var(&flagConfiguration.Threshold, "threshold", 0.2, "maximum accepted relative increase")
	compareCmd.Flags().StringVar(&flagConfiguration.Compare, "compare", "ns/op,B/op", "scores checked against the threshold")
	compareCmd.Flags().BoolVar(&onlyRegression, "only-regression", false, "only show regressed benchmarks")
	_ = compareCmd.MarkFlagRequired("base")
	_ = compareCmd.MarkFlagRequired("head")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the harness version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), harnessVersion)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the payloads available to cases and the steps they implement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listPayloads(cmd.OutOrStdout())
		},
	}

	root.AddCommand(runCmd, compareCmd, listCmd, versionCmd)
	return root
}

func listPayloads(w io.Writer) error {
	for _, name := range cases.Names() {
		steps, err := cases.Steps(name)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(steps, ",")); err != nil {
			return err
		}
	}
	return nil
}

func defaultBenchmarks() *BenchmarkList {
	return &BenchmarkList{
		Steps: []string{"loop"},
		Cases: []Case{
			{Name: "while"},
			{Name: "for"},
			{Name: "goto"},
		},
	}
}

func parseBenchmarks(path string) (*BenchmarkList, error) {
	if path == "" {
		return defaultBenchmarks(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	benchmarks := &BenchmarkList{}
	if err := yaml.UnmarshalStrict(data, benchmarks); err != nil {
		return nil, fmt.Errorf("failed to parse '%s': %w", path, err)
	}
	if !versionRequired(benchmarks.Requires, harnessVersion) {
		return nil, fmt.Errorf("'%s' requires harness version '%s', this is %s", path, benchmarks.Requires, harnessVersion)
	}
	return benchmarks, nil
}

func (c *BenchmarkConfiguration) applyDefaults(d *BenchmarkConfiguration) *BenchmarkConfiguration {
	if c.Runs == 0 {
		c.Runs = d.Runs
	}
	if c.Timeout == "" {
		c.Timeout = d.Timeout
	}
	if c.Threshold == 0 {
		c.Threshold = d.Threshold
	}
	if c.Compare == "" {
		c.Compare = d.Compare
	}
	return c
}

var versionPrefix = regexp.MustCompile(`v(\d)`)

func versionRequired(requirement, version string) bool {
	if requirement == "" {
		return true
	}
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return false
	}
	r, err := semver.ParseRange(versionPrefix.ReplaceAllString(requirement, "$1"))
	if err != nil {
		return false
	}
	return r(v)
}

func buildRunner(benchmarks *BenchmarkList) (*mark.Runner, error) {
	runner, err := mark.New(mark.Config{RunCount: benchmarks.Runs, Steps: benchmarks.Steps})
	if err != nil {
		return nil, err
	}
	for _, bc := range benchmarks.Cases {
		c, err := runner.AddCase(bc.Name)
		if err != nil {
			return nil, err
		}
		payload := bc.Payload
		if payload == "" {
			payload = bc.Name
		}
		var opts []mark.Option
		if bc.Label != "" {
			opts = append(opts, mark.WithLabel(bc.Label))
		}
		if err := cases.Apply(c, payload, bc.Args, runner.Steps(), opts...); err != nil {
			return nil, fmt.Errorf("unable to set up case '%s': %w", bc.Name, err)
		}
	}
	return runner, nil
}

// revision returns the HEAD commit of the repository containing path, with a
// "-dirty" suffix when the worktree has changes. It is empty outside of a
// repository.
func revision(path string) string {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		klog.V(2).InfoS("No git repository, revision not recorded", "path", path, "err", err)
		return ""
	}
	head, err := r.Head()
	if err != nil {
		klog.V(2).InfoS("Unable to get the reference where HEAD is pointing to", "err", err)
		return ""
	}
	rev := head.Hash().String()
	w, err := r.Worktree()
	if err != nil {
		return rev
	}
	if s, err := w.Status(); err == nil && !s.IsClean() {
		rev += "-dirty"
	}
	return rev
}

func run(ctx context.Context, runsChanged bool, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	benchmarks, err := parseBenchmarks(configPath)
	if err != nil {
		return err
	}
	runs := flagConfiguration.Runs
	benchmarks.applyDefaults(flagConfiguration)
	if runsChanged {
		benchmarks.Runs = runs
	}

	timeout, err := time.ParseDuration(benchmarks.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout '%s': %w", benchmarks.Timeout, err)
	}

	runner, err := buildRunner(benchmarks)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	// A timeout of zero or less disables the deadline, as with go test.
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	ctx = klog.NewContext(ctx, klog.Background().WithName("runner"))

	rev := revision(".")
	klog.InfoS("Run Benchmark", "revision", rev, "cases", len(benchmarks.Cases), "runs", runner.RunCount())
	store, err := runner.Run(ctx)
	if err != nil {
		var abort *mark.AbortError
		if errors.As(err, &abort) {
			klog.InfoS("Benchmark aborted", "case", abort.Case, "step", abort.Step, "run", abort.Run, "recordedSamples", abort.Partial.Len())
		}
		return fmt.Errorf("failed to run the benchmark: %w", err)
	}

	summaries, err := runner.Summarize(store)
	if err != nil {
		return fmt.Errorf("failed to summarize the benchmark: %w", err)
	}

	w := stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return writeReport(w, format, rev, runner, store, summaries)
}

func writeReport(w io.Writer, format, rev string, runner *mark.Runner, store *mark.ResultStore, summaries *mark.Summaries) error {
	switch strings.ToLower(format) {
	case "table":
		report.RenderSummary(w, summaries)
		return nil
	case "gobench":
		return report.WriteGoBench(w, summaries)
	case "json":
		return report.NewDocument(harnessVersion, rev, runner, store, summaries).Write(w)
	default:
		return fmt.Errorf("unknown format '%s'", format)
	}
}

func parseSetFile(path string) (parse.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := parse.ParseSet(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse a result of benchmarks: %w", err)
	}
	return s, nil
}

func compare(stdout io.Writer) error {
	base, err := parseSetFile(basePath)
	if err != nil {
		return err
	}
	head, err := parseSetFile(headPath)
	if err != nil {
		return err
	}

	c := report.Compare(head, base, flagConfiguration.Threshold, flagConfiguration.Compare)
	if !onlyRegression {
		report.RenderResult(stdout, c)
	}
	report.RenderRatio(stdout, c, onlyRegression)
	if c.Regression {
		return fmt.Errorf("'%s' makes benchmarks worse than '%s'", headPath, basePath)
	}
	return nil
}
