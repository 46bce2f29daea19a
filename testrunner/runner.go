// Package testrunner executes golden case documents: markdown files whose
// sections pair a JavaScript snippet with the expected outcome of printing,
// resolving, matching or tracing it.
package testrunner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/binding"
	"github.com/shibukawa/estream/kit"
	"github.com/shibukawa/estream/markdownparser"
	"github.com/shibukawa/estream/match"
	"github.com/shibukawa/estream/parser"
	"github.com/shibukawa/estream/printer"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/scope"
	"github.com/shibukawa/estream/stream"
	"github.com/shibukawa/estream/trace"
	"github.com/shibukawa/estream/tree"
)

// ErrMismatch is returned when a case produces something else than expected.
var ErrMismatch = errors.New("unexpected result")

// CaseRunner runs case documents against one grammar.
type CaseRunner struct {
	reg        *schema.Registry
	frags      *kit.Fragments
	logger     *zap.Logger
	out        io.Writer
	verbose    bool
	runPattern *regexp.Regexp
}

// Result is the outcome of one case.
type Result struct {
	File     string
	Case     string
	Line     int
	Success  bool
	Duration time.Duration
	Error    error
}

// Summary collects the results of a run.
type Summary struct {
	TotalCases    int
	PassedCases   int
	FailedCases   int
	TotalDuration time.Duration
	Results       []Result
}

// outcome is what running a case produced.
type outcome struct {
	output  string
	lines   []string
	matches []map[string]string
}

// NewCaseRunner creates a runner for reg. A nil logger disables logging.
func NewCaseRunner(reg *schema.Registry, logger *zap.Logger) *CaseRunner {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CaseRunner{
		reg:    reg,
		frags:  kit.NewFragments(reg, parser.New()),
		logger: logger,
		out:    os.Stdout,
	}
}

// SetVerbose enables or disables per case output
func (r *CaseRunner) SetVerbose(verbose bool) {
	r.verbose = verbose
}

// SetOutput redirects verbose output.
func (r *CaseRunner) SetOutput(w io.Writer) {
	r.out = w
}

// SetRunPattern sets the case name filter pattern
func (r *CaseRunner) SetRunPattern(pattern string) error {
	if pattern == "" {
		r.runPattern = nil
		return nil
	}

	regex, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid run pattern: %w", err)
	}

	r.runPattern = regex

	return nil
}

// RunPath runs every case document under path, or path itself when it is
// a file.
func (r *CaseRunner) RunPath(ctx context.Context, path string) (*Summary, error) {
	var files []string

	err := walkAndProcessFiles(path, false, func(p string, info os.FileInfo) {
		if markdownparser.IsCaseDocument(p) {
			files = append(files, p)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find case documents: %w", err)
	}

	slices.Sort(files)

	if r.verbose {
		fmt.Fprintf(r.out, "Found %d case documents\n", len(files))
	}

	summary := &Summary{}
	start := time.Now()

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		results, err := r.RunFile(ctx, file)
		if err != nil {
			return nil, err
		}

		for _, res := range results {
			summary.add(res)
		}
	}

	summary.TotalDuration = time.Since(start)

	return summary, nil
}

// RunFile parses and runs one case document.
func (r *CaseRunner) RunFile(ctx context.Context, file string) ([]Result, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open case document: %w", err)
	}
	defer f.Close()

	doc, err := markdownparser.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return r.RunDocument(ctx, file, doc)
}

// RunDocument runs the cases of a parsed document that pass the filter.
func (r *CaseRunner) RunDocument(ctx context.Context, file string, doc *markdownparser.CaseDocument) ([]Result, error) {
	results := make([]Result, 0, len(doc.Cases))

	for _, c := range doc.Cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if r.runPattern != nil && !r.runPattern.MatchString(c.Name) {
			continue
		}

		if r.verbose {
			fmt.Fprintf(r.out, "=== RUN   %s\n", c.Name)
		}

		start := time.Now()
		err := r.RunCase(c)
		res := Result{
			File:     file,
			Case:     c.Name,
			Line:     c.SourceLine,
			Success:  err == nil,
			Duration: time.Since(start),
			Error:    err,
		}

		if r.verbose {
			status := "PASS"
			if !res.Success {
				status = "FAIL"
			}

			fmt.Fprintf(r.out, "--- %s: %s (%.3fs)\n", status, c.Name, res.Duration.Seconds())

			if res.Error != nil {
				fmt.Fprintf(r.out, "    Error: %v\n", res.Error)
			}
		}

		r.logger.Debug("case finished",
			zap.String("file", file),
			zap.String("case", c.Name),
			zap.Bool("success", res.Success),
			zap.Duration("elapsed", res.Duration))

		results = append(results, res)
	}

	return results, nil
}

// RunCase runs one case and reports the first difference to its
// expectation.
func (r *CaseRunner) RunCase(c markdownparser.Case) error {
	exp := c.Expect
	got, err := r.execute(c)

	if exp.Error != "" {
		if err == nil {
			return fmt.Errorf("%w: expected %s, got success", ErrMismatch, exp.Error)
		}

		if kind := ErrorKindOf(err); kind != exp.Error {
			return fmt.Errorf("%w: expected %s, got %v", ErrMismatch, exp.Error, err)
		}

		return nil
	}

	if err != nil {
		return err
	}

	if exp.Output != "" && got.output != exp.Output {
		return fmt.Errorf("%w: output\n  expected: %s\n  actual:   %s", ErrMismatch, exp.Output, got.output)
	}

	if exp.Lines != nil && !slices.Equal(got.lines, exp.Lines) {
		return fmt.Errorf("%w: lines\n  expected:\n    %s\n  actual:\n    %s", ErrMismatch,
			strings.Join(exp.Lines, "\n    "), strings.Join(got.lines, "\n    "))
	}

	if exp.Operation == markdownparser.OperationMatch {
		return compareMatches(exp.Matches, got.matches)
	}

	return nil
}

func (r *CaseRunner) execute(c markdownparser.Case) (outcome, error) {
	root, err := parser.Parse(c.Source)
	if err != nil {
		return outcome{}, err
	}

	switch c.Expect.Operation {
	case markdownparser.OperationResolve:
		return r.resolve(root, c.Expect)
	case markdownparser.OperationMatch:
		return r.match(root, c.Expect)
	case markdownparser.OperationEvents:
		events, err := stream.Collect(stream.Produce(r.reg, root, schema.Top))
		if err != nil {
			return outcome{}, err
		}

		return outcome{lines: trace.Lines(r.reg, events)}, nil
	default:
		return outcome{output: printer.Print(root), lines: printer.Lines(root)}, nil
	}
}

func (r *CaseRunner) resolve(root *tree.Node, exp markdownparser.Expectation) (outcome, error) {
	style, err := scope.ParseNameStyle(exp.NameStyle)
	if err != nil {
		return outcome{}, err
	}

	opts := scope.Options{CheckCollisions: exp.CheckCollisions, NameStyle: style, Logger: r.logger}

	events, err := scope.Resolve(r.reg, binding.NewTable(), stream.Produce(r.reg, root, schema.Top), opts)
	if err != nil {
		return outcome{}, err
	}

	res, err := stream.Consume(r.reg, stream.Slice(events))
	if err != nil {
		return outcome{}, err
	}

	return outcome{output: printer.Print(res), lines: printer.Lines(res)}, nil
}

func (r *CaseRunner) match(root *tree.Node, exp markdownparser.Expectation) (outcome, error) {
	m, err := match.Compile(r.frags, match.Pattern{Source: exp.Pattern, Where: exp.Where})
	if err != nil {
		return outcome{}, err
	}

	events, err := stream.Collect(stream.Produce(r.reg, root, schema.Top))
	if err != nil {
		return outcome{}, err
	}

	found, err := m.Find(events)
	if err != nil {
		return outcome{}, err
	}

	var res outcome

	for _, f := range found {
		captures := make(map[string]string, len(f.Captures))
		for name, v := range f.Captures {
			captures[name] = printer.Print(v.Node)
		}

		res.matches = append(res.matches, captures)
	}

	return res, nil
}

func compareMatches(expected, actual []map[string]string) error {
	if len(expected) != len(actual) {
		return fmt.Errorf("%w: expected %d matches, got %d %v", ErrMismatch, len(expected), len(actual), actual)
	}

	for i := range expected {
		if len(expected[i]) != len(actual[i]) {
			return fmt.Errorf("%w: match %d captures %v, expected %v", ErrMismatch, i, actual[i], expected[i])
		}

		for name, want := range expected[i] {
			if got, ok := actual[i][name]; !ok || got != want {
				return fmt.Errorf("%w: match %d capture %s is %q, expected %q", ErrMismatch, i, name, got, want)
			}
		}
	}

	return nil
}

// ErrorKindOf classifies err the way case documents name failures.
func ErrorKindOf(err error) markdownparser.ErrorType {
	if errors.Is(err, parser.ErrSyntax) {
		return markdownparser.ErrorTypeSyntax
	}

	var e *estream.Error
	if errors.As(err, &e) {
		return markdownparser.ErrorType(e.Kind.String())
	}

	return ""
}

func (s *Summary) add(res Result) {
	s.TotalCases++
	if res.Success {
		s.PassedCases++
	} else {
		s.FailedCases++
	}

	s.Results = append(s.Results, res)
}

// PrintSummary prints the case execution summary
func PrintSummary(w io.Writer, summary *Summary) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "=== Case Summary ===\n")
	fmt.Fprintf(w, "Cases: %d total, %s passed, %s failed\n",
		summary.TotalCases, green(summary.PassedCases), red(summary.FailedCases))
	fmt.Fprintf(w, "Duration: %.3fs\n", summary.TotalDuration.Seconds())

	if summary.FailedCases > 0 {
		fmt.Fprintf(w, "\nFailed cases:\n")

		for _, result := range summary.Results {
			if !result.Success {
				fmt.Fprintf(w, "  %s:%d %s\n", result.File, result.Line, result.Case)

				if result.Error != nil {
					fmt.Fprintf(w, "    Error: %v\n", result.Error)
				}
			}
		}

		fmt.Fprintf(w, "\n%s\n", red("Some cases failed!"))

		return
	}

	fmt.Fprintf(w, "\n%s\n", green("All cases passed!"))
}
