package main

import (
	"context"
	"fmt"
	"time"

	"github.com/shibukawa/estream/testrunner"
)

// TestCmd represents the test command
type TestCmd struct {
	Path       string `arg:"" optional:"" help:"Case document or directory" default:"testdata/cases"`
	RunPattern string `help:"Run only cases matching the regular expression" short:"r"`
	Timeout    string `help:"Test timeout duration" default:"1m"`
}

// Run executes the test command
func (cmd *TestCmd) Run(ctx *Context) error {
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.logger.Sync() //nolint:errcheck

	timeout, err := time.ParseDuration(cmd.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout duration: %w", err)
	}

	runner := testrunner.NewCaseRunner(a.reg, a.logger)
	runner.SetVerbose(ctx.Verbose)
	runner.SetOutput(ctx.Out)

	if err := runner.SetRunPattern(cmd.RunPattern); err != nil {
		return err
	}

	testCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	summary, err := runner.RunPath(testCtx, cmd.Path)
	if err != nil {
		return fmt.Errorf("case execution failed: %w", err)
	}

	if !ctx.Quiet {
		testrunner.PrintSummary(ctx.Out, summary)
	}

	if summary.FailedCases > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCasesFailed, summary.FailedCases, summary.TotalCases)
	}

	return nil
}
