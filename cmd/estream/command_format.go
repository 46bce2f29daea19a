package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/shibukawa/estream/parser"
	"github.com/shibukawa/estream/printer"
)

// FormatCmd represents the format command
type FormatCmd struct {
	Input string `arg:"" optional:"" help:"Input file or directory (default: stdin)"`
	Write bool   `short:"w" help:"Write result to input file instead of stdout"`
	Check bool   `short:"c" help:"Check if files are formatted (exit 1 if not)"`
	Diff  bool   `short:"d" help:"Show diff instead of rewriting files"`
}

// formatter reformats JavaScript sources and markdown files with
// JavaScript blocks.
type formatter struct {
	markdown *printer.MarkdownFormatter
}

func newFormatter() *formatter {
	return &formatter{markdown: printer.NewMarkdownFormatter(parser.New())}
}

func (f *formatter) format(input, filename string) (string, error) {
	if printer.IsMarkdownFile(filename) {
		return f.markdown.Format(input)
	}

	root, err := parser.Parse(input)
	if err != nil {
		return "", err
	}

	return strings.Join(printer.Lines(root), "\n") + "\n", nil
}

// Run executes the format command
func (cmd *FormatCmd) Run(ctx *Context) error {
	f := newFormatter()

	if cmd.Input == "" {
		return cmd.formatFromReader(ctx, f, os.Stdin, ctx.Out, "<stdin>.js")
	}

	info, err := os.Stat(cmd.Input)
	if err != nil {
		return fmt.Errorf("failed to stat input: %w", err)
	}

	if info.IsDir() {
		return cmd.formatDirectory(ctx, f, cmd.Input)
	}

	return cmd.formatFile(ctx, f, cmd.Input)
}

// formatFromReader formats a reader and writes to a writer
func (cmd *FormatCmd) formatFromReader(ctx *Context, f *formatter, reader io.Reader, writer io.Writer, filename string) error {
	input, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	formatted, err := f.format(string(input), filename)
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", filename, err)
	}

	if cmd.Check {
		if strings.TrimSpace(string(input)) != strings.TrimSpace(formatted) {
			fmt.Fprintf(os.Stderr, "%s is not formatted\n", filename)
			return ErrFileNotFormatted
		}

		return nil
	}

	if cmd.Diff {
		showDiff(ctx.Out, string(input), formatted, filename)
		return nil
	}

	_, err = io.WriteString(writer, formatted)

	return err
}

// formatFile formats a single file, in place when --write is given
func (cmd *FormatCmd) formatFile(ctx *Context, f *formatter, filename string) (err error) {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	if !cmd.Write || cmd.Check || cmd.Diff {
		return cmd.formatFromReader(ctx, f, file, ctx.Out, filename)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filename), ".estream-format-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	defer func() {
		tempFile.Close()

		if err == nil {
			err = os.Rename(tempFile.Name(), filename)
		} else {
			os.Remove(tempFile.Name())
		}
	}()

	return cmd.formatFromReader(ctx, f, file, tempFile, filename)
}

// formatDirectory formats all JavaScript and markdown files in a directory recursively
func (cmd *FormatCmd) formatDirectory(ctx *Context, f *formatter, dirPath string) error {
	var hasErrors bool

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() || !isFormattable(path) {
			return nil
		}

		if err := cmd.formatFile(ctx, f, path); err != nil {
			color.New(color.FgRed).Fprintf(os.Stderr, "Error formatting %s: %v\n", path, err)

			hasErrors = true

			return nil
		}

		if cmd.Write && !cmd.Check && !cmd.Diff && !ctx.Quiet {
			fmt.Fprintf(ctx.Out, "Formatted: %s\n", path)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	if hasErrors {
		return ErrFormattingErrors
	}

	return nil
}

func isFormattable(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".js" || ext == ".mjs" || printer.IsMarkdownFile(filename)
}

// showDiff shows the difference between original and formatted content
func showDiff(w io.Writer, original, formatted, filename string) {
	if strings.TrimSpace(original) == strings.TrimSpace(formatted) {
		return
	}

	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Fprintf(w, "--- %s (original)\n", filename)
	fmt.Fprintf(w, "+++ %s (formatted)\n", filename)

	originalLines := strings.Split(original, "\n")
	formattedLines := strings.Split(formatted, "\n")

	for i := range max(len(originalLines), len(formattedLines)) {
		var origLine, formLine string

		if i < len(originalLines) {
			origLine = originalLines[i]
		}

		if i < len(formattedLines) {
			formLine = formattedLines[i]
		}

		if origLine == formLine {
			continue
		}

		if origLine != "" {
			fmt.Fprintln(w, red("-"+origLine))
		}

		if formLine != "" {
			fmt.Fprintln(w, green("+"+formLine))
		}
	}
}

// Help returns help text for the format command
func (cmd *FormatCmd) Help() string {
	return `Reprint JavaScript files and the JavaScript blocks of Markdown files.

Every top level statement is printed compactly on its own line. Markdown
blocks that fail to parse are left untouched.

Examples:
  # Format a single file and print to stdout
  estream format input.js

  # Format every case document in place
  estream format -w ./testdata/cases/`
}
