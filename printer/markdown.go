package printer

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shibukawa/estream/tree"
)

// Parser turns source text into a File node.
type Parser interface {
	Parse(src string) (*tree.Node, error)
}

// MarkdownFormatter reprints JavaScript code blocks within Markdown files,
// one top level statement per line.
type MarkdownFormatter struct {
	parser Parser
}

// NewMarkdownFormatter creates a new Markdown formatter
func NewMarkdownFormatter(parser Parser) *MarkdownFormatter {
	return &MarkdownFormatter{parser: parser}
}

var (
	jsBlockStartRe = regexp.MustCompile("^(\\s*)`{3}(?:js|javascript)\\s*$")
	codeBlockEndRe = regexp.MustCompile("^(\\s*)`{3}\\s*$")
)

// Format formats the code blocks of markdown. Blocks that fail to parse are
// kept as they are.
func (f *MarkdownFormatter) Format(markdown string) (string, error) {
	var (
		result      strings.Builder
		inBlock     bool
		content     strings.Builder
		blockIndent string
	)

	scanner := bufio.NewScanner(strings.NewReader(markdown))

	for scanner.Scan() {
		line := scanner.Text()

		if !inBlock {
			if match := jsBlockStartRe.FindStringSubmatch(line); match != nil {
				inBlock = true
				blockIndent = match[1]

				content.Reset()
			}

			result.WriteString(line)
			result.WriteString("\n")

			continue
		}

		if codeBlockEndRe.MatchString(line) {
			inBlock = false

			f.writeBlock(&result, content.String(), blockIndent)
			result.WriteString(line)
			result.WriteString("\n")

			continue
		}

		content.WriteString(strings.TrimPrefix(line, blockIndent))
		content.WriteString("\n")
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading markdown: %w", err)
	}

	return strings.TrimRight(result.String(), "\n"), nil
}

func (f *MarkdownFormatter) writeBlock(result *strings.Builder, src, indent string) {
	if strings.TrimSpace(src) == "" {
		return
	}

	lines := strings.Split(strings.TrimRight(src, "\n"), "\n")

	if root, err := f.parser.Parse(src); err == nil {
		lines = Lines(root)
	}

	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			result.WriteString(indent)
			result.WriteString(line)
		}

		result.WriteString("\n")
	}
}

// FormatFromReader formats code blocks from a reader and writes to a writer
func (f *MarkdownFormatter) FormatFromReader(reader io.Reader, writer io.Writer) error {
	input, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	formatted, err := f.Format(string(input))
	if err != nil {
		return fmt.Errorf("failed to format markdown: %w", err)
	}

	_, err = writer.Write([]byte(formatted))

	return err
}

// IsMarkdownFile checks if a file is a Markdown file
func IsMarkdownFile(filename string) bool {
	return strings.ToLower(filepath.Ext(filename)) == ".md"
}
