// Package markdownparser reads golden case documents: markdown files where
// every second level section holds a JavaScript source block and a YAML
// block describing what running it must produce.
package markdownparser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Sentinel errors
var (
	ErrInvalidFrontMatter = errors.New("invalid front matter")
	ErrInvalidCase        = errors.New("invalid case")
	ErrUnknownOperation   = errors.New("unknown operation")
)

// Operations a case can run.
const (
	OperationPrint   = "print"
	OperationResolve = "resolve"
	OperationMatch   = "match"
	OperationEvents  = "events"
)

// CaseDocument represents a parsed case document
type CaseDocument struct {
	Title    string
	Metadata map[string]any
	Cases    []Case
}

// Case is one section of a case document.
type Case struct {
	Name        string
	Description string
	Source      string
	// SourceLine is the line of the first source line in the document.
	SourceLine int
	Expect     Expectation
}

// Expectation is the YAML block of a case.
type Expectation struct {
	Operation       string              `yaml:"operation"`
	Pattern         string              `yaml:"pattern"`
	Where           string              `yaml:"where"`
	CheckCollisions bool                `yaml:"check_collisions"`
	NameStyle       string              `yaml:"name_style"`
	Output          string              `yaml:"output"`
	Lines           []string            `yaml:"lines"`
	Matches         []map[string]string `yaml:"matches"`
	Error           ErrorType           `yaml:"error"`
}

// Parse parses a case document
func Parse(reader io.Reader) (*CaseDocument, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	frontMatter, body, err := parseFrontMatter(string(content))
	if err != nil {
		return nil, err
	}

	defaults, err := parseDefaults(frontMatter)
	if err != nil {
		return nil, err
	}

	source := []byte(body)
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(text.NewReader(source))
	lines := newIndexToLine(source)

	doc := &CaseDocument{Metadata: frontMatter}

	var current *Case

	flush := func() error {
		if current == nil {
			return nil
		}

		if err := validateCase(current); err != nil {
			return err
		}

		doc.Cases = append(doc.Cases, *current)
		current = nil

		return nil
	}

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			heading := extractTextFromHeadingNode(node, source)

			if node.Level == 1 {
				if doc.Title == "" {
					doc.Title = heading
				}

				continue
			}

			if node.Level != 2 {
				continue
			}

			if err := flush(); err != nil {
				return nil, err
			}

			current = &Case{Name: heading, Expect: defaults}
			current.Expect.Matches = nil

		case *ast.Paragraph:
			if current != nil && current.Source == "" {
				current.Description = strings.TrimSpace(current.Description + " " + string(node.Lines().Value(source)))
			}

		case *ast.FencedCodeBlock:
			if current == nil {
				continue
			}

			code := extractCodeBlockContent(node, source)

			switch language(node, source) {
			case "js", "javascript":
				if current.Source != "" {
					return nil, fmt.Errorf("%w: %q has more than one source block", ErrInvalidCase, current.Name)
				}

				current.Source = code
				if node.Lines().Len() > 0 {
					current.SourceLine = lines.lineFor(node.Lines().At(0).Start)
				}

			case "yaml", "yml":
				if err := decodeExpectation(code, &current.Expect); err != nil {
					return nil, fmt.Errorf("%w: %q: %w", ErrInvalidCase, current.Name, err)
				}
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return doc, nil
}

func decodeExpectation(src string, exp *Expectation) error {
	dec := yaml.NewDecoder(strings.NewReader(src))
	dec.KnownFields(true)

	if err := dec.Decode(exp); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if exp.Error != "" {
		kind, err := ParseExpectedError(string(exp.Error))
		if err != nil {
			return err
		}

		exp.Error = kind
	}

	return nil
}

func validateCase(c *Case) error {
	if c.Source == "" {
		return fmt.Errorf("%w: %q has no js block", ErrInvalidCase, c.Name)
	}

	switch c.Expect.Operation {
	case "":
		c.Expect.Operation = OperationPrint
	case OperationPrint, OperationResolve, OperationEvents:
	case OperationMatch:
		if c.Expect.Pattern == "" {
			return fmt.Errorf("%w: %q is a match case without pattern", ErrInvalidCase, c.Name)
		}
	default:
		return fmt.Errorf("%w: %q in %q", ErrUnknownOperation, c.Expect.Operation, c.Name)
	}

	return nil
}

// extractTextFromHeadingNode extracts text content from a heading AST node
func extractTextFromHeadingNode(heading ast.Node, content []byte) string {
	var result strings.Builder

	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			result.Write(node.Segment.Value(content))
		case *ast.String:
			result.Write(node.Value)
		}

		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(result.String())
}

func language(codeBlock *ast.FencedCodeBlock, content []byte) string {
	if codeBlock.Info == nil {
		return ""
	}

	info := strings.TrimSpace(string(codeBlock.Info.Segment.Value(content)))
	if i := strings.IndexByte(info, ' '); i >= 0 {
		info = info[:i]
	}

	return strings.ToLower(info)
}

// extractCodeBlockContent extracts the actual content from a code block AST node
func extractCodeBlockContent(codeBlock ast.Node, content []byte) string {
	var result strings.Builder

	for i := 0; i < codeBlock.Lines().Len(); i++ {
		line := codeBlock.Lines().At(i)
		result.Write(line.Value(content))
	}

	return strings.TrimRight(result.String(), "\n")
}

// IsCaseDocument reports whether path names a markdown file.
func IsCaseDocument(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}
