package markdownparser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
)

var errDefaultsMapType = errors.New("defaults must be a map with string keys")

// parseFrontMatter extracts YAML front matter from markdown content
func parseFrontMatter(content string) (map[string]any, string, error) {
	if !strings.HasPrefix(content, "---\n") {
		return make(map[string]any), content, nil
	}

	endIndex := strings.Index(content[4:], "\n---")
	if endIndex == -1 {
		return nil, "", ErrInvalidFrontMatter
	}

	endIndex += 4

	frontMatterContent := content[4:endIndex]

	// keep the front matter as blank lines so positions stay valid
	remainingContent := strings.Repeat("\n", strings.Count(content[:endIndex+4], "\n")) + content[endIndex+4:]

	var frontMatter map[string]any

	err := yaml.Unmarshal([]byte(frontMatterContent), &frontMatter)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
	}

	if frontMatter == nil {
		frontMatter = make(map[string]any)
	}

	return frontMatter, remainingContent, nil
}

// parseDefaults reads the "defaults" entry of the front matter, the
// expectation every case of the document starts from.
func parseDefaults(frontMatter map[string]any) (Expectation, error) {
	var defaults Expectation

	raw, ok := frontMatter["defaults"]
	if !ok || raw == nil {
		return defaults, nil
	}

	m, ok := normalizeStringMap(raw)
	if !ok {
		return defaults, errDefaultsMapType
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return defaults, fmt.Errorf("%w: %w", ErrInvalidFrontMatter, err)
	}

	if err := yaml.UnmarshalWithOptions(data, &defaults, yaml.Strict()); err != nil {
		return defaults, fmt.Errorf("%w: defaults: %w", ErrInvalidFrontMatter, err)
	}

	return defaults, nil
}

func normalizeStringMap(value any) (map[string]any, bool) {
	switch m := value.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}

			out[key] = v
		}

		return out, true
	default:
		return nil, false
	}
}
