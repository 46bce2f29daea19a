// Package scope resolves lexical bindings on event streams and renames
// symbols whose display names collide after tree surgery.
//
// The resolver runs over materialized events in separate walks:
//
//  1. Collect builds one binding.Block per scope boundary and mints a
//     symbol for every declaring identifier.
//  2. Assign threads a scope chain through the tree and binds every
//     reference to a declared or global symbol.
//  3. BlockRefs computes each block's frame, the symbols live in it.
//  4. Solve names anonymous symbols and renames colliding ones.
//
// Prepare runs the first two walks, Resolve all of them.
package scope

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shibukawa/estream"
)

// NameStyle selects how colliding names are disambiguated.
type NameStyle int

const (
	// NumericNames yields a, a1, a2, ...
	NumericNames NameStyle = iota
	// UnderscoreNames yields a, _a, a1, a2, ...
	UnderscoreNames
)

func (s NameStyle) String() string {
	if s == UnderscoreNames {
		return "underscore"
	}

	return "numeric"
}

// ParseNameStyle parses the configuration spelling of a style.
func ParseNameStyle(s string) (NameStyle, error) {
	switch strings.ToLower(s) {
	case "", "numeric":
		return NumericNames, nil
	case "underscore":
		return UnderscoreNames, nil
	}

	return NumericNames, fmt.Errorf("%w: unknown name style %q", estream.ErrConfigValidation, s)
}

// variant returns the pos-th disambiguation of name. Position 0 is the
// name itself.
func (s NameStyle) variant(name string, pos int) string {
	if strings.HasSuffix(name, "_") {
		return fmt.Sprintf("%s%d", name, pos+1)
	}

	if pos == 0 {
		return name
	}

	if s == UnderscoreNames {
		if pos == 1 {
			return "_" + name
		}

		return fmt.Sprintf("%s%d", name, pos-1)
	}

	return fmt.Sprintf("%s%d", name, pos)
}

// Options controls a resolver run.
type Options struct {
	// CheckCollisions reports duplicate lexical declarations in one block.
	// Intermediate runs on half rewritten trees usually turn it off.
	CheckCollisions bool
	NameStyle       NameStyle
	Logger          *zap.Logger
}

// DefaultOptions checks collisions and uses numeric names.
func DefaultOptions() Options {
	return Options{CheckCollisions: true, NameStyle: NumericNames}
}

// OptionsFromConfig converts the resolve section of a configuration.
func OptionsFromConfig(cfg *estream.Config, logger *zap.Logger) (Options, error) {
	style, err := ParseNameStyle(cfg.Resolve.NameStyle)
	if err != nil {
		return Options{}, err
	}

	return Options{CheckCollisions: cfg.Resolve.CheckCollisions, NameStyle: style, Logger: logger}, nil
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}

	return o.Logger
}
