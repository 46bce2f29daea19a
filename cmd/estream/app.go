package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/shibukawa/estream"
	"github.com/shibukawa/estream/estree"
	"github.com/shibukawa/estream/parser"
	"github.com/shibukawa/estream/schema"
	"github.com/shibukawa/estream/trace"
	"github.com/shibukawa/estream/tree"
)

// app bundles what every command needs: configuration, grammar and logger.
type app struct {
	config *estream.Config
	reg    *schema.Registry
	logger *zap.Logger
}

func loadApp(ctx *Context) (*app, error) {
	config, err := estream.LoadConfig(ctx.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if ctx.Verbose {
		config.Log.Level = "debug"
	}

	if config.Output.Color != nil && !*config.Output.Color {
		color.NoColor = true
	}

	logger, err := config.NewLogger()
	if err != nil {
		return nil, err
	}

	reg, err := loadRegistry(config)
	if err != nil {
		return nil, err
	}

	return &app{config: config, reg: reg, logger: logger}, nil
}

// loadRegistry builds the grammar named by the configuration, or returns
// the builtin one.
func loadRegistry(config *estream.Config) (*schema.Registry, error) {
	if config.Schema == "" {
		return estree.Default()
	}

	data, err := os.ReadFile(config.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", config.Schema, err)
	}

	return schema.Load(data)
}

// parseFile parses a source file, "-" being stdin. Files ending in .xml
// are read as event documents written by the events command.
func parseFile(reg *schema.Registry, path string) (*tree.Node, error) {
	var (
		data []byte
		err  error
	)

	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return nil, fmt.Errorf("%w: %s", ErrInputFileNotExist, path)
		}

		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".xml") {
		root, err := trace.ReadXML(bytes.NewReader(data), reg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		return root, nil
	}

	root, err := parser.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return root, nil
}
