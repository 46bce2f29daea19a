// Package estree ships the ECMAScript subset grammar the engine is tested
// and driven with.
package estree

import (
	_ "embed"
	"sync"

	"github.com/shibukawa/estream/schema"
)

//go:embed schema.yaml
var schemaYAML []byte

// Schema returns the raw grammar document.
func Schema() []byte {
	return schemaYAML
}

// Load builds a new registry from the embedded grammar.
func Load() (*schema.Registry, error) {
	return schema.Load(schemaYAML)
}

// Default returns a registry built once per process. Registries are
// read-only after build, so sharing it is safe.
var Default = sync.OnceValues(Load)
