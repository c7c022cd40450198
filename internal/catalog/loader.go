package catalog

import (
	"embed"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// defaultCatalogPath inside the embedded FS
const defaultCatalogPath = "catalogs/default.yaml"

// File is the YAML layout of a catalog
type File struct {
	Name       string          `yaml:"name"`
	Parameters []ParameterRule `yaml:"parameters"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the built-in catalog, loaded and validated once per process
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		data, err := catalogFS.ReadFile(defaultCatalogPath)
		if err != nil {
			defaultErr = fmt.Errorf("failed to read embedded catalog: %w", err)
			return
		}
		defaultCatalog, defaultErr = Parse(data)
	})
	return defaultCatalog, defaultErr
}

// MustDefault returns the built-in catalog or panics (for tests and init)
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("default catalog: %v", err))
	}
	return c
}

// Parse a YAML catalog document
func Parse(data []byte) (*Catalog, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	if len(f.Parameters) == 0 {
		return nil, fmt.Errorf("catalog must define at least one parameter")
	}
	return New(f.Name, f.Parameters)
}

// Load a catalog file, or the built-in catalog when path is empty
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(data)
}
