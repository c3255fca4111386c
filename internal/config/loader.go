package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedVersion is returned for catalogs whose version is not 1.
var ErrUnsupportedVersion = errors.New("unsupported catalog version")

//go:embed default.yaml
var defaultCatalog []byte

// Load reads, validates and builds the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic("config: embedded catalog is invalid: " + err.Error())
	}
	return c
}

// DefaultYAML returns the embedded catalog document.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultCatalog...)
}

// Parse decodes a YAML catalog document. All validation problems are joined
// into the returned error.
func Parse(data []byte) (*Catalog, error) {
	f, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if errs := Validate(f); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return build(f), nil
}

// Decode unmarshals a catalog document and checks its version without
// running the full validator.
func Decode(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Version != 1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	if f.Services == nil {
		f.Services = make(map[string]ServiceFile)
	}
	return &f, nil
}
