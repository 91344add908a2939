package catalog

import (
	"io"
	"os"

	"gopkg.in/yaml.v3"

	engerr "github.com/thornmere/condition-engine/internal/errors"
)

// Parse builds a catalog from YAML definition data
func Parse(raw []byte) (*Catalog, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, engerr.Wrap(err, "failed to parse catalog YAML")
	}
	return New(&data)
}

// Load builds a catalog from a YAML stream
func Load(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, engerr.Wrap(err, "failed to read catalog")
	}
	return Parse(raw)
}

// LoadFile builds a catalog from a YAML file
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, engerr.Wrapf(err, "failed to open catalog file %s", path)
	}
	defer f.Close() //nolint:errcheck // read-only file

	return Load(f)
}
