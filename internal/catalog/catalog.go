// Package catalog loads the device types and protocols offered by the device
// form from YAML.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/home-manager/backend/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Catalog is a validated, read-only device catalog.
type Catalog struct {
	data      models.Catalog
	types     map[string]models.CatalogEntry
	protocols map[string]models.CatalogEntry
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(strings.NewReader(string(defaultCatalog)))
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path or a missing file yields the
// built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	c, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse parses and validates a catalog.
func Parse(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raw models.Catalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	c := &Catalog{data: raw}
	if c.types, err = index("device type", raw.DeviceTypes); err != nil {
		return nil, err
	}
	if c.protocols, err = index("protocol", raw.Protocols); err != nil {
		return nil, err
	}
	if len(c.types) == 0 || len(c.protocols) == 0 {
		return nil, fmt.Errorf("catalog needs at least one device type and one protocol")
	}
	return c, nil
}

func index(kind string, entries []models.CatalogEntry) (map[string]models.CatalogEntry, error) {
	m := make(map[string]models.CatalogEntry, len(entries))
	for i, e := range entries {
		v := strings.ToLower(strings.TrimSpace(e.Value))
		if v == "" {
			return nil, fmt.Errorf("%s #%d has no value", kind, i+1)
		}
		if _, dup := m[v]; dup {
			return nil, fmt.Errorf("duplicate %s %q", kind, v)
		}
		if e.Label == "" {
			e.Label = e.Value
		}
		e.Value = v
		entries[i] = e
		m[v] = e
	}
	return m, nil
}

// Data returns a copy of the catalog entries in file order.
func (c *Catalog) Data() models.Catalog {
	return models.Catalog{
		DeviceTypes: append([]models.CatalogEntry(nil), c.data.DeviceTypes...),
		Protocols:   append([]models.CatalogEntry(nil), c.data.Protocols...),
	}
}

// DeviceType looks up a device type by value.
func (c *Catalog) DeviceType(value string) (models.CatalogEntry, bool) {
	e, ok := c.types[strings.ToLower(value)]
	return e, ok
}

// Protocol looks up a protocol by value.
func (c *Catalog) Protocol(value string) (models.CatalogEntry, bool) {
	e, ok := c.protocols[strings.ToLower(value)]
	return e, ok
}
