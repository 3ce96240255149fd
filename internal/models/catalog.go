package models

// Catalog lists the device types and protocols offered by the device form.
type Catalog struct {
	DeviceTypes []CatalogEntry `json:"deviceTypes" yaml:"device_types"`
	Protocols   []CatalogEntry `json:"protocols" yaml:"protocols"`
}

// CatalogEntry is a selectable value with its display label.
type CatalogEntry struct {
	Value string   `json:"value" yaml:"value"`
	Label string   `json:"label" yaml:"label"`
	Icon  ImageRef `json:"icon" yaml:"-"`
}
