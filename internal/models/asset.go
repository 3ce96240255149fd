package models

import "time"

// ImageRef is a resolved image for the front end. When Fallback is set the
// image could not be resolved and Glyph should be drawn instead.
type ImageRef struct {
	Ref      string `json:"ref,omitempty" msgpack:"ref,omitempty"`
	URL      string `json:"url,omitempty" msgpack:"url,omitempty"`
	Fallback bool   `json:"fallback" msgpack:"fallback"`
	Glyph    string `json:"glyph,omitempty" msgpack:"glyph,omitempty"`
}

// FileInfo describes a stored floorplan image or QR code. Path is the
// reference kept on floorplans and devices, e.g.
// "/uploads/floorplans/1700000000000-plan.png".
type FileInfo struct {
	Path       string    `json:"path"`
	Folder     string    `json:"folder"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}
