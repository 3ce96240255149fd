package models

import "time"

// Default values applied when a floorplan or device is created without them.
const (
	DefaultFloorplanWidth  = 800
	DefaultFloorplanHeight = 600
	DefaultDeviceType      = "switch"
	DefaultDevicePosition  = 50.0
	DefaultDeviceScale     = 1.0
)

// Floorplan is an uploaded background image together with its native pixel size.
// Width and Height are the basis for every device percentage and never change.
type Floorplan struct {
	ID        string    `json:"id" msgpack:"id"`
	Name      string    `json:"name" msgpack:"name"`
	ImagePath string    `json:"imagePath" msgpack:"imagePath"`
	Width     float64   `json:"width" msgpack:"width"`
	Height    float64   `json:"height" msgpack:"height"`
	CreatedAt time.Time `json:"createdAt" msgpack:"createdAt"`
}

// FloorplanWithDevices is a floorplan as loaded by the editor.
type FloorplanWithDevices struct {
	Floorplan
	Devices []Device `json:"devices" msgpack:"devices"`
}

// Device is a marker placed on a floorplan.
type Device struct {
	ID          string    `json:"id" msgpack:"id"`
	FloorplanID string    `json:"floorplanId" msgpack:"floorplanId"`
	Name        string    `json:"name" msgpack:"name"`
	Type        string    `json:"type" msgpack:"type"`
	Protocol    string    `json:"protocol" msgpack:"protocol"`
	Description string    `json:"description" msgpack:"description"`
	PinCode     string    `json:"pinCode,omitempty" msgpack:"pinCode,omitempty"`
	QRCodePath  string    `json:"qrCodePath,omitempty" msgpack:"qrCodePath,omitempty"`
	XPos        float64   `json:"xPos" msgpack:"xPos"` // percent of floorplan width, not clamped
	YPos        float64   `json:"yPos" msgpack:"yPos"` // percent of floorplan height, not clamped
	Scale       float64   `json:"scale" msgpack:"scale"`
	CreatedAt   time.Time `json:"createdAt" msgpack:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" msgpack:"updatedAt"`
}

// EffectiveScale returns the device scale, treating an unset scale as 1.
func (d Device) EffectiveScale() float64 {
	if d.Scale <= 0 {
		return DefaultDeviceScale
	}
	return d.Scale
}

// DeviceInput carries the editable form fields of a device.
type DeviceInput struct {
	FloorplanID string `json:"floorplanId"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Protocol    string `json:"protocol"`
	Description string `json:"description"`
	PinCode     string `json:"pinCode"`
	QRCodePath  string `json:"-"`
}
