package canvas

import "github.com/home-manager/backend/internal/models"

// Marker chrome in screen pixels at scale 1. The chrome is divided by the
// zoom so a marker keeps its on-screen size while its position follows the
// viewport.
const (
	pillWidth     = 160.0
	pillHeight    = 44.0
	iconRadius    = 14.0
	iconGap       = 4.0
	textPadding   = 8.0
	nameFontSize  = 11.0
	glyphFontSize = 12.0
	nameBoxHeight = 28.0
)

// Chrome holds marker geometry in the marker's local stage units (before the
// marker's own scale is applied).
type Chrome struct {
	PillWidth    float64 `json:"pillWidth" msgpack:"pillWidth"`
	PillHeight   float64 `json:"pillHeight" msgpack:"pillHeight"`
	CornerRadius float64 `json:"cornerRadius" msgpack:"cornerRadius"`
	IconRadius   float64 `json:"iconRadius" msgpack:"iconRadius"`
	TypeIconX    float64 `json:"typeIconX" msgpack:"typeIconX"`
	ProtoIconX   float64 `json:"protocolIconX" msgpack:"protocolIconX"`
	TextX        float64 `json:"textX" msgpack:"textX"`
	TextY        float64 `json:"textY" msgpack:"textY"`
	TextWidth    float64 `json:"textWidth" msgpack:"textWidth"`
	TextHeight   float64 `json:"textHeight" msgpack:"textHeight"`
	NameFontSize float64 `json:"nameFontSize" msgpack:"nameFontSize"`
	GlyphSize    float64 `json:"glyphFontSize" msgpack:"glyphFontSize"`
}

// ChromeAt returns the chrome geometry for the given zoom.
func ChromeAt(zoom float64) Chrome {
	inv := 1 / DefaultLimits().SafeZoom(zoom)

	typeX := 22 * inv
	protoX := typeX + 2*iconRadius*inv + iconGap*inv
	textX := protoX + iconRadius*inv + textPadding*inv
	w := pillWidth * inv
	h := pillHeight * inv

	return Chrome{
		PillWidth:    w,
		PillHeight:   h,
		CornerRadius: h / 2,
		IconRadius:   iconRadius * inv,
		TypeIconX:    typeX,
		ProtoIconX:   protoX,
		TextX:        textX,
		TextY:        -nameBoxHeight / 2 * inv,
		TextWidth:    w - textX - textPadding*inv,
		TextHeight:   nameBoxHeight * inv,
		NameFontSize: nameFontSize * inv,
		GlyphSize:    glyphFontSize * inv,
	}
}

// Marker is the local editor state of one device.
type Marker struct {
	Device models.Device
	Color  string

	dragPos      *Point
	previewScale float64
}

func newMarker(d models.Device) *Marker {
	return &Marker{Device: d, Color: HashColor(d.ID, d.Name)}
}

// ID returns the device identifier.
func (m *Marker) ID() string { return m.Device.ID }

// Percent returns the marker's committed percentage position.
func (m *Marker) Percent() Point { return Point{m.Device.XPos, m.Device.YPos} }

// Position returns the marker origin in stage space, honouring a drag in progress.
func (m *Marker) Position(floorplan Size) Point {
	if m.dragPos != nil {
		return *m.dragPos
	}
	return FromPercent(m.Percent(), floorplan)
}

// Scale returns the visual scale, honouring a resize in progress.
func (m *Marker) Scale() float64 {
	if m.previewScale > 0 {
		return m.previewScale
	}
	return m.Device.EffectiveScale()
}

// Dragging reports whether the marker has a live drag override.
func (m *Marker) Dragging() bool { return m.dragPos != nil }

// Bounds returns the marker's pill in stage space. The origin sits at the
// middle of the pill's left edge.
func (m *Marker) Bounds(floorplan Size, zoom float64) Rect {
	c := ChromeAt(zoom)
	pos := m.Position(floorplan)
	s := m.Scale()
	return Rect{
		X:      pos.X,
		Y:      pos.Y - c.PillHeight*s/2,
		Width:  c.PillWidth * s,
		Height: c.PillHeight * s,
	}
}

func (m *Marker) clearOverrides() {
	m.dragPos = nil
	m.previewScale = 0
}

// MarkerSet is the ordered collection of markers of one editor. Later
// markers are drawn on top of earlier ones.
type MarkerSet struct {
	order []*Marker
	byID  map[string]*Marker
}

// NewMarkerSet builds markers for the given devices.
func NewMarkerSet(devices []models.Device) *MarkerSet {
	s := &MarkerSet{byID: make(map[string]*Marker, len(devices))}
	for _, d := range devices {
		s.add(newMarker(d))
	}
	return s
}

func (s *MarkerSet) add(m *Marker) {
	if _, exists := s.byID[m.ID()]; exists {
		return
	}
	s.order = append(s.order, m)
	s.byID[m.ID()] = m
}

// Len returns the number of markers.
func (s *MarkerSet) Len() int { return len(s.order) }

// All returns the markers in draw order.
func (s *MarkerSet) All() []*Marker { return s.order }

// Get returns the marker for a device.
func (s *MarkerSet) Get(id string) (*Marker, bool) {
	m, ok := s.byID[id]
	return m, ok
}

// SetPercent applies an optimistic position update and clears the drag override.
func (s *MarkerSet) SetPercent(id string, q Point) bool {
	m, ok := s.byID[id]
	if !ok {
		return false
	}
	m.Device.XPos = q.X
	m.Device.YPos = q.Y
	m.dragPos = nil
	return true
}

// SetScale applies an optimistic scale update and clears the resize preview.
func (s *MarkerSet) SetScale(id string, scale float64) bool {
	m, ok := s.byID[id]
	if !ok {
		return false
	}
	m.Device.Scale = scale
	m.previewScale = 0
	return true
}

// Remove deletes a marker.
func (s *MarkerSet) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, m := range s.order {
		if m.ID() == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Sync replaces the markers with a fresh device list. The marker named by
// active keeps its in-progress overrides.
func (s *MarkerSet) Sync(devices []models.Device, active string) {
	prev, hadActive := s.byID[active]

	s.order = s.order[:0]
	s.byID = make(map[string]*Marker, len(devices))
	for _, d := range devices {
		m := newMarker(d)
		if hadActive && d.ID == active {
			m.dragPos = prev.dragPos
			m.previewScale = prev.previewScale
		}
		s.add(m)
	}
}

// HitTest returns the topmost marker whose pill contains the stage point.
func (s *MarkerSet) HitTest(p Point, floorplan Size, zoom float64) (*Marker, bool) {
	for i := len(s.order) - 1; i >= 0; i-- {
		m := s.order[i]
		if m.Bounds(floorplan, zoom).Contains(p) {
			return m, true
		}
	}
	return nil, false
}
