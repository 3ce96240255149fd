package canvas

import "github.com/home-manager/backend/internal/models"

// ImageResolver resolves image references for a frame.
type ImageResolver interface {
	Resolve(ref, glyph string) models.ImageRef
	DeviceIcon(deviceType string) models.ImageRef
	ProtocolIcon(protocol string) models.ImageRef
}

// Handle is one attached resize handle.
type Handle struct {
	Corner Corner `json:"corner" msgpack:"corner"`
	Stage  Point  `json:"stage" msgpack:"stage"`
	Screen Point  `json:"screen" msgpack:"screen"`
}

// MarkerFrame is the render state of one marker.
type MarkerFrame struct {
	ID           string          `json:"id" msgpack:"id"`
	Name         string          `json:"name" msgpack:"name"`
	Type         string          `json:"type" msgpack:"type"`
	Protocol     string          `json:"protocol" msgpack:"protocol"`
	Color        string          `json:"color" msgpack:"color"`
	XPercent     float64         `json:"xPercent" msgpack:"xPercent"`
	YPercent     float64         `json:"yPercent" msgpack:"yPercent"`
	Stage        Point           `json:"stage" msgpack:"stage"`
	Screen       Point           `json:"screen" msgpack:"screen"`
	Scale        float64         `json:"scale" msgpack:"scale"`
	Bounds       Rect            `json:"bounds" msgpack:"bounds"`
	TypeIcon     models.ImageRef `json:"typeIcon" msgpack:"typeIcon"`
	ProtocolIcon models.ImageRef `json:"protocolIcon" msgpack:"protocolIcon"`
	Selected     bool            `json:"selected" msgpack:"selected"`
	Dragging     bool            `json:"dragging" msgpack:"dragging"`
}

// Frame is a complete snapshot of the editor for drawing.
type Frame struct {
	FloorplanID string          `json:"floorplanId" msgpack:"floorplanId"`
	Name        string          `json:"name" msgpack:"name"`
	Background  models.ImageRef `json:"background" msgpack:"background"`
	Floorplan   Size            `json:"floorplan" msgpack:"floorplan"`
	Container   Size            `json:"container" msgpack:"container"`
	Viewport    Viewport        `json:"viewport" msgpack:"viewport"`
	State       State           `json:"state" msgpack:"state"`
	Selected    string          `json:"selected,omitempty" msgpack:"selected,omitempty"`
	Locked      bool            `json:"locked" msgpack:"locked"`
	Chrome      Chrome          `json:"chrome" msgpack:"chrome"`
	Markers     []MarkerFrame   `json:"markers" msgpack:"markers"`
	Handles     []Handle        `json:"handles,omitempty" msgpack:"handles,omitempty"`
}

// Frame renders the current local state. r may be nil, in which case images
// are reported as unresolved references.
func (e *Editor) Frame(r ImageResolver) Frame {
	vp := e.viewport.Viewport()
	f := Frame{
		FloorplanID: e.floorplan.ID,
		Name:        e.floorplan.Name,
		Background:  models.ImageRef{Ref: e.floorplan.ImagePath, URL: e.floorplan.ImagePath},
		Floorplan:   e.size,
		Container:   e.viewport.Container(),
		Viewport:    vp,
		State:       e.State(),
		Selected:    e.selected,
		Locked:      e.locked,
		Chrome:      ChromeAt(vp.Zoom),
		Markers:     make([]MarkerFrame, 0, e.markers.Len()),
		Handles:     e.Handles(),
	}
	if r != nil {
		f.Background = r.Resolve(e.floorplan.ImagePath, "")
	}

	for _, m := range e.markers.All() {
		pos := m.Position(e.size)
		mf := MarkerFrame{
			ID:       m.ID(),
			Name:     m.Device.Name,
			Type:     m.Device.Type,
			Protocol: m.Device.Protocol,
			Color:    m.Color,
			XPercent: m.Device.XPos,
			YPercent: m.Device.YPos,
			Stage:    pos,
			Screen:   e.viewport.ToScreen(pos),
			Scale:    m.Scale(),
			Bounds:   m.Bounds(e.size, vp.Zoom),
			Selected: m.ID() == e.selected,
			Dragging: m.Dragging(),
		}
		if r != nil {
			mf.TypeIcon = r.DeviceIcon(m.Device.Type)
			mf.ProtocolIcon = r.ProtocolIcon(m.Device.Protocol)
		}
		f.Markers = append(f.Markers, mf)
	}
	return f
}
