package canvas

import (
	"errors"
	"fmt"
	"math"

	"github.com/home-manager/backend/internal/models"
)

// State is the externally visible state of the gesture state machine.
type State string

const (
	StateIdle     State = "idle"
	StatePanning  State = "panning"
	StateDragging State = "dragging"
	StateResizing State = "resizing"
	StateSelected State = "selected"
)

// Corner names one of the four resize handles.
type Corner string

const (
	CornerTopLeft     Corner = "top-left"
	CornerTopRight    Corner = "top-right"
	CornerBottomLeft  Corner = "bottom-left"
	CornerBottomRight Corner = "bottom-right"
)

var corners = []Corner{CornerTopLeft, CornerTopRight, CornerBottomLeft, CornerBottomRight}

// NoticeKind identifies an editor notification for the front end.
type NoticeKind string

const (
	NoticeSelect   NoticeKind = "select"
	NoticeDeselect NoticeKind = "deselect"
	NoticeEdit     NoticeKind = "edit" // open the device edit form
	NoticeCommit   NoticeKind = "commit"
)

// Notice is emitted by the editor while it handles input.
type Notice struct {
	Kind     NoticeKind `json:"kind" msgpack:"kind"`
	DeviceID string     `json:"deviceId,omitempty" msgpack:"deviceId,omitempty"`
	Commit   *Commit    `json:"commit,omitempty" msgpack:"commit,omitempty"`
}

// Defaults for EditorOptions.
const (
	DefaultMinHandleBoxPx = 20.0
	DefaultHandleHitPx    = 10.0
)

// ErrUnknownInput is returned by Dispatch for an unrecognized input kind.
var ErrUnknownInput = errors.New("unknown input kind")

// Submitter accepts commits; *Bridge implements it.
type Submitter interface {
	Submit(c Commit) *Pending
}

// EditorOptions configures an Editor.
type EditorOptions struct {
	Limits Limits
	// MinHandleBoxPx is the smallest on-screen marker box a resize may produce.
	MinHandleBoxPx float64
	// HandleHitPx is the on-screen grab radius of a resize handle.
	HandleHitPx float64
	Locked      bool
}

type gestureKind int

const (
	gestureNone gestureKind = iota
	gesturePan
	gestureDrag
	gestureResize
	gesturePress // pointer down on a marker while locked
)

type gesture struct {
	kind   gestureKind
	id     string
	last   Point // screen
	moved  bool
	grab   Point // stage offset from pointer to the dragged point
	corner Corner
	anchor Point // stage, corner opposite the grabbed handle
	handle Point // stage, grabbed handle minus anchor at press time
	scale  float64
}

// Editor is the interaction engine of one open floorplan editor. It is not
// safe for concurrent use; callers serialize input.
type Editor struct {
	floorplan models.Floorplan
	size      Size
	viewport  *ViewportController
	markers   *MarkerSet
	bridge    Submitter
	opts      EditorOptions

	locked   bool
	selected string
	g        gesture
	notices  []Notice
}

// NewEditor creates an editor for a loaded floorplan and fits it into the container.
func NewEditor(fp *models.FloorplanWithDevices, container Size, bridge Submitter, opts EditorOptions) *Editor {
	if opts.MinHandleBoxPx <= 0 {
		opts.MinHandleBoxPx = DefaultMinHandleBoxPx
	}
	if opts.HandleHitPx <= 0 {
		opts.HandleHitPx = DefaultHandleHitPx
	}
	e := &Editor{
		floorplan: fp.Floorplan,
		size:      Size{Width: fp.Width, Height: fp.Height},
		viewport:  NewViewportController(opts.Limits),
		markers:   NewMarkerSet(fp.Devices),
		bridge:    bridge,
		opts:      opts,
		locked:    opts.Locked,
	}
	e.viewport.Fit(container, e.size)
	return e
}

// State returns the current state of the state machine.
func (e *Editor) State() State {
	switch e.g.kind {
	case gesturePan:
		return StatePanning
	case gestureDrag:
		return StateDragging
	case gestureResize:
		return StateResizing
	}
	if e.selected != "" {
		return StateSelected
	}
	return StateIdle
}

// Selected returns the selected device ID or "".
func (e *Editor) Selected() string { return e.selected }

// Active returns the device targeted by the drag or resize in progress, or "".
func (e *Editor) Active() string {
	if e.g.kind == gestureDrag || e.g.kind == gestureResize {
		return e.g.id
	}
	return ""
}

// Locked reports whether the editor is in read-only mode.
func (e *Editor) Locked() bool { return e.locked }

// Floorplan returns the floorplan being edited.
func (e *Editor) Floorplan() models.Floorplan { return e.floorplan }

// Viewport returns the current viewport transform.
func (e *Editor) Viewport() Viewport { return e.viewport.Viewport() }

// ViewportController exposes the viewport for direct manipulation.
func (e *Editor) ViewportController() *ViewportController { return e.viewport }

// Markers returns the local marker state.
func (e *Editor) Markers() *MarkerSet { return e.markers }

// HandlesAttached reports whether the resize handles are attached to the selection.
func (e *Editor) HandlesAttached() bool {
	if e.locked || e.selected == "" {
		return false
	}
	_, ok := e.markers.Get(e.selected)
	return ok
}

// TakeNotices returns and clears the pending notices.
func (e *Editor) TakeNotices() []Notice {
	n := e.notices
	e.notices = nil
	return n
}

func (e *Editor) notify(n Notice) { e.notices = append(e.notices, n) }

func (e *Editor) zoom() float64 { return e.viewport.Viewport().Zoom }

// PointerDown starts a gesture at a screen point.
func (e *Editor) PointerDown(p Point) {
	if e.g.kind != gestureNone {
		return
	}
	stage := e.viewport.ToStage(p)

	if corner, ok := e.handleAt(p); ok {
		e.beginResize(corner, stage, p)
		return
	}

	if m, ok := e.markers.HitTest(stage, e.size, e.zoom()); ok {
		if e.locked {
			e.g = gesture{kind: gesturePress, id: m.ID(), last: p}
			return
		}
		pos := m.Position(e.size)
		e.g = gesture{kind: gestureDrag, id: m.ID(), last: p, grab: pos.Sub(stage)}
		return
	}

	// Empty background.
	e.deselect()
	if !e.locked {
		e.g = gesture{kind: gesturePan, last: p}
	}
}

// PointerMove advances the gesture in progress.
func (e *Editor) PointerMove(p Point) {
	switch e.g.kind {
	case gesturePan:
		d := p.Sub(e.g.last)
		e.viewport.PanBy(d.X, d.Y)
		e.g.moved = true
	case gestureDrag:
		m, ok := e.markers.Get(e.g.id)
		if !ok {
			e.PointerCancel()
			return
		}
		pos := e.viewport.ToStage(p).Add(e.g.grab)
		m.dragPos = &pos
		e.g.moved = true
	case gestureResize:
		e.resizeTo(p)
	case gestureNone, gesturePress:
		return
	}
	e.g.last = p
}

// PointerUp ends the gesture in progress at a screen point.
func (e *Editor) PointerUp(p Point) {
	if e.g.kind == gestureNone {
		return
	}
	if p != e.g.last {
		e.PointerMove(p)
	}

	g := e.g
	e.g = gesture{}

	switch g.kind {
	case gesturePan:
		gesturesTotal.WithLabelValues("pan").Inc()
	case gesturePress:
		e.click(g.id)
	case gestureDrag:
		m, ok := e.markers.Get(g.id)
		if !ok {
			return
		}
		if !g.moved {
			m.dragPos = nil
			e.click(g.id)
			return
		}
		q := ToPercent(m.Position(e.size), e.size)
		e.markers.SetPercent(g.id, q)
		e.selectMarker(g.id)
		gesturesTotal.WithLabelValues("drag").Inc()
		e.commit(Commit{
			Kind:        CommitPosition,
			DeviceID:    g.id,
			FloorplanID: e.floorplan.ID,
			XPercent:    q.X,
			YPercent:    q.Y,
		})
	case gestureResize:
		m, ok := e.markers.Get(g.id)
		if !ok {
			return
		}
		if !g.moved {
			m.previewScale = 0
			return
		}
		scale := m.Scale()
		e.markers.SetScale(g.id, scale)
		gesturesTotal.WithLabelValues("resize").Inc()
		e.commit(Commit{
			Kind:        CommitScale,
			DeviceID:    g.id,
			FloorplanID: e.floorplan.ID,
			Scale:       scale,
		})
	}
}

// PointerCancel aborts the gesture in progress, e.g. when the pointer is
// released outside the editor. Drag and resize previews are reverted and
// nothing is committed; pan offsets already applied are kept.
func (e *Editor) PointerCancel() {
	g := e.g
	e.g = gesture{}
	if g.kind == gestureNone {
		return
	}
	if m, ok := e.markers.Get(g.id); ok {
		m.clearOverrides()
	}
	gesturesTotal.WithLabelValues("cancel").Inc()
}

// Wheel zooms one step at the pointer; deltaY < 0 zooms in.
func (e *Editor) Wheel(p Point, deltaY float64) bool {
	switch {
	case deltaY < 0:
		return e.viewport.ZoomAt(p, 1)
	case deltaY > 0:
		return e.viewport.ZoomAt(p, -1)
	}
	return false
}

// Pinch zooms by factor around a screen point.
func (e *Editor) Pinch(center Point, factor float64) bool {
	return e.viewport.ZoomBy(center, factor)
}

// ResizeContainer refits the floorplan into a new container size.
func (e *Editor) ResizeContainer(container Size) Viewport {
	return e.viewport.Fit(container, e.size)
}

// SetLocked switches read-only mode. Locking cancels a drag or resize in progress.
func (e *Editor) SetLocked(locked bool) {
	if locked && !e.locked {
		switch e.g.kind {
		case gestureDrag, gestureResize:
			e.PointerCancel()
		case gesturePan:
			e.g = gesture{}
		}
	}
	e.locked = locked
}

// Deselect clears the selection unless a gesture is in progress.
func (e *Editor) Deselect() bool {
	if e.g.kind != gestureNone || e.selected == "" {
		return false
	}
	e.deselect()
	return true
}

// DeleteSelected removes the selected device locally and commits the deletion.
func (e *Editor) DeleteSelected() bool {
	if e.locked || e.g.kind != gestureNone || e.selected == "" {
		return false
	}
	id := e.selected
	if !e.markers.Remove(id) {
		return false
	}
	e.deselect()
	gesturesTotal.WithLabelValues("delete").Inc()
	e.commit(Commit{Kind: CommitDelete, DeviceID: id, FloorplanID: e.floorplan.ID})
	return true
}

// SyncDevices replaces local marker state with a fresh read of the store.
// A marker being dragged or resized keeps its in-progress preview.
func (e *Editor) SyncDevices(devices []models.Device) {
	active := e.Active()
	e.markers.Sync(devices, active)

	if active != "" {
		if _, ok := e.markers.Get(active); !ok {
			e.g = gesture{}
		}
	}
	if e.selected != "" {
		if _, ok := e.markers.Get(e.selected); !ok {
			e.deselect()
		}
	}
}

// Handles returns the resize handles of the selected marker, or nil when
// they are not attached.
func (e *Editor) Handles() []Handle {
	if !e.HandlesAttached() {
		return nil
	}
	m, _ := e.markers.Get(e.selected)
	b := m.Bounds(e.size, e.zoom())
	out := make([]Handle, 0, len(corners))
	for _, c := range corners {
		st := cornerPoint(b, c)
		out = append(out, Handle{Corner: c, Stage: st, Screen: e.viewport.ToScreen(st)})
	}
	return out
}

func (e *Editor) handleAt(p Point) (Corner, bool) {
	for _, h := range e.Handles() {
		if math.Hypot(p.X-h.Screen.X, p.Y-h.Screen.Y) <= e.opts.HandleHitPx {
			return h.Corner, true
		}
	}
	return "", false
}

func (e *Editor) beginResize(c Corner, stage, screen Point) {
	m, _ := e.markers.Get(e.selected)
	b := m.Bounds(e.size, e.zoom())
	handle := cornerPoint(b, c)
	anchor := cornerPoint(b, opposite(c))
	e.g = gesture{
		kind:   gestureResize,
		id:     m.ID(),
		last:   screen,
		corner: c,
		grab:   handle.Sub(stage),
		anchor: anchor,
		handle: handle.Sub(anchor),
		scale:  m.Scale(),
	}
}

// resizeTo applies a uniform scale taken from the axis that changed most.
func (e *Editor) resizeTo(p Point) {
	m, ok := e.markers.Get(e.g.id)
	if !ok {
		e.PointerCancel()
		return
	}
	v := e.viewport.ToStage(p).Add(e.g.grab).Sub(e.g.anchor)
	fx := v.X / e.g.handle.X
	fy := v.Y / e.g.handle.Y
	factor := fx
	if math.Abs(fy-1) > math.Abs(fx-1) {
		factor = fy
	}
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return
	}

	scale := e.g.scale * factor
	// Chrome is zoom-independent, so the on-screen box is the base pill times scale.
	if pillWidth*scale < e.opts.MinHandleBoxPx || pillHeight*scale < e.opts.MinHandleBoxPx {
		return
	}
	m.previewScale = scale
	e.g.moved = true
}

func (e *Editor) click(id string) {
	if _, ok := e.markers.Get(id); !ok {
		return
	}
	e.selectMarker(id)
	gesturesTotal.WithLabelValues("click").Inc()
	e.notify(Notice{Kind: NoticeEdit, DeviceID: id})
}

func (e *Editor) selectMarker(id string) {
	if e.selected == id {
		return
	}
	e.selected = id
	e.notify(Notice{Kind: NoticeSelect, DeviceID: id})
}

func (e *Editor) deselect() {
	if e.selected == "" {
		return
	}
	id := e.selected
	e.selected = ""
	e.notify(Notice{Kind: NoticeDeselect, DeviceID: id})
}

func (e *Editor) commit(c Commit) {
	if e.bridge == nil {
		return
	}
	p := e.bridge.Submit(c)
	committed := p.Commit
	e.notify(Notice{Kind: NoticeCommit, DeviceID: c.DeviceID, Commit: &committed})
}

// Input is a serialized user input event.
type Input struct {
	Kind   InputKind `json:"kind" msgpack:"kind"`
	X      float64   `json:"x,omitempty" msgpack:"x,omitempty"`
	Y      float64   `json:"y,omitempty" msgpack:"y,omitempty"`
	DeltaY float64   `json:"deltaY,omitempty" msgpack:"deltaY,omitempty"`
	Factor float64   `json:"factor,omitempty" msgpack:"factor,omitempty"`
	Width  float64   `json:"width,omitempty" msgpack:"width,omitempty"`
	Height float64   `json:"height,omitempty" msgpack:"height,omitempty"`
	Locked bool      `json:"locked,omitempty" msgpack:"locked,omitempty"`
}

// InputKind identifies an Input.
type InputKind string

const (
	InputPointerDown   InputKind = "pointerdown"
	InputPointerMove   InputKind = "pointermove"
	InputPointerUp     InputKind = "pointerup"
	InputPointerCancel InputKind = "pointercancel"
	InputWheel         InputKind = "wheel"
	InputPinch         InputKind = "pinch"
	InputResize        InputKind = "resize"
	InputLock          InputKind = "lock"
	InputDeselect      InputKind = "deselect"
	InputDelete        InputKind = "delete"
)

// Dispatch applies one serialized input.
func (e *Editor) Dispatch(in Input) error {
	p := Point{in.X, in.Y}
	switch in.Kind {
	case InputPointerDown:
		e.PointerDown(p)
	case InputPointerMove:
		e.PointerMove(p)
	case InputPointerUp:
		e.PointerUp(p)
	case InputPointerCancel:
		e.PointerCancel()
	case InputWheel:
		e.Wheel(p, in.DeltaY)
	case InputPinch:
		e.Pinch(p, in.Factor)
	case InputResize:
		e.ResizeContainer(Size{Width: in.Width, Height: in.Height})
	case InputLock:
		e.SetLocked(in.Locked)
	case InputDeselect:
		e.Deselect()
	case InputDelete:
		e.DeleteSelected()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownInput, in.Kind)
	}
	return nil
}

func cornerPoint(b Rect, c Corner) Point {
	switch c {
	case CornerTopLeft:
		return Point{b.X, b.Y}
	case CornerTopRight:
		return Point{b.X + b.Width, b.Y}
	case CornerBottomLeft:
		return Point{b.X, b.Y + b.Height}
	default:
		return Point{b.X + b.Width, b.Y + b.Height}
	}
}

func opposite(c Corner) Corner {
	switch c {
	case CornerTopLeft:
		return CornerBottomRight
	case CornerTopRight:
		return CornerBottomLeft
	case CornerBottomLeft:
		return CornerTopRight
	default:
		return CornerTopLeft
	}
}
