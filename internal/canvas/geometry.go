// Package canvas implements the headless floorplan editor: coordinate
// transforms, the viewport, device markers, the gesture state machine and the
// bridge that persists gesture results.
//
// Three coordinate spaces are used throughout:
//
//   - screen: pixels inside the editor container, after zoom and pan
//   - stage: the floorplan's own unscaled pixel space
//   - percent: 0-100 of the floorplan's native width/height (persisted)
package canvas

import "math"

// Default viewport limits.
const (
	DefaultMinZoom   = 0.1
	DefaultMaxZoom   = 10.0
	DefaultZoomStep  = 1.1
	DefaultFitMargin = 0.9
)

// Point is a 2D coordinate in any of the three spaces.
type Point struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Size is a width/height pair.
type Size struct {
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool { return s.Width > 0 && s.Height > 0 }

// Viewport is the pan/zoom transform from stage to screen space.
type Viewport struct {
	Zoom float64 `json:"zoom" msgpack:"zoom"`
	PanX float64 `json:"panX" msgpack:"panX"`
	PanY float64 `json:"panY" msgpack:"panY"`
}

// Pan returns the pan offset as a point.
func (v Viewport) Pan() Point { return Point{v.PanX, v.PanY} }

// Limits bounds the viewport zoom.
type Limits struct {
	MinZoom   float64
	MaxZoom   float64
	Step      float64
	FitMargin float64
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MinZoom:   DefaultMinZoom,
		MaxZoom:   DefaultMaxZoom,
		Step:      DefaultZoomStep,
		FitMargin: DefaultFitMargin,
	}
}

// normalized fills unset or inconsistent fields with defaults.
func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MinZoom <= 0 {
		l.MinZoom = d.MinZoom
	}
	if l.MaxZoom < l.MinZoom {
		l.MaxZoom = math.Max(d.MaxZoom, l.MinZoom)
	}
	if l.Step <= 1 {
		l.Step = d.Step
	}
	if l.FitMargin <= 0 || l.FitMargin > 1 {
		l.FitMargin = d.FitMargin
	}
	return l
}

// SafeZoom returns zoom, or MinZoom when zoom is not positive.
func (l Limits) SafeZoom(zoom float64) float64 {
	if zoom <= 0 || math.IsNaN(zoom) {
		return l.normalized().MinZoom
	}
	return zoom
}

// Contains reports whether zoom lies within [MinZoom, MaxZoom].
func (l Limits) Contains(zoom float64) bool {
	return zoom >= l.MinZoom && zoom <= l.MaxZoom
}

// ToScreen maps a stage point to screen space.
func ToScreen(p Point, v Viewport) Point {
	zoom := DefaultLimits().SafeZoom(v.Zoom)
	return Point{p.X*zoom + v.PanX, p.Y*zoom + v.PanY}
}

// ToStage maps a screen point to stage space.
func ToStage(p Point, v Viewport) Point {
	zoom := DefaultLimits().SafeZoom(v.Zoom)
	return Point{(p.X - v.PanX) / zoom, (p.Y - v.PanY) / zoom}
}

// ToPercent maps a stage point to percent of the floorplan dimensions.
// A non-positive dimension yields 0 on that axis.
func ToPercent(p Point, d Size) Point {
	var q Point
	if d.Width > 0 {
		q.X = p.X / d.Width * 100
	}
	if d.Height > 0 {
		q.Y = p.Y / d.Height * 100
	}
	return q
}

// FromPercent maps a percent point to stage space.
func FromPercent(q Point, d Size) Point {
	return Point{q.X / 100 * d.Width, q.Y / 100 * d.Height}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X      float64 `json:"x" msgpack:"x"`
	Y      float64 `json:"y" msgpack:"y"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}
