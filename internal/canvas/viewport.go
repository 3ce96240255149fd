package canvas

import "math"

// ViewportController owns the pan offset and zoom factor of one editor.
type ViewportController struct {
	limits    Limits
	vp        Viewport
	container Size
}

// NewViewportController creates a controller at zoom 1 with no pan.
func NewViewportController(limits Limits) *ViewportController {
	return &ViewportController{
		limits: limits.normalized(),
		vp:     Viewport{Zoom: 1},
	}
}

// Viewport returns the current transform.
func (c *ViewportController) Viewport() Viewport { return c.vp }

// Limits returns the zoom limits in effect.
func (c *ViewportController) Limits() Limits { return c.limits }

// Container returns the size of the last fitted container.
func (c *ViewportController) Container() Size { return c.container }

// ToScreen maps a stage point through the current viewport.
func (c *ViewportController) ToScreen(p Point) Point {
	zoom := c.limits.SafeZoom(c.vp.Zoom)
	return Point{p.X*zoom + c.vp.PanX, p.Y*zoom + c.vp.PanY}
}

// ToStage maps a screen point through the inverse of the current viewport.
func (c *ViewportController) ToStage(p Point) Point {
	zoom := c.limits.SafeZoom(c.vp.Zoom)
	return Point{(p.X - c.vp.PanX) / zoom, (p.Y - c.vp.PanY) / zoom}
}

// Fit centers the floorplan in the container with a margin and returns the
// resulting viewport. It is a no-op when either size is not positive.
func (c *ViewportController) Fit(container, floorplan Size) Viewport {
	if !container.Valid() || !floorplan.Valid() {
		return c.vp
	}
	c.container = container

	zoom := math.Min(container.Width/floorplan.Width, container.Height/floorplan.Height) * c.limits.FitMargin
	// A smaller zoom still fits, so only the upper bound is applied.
	if zoom > c.limits.MaxZoom {
		zoom = c.limits.MaxZoom
	}

	c.vp = Viewport{
		Zoom: zoom,
		PanX: (container.Width - floorplan.Width*zoom) / 2,
		PanY: (container.Height - floorplan.Height*zoom) / 2,
	}
	return c.vp
}

// ZoomAt zooms one step in (direction > 0) or out (direction < 0) keeping the
// stage point under pointer fixed on screen. It reports whether the zoom changed.
func (c *ViewportController) ZoomAt(pointer Point, direction int) bool {
	switch {
	case direction > 0:
		return c.ZoomBy(pointer, c.limits.Step)
	case direction < 0:
		return c.ZoomBy(pointer, 1/c.limits.Step)
	default:
		return false
	}
}

// ZoomBy multiplies the zoom by factor anchored at center (pinch zoom).
// Results outside the limits are ignored unless they move an out-of-range
// zoom back toward the range.
func (c *ViewportController) ZoomBy(center Point, factor float64) bool {
	if factor <= 0 || factor == 1 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return false
	}
	old := c.limits.SafeZoom(c.vp.Zoom)
	next := old * factor

	if !c.limits.Contains(next) {
		towardRange := (old < c.limits.MinZoom && next > old) || (old > c.limits.MaxZoom && next < old)
		if !towardRange {
			return false
		}
	}

	anchor := c.ToStage(center)
	c.vp = Viewport{
		Zoom: next,
		PanX: center.X - anchor.X*next,
		PanY: center.Y - anchor.Y*next,
	}
	return true
}

// PanBy moves the viewport by a screen-space delta. Panning is unconstrained.
func (c *ViewportController) PanBy(dx, dy float64) {
	c.vp.PanX += dx
	c.vp.PanY += dy
}

// Set replaces the viewport, clamping the zoom into the limits.
func (c *ViewportController) Set(v Viewport) {
	v.Zoom = math.Min(math.Max(c.limits.SafeZoom(v.Zoom), c.limits.MinZoom), c.limits.MaxZoom)
	c.vp = v
}
