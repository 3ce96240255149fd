package canvas

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestToScreenToStageRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		p := Point{rng.Float64()*4000 - 2000, rng.Float64()*4000 - 2000}
		v := Viewport{
			Zoom: 0.01 + rng.Float64()*20,
			PanX: rng.Float64()*2000 - 1000,
			PanY: rng.Float64()*2000 - 1000,
		}
		got := ToStage(ToScreen(p, v), v)
		assert.InDelta(t, p.X, got.X, 1e-6, "x for %+v %+v", p, v)
		assert.InDelta(t, p.Y, got.Y, 1e-6, "y for %+v %+v", p, v)
	}
}

func TestPercentRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 1000; i++ {
		q := Point{rng.Float64()*300 - 100, rng.Float64()*300 - 100}
		d := Size{Width: 1 + rng.Float64()*5000, Height: 1 + rng.Float64()*5000}
		got := ToPercent(FromPercent(q, d), d)
		assert.InDelta(t, q.X, got.X, 1e-9)
		assert.InDelta(t, q.Y, got.Y, 1e-9)
	}
}

func TestTransforms(t *testing.T) {
	v := Viewport{Zoom: 2, PanX: 10, PanY: -5}
	assert.Equal(t, Point{30, 15}, ToScreen(Point{10, 10}, v))
	assert.Equal(t, Point{10, 10}, ToStage(Point{30, 15}, v))

	d := Size{Width: 800, Height: 600}
	assert.Equal(t, Point{50, 75}, ToPercent(Point{400, 450}, d))
	assert.Equal(t, Point{400, 300}, FromPercent(Point{50, 50}, d))
}

func TestToStageZeroZoomIsClamped(t *testing.T) {
	got := ToStage(Point{10, 20}, Viewport{Zoom: 0})
	assert.InDelta(t, 10/DefaultMinZoom, got.X, eps)
	assert.InDelta(t, 20/DefaultMinZoom, got.Y, eps)

	got = ToStage(Point{10, 20}, Viewport{Zoom: -3})
	assert.InDelta(t, 100.0, got.X, eps)
}

func TestToPercentZeroDimension(t *testing.T) {
	assert.Equal(t, Point{0, 50}, ToPercent(Point{100, 100}, Size{Width: 0, Height: 200}))
}

func TestLimitsNormalized(t *testing.T) {
	l := Limits{}.normalized()
	assert.Equal(t, DefaultLimits(), l)

	l = Limits{MinZoom: 0.5, MaxZoom: 0.2, Step: 0.5, FitMargin: 2}.normalized()
	assert.Equal(t, 0.5, l.MinZoom)
	assert.Equal(t, DefaultMaxZoom, l.MaxZoom)
	assert.Equal(t, DefaultZoomStep, l.Step)
	assert.Equal(t, DefaultFitMargin, l.FitMargin)
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 5}
	assert.True(t, r.Contains(Point{0, 0}))
	assert.True(t, r.Contains(Point{10, 5}))
	assert.False(t, r.Contains(Point{10.1, 2}))
	assert.False(t, r.Contains(Point{-1, 2}))
}
