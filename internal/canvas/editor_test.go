package canvas

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/home-manager/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSubmitter completes every commit immediately.
type recordingSubmitter struct {
	mu      sync.Mutex
	commits []Commit
}

func (r *recordingSubmitter) Submit(c Commit) *Pending {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.Seq = uint64(len(r.commits) + 1)
	r.commits = append(r.commits, c)
	p := &Pending{Commit: c, done: make(chan struct{}), result: CommitResult{Commit: c}}
	close(p.done)
	return p
}

func (r *recordingSubmitter) all() []Commit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Commit(nil), r.commits...)
}

// newTestEditor returns an editor on an 800x600 floorplan at zoom 1, pan 0.
func newTestEditor(t *testing.T, sub Submitter, devices ...models.Device) *Editor {
	t.Helper()
	fp := &models.FloorplanWithDevices{
		Floorplan: models.Floorplan{ID: "fp-1", Name: "Ground floor", ImagePath: "/uploads/floorplans/plan.png", Width: 800, Height: 600},
		Devices:   devices,
	}
	e := NewEditor(fp, Size{400, 300}, sub, EditorOptions{})
	e.ViewportController().Set(Viewport{Zoom: 1})
	return e
}

func noticeKinds(ns []Notice) []NoticeKind {
	out := make([]NoticeKind, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Kind)
	}
	return out
}

func TestNewEditorFitsContainer(t *testing.T) {
	fp := &models.FloorplanWithDevices{Floorplan: models.Floorplan{ID: "fp-1", Width: 800, Height: 600}}
	e := NewEditor(fp, Size{400, 300}, nil, EditorOptions{})

	v := e.Viewport()
	assert.InDelta(t, 0.45, v.Zoom, eps)
	assert.InDelta(t, 20, v.PanX, eps)
	assert.InDelta(t, 15, v.PanY, eps)
	assert.Equal(t, StateIdle, e.State())
}

func TestEditor_DragCommitsPercent(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))

	e.PointerDown(Point{410, 300})
	assert.Equal(t, StateDragging, e.State())
	assert.Equal(t, "d1", e.Active())

	e.PointerMove(Point{410, 400})
	m, _ := e.Markers().Get("d1")
	assert.Equal(t, Point{400, 400}, m.Position(Size{800, 600}), "marker follows pointer before release")
	assert.Empty(t, rec.all(), "nothing is committed mid-drag")

	e.PointerUp(Point{410, 450})

	commits := rec.all()
	require.Len(t, commits, 1)
	c := commits[0]
	assert.Equal(t, CommitPosition, c.Kind)
	assert.Equal(t, "d1", c.DeviceID)
	assert.Equal(t, "fp-1", c.FloorplanID)
	assert.InDelta(t, 50, c.XPercent, eps)
	assert.InDelta(t, 75, c.YPercent, eps)

	assert.Equal(t, Point{50, 75}, m.Percent(), "local state updated optimistically")
	assert.False(t, m.Dragging())
	assert.Equal(t, StateSelected, e.State())
	assert.Equal(t, "d1", e.Selected())
	assert.Equal(t, []NoticeKind{NoticeSelect, NoticeCommit}, noticeKinds(e.TakeNotices()))
}

func TestEditor_DragUnderZoomAndPan(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))
	e.ViewportController().Set(Viewport{Zoom: 2, PanX: -100, PanY: -50})

	// Marker origin (400,300) is at screen (700,550).
	e.PointerDown(Point{705, 550})
	e.PointerUp(Point{705, 650})

	commits := rec.all()
	require.Len(t, commits, 1)
	assert.InDelta(t, 50, commits[0].XPercent, eps)
	assert.InDelta(t, 350.0/600*100, commits[0].YPercent, 1e-9)
}

func TestEditor_DragBackToStartStillCommits(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))

	e.PointerDown(Point{410, 300})
	e.PointerMove(Point{500, 350})
	e.PointerUp(Point{410, 300})

	commits := rec.all()
	require.Len(t, commits, 1)
	assert.InDelta(t, 50, commits[0].XPercent, eps)
	assert.InDelta(t, 50, commits[0].YPercent, eps)
}

func TestEditor_DragPastEdgesIsNotClamped(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))

	e.PointerDown(Point{410, 300})
	e.PointerUp(Point{-390, 1000})

	commits := rec.all()
	require.Len(t, commits, 1)
	assert.InDelta(t, -50, commits[0].XPercent, eps)
	assert.InDelta(t, 1000.0/600*100, commits[0].YPercent, 1e-9)
}

func TestEditor_ClickSelectsAndOpensEdit(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))

	e.PointerDown(Point{410, 300})
	e.PointerUp(Point{410, 300})

	assert.Empty(t, rec.all(), "a click does not commit")
	assert.Equal(t, StateSelected, e.State())
	assert.Equal(t, "d1", e.Selected())
	assert.True(t, e.HandlesAttached())
	assert.Len(t, e.Handles(), 4)

	ns := e.TakeNotices()
	assert.Equal(t, []NoticeKind{NoticeSelect, NoticeEdit}, noticeKinds(ns))
	assert.Equal(t, "d1", ns[1].DeviceID)
	assert.Empty(t, e.TakeNotices())
}

func TestEditor_BackgroundDeselectsAndPans(t *testing.T) {
	e := newTestEditor(t, &recordingSubmitter{}, device("d1", 50, 50, 1))
	e.PointerDown(Point{410, 300})
	e.PointerUp(Point{410, 300})
	e.TakeNotices()

	e.PointerDown(Point{50, 50})
	assert.Equal(t, StatePanning, e.State())
	assert.Empty(t, e.Selected())
	assert.False(t, e.HandlesAttached())
	assert.Nil(t, e.Handles())

	e.PointerMove(Point{60, 45})
	e.PointerUp(Point{70, 40})
	assert.Equal(t, StateIdle, e.State())
	assert.Equal(t, Viewport{Zoom: 1, PanX: 20, PanY: -10}, e.Viewport())
	assert.Equal(t, []NoticeKind{NoticeDeselect}, noticeKinds(e.TakeNotices()))
}

func TestEditor_Resize(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))
	e.PointerDown(Point{410, 300})
	e.PointerUp(Point{410, 300})

	var br Handle
	for _, h := range e.Handles() {
		if h.Corner == CornerBottomRight {
			br = h
		}
	}
	require.Equal(t, Point{560, 322}, br.Screen)

	e.PointerDown(br.Screen)
	assert.Equal(t, StateResizing, e.State())

	// Too small a box is refused.
	e.PointerMove(Point{410, 322})
	m, _ := e.Markers().Get("d1")
	assert.Equal(t, 1.0, m.Scale())

	// Width doubles while height is unchanged: the dominant axis wins.
	e.PointerMove(Point{720, 322})
	assert.InDelta(t, 2.0, m.Scale(), eps)
	assert.Empty(t, rec.all())

	e.PointerUp(Point{720, 322})
	commits := rec.all()
	require.Len(t, commits, 1)
	assert.Equal(t, CommitScale, commits[0].Kind)
	assert.InDelta(t, 2.0, commits[0].Scale, eps)
	assert.InDelta(t, 2.0, m.Device.Scale, eps)
	assert.Equal(t, Point{50, 50}, m.Percent(), "resize does not move the marker")
	assert.Equal(t, StateSelected, e.State())
}

func TestEditor_ResizeWithoutMoveDoesNotCommit(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))
	e.PointerDown(Point{410, 300})
	e.PointerUp(Point{410, 300})

	h := e.Handles()[0]
	e.PointerDown(h.Screen)
	e.PointerUp(h.Screen)
	assert.Empty(t, rec.all())
	assert.Equal(t, StateSelected, e.State())
}

func TestEditor_CancelRevertsDrag(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1), device("d2", 10, 10, 1))

	// Select d2 first.
	e.PointerDown(Point{90, 60})
	e.PointerUp(Point{90, 60})
	require.Equal(t, "d2", e.Selected())

	e.PointerDown(Point{410, 300})
	e.PointerMove(Point{600, 500})
	e.PointerCancel()

	m, _ := e.Markers().Get("d1")
	assert.Equal(t, Point{400, 300}, m.Position(Size{800, 600}))
	assert.Empty(t, rec.all())
	assert.Equal(t, StateSelected, e.State())
	assert.Equal(t, "d2", e.Selected())
}

func TestEditor_LockedMode(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))
	e.SetLocked(true)

	// Click still selects and opens the edit form.
	e.PointerDown(Point{410, 300})
	assert.Equal(t, StateIdle, e.State())
	e.PointerMove(Point{500, 500})
	e.PointerUp(Point{500, 500})
	assert.Equal(t, "d1", e.Selected())
	assert.False(t, e.HandlesAttached())
	assert.Nil(t, e.Handles())
	assert.Contains(t, noticeKinds(e.TakeNotices()), NoticeEdit)

	// No pan on the background.
	before := e.Viewport()
	e.PointerDown(Point{10, 10})
	e.PointerMove(Point{100, 100})
	e.PointerUp(Point{100, 100})
	assert.Equal(t, before, e.Viewport())
	assert.Empty(t, e.Selected())

	// Wheel zoom is still allowed.
	assert.True(t, e.Wheel(Point{200, 150}, -1))

	assert.False(t, e.DeleteSelected())
	assert.Empty(t, rec.all())
}

func TestEditor_LockedNeverChangesPersistedState(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1), device("d2", 20, 30, 1.5), device("d3", 80, 10, 0.8))

	// Select something so delete has a target.
	e.PointerDown(Point{410, 300})
	e.PointerUp(Point{410, 300})
	e.SetLocked(true)

	kinds := []InputKind{InputPointerDown, InputPointerMove, InputPointerMove, InputPointerUp, InputPointerCancel, InputWheel, InputPinch, InputDelete, InputDeselect}
	for i := 0; i < 5000; i++ {
		in := Input{
			Kind:   kinds[rng.Intn(len(kinds))],
			X:      rng.Float64()*900 - 50,
			Y:      rng.Float64()*700 - 50,
			DeltaY: rng.Float64()*2 - 1,
			Factor: 0.5 + rng.Float64(),
		}
		require.NoError(t, e.Dispatch(in))
	}

	assert.Empty(t, rec.all())
	for _, m := range e.Markers().All() {
		assert.False(t, m.Dragging())
	}
	m, _ := e.Markers().Get("d2")
	assert.Equal(t, Point{20, 30}, m.Percent())
	assert.Equal(t, 1.5, m.Scale())
	assert.Equal(t, 3, e.Markers().Len())
}

func TestEditor_LockingMidDragCancels(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))

	e.PointerDown(Point{410, 300})
	e.PointerMove(Point{500, 500})
	e.SetLocked(true)
	e.PointerUp(Point{500, 500})

	assert.Empty(t, rec.all())
	m, _ := e.Markers().Get("d1")
	assert.Equal(t, Point{50, 50}, m.Percent())
	assert.False(t, m.Dragging())
}

func TestEditor_WheelZoomAnchorsPointer(t *testing.T) {
	e := newTestEditor(t, nil, device("d1", 50, 50, 1))
	pointer := Point{200, 150}
	under := ToStage(pointer, e.Viewport())

	require.NoError(t, e.Dispatch(Input{Kind: InputWheel, X: 200, Y: 150, DeltaY: -100}))
	assert.InDelta(t, 1.1, e.Viewport().Zoom, eps)
	got := ToScreen(under, e.Viewport())
	assert.InDelta(t, 200, got.X, 1e-9)
	assert.InDelta(t, 150, got.Y, 1e-9)

	assert.False(t, e.Wheel(pointer, 0))
}

func TestEditor_DeleteSelected(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))

	assert.False(t, e.DeleteSelected(), "nothing selected")

	e.PointerDown(Point{410, 300})
	e.PointerUp(Point{410, 300})
	e.TakeNotices()

	require.True(t, e.DeleteSelected())
	assert.Equal(t, 0, e.Markers().Len())
	assert.Equal(t, StateIdle, e.State())

	commits := rec.all()
	require.Len(t, commits, 1)
	assert.Equal(t, CommitDelete, commits[0].Kind)
	assert.Equal(t, "fp-1", commits[0].FloorplanID)
	assert.Equal(t, []NoticeKind{NoticeDeselect, NoticeCommit}, noticeKinds(e.TakeNotices()))
}

func TestEditor_SyncDevices(t *testing.T) {
	e := newTestEditor(t, &recordingSubmitter{}, device("d1", 50, 50, 1), device("d2", 10, 10, 1))
	e.PointerDown(Point{410, 300})
	e.PointerUp(Point{410, 300})
	e.TakeNotices()

	e.SyncDevices([]models.Device{device("d2", 20, 20, 1)})
	assert.Empty(t, e.Selected())
	assert.Equal(t, []NoticeKind{NoticeDeselect}, noticeKinds(e.TakeNotices()))

	m, ok := e.Markers().Get("d2")
	require.True(t, ok)
	assert.Equal(t, Point{20, 20}, m.Percent())
}

func TestEditor_Dispatch(t *testing.T) {
	rec := &recordingSubmitter{}
	e := newTestEditor(t, rec, device("d1", 50, 50, 1))

	inputs := []Input{
		{Kind: InputPointerDown, X: 410, Y: 300},
		{Kind: InputPointerMove, X: 410, Y: 400},
		{Kind: InputPointerUp, X: 410, Y: 450},
		{Kind: InputResize, Width: 400, Height: 300},
	}
	for _, in := range inputs {
		require.NoError(t, e.Dispatch(in))
	}
	require.Len(t, rec.all(), 1)
	assert.InDelta(t, 0.45, e.Viewport().Zoom, eps)

	err := e.Dispatch(Input{Kind: "teleport"})
	assert.ErrorIs(t, err, ErrUnknownInput)
}

func TestEditor_Frame(t *testing.T) {
	e := newTestEditor(t, nil, device("d1", 50, 50, 1))
	e.PointerDown(Point{410, 300})
	e.PointerUp(Point{410, 300})

	f := e.Frame(nil)
	assert.Equal(t, "fp-1", f.FloorplanID)
	assert.Equal(t, StateSelected, f.State)
	assert.Equal(t, "/uploads/floorplans/plan.png", f.Background.URL)
	require.Len(t, f.Markers, 1)
	mf := f.Markers[0]
	assert.True(t, mf.Selected)
	assert.Equal(t, Point{400, 300}, mf.Screen)
	assert.Equal(t, HashColor("d1", "Device d1"), mf.Color)
	assert.Len(t, f.Handles, 4)
}
