// Package session keeps the open floorplan editors. Each session owns one
// canvas.Editor and the persistence bridge that commits its gestures.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/home-manager/backend/internal/canvas"
	"github.com/home-manager/backend/internal/models"
	"github.com/rs/zerolog"
)

// MaxSessions is the default limit of concurrently open editors.
const MaxSessions = 32

// SessionMaxAge is how long an idle editor is kept before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

var (
	// ErrNotFound is returned for an unknown or closed session.
	ErrNotFound = errors.New("session not found")
	// ErrLimit is returned when MaxSessions editors are open and none is idle.
	ErrLimit = errors.New("too many open editor sessions")
)

// Backend loads floorplans and persists committed gestures.
// *store.SQLStore implements it.
type Backend interface {
	GetFloorplan(ctx context.Context, id string) (*models.FloorplanWithDevices, error)
	canvas.Persister
}

// Options configures a Manager.
type Options struct {
	MaxSessions      int
	Editor           canvas.EditorOptions
	SerializeCommits bool
	CommitTimeout    time.Duration
	Resolver         canvas.ImageResolver
	Logger           zerolog.Logger
}

// Manager handles open editor sessions.
type Manager struct {
	sessions map[string]*State
	mu       sync.RWMutex
	backend  Backend
	opts     Options
	log      zerolog.Logger
}

// NewManager creates a session manager.
func NewManager(backend Backend, opts Options) *Manager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = MaxSessions
	}
	return &Manager{
		sessions: make(map[string]*State),
		backend:  backend,
		opts:     opts,
		log:      opts.Logger.With().Str("component", "session").Logger(),
	}
}

// Open loads a floorplan and starts an editor fitted to container.
func (m *Manager) Open(ctx context.Context, floorplanID string, container canvas.Size, locked bool) (*models.EditorSession, error) {
	if err := m.makeRoom(); err != nil {
		return nil, err
	}

	fp, err := m.backend.GetFloorplan(ctx, floorplanID)
	if err != nil {
		return nil, fmt.Errorf("loading floorplan: %w", err)
	}

	id := uuid.New().String()
	state := &State{
		Session: models.NewEditorSession(id, floorplanID, locked),
		subs:    make(map[int]chan Event),
		log:     m.log.With().Str("session", shortID(id)).Logger(),
	}
	state.bridge = canvas.NewBridge(m.backend, canvas.BridgeOptions{
		Serialize: m.opts.SerializeCommits,
		Timeout:   m.opts.CommitTimeout,
		Logger:    state.log,
		OnResult:  state.onResult,
	})
	editorOpts := m.opts.Editor
	editorOpts.Locked = locked
	state.editor = canvas.NewEditor(fp, container, state.bridge, editorOpts)

	m.mu.Lock()
	if len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		state.bridge.Close()
		return nil, ErrLimit
	}
	m.sessions[id] = state
	count := len(m.sessions)
	m.mu.Unlock()

	sessionsOpen.Set(float64(count))
	state.log.Info().
		Str("floorplan", floorplanID).
		Int("devices", len(fp.Devices)).
		Bool("locked", locked).
		Msg("Editor session opened")
	return state.snapshot(), nil
}

// makeRoom evicts the least recently used idle sessions when at capacity.
func (m *Manager) makeRoom() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < m.opts.MaxSessions {
		return nil
	}

	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)
	idle := make([]*State, 0)
	for _, state := range m.sessions {
		if state.lastAccessed().Before(keepAliveCutoff) {
			idle = append(idle, state)
		}
	}
	sort.Slice(idle, func(i, j int) bool {
		return idle[i].lastAccessed().Before(idle[j].lastAccessed())
	})

	toFree := len(m.sessions) - m.opts.MaxSessions + 1
	for _, state := range idle {
		if toFree == 0 {
			break
		}
		m.closeLocked(state)
		toFree--
		m.log.Info().Str("session", shortID(state.id())).Msg("Evicted idle editor session")
	}
	if toFree > 0 {
		return ErrLimit
	}
	return nil
}

func (m *Manager) get(id string) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return state, nil
}

// Get returns a snapshot of a session.
func (m *Manager) Get(id string) (*models.EditorSession, bool) {
	state, err := m.get(id)
	if err != nil {
		return nil, false
	}
	return state.snapshot(), true
}

// List returns snapshots of all open sessions, oldest first.
func (m *Manager) List() []*models.EditorSession {
	m.mu.RLock()
	out := make([]*models.EditorSession, 0, len(m.sessions))
	for _, state := range m.sessions {
		out = append(out, state.snapshot())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// TouchSession updates the LastAccessed timestamp for a session.
func (m *Manager) TouchSession(id string) bool {
	state, err := m.get(id)
	if err != nil {
		return false
	}
	state.touch()
	return true
}

// Dispatch applies inputs in order and returns the resulting frame and the
// notices they raised. Inputs after an invalid one are not applied.
func (m *Manager) Dispatch(id string, inputs ...canvas.Input) (canvas.Frame, []canvas.Notice, error) {
	state, err := m.get(id)
	if err != nil {
		return canvas.Frame{}, nil, err
	}
	return state.dispatch(m.opts.Resolver, inputs)
}

// Frame renders the current state of a session.
func (m *Manager) Frame(id string) (canvas.Frame, error) {
	state, err := m.get(id)
	if err != nil {
		return canvas.Frame{}, err
	}
	state.touch()

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.editor.Frame(m.opts.Resolver), nil
}

// Reload re-reads the floorplan's devices from the store and replaces the
// local marker state. Gestures in progress keep their preview.
func (m *Manager) Reload(ctx context.Context, id string) (canvas.Frame, []canvas.Notice, error) {
	state, err := m.get(id)
	if err != nil {
		return canvas.Frame{}, nil, err
	}
	state.touch()

	fp, err := m.backend.GetFloorplan(ctx, state.floorplanID())
	if err != nil {
		return canvas.Frame{}, nil, fmt.Errorf("reloading floorplan: %w", err)
	}

	state.mu.Lock()
	state.editor.SyncDevices(fp.Devices)
	notices := state.editor.TakeNotices()
	frame := state.editor.Frame(m.opts.Resolver)
	state.mu.Unlock()

	state.publishNotices(notices)
	return frame, notices, nil
}

// Subscribe streams the notices and commit results of a session. The
// returned cancel function must be called when the subscriber goes away.
func (m *Manager) Subscribe(id string) (<-chan Event, func(), error) {
	state, err := m.get(id)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := state.subscribe()
	return ch, cancel, nil
}

// Close ends a session. Commits already in flight still reach the store.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if ok {
		m.closeLocked(state)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	state.log.Info().Msg("Editor session closed")
	return nil
}

func (m *Manager) closeLocked(state *State) {
	delete(m.sessions, state.id())
	state.close()
	sessionsOpen.Set(float64(len(m.sessions)))
}

// CleanupOldSessions closes sessions not accessed within maxAge.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	closed := 0
	for _, state := range m.sessions {
		last := state.lastAccessed()
		if last.Before(cutoff) {
			m.closeLocked(state)
			closed++
			m.log.Info().
				Str("session", shortID(state.id())).
				Dur("idle", time.Since(last).Round(time.Second)).
				Msg("Cleaned up idle editor session")
		}
	}
	return closed
}

// Shutdown closes every session and waits for outstanding commits.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	states := make([]*State, 0, len(m.sessions))
	for _, state := range m.sessions {
		states = append(states, state)
		m.closeLocked(state)
	}
	m.mu.Unlock()

	for _, state := range states {
		if err := state.bridge.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
