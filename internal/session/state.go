package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/home-manager/backend/internal/canvas"
	"github.com/home-manager/backend/internal/models"
	"github.com/rs/zerolog"
)

// EventType identifies a session Event.
type EventType string

const (
	EventNotice       EventType = "notice"
	EventCommitResult EventType = "commitResult"
	EventClosed       EventType = "closed"
)

// Event is pushed to session subscribers.
type Event struct {
	Type   EventType            `json:"type" msgpack:"type"`
	Notice *canvas.Notice       `json:"notice,omitempty" msgpack:"notice,omitempty"`
	Result *canvas.CommitResult `json:"result,omitempty" msgpack:"result,omitempty"`
}

const subscriberBuffer = 64

// State is one open editor. mu serializes input to the editor; infoMu guards
// the session metadata and subscribers, which commit callbacks also touch.
type State struct {
	mu     sync.Mutex
	editor *canvas.Editor
	bridge *canvas.Bridge

	infoMu  sync.Mutex
	Session *models.EditorSession
	subs    map[int]chan Event
	nextSub int
	closed  bool

	log zerolog.Logger
}

func (s *State) id() string {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	return s.Session.ID
}

func (s *State) floorplanID() string {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	return s.Session.FloorplanID
}

func (s *State) lastAccessed() time.Time {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	return s.Session.LastAccessed
}

func (s *State) touch() {
	s.infoMu.Lock()
	s.Session.LastAccessed = time.Now()
	s.infoMu.Unlock()
}

func (s *State) snapshot() *models.EditorSession {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	cp := *s.Session
	return &cp
}

func (s *State) dispatch(r canvas.ImageResolver, inputs []canvas.Input) (canvas.Frame, []canvas.Notice, error) {
	s.touch()

	s.mu.Lock()
	var err error
	for i, in := range inputs {
		if err = s.editor.Dispatch(in); err != nil {
			err = fmt.Errorf("input %d: %w", i, err)
			break
		}
	}
	notices := s.editor.TakeNotices()
	locked := s.editor.Locked()
	frame := s.editor.Frame(r)
	s.mu.Unlock()

	s.infoMu.Lock()
	s.Session.Locked = locked
	for _, n := range notices {
		if n.Kind == canvas.NoticeCommit {
			s.Session.CommitsIssued++
		}
	}
	s.infoMu.Unlock()

	s.publishNotices(notices)
	return frame, notices, err
}

// onResult runs on the bridge's commit goroutine and must not touch the editor.
func (s *State) onResult(res canvas.CommitResult) {
	s.infoMu.Lock()
	if res.Err != nil {
		s.Session.CommitsFailed++
		s.Session.LastCommitErr = res.Error
	}
	s.infoMu.Unlock()

	r := res
	s.publish(Event{Type: EventCommitResult, Result: &r})
}

func (s *State) publishNotices(notices []canvas.Notice) {
	for i := range notices {
		n := notices[i]
		s.publish(Event{Type: EventNotice, Notice: &n})
	}
}

func (s *State) publish(ev Event) {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	if s.closed {
		return
	}
	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn().Int("subscriber", id).Str("event", string(ev.Type)).Msg("Subscriber too slow, dropping event")
		}
	}
}

func (s *State) subscribe() (<-chan Event, func()) {
	s.infoMu.Lock()
	defer s.infoMu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	return ch, func() {
		s.infoMu.Lock()
		defer s.infoMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// close detaches the bridge and ends every subscription with EventClosed.
func (s *State) close() {
	s.bridge.Close()

	s.infoMu.Lock()
	defer s.infoMu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.Session.Status = models.SessionStatusClosed
	for id, ch := range s.subs {
		select {
		case ch <- Event{Type: EventClosed}:
		default:
		}
		close(ch)
		delete(s.subs, id)
	}
}
