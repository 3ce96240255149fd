package models

import "time"

// SessionStatus represents the status of an editor session.
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

// EditorSession describes one open floorplan editor.
type EditorSession struct {
	ID            string        `json:"id"`
	FloorplanID   string        `json:"floorplanId"`
	Status        SessionStatus `json:"status"`
	Locked        bool          `json:"locked"`
	CreatedAt     time.Time     `json:"createdAt"`
	LastAccessed  time.Time     `json:"lastAccessed"`
	CommitsIssued int           `json:"commitsIssued"`
	CommitsFailed int           `json:"commitsFailed"`
	LastCommitErr string        `json:"lastCommitError,omitempty"`
}

// NewEditorSession creates a new EditorSession in open status.
func NewEditorSession(id, floorplanID string, locked bool) *EditorSession {
	now := time.Now()
	return &EditorSession{
		ID:           id,
		FloorplanID:  floorplanID,
		Status:       SessionStatusOpen,
		Locked:       locked,
		CreatedAt:    now,
		LastAccessed: now,
	}
}
