package diagrams

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("diagram not found")
	// ErrPersistence marks storage failures the caller can surface as "your
	// work was not saved" without losing the in-memory state.
	ErrPersistence = errors.New("diagram persistence failed")
	// ErrGenerationDisabled is returned when no AI backend is configured.
	ErrGenerationDisabled = errors.New("diagram generation not configured")
)

// Diagram is a stored document plus its last-saved view settings.
type Diagram struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	OwnerID   int64      `json:"-"`
	Title     string     `json:"title"`
	Source    string     `json:"source"`
	Layout    string     `json:"layout"`
	Theme     string     `json:"theme"`
	Direction string     `json:"direction"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

// Snapshot is one append-only history entry. UserPrompt is "manual save"
// for explicit saves or the instruction text for AI edits; AIResponse holds
// a summary of the assistant's answer and stays nil for manual saves.
type Snapshot struct {
	ID         string    `json:"id"`
	DiagramID  string    `json:"diagram_id"`
	Source     string    `json:"source"`
	Layout     string    `json:"layout"`
	Theme      string    `json:"theme"`
	Direction  string    `json:"direction"`
	UserPrompt string    `json:"user_prompt"`
	AIResponse *string   `json:"ai_response,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	// ManualSavePrompt marks snapshots created by the explicit save action.
	ManualSavePrompt = "manual save"
	// HistoryLimit caps how many snapshots a history listing returns.
	HistoryLimit = 50
)
