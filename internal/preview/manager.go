// Package preview exposes the server-side render pipeline over HTTP: live
// editor sessions, export downloads and cached list thumbnails.
package preview

import (
	"fmt"
	"sync"
	"time"

	"github.com/flowdraw-ai/flowdraw-backend/internal/render"
)

// Manager owns the live render sessions, one per open diagram per user.
// Each session gets its own queue so two open editors never serialize
// against each other.
type Manager struct {
	compiler render.Compiler
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*render.Session
}

func NewManager(compiler render.Compiler, debounce time.Duration) *Manager {
	return &Manager{
		compiler: compiler,
		debounce: debounce,
		sessions: make(map[string]*render.Session),
	}
}

func sessionKey(userID int64, diagramID string) string {
	return fmt.Sprintf("%d:%s", userID, diagramID)
}

// Session returns the live session for a diagram, creating it on first use.
// created tells the caller to seed it from the stored document.
func (m *Manager) Session(userID int64, diagramID string) (s *render.Session, created bool) {
	key := sessionKey(userID, diagramID)
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[key]; ok {
		return s, false
	}
	s = render.NewSession(render.SessionOptions{
		Compiler: m.compiler,
		Debounce: m.debounce,
	})
	m.sessions[key] = s
	return s, true
}

// Peek returns the session without creating one.
func (m *Manager) Peek(userID int64, diagramID string) (*render.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionKey(userID, diagramID)]
	return s, ok
}

// Drop closes and removes the session. Called when the editor closes.
func (m *Manager) Drop(userID int64, diagramID string) {
	key := sessionKey(userID, diagramID)
	m.mu.Lock()
	s, ok := m.sessions[key]
	delete(m.sessions, key)
	m.mu.Unlock()
	if ok {
		s.Close()
	}
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
