package store

import (
	"sync"
	"time"

	"confidante-backend/internal/chatbot"
)

type session struct {
	transcript *chatbot.Transcript
	lastSeen   time.Time
}

// MemoryStore keeps one chat transcript per browser session. Nothing is
// persisted; a session idle for longer than ttl is dropped whole.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Transcript returns the session's transcript, creating one when the session
// is new or has expired. A new transcript holds seed before any other caller
// can see it.
func (m *MemoryStore) Transcript(sessionID string, seed ...chatbot.Message) (tr *chatbot.Transcript, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	s, ok := m.sessions[sessionID]
	if ok && m.expiredLocked(s, now) {
		ok = false
	}
	if !ok {
		s = &session{transcript: &chatbot.Transcript{}}
		for _, msg := range seed {
			s.transcript.Append(msg)
		}
		m.sessions[sessionID] = s
		created = true
	}
	s.lastSeen = now
	return s.transcript, created
}

// Get returns a copy of the session's messages, or nil for unknown sessions.
func (m *MemoryStore) Get(sessionID string) []chatbot.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok || m.expiredLocked(s, m.now()) {
		return nil
	}
	return s.transcript.Messages()
}

// Reset forgets a session, the equivalent of reloading the page.
func (m *MemoryStore) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for id, s := range m.sessions {
		if m.expiredLocked(s, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) expiredLocked(s *session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.lastSeen) > m.ttl
}
