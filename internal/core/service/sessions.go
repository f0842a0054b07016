package service

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionFactory builds the session for a chat, wired to the stores the
// caller chose.
type SessionFactory func(chatID int64) *Session

// SessionManager keeps one Session per chat and tears idle ones down after
// a TTL, so preview handles of abandoned sessions are released without the
// user ever sending /reset.
type SessionManager struct {
	factory SessionFactory
	ttl     time.Duration

	mu       sync.Mutex
	sessions map[int64]*managedSession
}

type managedSession struct {
	session *Session
	expiry  *time.Timer
}

func NewSessionManager(factory SessionFactory, ttl time.Duration) *SessionManager {
	return &SessionManager{
		factory:  factory,
		ttl:      ttl,
		sessions: make(map[int64]*managedSession),
	}
}

// Get returns the chat's session, creating it on first use. Every call
// rearms the chat's expiry timer.
func (m *SessionManager) Get(chatID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.sessions[chatID]; ok {
		if entry.expiry.Reset(m.ttl) {
			return entry.session
		}
		// expiry fired already, the entry is being torn down
		delete(m.sessions, chatID)
	}

	log.Debug().Int64("chatId", chatID).Msg("starting new edit session")

	entry := &managedSession{session: m.factory(chatID)}
	entry.expiry = time.AfterFunc(m.ttl, func() {
		m.expire(chatID, entry)
	})
	m.sessions[chatID] = entry

	return entry.session
}

// Reset tears down and removes the chat's session. It reports whether one
// existed.
func (m *SessionManager) Reset(chatID int64) bool {
	m.mu.Lock()
	entry, ok := m.sessions[chatID]
	if ok {
		entry.expiry.Stop()
		delete(m.sessions, chatID)
	}
	m.mu.Unlock()

	if ok {
		entry.session.Teardown()
	}

	return ok
}

// Close tears down every remaining session. Called on shutdown.
func (m *SessionManager) Close() {
	m.mu.Lock()
	entries := make([]*managedSession, 0, len(m.sessions))
	for chatID, entry := range m.sessions {
		entry.expiry.Stop()
		entries = append(entries, entry)
		delete(m.sessions, chatID)
	}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.session.Teardown()
	}

	log.Debug().Int("sessions", len(entries)).Msg("closed session manager")
}

func (m *SessionManager) expire(chatID int64, entry *managedSession) {
	m.mu.Lock()
	if current, ok := m.sessions[chatID]; ok && current == entry {
		delete(m.sessions, chatID)
	}
	m.mu.Unlock()

	log.Debug().Int64("chatId", chatID).Msg("edit session expired")
	entry.session.Teardown()
}
