package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rsharda/personad/internal/llm"
)

// Profile is what the twin knows about the person it is talking to.
type Profile struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Session holds one conversation's history and user profile.
type Session struct {
	mu sync.Mutex

	ID        string
	Profile   Profile
	History   []llm.Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppendTurn records one user/assistant exchange.
func (s *Session) AppendTurn(userText, assistantText string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.History = append(s.History,
		llm.Message{Role: "user", Content: userText},
		llm.Message{Role: "assistant", Content: assistantText},
	)
	s.UpdatedAt = time.Now()
}

// UpdateProfile fills in known fields; empty values never overwrite.
func (s *Session) UpdateProfile(name, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != "" {
		s.Profile.Name = name
	}
	if email != "" {
		s.Profile.Email = email
	}
	s.UpdatedAt = time.Now()
}

// Window returns up to the last n history messages, for prompt assembly.
func (s *Session) Window(n int) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	out := make([]llm.Message, len(s.History)-start)
	copy(out, s.History[start:])
	return out
}

// UserName returns the profile name, or "Guest" when unknown.
func (s *Session) UserName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Profile.Name == "" {
		return "Guest"
	}
	return s.Profile.Name
}

// Snapshot is a JSON-safe copy of session state.
type Snapshot struct {
	ID        string    `json:"session_id"`
	Profile   Profile   `json:"profile"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.ID,
		Profile:   s.Profile,
		Turns:     len(s.History) / 2,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// Manager is a thread-safe in-memory session registry with TTL eviction.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// GetOrCreate returns the session for id, creating it if needed. An empty
// id gets a fresh uuid.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	if s, ok := m.sessions[id]; ok {
		return s
	}
	now := time.Now()
	s := &Session{ID: id, CreatedAt: now, UpdatedAt: now}
	m.sessions[id] = s
	return s
}

// Get returns a session or nil.
func (m *Manager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Clear deletes a session. Unknown ids are a no-op.
func (m *Manager) Clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Cleanup removes sessions idle past the TTL.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, s := range m.sessions {
		s.mu.Lock()
		idle := now.Sub(s.UpdatedAt)
		s.mu.Unlock()
		if idle > m.ttl {
			delete(m.sessions, id)
		}
	}
}

// Start launches the background eviction loop.
func (m *Manager) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				m.Cleanup()
			}
		}
	}()
}

// Stop halts the eviction loop.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
