package chat

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
	"vtopassist-backend/lib/llm"
	"vtopassist-backend/lib/scrapers/vtop"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// maxHistory bounds the conversation turns kept for LLM context. The
// oldest turn falls off first.
const maxHistory = 5

// Credentials is what a session logged in with.
type Credentials struct {
	Username string
	Password string
	Campus   vtop.Campus
	IsDemo   bool
}

// Session is one user's isolated conversation with the assistant. The
// portal client inside carries its own cookie jar and caches; nothing
// here is shared across sessions.
type Session struct {
	Id string

	mu       sync.Mutex
	loggedIn bool
	creds    Credentials
	history  []llm.Message
	client   *vtop.Client
}

func (s *Session) SetLoggedIn(client *vtop.Client, creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loggedIn = true
	s.client = client
	s.creds = creds
}

func (s *Session) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loggedIn
}

func (s *Session) Credentials() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

func (s *Session) Client() *vtop.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// AppendHistory records one conversation turn, evicting the oldest
// once the window is full.
func (s *Session) AppendHistory(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, llm.Message{Role: role, Content: content})
	if len(s.history) > maxHistory {
		s.history = s.history[1:]
	}
}

// History returns a copy of the conversation window.
func (s *Session) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// SessionStore tracks live sessions. Idle sessions fall out of the LRU
// on their own; logout removes them eagerly.
type SessionStore struct {
	sessions *expirable.LRU[string, *Session]
}

func NewSessionStore(idleTTL time.Duration) *SessionStore {
	return &SessionStore{
		sessions: expirable.NewLRU[string, *Session](2048, nil, idleTTL),
	}
}

// NewSessionId mints an unguessable session identifier.
func NewSessionId() (string, error) {
	buff := make([]byte, 16)
	_, err := rand.Read(buff)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buff), nil
}

func (s *SessionStore) Get(id string) (*Session, bool) {
	return s.sessions.Get(id)
}

// Reset installs a fresh session under id, discarding any state a
// previous login left behind.
func (s *SessionStore) Reset(id string) *Session {
	session := &Session{Id: id}
	s.sessions.Add(id, session)
	return session
}

func (s *SessionStore) Remove(id string) {
	s.sessions.Remove(id)
}
