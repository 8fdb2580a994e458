package widget

import (
	"math/rand"
	"strconv"
	"sync"
	"time"
)

// SessionStore persists the per-chatbot anonymous session token and the
// best-effort "has opened before" flag across page loads.
type SessionStore interface {
	Token(chatbotID string) (string, bool, error)
	SaveToken(chatbotID, token string) error
	Opened(chatbotID string) (bool, error)
	MarkOpened(chatbotID string) error
}

// TranscriptStore optionally persists the conversation so a returning
// visitor picks up where they left off.
type TranscriptStore interface {
	Append(sessionToken string, msg StoredMessage) error
	Load(sessionToken string) ([]StoredMessage, error)
}

// StoredMessage is the persisted form of a transcript entry
type StoredMessage struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
}

// NewSessionToken generates an opaque visitor token: random base36
// followed by the current time in base36. Uniqueness at browser-storage
// scale, not cryptographic strength, is the requirement.
func NewSessionToken() string {
	return strconv.FormatUint(rand.Uint64(), 36) +
		strconv.FormatInt(time.Now().UnixMilli(), 36)
}

// EnsureSession returns the durable token for a chatbot, generating and
// persisting one on first visit. Storage failures degrade to an
// ephemeral token; a broken store must never block the widget.
func EnsureSession(store SessionStore, chatbotID string) string {
	if store == nil {
		return NewSessionToken()
	}
	token, ok, err := store.Token(chatbotID)
	if err == nil && ok && token != "" {
		return token
	}
	token = NewSessionToken()
	_ = store.SaveToken(chatbotID, token)
	return token
}

// MemSessionStore is an in-memory SessionStore for server-side preview
// instances and tests.
type MemSessionStore struct {
	mu     sync.Mutex
	tokens map[string]string
	opened map[string]bool
}

// NewMemSessionStore creates an empty in-memory store
func NewMemSessionStore() *MemSessionStore {
	return &MemSessionStore{
		tokens: make(map[string]string),
		opened: make(map[string]bool),
	}
}

func (s *MemSessionStore) Token(chatbotID string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, ok := s.tokens[chatbotID]
	return token, ok, nil
}

func (s *MemSessionStore) SaveToken(chatbotID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[chatbotID] = token
	return nil
}

func (s *MemSessionStore) Opened(chatbotID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened[chatbotID], nil
}

func (s *MemSessionStore) MarkOpened(chatbotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened[chatbotID] = true
	return nil
}
