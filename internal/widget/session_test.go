package widget

import (
	"errors"
	"regexp"
	"testing"
)

func TestNewSessionToken(t *testing.T) {
	format := regexp.MustCompile(`^[0-9a-z]+$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := NewSessionToken()
		if !format.MatchString(token) {
			t.Fatalf("token %q is not lowercase base36", token)
		}
		if seen[token] {
			t.Fatalf("duplicate token %q", token)
		}
		seen[token] = true
	}
}

func TestEnsureSession(t *testing.T) {
	t.Run("stable per chatbot, distinct across chatbots", func(t *testing.T) {
		store := NewMemSessionStore()

		first := EnsureSession(store, "bot-a")
		if first == "" {
			t.Fatal("empty token")
		}
		if again := EnsureSession(store, "bot-a"); again != first {
			t.Errorf("token changed between visits: %q vs %q", first, again)
		}
		if other := EnsureSession(store, "bot-b"); other == first {
			t.Error("distinct chatbots must not share a token")
		}
	})

	t.Run("nil store degrades to ephemeral", func(t *testing.T) {
		a := EnsureSession(nil, "bot-a")
		b := EnsureSession(nil, "bot-a")
		if a == "" || b == "" {
			t.Fatal("ephemeral tokens must still be generated")
		}
		if a == b {
			t.Error("ephemeral tokens should not repeat")
		}
	})

	t.Run("broken store degrades to ephemeral", func(t *testing.T) {
		token := EnsureSession(failingStore{}, "bot-a")
		if token == "" {
			t.Error("store errors must not block session creation")
		}
	})
}

type failingStore struct{}

func (failingStore) Token(string) (string, bool, error) { return "", false, errors.New("down") }
func (failingStore) SaveToken(string, string) error     { return errors.New("down") }
func (failingStore) Opened(string) (bool, error)        { return false, errors.New("down") }
func (failingStore) MarkOpened(string) error            { return errors.New("down") }
