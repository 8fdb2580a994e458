package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xelochat/widget-engine/internal/widget"
)

func newTestRepo(t *testing.T) *SessionRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "widget.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSessionRepository(db)
}

func TestSessionRepository_Tokens(t *testing.T) {
	repo := newTestRepo(t)

	if _, ok, err := repo.Token("bot-a"); err != nil || ok {
		t.Fatalf("fresh store should have no token, got ok=%v err=%v", ok, err)
	}

	if err := repo.SaveToken("bot-a", "token-a"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if err := repo.SaveToken("bot-b", "token-b"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}

	token, ok, err := repo.Token("bot-a")
	if err != nil || !ok || token != "token-a" {
		t.Errorf("Token(bot-a) = %q, %v, %v", token, ok, err)
	}
	token, _, _ = repo.Token("bot-b")
	if token != "token-b" {
		t.Errorf("tokens must be isolated per chatbot, got %q", token)
	}

	// Replacing a token keeps one row per chatbot.
	if err := repo.SaveToken("bot-a", "token-a2"); err != nil {
		t.Fatalf("replacement SaveToken failed: %v", err)
	}
	if token, _, _ = repo.Token("bot-a"); token != "token-a2" {
		t.Errorf("replacement not applied, got %q", token)
	}
}

func TestSessionRepository_OpenedFlag(t *testing.T) {
	repo := newTestRepo(t)

	if opened, err := repo.Opened("bot-a"); err != nil || opened {
		t.Fatalf("unknown chatbot should read as never opened, got %v, %v", opened, err)
	}

	if err := repo.SaveToken("bot-a", "token-a"); err != nil {
		t.Fatalf("SaveToken failed: %v", err)
	}
	if opened, _ := repo.Opened("bot-a"); opened {
		t.Error("new session should start unopened")
	}

	if err := repo.MarkOpened("bot-a"); err != nil {
		t.Fatalf("MarkOpened failed: %v", err)
	}
	if opened, _ := repo.Opened("bot-a"); !opened {
		t.Error("opened flag not persisted")
	}
	if opened, _ := repo.Opened("bot-b"); opened {
		t.Error("opened flag leaked across chatbots")
	}
}

func TestSessionRepository_Transcript(t *testing.T) {
	repo := newTestRepo(t)

	base := time.Now().Add(-time.Minute).Truncate(time.Second)
	for idx, content := range []string{"hi", "hello", "bye"} {
		err := repo.Append("token-a", widget.StoredMessage{
			ID:        string(rune('a' + idx)),
			Role:      "user",
			Content:   content,
			CreatedAt: base.Add(time.Duration(idx) * time.Second),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := repo.Append("token-b", widget.StoredMessage{ID: "x", Role: "user", Content: "other", CreatedAt: base}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	messages, err := repo.Load("token-a")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	for idx, want := range []string{"hi", "hello", "bye"} {
		if messages[idx].Content != want {
			t.Errorf("message %d = %q, want %q", idx, messages[idx].Content, want)
		}
	}

	empty, err := repo.Load("token-missing")
	if err != nil || len(empty) != 0 {
		t.Errorf("unknown session should load empty, got %v, %v", empty, err)
	}
}

func TestSessionRepository_SatisfiesWidgetStores(t *testing.T) {
	repo := newTestRepo(t)
	var _ widget.SessionStore = repo
	var _ widget.TranscriptStore = repo

	token := widget.EnsureSession(repo, "bot-a")
	if token == "" {
		t.Fatal("EnsureSession returned an empty token")
	}
	if again := widget.EnsureSession(repo, "bot-a"); again != token {
		t.Errorf("token not durable across mounts: %q vs %q", token, again)
	}
}
