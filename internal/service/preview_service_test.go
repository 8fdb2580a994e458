package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/xelochat/widget-engine/internal/config"
	"github.com/xelochat/widget-engine/internal/domain"
	"github.com/xelochat/widget-engine/internal/widget"
	"go.uber.org/zap"
)

type countingBackend struct {
	mu           sync.Mutex
	profileCalls int
}

func (b *countingBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/widget/chatbot/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.profileCalls++
		b.mu.Unlock()
		io.WriteString(w, `{
			"clinicData": {"name": "Acme Dental"},
			"theme": {"primaryColor": "#3b82f6"},
			"bookingEnabled": true,
			"pageDisplayMode": "ALL",
			"language": "en"
		}`)
	})
	mux.HandleFunc("/api/widget/chat/stream", func(w http.ResponseWriter, r *http.Request) {
		fl := w.(http.Flusher)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "data: {\"content\":\"hello there\"}\n\ndata: {\"done\":true}\n\n")
		fl.Flush()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (b *countingBackend) profiles() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profileCalls
}

func newTestService(t *testing.T, backendURL string) *PreviewService {
	t.Helper()
	svc, err := NewPreviewService(&config.Config{
		Backend: config.BackendConfig{BaseURL: backendURL, APIKey: "0123456789abcdef"},
		Cache:   config.CacheConfig{ProfileTTL: time.Minute},
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPreviewService failed: %v", err)
	}
	t.Cleanup(svc.CloseAll)
	return svc
}

func waitSessionView(t *testing.T, svc *PreviewService, id, desc string, pred func(widget.View) bool) widget.View {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		v, err := svc.View(id)
		if err != nil {
			t.Fatalf("View failed: %v", err)
		}
		if pred(v) {
			return v
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
	return widget.View{}
}

func TestCreateSession(t *testing.T) {
	backend := &countingBackend{}
	srv := backend.server(t)
	svc := newTestService(t, srv.URL)

	id, view, err := svc.CreateSession(CreateSessionRequest{ChatbotID: "bot-1"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}
	if !view.Mounted || !view.Open {
		t.Errorf("preview session should mount open: %+v", view)
	}

	waitSessionView(t, svc, id, "profile load", func(v widget.View) bool { return v.Ready })
}

func TestCreateSession_InvalidParamsFailClosed(t *testing.T) {
	backend := &countingBackend{}
	srv := backend.server(t)
	svc := newTestService(t, srv.URL)

	_, _, err := svc.CreateSession(CreateSessionRequest{ChatbotID: "bad id"})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestSend_BroadcastsToSubscribers(t *testing.T) {
	backend := &countingBackend{}
	srv := backend.server(t)
	svc := newTestService(t, srv.URL)

	id, _, err := svc.CreateSession(CreateSessionRequest{ChatbotID: "bot-1"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	waitSessionView(t, svc, id, "profile load", func(v widget.View) bool { return v.Ready })

	views, cancel, err := svc.Subscribe(id)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer cancel()

	if err := svc.Send(id, "hi"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case v := <-views:
			if !v.Typing && len(v.Messages) == 2 {
				if v.Messages[1].HTML != "hello there" {
					t.Errorf("unexpected assistant message: %q", v.Messages[1].HTML)
				}
				return
			}
		case <-deadline:
			t.Fatal("never observed the completed turn on the feed")
		}
	}
}

func TestCloseSession(t *testing.T) {
	backend := &countingBackend{}
	srv := backend.server(t)
	svc := newTestService(t, srv.URL)

	id, _, err := svc.CreateSession(CreateSessionRequest{ChatbotID: "bot-1"})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	views, _, err := svc.Subscribe(id)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := svc.CloseSession(id); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if _, err := svc.View(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("closed session still resolvable: %v", err)
	}
	if err := svc.CloseSession(id); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("double close: got %v, want ErrSessionNotFound", err)
	}

	select {
	case _, open := <-views:
		for open {
			_, open = <-views
		}
	case <-time.After(2 * time.Second):
		t.Error("subscriber channel never closed")
	}
}

func TestProfile_CachesLookups(t *testing.T) {
	backend := &countingBackend{}
	srv := backend.server(t)
	svc := newTestService(t, srv.URL)

	ctx := context.Background()
	first, err := svc.Profile(ctx, "bot-1", "")
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if first.Name != "Acme Dental" {
		t.Errorf("unexpected profile: %+v", first)
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.Profile(ctx, "bot-1", ""); err != nil {
			t.Fatalf("cached Profile failed: %v", err)
		}
	}
	if got := backend.profiles(); got != 1 {
		t.Errorf("expected a single backend fetch, got %d", got)
	}

	if _, err := svc.Profile(ctx, "bot-2", ""); err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if got := backend.profiles(); got != 2 {
		t.Errorf("distinct chatbots must fetch separately, got %d calls", got)
	}
}
