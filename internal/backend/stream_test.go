package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// chunkReader hands the body out in predefined pieces so chunk
// boundaries can be forced anywhere, including mid data: line and mid
// JSON.
type chunkReader struct {
	chunks []string
	pos    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.pos])
	if n < len(r.chunks[r.pos]) {
		r.chunks[r.pos] = r.chunks[r.pos][n:]
	} else {
		r.pos++
	}
	return n, nil
}

func splitAt(body string, offsets ...int) []string {
	var chunks []string
	prev := 0
	for _, off := range offsets {
		if off <= prev || off >= len(body) {
			continue
		}
		chunks = append(chunks, body[prev:off])
		prev = off
	}
	chunks = append(chunks, body[prev:])
	return chunks
}

func collectEvents(t *testing.T, r io.Reader) []StreamEvent {
	t.Helper()
	var events []StreamEvent
	scanner := newEventScanner(r)
	for {
		seg, err := scanner.next()
		if err != nil {
			if err != io.EOF {
				t.Fatalf("unexpected scan error: %v", err)
			}
			return events
		}
		if ev, ok := decodeEvent(seg); ok {
			events = append(events, ev)
			if ev.Done || ev.Err != "" {
				return events
			}
		}
	}
}

func TestEventScanner_ChunkBoundaryIndependence(t *testing.T) {
	body := "data: {\"content\":\"Hel\"}\n\ndata: {\"content\":\"lo\"}\n\ndata: {\"done\":true}\n\n"

	check := func(t *testing.T, chunks []string) {
		events := collectEvents(t, &chunkReader{chunks: chunks})
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
		}
		var acc strings.Builder
		for _, ev := range events[:2] {
			acc.WriteString(ev.Content)
		}
		if acc.String() != "Hello" {
			t.Errorf("expected accumulated text 'Hello', got %q", acc.String())
		}
		if !events[2].Done {
			t.Errorf("expected final event to be done, got %+v", events[2])
		}
	}

	t.Run("single chunk", func(t *testing.T) {
		check(t, []string{body})
	})

	t.Run("five arbitrary offsets", func(t *testing.T) {
		// Splits fall mid "data:", mid JSON, and on the separator.
		check(t, splitAt(body, 3, 11, 26, 40, 61))
	})

	t.Run("every single split point", func(t *testing.T) {
		for off := 1; off < len(body); off++ {
			check(t, splitAt(body, off))
		}
	})

	t.Run("byte at a time", func(t *testing.T) {
		chunks := make([]string, len(body))
		for i := range body {
			chunks[i] = body[i : i+1]
		}
		check(t, chunks)
	})
}

func TestEventScanner_MalformedEventSkipped(t *testing.T) {
	body := "data: {\"content\":\"a\"}\n\ndata: {not json\n\ndata: {\"content\":\"b\"}\n\ndata: {\"done\":true}\n\n"

	events := collectEvents(t, strings.NewReader(body))
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %+v", len(events), events)
	}
	if events[0].Content != "a" || events[1].Content != "b" {
		t.Errorf("valid events around the malformed one were lost: %+v", events)
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name string
		seg  string
		want StreamEvent
		ok   bool
	}{
		{"content", `data: {"content":"hi"}`, StreamEvent{Content: "hi"}, true},
		{"tool call", `data: {"toolCall":"show_booking_form"}`, StreamEvent{ToolCall: "show_booking_form"}, true},
		{"booking prefill", `data: {"bookingSubmitted":true,"bookingData":{"name":"Ada"}}`,
			StreamEvent{BookingSubmitted: true, BookingData: map[string]string{"name": "Ada"}}, true},
		{"error", `data: {"error":"boom"}`, StreamEvent{Err: "boom"}, true},
		{"done", `data: {"done":true}`, StreamEvent{Done: true}, true},
		{"no prefix", `{"content":"hi"}`, StreamEvent{}, false},
		{"bad json", `data: {nope`, StreamEvent{}, false},
		{"blank", ``, StreamEvent{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeEvent([]byte(tt.seg))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Content != tt.want.Content || got.ToolCall != tt.want.ToolCall ||
				got.Err != tt.want.Err || got.Done != tt.want.Done ||
				got.BookingSubmitted != tt.want.BookingSubmitted {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if tt.want.BookingData != nil && got.BookingData["name"] != tt.want.BookingData["name"] {
				t.Errorf("booking data mismatch: %+v", got.BookingData)
			}
		})
	}
}

func TestStreamChat_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/widget/chat/stream" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-API-Key") != "test-key-1234" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		flusher := w.(http.Flusher)
		for _, chunk := range []string{
			"data: {\"content\":\"one \"}\n\n",
			"data: {\"content\":\"two\"}\n\ndata: {\"done\":true}\n\n",
		} {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key-1234")
	events, err := client.StreamChat(context.Background(), &ChatRequest{
		ChatbotID: "bot-1", SessionID: "sess", Message: "hello",
	})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	var acc strings.Builder
	done := false
	for ev := range events {
		acc.WriteString(ev.Content)
		if ev.Done {
			done = true
		}
	}
	if acc.String() != "one two" {
		t.Errorf("expected 'one two', got %q", acc.String())
	}
	if !done {
		t.Error("expected a terminal done event")
	}
}

func TestStreamChat_RequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"usage limit exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key-1234")
	_, err := client.StreamChat(context.Background(), &ChatRequest{ChatbotID: "bot-1", Message: "hi"})
	if err == nil {
		t.Fatal("expected an error for non-200 response")
	}
	if !strings.Contains(err.Error(), "usage limit exceeded") {
		t.Errorf("expected backend error text in %q", err.Error())
	}
}

func TestStreamChat_TerminalErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "data: {\"content\":\"partial\"}\n\n")
		flusher.Flush()
		fmt.Fprint(w, "data: {\"error\":\"model unavailable\"}\n\n")
		flusher.Flush()
		// Anything after the terminal event must be ignored.
		fmt.Fprint(w, "data: {\"content\":\"late\"}\n\n")
	}))
	defer srv.Close()

	client := New(srv.URL, "test-key-1234")
	events, err := client.StreamChat(context.Background(), &ChatRequest{ChatbotID: "bot-1", Message: "hi"})
	if err != nil {
		t.Fatalf("StreamChat failed: %v", err)
	}

	var got []StreamEvent
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				if len(got) != 2 {
					t.Fatalf("expected 2 events before termination, got %+v", got)
				}
				if got[0].Content != "partial" || got[1].Err != "model unavailable" {
					t.Errorf("unexpected event sequence: %+v", got)
				}
				return
			}
			got = append(got, ev)
		case <-deadline:
			t.Fatal("timed out waiting for stream to terminate")
		}
	}
}
