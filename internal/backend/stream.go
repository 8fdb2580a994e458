package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xelochat/widget-engine/internal/domain"
	"go.uber.org/zap"
)

// StreamEvent is one decoded event from the chat stream. Exactly one
// terminal event (Done or Err) ends every stream.
type StreamEvent struct {
	Content          string
	ToolCall         string
	BookingSubmitted bool
	BookingData      map[string]string
	Err              string
	Done             bool
}

// ChatRequest is the streaming chat payload
type ChatRequest struct {
	ChatbotID string        `json:"chatbotId"`
	SessionID string        `json:"sessionId"`
	History   []domain.Turn `json:"conversationHistory"`
	Message   string        `json:"message"`
}

// eventPayload is the wire shape of a single data: line
type eventPayload struct {
	Content          *string           `json:"content"`
	ToolCall         string            `json:"toolCall"`
	BookingSubmitted bool              `json:"bookingSubmitted"`
	BookingData      map[string]string `json:"bookingData"`
	Error            *string           `json:"error"`
	Done             bool              `json:"done"`
}

const eventSeparator = "\n\n"

// eventScanner splits a chunked response body into complete events.
// A chunk boundary may fall anywhere, including mid data: line or mid
// JSON, so undecoded trailing bytes are buffered across reads and only
// separator-terminated segments are handed out.
type eventScanner struct {
	r     io.Reader
	buf   bytes.Buffer
	chunk []byte
}

func newEventScanner(r io.Reader) *eventScanner {
	return &eventScanner{r: r, chunk: make([]byte, 4096)}
}

// next returns the next complete raw segment, or io.EOF when the body
// is exhausted. A trailing segment without its separator is returned
// before EOF so a truncated final event is still seen.
func (s *eventScanner) next() ([]byte, error) {
	for {
		if i := bytes.Index(s.buf.Bytes(), []byte(eventSeparator)); i >= 0 {
			seg := make([]byte, i)
			copy(seg, s.buf.Bytes()[:i])
			s.buf.Next(i + len(eventSeparator))
			return seg, nil
		}
		n, err := s.r.Read(s.chunk)
		if n > 0 {
			s.buf.Write(s.chunk[:n])
			continue
		}
		if err != nil {
			if err == io.EOF && s.buf.Len() > 0 {
				seg := make([]byte, s.buf.Len())
				copy(seg, s.buf.Bytes())
				s.buf.Reset()
				return seg, nil
			}
			return nil, err
		}
	}
}

// decodeEvent parses one raw segment. Malformed payloads report ok
// false and are skipped by the read loop; they never abort the stream.
func decodeEvent(seg []byte) (StreamEvent, bool) {
	line := strings.TrimSpace(string(seg))
	if line == "" {
		return StreamEvent{}, false
	}
	if !strings.HasPrefix(line, "data:") {
		return StreamEvent{}, false
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

	var payload eventPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return StreamEvent{}, false
	}

	ev := StreamEvent{
		ToolCall:         payload.ToolCall,
		BookingSubmitted: payload.BookingSubmitted,
		BookingData:      payload.BookingData,
		Done:             payload.Done,
	}
	if payload.Content != nil {
		ev.Content = *payload.Content
	}
	if payload.Error != nil {
		ev.Err = *payload.Error
	}
	return ev, true
}

// StreamChat opens the streaming chat endpoint and returns a channel of
// decoded events. The channel is closed after the terminal event. A
// request-level failure (network error, non-2xx) is returned directly
// and no channel is opened.
func (c *Client) StreamChat(ctx context.Context, req *ChatRequest) (<-chan StreamEvent, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/widget/chat/stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	// No client timeout on the streaming call itself; lifetime is
	// bounded by ctx.
	hc := &http.Client{Transport: c.hc.Transport}

	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, c.apiError(resp)
	}
	if resp.Body == nil {
		return nil, fmt.Errorf("chat response has no body")
	}

	events := make(chan StreamEvent, 16)
	go c.readStream(ctx, resp.Body, events)
	return events, nil
}

func (c *Client) readStream(ctx context.Context, body io.ReadCloser, events chan<- StreamEvent) {
	defer body.Close()
	defer close(events)

	emit := func(ev StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	scanner := newEventScanner(body)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		seg, err := scanner.next()
		if err != nil {
			if err == io.EOF {
				// Body ended without an explicit done event.
				emit(StreamEvent{Done: true})
			} else {
				c.log.Warn("chat stream read failed", zap.Error(err))
				emit(StreamEvent{Err: "connection lost"})
			}
			return
		}

		ev, ok := decodeEvent(seg)
		if !ok {
			// Malformed chunks are skipped, never fatal.
			c.log.Debug("skipping malformed stream event", zap.ByteString("segment", seg))
			continue
		}
		if !emit(ev) {
			return
		}
		if ev.Done || ev.Err != "" {
			return
		}
	}
}
