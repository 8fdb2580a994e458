package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/allegro/bigcache/v3"
	"github.com/google/uuid"
	"github.com/xelochat/widget-engine/internal/backend"
	"github.com/xelochat/widget-engine/internal/config"
	"github.com/xelochat/widget-engine/internal/domain"
	"github.com/xelochat/widget-engine/internal/widget"
	"go.uber.org/zap"
)

// ErrSessionNotFound indicates an unknown or closed preview session
var ErrSessionNotFound = errors.New("preview session not found")

// PreviewService hosts widget instances server-side for the dashboard
// preview surface. Each preview session is one engine instance on an
// in-memory host; the dashboard observes it as a feed of view
// snapshots.
type PreviewService struct {
	cfg      *config.Config
	log      *zap.Logger
	profiles *bigcache.BigCache

	mu       sync.Mutex
	sessions map[string]*previewSession
}

type previewSession struct {
	id       string
	instance *widget.Instance
	host     *widget.MemHost

	mu      sync.Mutex
	nextSub int
	subs    map[int]chan widget.View
}

// CreateSessionRequest describes a new preview session
type CreateSessionRequest struct {
	ChatbotID  string `json:"chatbot_id"`
	APIKey     string `json:"api_key"`
	APIBaseURL string `json:"api_base_url"`
	PagePath   string `json:"page_path"`
}

// NewPreviewService creates the preview service
func NewPreviewService(cfg *config.Config, log *zap.Logger) (*PreviewService, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(cfg.Cache.ProfileTTL))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile cache: %w", err)
	}
	return &PreviewService{
		cfg:      cfg,
		log:      log,
		profiles: cache,
		sessions: make(map[string]*previewSession),
	}, nil
}

// CreateSession resolves the embed parameters, mounts a fresh instance
// and returns its id with the initial view. Invalid parameters fail
// closed exactly like a real embed would.
func (s *PreviewService) CreateSession(req CreateSessionRequest) (string, widget.View, error) {
	baseURL := req.APIBaseURL
	if baseURL == "" {
		baseURL = s.cfg.Backend.BaseURL
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = s.cfg.Backend.APIKey
	}
	pagePath := req.PagePath
	if pagePath == "" {
		pagePath = "/"
	}

	cfg, err := widget.ResolveConfig(map[string]string{
		widget.AttrChatbotID: req.ChatbotID,
		widget.AttrAPIKey:    apiKey,
		widget.AttrAPIURL:    baseURL,
	})
	if err != nil {
		return "", widget.View{}, err
	}

	sess := &previewSession{
		id:   uuid.New().String(),
		host: widget.NewMemHost(pagePath),
		subs: make(map[int]chan widget.View),
	}
	sess.instance = widget.New(cfg, widget.PreviewCapabilities(), widget.Deps{
		Store:    widget.NewMemSessionStore(),
		Renderer: widget.RendererFunc(sess.broadcast),
		Logger:   s.log.With(zap.String("preview_session", sess.id)),
	})

	if err := sess.instance.Mount(sess.host); err != nil {
		return "", widget.View{}, err
	}
	sess.instance.Open()

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return sess.id, sess.instance.View(), nil
}

func (s *PreviewService) session(id string) (*previewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// View returns the latest view snapshot for a session
func (s *PreviewService) View(id string) (widget.View, error) {
	sess, err := s.session(id)
	if err != nil {
		return widget.View{}, err
	}
	return sess.instance.View(), nil
}

// Subscribe returns a feed of view snapshots and its cancel function
func (s *PreviewService) Subscribe(id string) (<-chan widget.View, func(), error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, nil, err
	}

	sess.mu.Lock()
	subID := sess.nextSub
	sess.nextSub++
	ch := make(chan widget.View, 16)
	sess.subs[subID] = ch
	sess.mu.Unlock()

	cancel := func() {
		sess.mu.Lock()
		if c, ok := sess.subs[subID]; ok {
			delete(sess.subs, subID)
			close(c)
		}
		sess.mu.Unlock()
	}
	return ch, cancel, nil
}

// Send forwards a visitor message into the session's instance
func (s *PreviewService) Send(id, message string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	return sess.instance.Send(message)
}

// OpenBooking opens the booking form in a session
func (s *PreviewService) OpenBooking(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.instance.OpenBooking()
	return nil
}

// UpdateBookingDraft replaces the session's booking draft
func (s *PreviewService) UpdateBookingDraft(id string, draft domain.BookingDraft) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.instance.UpdateBookingDraft(draft)
	return nil
}

// SubmitBooking submits the session's booking draft
func (s *PreviewService) SubmitBooking(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	return sess.instance.SubmitBooking()
}

// CancelBooking hides the session's booking form
func (s *PreviewService) CancelBooking(id string) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.instance.CancelBooking()
	return nil
}

// CloseSession tears the instance down and drops the session
func (s *PreviewService) CloseSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.instance.Teardown()
	sess.mu.Lock()
	for subID, ch := range sess.subs {
		delete(sess.subs, subID)
		close(ch)
	}
	sess.mu.Unlock()
	return nil
}

// CloseAll tears down every session; used on shutdown
func (s *PreviewService) CloseAll() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	for _, id := range ids {
		_ = s.CloseSession(id)
	}
}

// Profile fetches a bot profile for the dashboard's theme preview,
// serving repeat lookups from cache.
func (s *PreviewService) Profile(ctx context.Context, chatbotID, apiKey string) (*domain.BotProfile, error) {
	if cached, err := s.profiles.Get(chatbotID); err == nil {
		var profile domain.BotProfile
		if err := json.Unmarshal(cached, &profile); err == nil {
			return &profile, nil
		}
	}

	if apiKey == "" {
		apiKey = s.cfg.Backend.APIKey
	}
	client := backend.New(s.cfg.Backend.BaseURL, apiKey, backend.WithLogger(s.log))
	profile, err := client.Profile(ctx, chatbotID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(profile); err == nil {
		if err := s.profiles.Set(chatbotID, data); err != nil {
			s.log.Debug("failed to cache profile", zap.Error(err))
		}
	}
	return profile, nil
}

// broadcast fans a fresh view snapshot out to every subscriber. Slow
// consumers drop intermediate snapshots rather than block the engine.
func (sess *previewSession) broadcast(v widget.View) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	for _, ch := range sess.subs {
		select {
		case ch <- v:
		default:
		}
	}
}
