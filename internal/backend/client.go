package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xelochat/widget-engine/internal/domain"
	"go.uber.org/zap"
)

// Client is an HTTP client of the XeloChat widget API. The backend is
// not part of this repository; everything here consumes the public
// contract relative to the configured base URL.
type Client struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	log     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithLogger attaches a logger for transport diagnostics
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a backend client. baseURL must already be validated and
// normalized (no trailing slash) by the configuration resolver.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		hc: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 5,
			},
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// profilePayload is the wire shape of the bot-profile endpoint
type profilePayload struct {
	ClinicData struct {
		Name         string   `json:"name"`
		Tagline      string   `json:"tagline"`
		Services     []string `json:"services"`
		OpeningHours string   `json:"openingHours"`
		Phone        string   `json:"phone"`
		Email        string   `json:"email"`
	} `json:"clinicData"`
	Theme struct {
		PrimaryColor         string `json:"primaryColor"`
		BackgroundColor      string `json:"backgroundColor"`
		TextColor            string `json:"textColor"`
		UserBubbleColor      string `json:"userBubbleColor"`
		AssistantBubbleColor string `json:"assistantBubbleColor"`
	} `json:"theme"`
	BookingEnabled  bool     `json:"bookingEnabled"`
	BookingFields   []string `json:"bookingFields"`
	PageDisplayMode string   `json:"pageDisplayMode"`
	AllowedPages    []string `json:"allowedPages"`
	Language        string   `json:"language"`
}

// Profile fetches the bot profile for a chatbot. Theme colors are
// sanitized field by field; one bad color never rejects the payload.
func (c *Client) Profile(ctx context.Context, chatbotID string) (*domain.BotProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/widget/chatbot/"+chatbotID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var payload profilePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	profile := &domain.BotProfile{
		Name:         payload.ClinicData.Name,
		Tagline:      payload.ClinicData.Tagline,
		Services:     payload.ClinicData.Services,
		OpeningHours: payload.ClinicData.OpeningHours,
		Phone:        payload.ClinicData.Phone,
		Email:        payload.ClinicData.Email,
		Theme: domain.Theme{
			Primary:         payload.Theme.PrimaryColor,
			Background:      payload.Theme.BackgroundColor,
			Text:            payload.Theme.TextColor,
			UserBubble:      payload.Theme.UserBubbleColor,
			AssistantBubble: payload.Theme.AssistantBubbleColor,
		}.Sanitize(),
		BookingOn:     payload.BookingEnabled,
		BookingFields: payload.BookingFields,
		DisplayMode:   domain.PageDisplayMode(payload.PageDisplayMode),
		AllowedPages:  payload.AllowedPages,
		Language:      payload.Language,
	}
	if profile.Name == "" {
		profile.Name = domain.DefaultProfile().Name
	}
	if profile.Language == "" {
		profile.Language = "en"
	}
	switch profile.DisplayMode {
	case domain.DisplayAll, domain.DisplayInclude, domain.DisplayExclude:
	default:
		profile.DisplayMode = domain.DisplayAll
	}
	return profile, nil
}

// BookingRequest is the booking submission payload
type BookingRequest struct {
	ChatbotID   string              `json:"chatbotId"`
	SessionID   string              `json:"sessionId"`
	BookingData domain.BookingDraft `json:"bookingData"`
}

// SubmitBooking posts an appointment request
func (c *Client) SubmitBooking(ctx context.Context, req *BookingRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal booking: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/widget/booking", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create booking request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("booking request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}
	return nil
}

// legacyProfilePayload is the wire shape of the unauthenticated legacy
// profile endpoint: a flat subset of the widget profile.
type legacyProfilePayload struct {
	Name         string   `json:"name"`
	Tagline      string   `json:"tagline"`
	PrimaryColor string   `json:"primaryColor"`
	Services     []string `json:"services"`
	OpeningHours string   `json:"openingHours"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Language     string   `json:"language"`
}

// LegacyProfile fetches the bot identity from the unauthenticated
// legacy surface used by the simplest embed variant. Colors pass
// through the same sanitizer as the widget profile.
func (c *Client) LegacyProfile(ctx context.Context, chatbotID string) (*domain.BotProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/chatbot/"+chatbotID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.apiError(resp)
	}

	var payload legacyProfilePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	profile := domain.DefaultProfile()
	if payload.Name != "" {
		profile.Name = payload.Name
	}
	profile.Tagline = payload.Tagline
	profile.Services = payload.Services
	profile.OpeningHours = payload.OpeningHours
	profile.Phone = payload.Phone
	profile.Email = payload.Email
	if payload.PrimaryColor != "" {
		profile.Theme.Primary = domain.SanitizeColor(payload.PrimaryColor, profile.Theme.Primary)
		profile.Theme.UserBubble = profile.Theme.Primary
	}
	if payload.Language != "" {
		profile.Language = payload.Language
	}
	return &profile, nil
}

// LegacyChat calls the unauthenticated non-streaming chat surface used
// by the simplest embed variant. The whole reply arrives as one JSON
// object instead of a stream.
func (c *Client) LegacyChat(ctx context.Context, chatbotID string, history []domain.Turn, message string) (string, error) {
	payload := struct {
		ChatbotID string        `json:"chatbotId"`
		History   []domain.Turn `json:"history"`
		Message   string        `json:"message"`
	}{chatbotID, history, message}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.apiError(resp)
	}

	var reply struct {
		Response string `json:"response"`
		Message  string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if reply.Response != "" {
		return reply.Response, nil
	}
	return reply.Message, nil
}

// apiError turns a non-200 response into an error, preferring the
// backend's {error} JSON field and falling back to the raw body.
func (c *Client) apiError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("backend returned %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
}
