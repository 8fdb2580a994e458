package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// VisualStyle controls how the widget presents itself on the host page
type VisualStyle string

const (
	StyleFloating VisualStyle = "floating"
	StyleEmbedded VisualStyle = "embedded"
	StyleMinimal  VisualStyle = "minimal"
)

// Position anchors a floating widget on the host page
type Position string

const (
	PositionBottomRight Position = "bottom-right"
	PositionBottomLeft  Position = "bottom-left"
)

var chatbotIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

const (
	minAPIKeyLen = 10
	maxAPIKeyLen = 200
)

// WidgetConfig holds the embed parameters resolved once at startup.
// It is immutable after a successful Validate.
type WidgetConfig struct {
	ChatbotID         string      `json:"chatbot_id"`
	APIKey            string      `json:"-"`
	APIBaseURL        string      `json:"api_base_url"`
	VisualStyle       VisualStyle `json:"visual_style"`
	Position          Position    `json:"position"`
	ContainerSelector string      `json:"container_selector,omitempty"`

	// Static theming attributes used when no remote profile is consulted
	BotName      string `json:"bot_name,omitempty"`
	Tagline      string `json:"tagline,omitempty"`
	PrimaryColor string `json:"primary_color,omitempty"`
}

// Validate checks every required embed parameter and normalizes the
// base URL. A widget must never mount on an invalid configuration.
func (c *WidgetConfig) Validate() error {
	if c.ChatbotID == "" {
		return fmt.Errorf("%w: missing chatbot id", ErrInvalidConfig)
	}
	if !chatbotIDPattern.MatchString(c.ChatbotID) {
		return fmt.Errorf("%w: malformed chatbot id %q", ErrInvalidConfig, c.ChatbotID)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: missing api key", ErrInvalidConfig)
	}
	if len(c.APIKey) < minAPIKeyLen || len(c.APIKey) > maxAPIKeyLen {
		return fmt.Errorf("%w: api key length %d out of range", ErrInvalidConfig, len(c.APIKey))
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("%w: missing api base url", ErrInvalidConfig)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: api base url %q is not an absolute http(s) url", ErrInvalidConfig, c.APIBaseURL)
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")

	switch c.VisualStyle {
	case "":
		c.VisualStyle = StyleFloating
	case StyleFloating, StyleEmbedded, StyleMinimal:
	default:
		return fmt.Errorf("%w: unknown style %q", ErrInvalidConfig, c.VisualStyle)
	}
	switch c.Position {
	case "":
		c.Position = PositionBottomRight
	case PositionBottomRight, PositionBottomLeft:
	default:
		return fmt.Errorf("%w: unknown position %q", ErrInvalidConfig, c.Position)
	}
	if c.VisualStyle == StyleEmbedded && c.ContainerSelector == "" {
		return fmt.Errorf("%w: embedded style requires a container selector", ErrInvalidConfig)
	}
	return nil
}
