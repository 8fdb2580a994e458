package widget

import (
	"github.com/xelochat/widget-engine/internal/domain"
)

// Embed attribute names as they appear on the host script tag
const (
	AttrChatbotID    = "data-chatbot-id"
	AttrAPIKey       = "data-api-key"
	AttrAPIURL       = "data-api-url"
	AttrStyle        = "data-style"
	AttrPosition     = "data-position"
	AttrContainer    = "data-container"
	AttrBotName      = "data-bot-name"
	AttrTagline      = "data-tagline"
	AttrPrimaryColor = "data-primary-color"
)

// ResolveConfig reads host-supplied embed attributes into an immutable
// WidgetConfig. It fails closed: any missing or invalid required
// parameter yields an error and the caller must not mount any UI. The
// diagnostic goes to the embedding developer, never the visitor.
func ResolveConfig(attrs map[string]string) (domain.WidgetConfig, error) {
	cfg := domain.WidgetConfig{
		ChatbotID:         attrs[AttrChatbotID],
		APIKey:            attrs[AttrAPIKey],
		APIBaseURL:        attrs[AttrAPIURL],
		VisualStyle:       domain.VisualStyle(attrs[AttrStyle]),
		Position:          domain.Position(attrs[AttrPosition]),
		ContainerSelector: attrs[AttrContainer],
		BotName:           attrs[AttrBotName],
		Tagline:           attrs[AttrTagline],
		PrimaryColor:      attrs[AttrPrimaryColor],
	}
	if err := cfg.Validate(); err != nil {
		return domain.WidgetConfig{}, err
	}
	return cfg, nil
}
