package domain

import "regexp"

// PageDisplayMode controls on which host pages the widget may appear
type PageDisplayMode string

const (
	DisplayAll     PageDisplayMode = "ALL"
	DisplayInclude PageDisplayMode = "INCLUDE"
	DisplayExclude PageDisplayMode = "EXCLUDE"
)

// Theme holds the widget color scheme. Every field is sanitized
// independently; a bad color falls back to its default rather than
// rejecting the whole profile.
type Theme struct {
	Primary         string `json:"primary_color"`
	Background      string `json:"background_color"`
	Text            string `json:"text_color"`
	UserBubble      string `json:"user_bubble_color"`
	AssistantBubble string `json:"assistant_bubble_color"`
}

// DefaultTheme returns the stock widget color scheme
func DefaultTheme() Theme {
	return Theme{
		Primary:         "#3b82f6",
		Background:      "#ffffff",
		Text:            "#1f2937",
		UserBubble:      "#3b82f6",
		AssistantBubble: "#f3f4f6",
	}
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// SanitizeColor accepts 3- or 6-digit hex colors verbatim and replaces
// anything else with fallback. Theme values end up in the host page, so
// nothing that is not a plain hex color may pass through.
func SanitizeColor(s, fallback string) string {
	if hexColorPattern.MatchString(s) {
		return s
	}
	return fallback
}

// Sanitize replaces every invalid color field with its default
func (t Theme) Sanitize() Theme {
	def := DefaultTheme()
	return Theme{
		Primary:         SanitizeColor(t.Primary, def.Primary),
		Background:      SanitizeColor(t.Background, def.Background),
		Text:            SanitizeColor(t.Text, def.Text),
		UserBubble:      SanitizeColor(t.UserBubble, def.UserBubble),
		AssistantBubble: SanitizeColor(t.AssistantBubble, def.AssistantBubble),
	}
}

// BotProfile is the remote bot identity and settings, replaced wholesale
// on each successful profile fetch. A failed fetch leaves defaults in
// place; the profile is never partially applied.
type BotProfile struct {
	Name          string          `json:"name"`
	Tagline       string          `json:"tagline"`
	Theme         Theme           `json:"theme"`
	Language      string          `json:"language"`
	Services      []string        `json:"services,omitempty"`
	OpeningHours  string          `json:"opening_hours,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Email         string          `json:"email,omitempty"`
	BookingOn     bool            `json:"booking_enabled"`
	BookingFields []string        `json:"booking_fields,omitempty"`
	DisplayMode   PageDisplayMode `json:"page_display_mode"`
	AllowedPages  []string        `json:"allowed_pages,omitempty"`
}

// DefaultProfile returns the placeholder identity shown until the
// remote profile resolves
func DefaultProfile() BotProfile {
	return BotProfile{
		Name:        "Assistant",
		Theme:       DefaultTheme(),
		Language:    "en",
		DisplayMode: DisplayAll,
	}
}
