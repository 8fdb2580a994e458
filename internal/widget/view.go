package widget

import (
	"strings"

	"github.com/xelochat/widget-engine/internal/domain"
)

// MessageView is one rendered transcript entry. Entrance is set only on
// messages added since the previous snapshot; re-renders never
// re-animate what is already visible.
type MessageView struct {
	ID       string `json:"id"`
	Role     string `json:"role"`
	HTML     string `json:"html"`
	Entrance bool   `json:"entrance"`
}

// SuggestionChip is one tappable suggestion under the welcome message
type SuggestionChip struct {
	Label   string `json:"label"`
	Message string `json:"message"`
}

// BookingFormView is the booking sub-flow as the surface should draw it
type BookingFormView struct {
	Visible    bool                `json:"visible"`
	Fields     []string            `json:"fields,omitempty"`
	Draft      domain.BookingDraft `json:"draft"`
	Submitting bool                `json:"submitting"`
	Error      string              `json:"error,omitempty"`
}

// View is the full declarative state of the widget surface. The engine
// publishes a fresh snapshot after every state change; the renderer
// owns turning it into DOM nodes, terminal output, or SSE frames.
type View struct {
	Mounted  bool               `json:"mounted"`
	Open     bool               `json:"open"`
	Style    domain.VisualStyle `json:"style"`
	Position domain.Position    `json:"position"`
	Theme    domain.Theme       `json:"theme"`
	BotName  string             `json:"bot_name"`
	Tagline  string             `json:"tagline,omitempty"`

	// Ready gates the input controls; LoadFailed marks the permanent
	// profile-failure state (retry by refresh, no auto-retry).
	Ready      bool `json:"ready"`
	LoadFailed bool `json:"load_failed"`
	FirstOpen  bool `json:"first_open"`

	// Notice carries the persistent load-failure message; nothing else
	// uses it.
	Notice string `json:"notice,omitempty"`

	ShowWelcome bool             `json:"show_welcome"`
	Welcome     string           `json:"welcome,omitempty"`
	Suggestions []SuggestionChip `json:"suggestions,omitempty"`

	Messages []MessageView `json:"messages"`
	Typing   bool          `json:"typing"`

	// BookingAction is the deferred "Book Appointment" affordance shown
	// after an answer that triggered the booking tool call.
	BookingAction bool            `json:"booking_action"`
	Booking       BookingFormView `json:"booking"`
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeText converts untrusted plain text to safe HTML. Newlines
// become <br> so multi-line answers keep their shape.
func EscapeText(s string) string {
	escaped := htmlEscaper.Replace(s)
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

// maxSuggestions caps the welcome chips
const maxSuggestions = 3

// SuggestionsFor derives up to three contextual chips from whichever
// profile fields are present, in fixed priority order: services, hours,
// contact, booking.
func SuggestionsFor(p domain.BotProfile) []SuggestionChip {
	loc := localeFor(p.Language)
	var chips []SuggestionChip

	if len(p.Services) > 0 {
		chips = append(chips, SuggestionChip{Label: loc.suggestServices, Message: loc.askServices})
	}
	if p.OpeningHours != "" {
		chips = append(chips, SuggestionChip{Label: loc.suggestHours, Message: loc.askHours})
	}
	if p.Phone != "" || p.Email != "" {
		chips = append(chips, SuggestionChip{Label: loc.suggestContact, Message: loc.askContact})
	}
	if p.BookingOn {
		chips = append(chips, SuggestionChip{Label: loc.suggestBook, Message: loc.askBook})
	}

	if len(chips) > maxSuggestions {
		chips = chips[:maxSuggestions]
	}
	return chips
}

// WelcomeFor renders the localized welcome line for a profile
func WelcomeFor(p domain.BotProfile) string {
	loc := localeFor(p.Language)
	if p.Name == "" {
		return loc.welcomeGeneric
	}
	return strings.ReplaceAll(loc.welcome, "{name}", p.Name)
}
