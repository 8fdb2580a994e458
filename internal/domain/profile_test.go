package domain

import "testing"

func TestSanitizeColor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"6-digit hex accepted", "#3b82f6", "#3b82f6"},
		{"3-digit hex accepted", "#fff", "#fff"},
		{"uppercase hex accepted", "#AABBCC", "#AABBCC"},
		{"script scheme rejected", "javascript:alert(1)", "#000000"},
		{"named color rejected", "red", "#000000"},
		{"missing hash rejected", "3b82f6", "#000000"},
		{"wrong length rejected", "#ab", "#000000"},
		{"css expression rejected", "#fff;background:url(x)", "#000000"},
		{"empty rejected", "", "#000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeColor(tt.input, "#000000"); got != tt.want {
				t.Errorf("SanitizeColor(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestThemeSanitize_FieldsIndependent(t *testing.T) {
	theme := Theme{
		Primary:    "#123456",
		Background: "url(evil)",
		Text:       "#abc",
	}.Sanitize()

	def := DefaultTheme()
	if theme.Primary != "#123456" {
		t.Errorf("valid primary replaced: %q", theme.Primary)
	}
	if theme.Background != def.Background {
		t.Errorf("invalid background kept: %q", theme.Background)
	}
	if theme.Text != "#abc" {
		t.Errorf("valid text replaced: %q", theme.Text)
	}
	if theme.UserBubble != def.UserBubble || theme.AssistantBubble != def.AssistantBubble {
		t.Error("empty fields must take defaults")
	}
}
