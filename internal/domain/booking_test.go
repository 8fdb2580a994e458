package domain

import (
	"errors"
	"testing"
)

func TestBookingDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   BookingDraft
		wantErr bool
	}{
		{"name and email", BookingDraft{Name: "Ada", Email: "ada@example.com"}, false},
		{"name and phone", BookingDraft{Name: "Ada", Phone: "+1 555 0100"}, false},
		{"name and both", BookingDraft{Name: "Ada", Email: "a@b.c", Phone: "1"}, false},
		{"missing name", BookingDraft{Email: "ada@example.com"}, true},
		{"whitespace name", BookingDraft{Name: "   ", Phone: "1"}, true},
		{"no contact", BookingDraft{Name: "Ada"}, true},
		{"whitespace contact", BookingDraft{Name: "Ada", Email: "  ", Phone: " "}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidBooking) {
				t.Errorf("validation errors must wrap ErrInvalidBooking, got %v", err)
			}
		})
	}
}

func TestBookingDraftMerge(t *testing.T) {
	draft := BookingDraft{Name: "Typed Name"}
	draft.Merge(map[string]string{
		"name":    "Server Name",
		"email":   "server@example.com",
		"service": "cleaning",
	})

	if draft.Name != "Typed Name" {
		t.Errorf("prefill must not clobber typed fields, got %q", draft.Name)
	}
	if draft.Email != "server@example.com" || draft.Service != "cleaning" {
		t.Errorf("empty fields must take prefill values: %+v", draft)
	}
}
