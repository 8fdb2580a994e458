package domain

import (
	"fmt"
	"strings"
)

// BookingDraft is the in-progress appointment request. It is transient:
// created when the booking form opens, discarded on submit or cancel.
type BookingDraft struct {
	Name          string `json:"name"`
	Email         string `json:"email,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Service       string `json:"service,omitempty"`
	PreferredDate string `json:"preferredDate,omitempty"`
	PreferredTime string `json:"preferredTime,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// Validate gates submission: a name is required, and at least one way
// to reach the visitor (email or phone) must be present.
func (d *BookingDraft) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBooking)
	}
	if strings.TrimSpace(d.Email) == "" && strings.TrimSpace(d.Phone) == "" {
		return fmt.Errorf("%w: an email or phone number is required", ErrInvalidBooking)
	}
	return nil
}

// Merge copies non-empty fields from a server-pushed prefill payload
// into the draft without clobbering what the visitor already typed.
func (d *BookingDraft) Merge(prefill map[string]string) {
	set := func(dst *string, key string) {
		if *dst == "" {
			if v, ok := prefill[key]; ok {
				*dst = v
			}
		}
	}
	set(&d.Name, "name")
	set(&d.Email, "email")
	set(&d.Phone, "phone")
	set(&d.Service, "service")
	set(&d.PreferredDate, "preferredDate")
	set(&d.PreferredTime, "preferredTime")
	set(&d.Notes, "notes")
}
