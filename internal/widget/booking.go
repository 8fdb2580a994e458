package widget

import (
	"github.com/xelochat/widget-engine/internal/backend"
	"github.com/xelochat/widget-engine/internal/domain"
	"go.uber.org/zap"
)

// bookingState is the booking sub-flow:
// Hidden -> Visible(draft) -> Submitting -> Hidden on success, and on
// failure either Hidden (dismiss policy) or Visible with an inline
// error and the draft intact (inline-retry policy).
type bookingState struct {
	visible    bool
	draft      domain.BookingDraft
	submitting bool
	errMsg     string
}

// OpenBooking shows the booking form with an empty draft
func (i *Instance) OpenBooking() {
	i.OpenBookingWith(nil)
}

// OpenBookingWith shows the booking form pre-filled from a server
// payload or a host-page event.
func (i *Instance) OpenBookingWith(prefill map[string]string) {
	i.mu.Lock()
	if !i.mounted {
		i.mu.Unlock()
		return
	}
	if i.caps.ThemeSource == ThemeRemote && i.profileLoaded && !i.profile.BookingOn {
		i.log.Debug("ignoring booking open request, booking disabled for bot")
		i.mu.Unlock()
		return
	}
	i.openBookingLocked(prefill)
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
}

func (i *Instance) openBookingLocked(prefill map[string]string) {
	if i.booking.submitting {
		return
	}
	i.booking.visible = true
	i.booking.errMsg = ""
	if prefill != nil {
		i.booking.draft.Merge(prefill)
	}
}

// UpdateBookingDraft replaces the draft as the visitor edits the form
func (i *Instance) UpdateBookingDraft(draft domain.BookingDraft) {
	i.mu.Lock()
	if !i.mounted || !i.booking.visible || i.booking.submitting {
		i.mu.Unlock()
		return
	}
	i.booking.draft = draft
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
}

// CancelBooking hides the form and discards the draft
func (i *Instance) CancelBooking() {
	i.mu.Lock()
	if !i.mounted || i.booking.submitting {
		i.mu.Unlock()
		return
	}
	i.booking = bookingState{}
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
}

// SubmitBooking validates the draft and posts it. Validation failures
// never reach the network; they surface inline on the form. Only the
// submit control is suspended while the request is in flight; the rest
// of the conversation stays usable.
func (i *Instance) SubmitBooking() error {
	i.mu.Lock()
	if !i.mounted || !i.booking.visible {
		i.mu.Unlock()
		return domain.ErrNotMounted
	}
	if i.booking.submitting {
		i.mu.Unlock()
		return nil
	}
	if err := i.booking.draft.Validate(); err != nil {
		i.booking.errMsg = err.Error()
		view := i.snapshotLocked()
		i.mu.Unlock()
		i.publish(view)
		return err
	}

	i.booking.submitting = true
	i.booking.errMsg = ""
	draft := i.booking.draft
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)

	go i.submitBooking(draft)
	return nil
}

func (i *Instance) submitBooking(draft domain.BookingDraft) {
	err := i.client.SubmitBooking(i.ctx, &backend.BookingRequest{
		ChatbotID:   i.cfg.ChatbotID,
		SessionID:   i.sessionID,
		BookingData: draft,
	})

	i.mu.Lock()
	i.booking.submitting = false
	if !i.mounted {
		i.mu.Unlock()
		return
	}
	loc := localeFor(i.profile.Language)

	if err == nil {
		i.booking = bookingState{}
		i.bookingAction = false
		i.appendLocked(domain.RoleAssistant, loc.bookingConfirmed)
		host := i.host
		view := i.snapshotLocked()
		i.mu.Unlock()
		i.publish(view)
		// Let external collaborators, like an embedded calendar
		// preview, refresh themselves.
		host.Dispatch(EventBookingSubmitted, map[string]string{
			"name":  draft.Name,
			"email": draft.Email,
			"phone": draft.Phone,
		})
		return
	}

	i.log.Warn("booking submission failed", zap.Error(err))
	switch i.caps.BookingErrorPolicy {
	case BookingErrorInlineRetry:
		i.booking.errMsg = loc.bookingFailed
	default:
		i.booking = bookingState{}
		i.appendLocked(domain.RoleError, loc.bookingFailed)
	}
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
}
