package widget

// BookingErrorPolicy selects what a surface does when a booking
// submission fails. The embed variant dismisses the form with a chat
// message; the dashboard preview keeps the form open with an inline
// error so the visitor can retry with the draft intact.
type BookingErrorPolicy string

const (
	BookingErrorDismiss     BookingErrorPolicy = "dismiss"
	BookingErrorInlineRetry BookingErrorPolicy = "inline-retry"
)

// ThemeSource selects where the widget identity and theme come from
type ThemeSource string

const (
	ThemeRemote ThemeSource = "remote"
	ThemeStatic ThemeSource = "static-attributes"
)

// Capabilities is the per-surface policy knob set. One engine serves
// every embedding surface; the surfaces differ only in this object.
type Capabilities struct {
	// Streaming selects the chunked streaming transport; when false the
	// legacy single-response chat endpoint is used instead.
	Streaming bool

	BookingErrorPolicy BookingErrorPolicy
	ThemeSource        ThemeSource

	// KeepPartialOnError flushes whatever text had streamed in before a
	// mid-stream failure as the final message, ahead of the error
	// bubble. When false the partial text is discarded and only the
	// error appears.
	KeepPartialOnError bool
}

// EmbedCapabilities is the minimal embed variant configuration
func EmbedCapabilities() Capabilities {
	return Capabilities{
		Streaming:          true,
		BookingErrorPolicy: BookingErrorDismiss,
		ThemeSource:        ThemeRemote,
		KeepPartialOnError: false,
	}
}

// PreviewCapabilities is the dashboard preview variant configuration
func PreviewCapabilities() Capabilities {
	return Capabilities{
		Streaming:          true,
		BookingErrorPolicy: BookingErrorInlineRetry,
		ThemeSource:        ThemeRemote,
		KeepPartialOnError: true,
	}
}

// StaticCapabilities is the simplest variant: static attribute theming
// and the legacy non-streaming chat endpoint.
func StaticCapabilities() Capabilities {
	return Capabilities{
		Streaming:          false,
		BookingErrorPolicy: BookingErrorDismiss,
		ThemeSource:        ThemeStatic,
		KeepPartialOnError: false,
	}
}
