package widget

import "sync"

// MountMarker is the key left on a host document by a mounted widget.
// A host page that includes the embed script twice must still end up
// with exactly one widget.
const MountMarker = "xelochat-widget-root"

// Host-page event names. External collaborators (a calendar preview,
// the dashboard shell) use these to talk to the widget and observe it.
const (
	EventOpenBooking      = "xelochat-open-booking"
	EventBookingSubmitted = "xelochat-booking-submitted"
)

// Host abstracts the page a widget is mounted into: mount markers,
// container lookup, the current path for display-policy checks, and
// the custom-event bus.
type Host interface {
	HasMarker(key string) bool
	SetMarker(key string)
	ClearMarker(key string)
	// HasContainer reports whether the host can locate the element an
	// embedded-style widget should render into.
	HasContainer(selector string) bool
	// Path is the current page path, e.g. "/blog/post-1".
	Path() string
	Dispatch(event string, payload map[string]string)
	// Subscribe registers a handler and returns its cancel function.
	Subscribe(event string, fn func(payload map[string]string)) func()
}

// Renderer receives full view snapshots from the engine and turns them
// into whatever the embedding surface displays. Renderers must not call
// back into the instance from Apply.
type Renderer interface {
	Apply(View)
}

// RendererFunc adapts a function to the Renderer interface
type RendererFunc func(View)

func (f RendererFunc) Apply(v View) { f(v) }

// MemHost is an in-memory Host used by server-side surfaces and tests
type MemHost struct {
	mu         sync.Mutex
	markers    map[string]bool
	containers map[string]bool
	path       string
	nextSub    int
	subs       map[string]map[int]func(map[string]string)
}

// NewMemHost creates a host for the given page path
func NewMemHost(path string) *MemHost {
	return &MemHost{
		markers:    make(map[string]bool),
		containers: make(map[string]bool),
		path:       path,
		subs:       make(map[string]map[int]func(map[string]string)),
	}
}

func (h *MemHost) HasMarker(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.markers[key]
}

func (h *MemHost) SetMarker(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.markers[key] = true
}

func (h *MemHost) ClearMarker(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.markers, key)
}

// AddContainer registers a container element the host can resolve
func (h *MemHost) AddContainer(selector string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.containers[selector] = true
}

func (h *MemHost) HasContainer(selector string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.containers[selector]
}

func (h *MemHost) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path
}

func (h *MemHost) Dispatch(event string, payload map[string]string) {
	h.mu.Lock()
	handlers := make([]func(map[string]string), 0, len(h.subs[event]))
	for _, fn := range h.subs[event] {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(payload)
	}
}

func (h *MemHost) Subscribe(event string, fn func(payload map[string]string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[event] == nil {
		h.subs[event] = make(map[int]func(map[string]string))
	}
	id := h.nextSub
	h.nextSub++
	h.subs[event][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[event], id)
	}
}
