package widget

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xelochat/widget-engine/internal/backend"
	"github.com/xelochat/widget-engine/internal/domain"
	"go.uber.org/zap"
)

// bookingActionDelay defers the "Book Appointment" affordance so it
// appears as a follow-up after the answer text, not alongside it.
const bookingActionDelay = 50 * time.Millisecond

// Deps are the collaborators an Instance needs. Store, Transcript and
// Renderer are optional; Client defaults to one built from the widget
// configuration.
type Deps struct {
	Client     *backend.Client
	Store      SessionStore
	Transcript TranscriptStore
	Renderer   Renderer
	Logger     *zap.Logger
}

// Instance is one widget on one host page: construct, Mount, operate,
// Teardown. There are no package-level singletons; the embedding entry
// point owns the lifecycle.
type Instance struct {
	cfg        domain.WidgetConfig
	caps       Capabilities
	client     *backend.Client
	store      SessionStore
	transcript TranscriptStore
	renderer   Renderer
	log        *zap.Logger

	mu          sync.Mutex
	host        Host
	mounted     bool
	style       domain.VisualStyle
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()

	sessionID string
	firstOpen bool

	profile       domain.BotProfile
	profileLoaded bool
	loadFailed    bool

	open          bool
	messages      []domain.Message
	rendered      int
	streaming     bool
	bookingAction bool
	booking       bookingState
}

// New creates an unmounted widget instance from a validated
// configuration.
func New(cfg domain.WidgetConfig, caps Capabilities, deps Deps) *Instance {
	i := &Instance{
		cfg:        cfg,
		caps:       caps,
		client:     deps.Client,
		store:      deps.Store,
		transcript: deps.Transcript,
		renderer:   deps.Renderer,
		log:        deps.Logger,
		style:      cfg.VisualStyle,
		profile:    domain.DefaultProfile(),
	}
	if i.log == nil {
		i.log = zap.NewNop()
	}
	if i.client == nil {
		i.client = backend.New(cfg.APIBaseURL, cfg.APIKey, backend.WithLogger(i.log))
	}
	return i
}

// Mount attaches the widget to a host page. It is the idempotent
// re-injection guard: a document that already carries a mount marker
// gets no second widget, and mounting never panics into the host.
func (i *Instance) Mount(host Host) error {
	i.mu.Lock()
	if i.mounted {
		i.mu.Unlock()
		return nil
	}
	if host.HasMarker(MountMarker) {
		i.mu.Unlock()
		i.log.Warn("widget already mounted on this page, skipping",
			zap.String("chatbot_id", i.cfg.ChatbotID))
		return domain.ErrAlreadyMounted
	}
	host.SetMarker(MountMarker)

	i.host = host
	i.style = i.cfg.VisualStyle
	if i.style == domain.StyleEmbedded && !host.HasContainer(i.cfg.ContainerSelector) {
		i.log.Warn("embed container not found, falling back to floating",
			zap.String("selector", i.cfg.ContainerSelector))
		i.style = domain.StyleFloating
	}

	i.ctx, i.cancel = context.WithCancel(context.Background())
	i.sessionID = EnsureSession(i.store, i.cfg.ChatbotID)
	if i.store != nil {
		opened, err := i.store.Opened(i.cfg.ChatbotID)
		i.firstOpen = err == nil && !opened
	} else {
		i.firstOpen = true
	}
	i.restoreTranscriptLocked()

	i.unsubscribe = host.Subscribe(EventOpenBooking, func(payload map[string]string) {
		i.OpenBookingWith(payload)
	})

	i.mounted = true
	// Embedded surfaces are always open; there is no closed state.
	i.open = i.style == domain.StyleEmbedded

	if i.caps.ThemeSource == ThemeStatic {
		i.applyStaticProfileLocked()
		go i.loadLegacyProfile()
	} else {
		go i.loadProfile()
	}

	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
	return nil
}

// Teardown removes the widget from its host. Safe to call repeatedly
// and with an in-flight stream, which is simply abandoned.
func (i *Instance) Teardown() {
	i.mu.Lock()
	if !i.mounted {
		i.mu.Unlock()
		return
	}
	i.teardownLocked()
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
}

func (i *Instance) teardownLocked() {
	if i.cancel != nil {
		i.cancel()
	}
	if i.unsubscribe != nil {
		i.unsubscribe()
		i.unsubscribe = nil
	}
	if i.host != nil {
		i.host.ClearMarker(MountMarker)
	}
	i.mounted = false
	i.open = false
}

// Open shows the chat panel. The first open ever is recorded so later
// mounts can skip the first-visit treatment; this is best-effort.
func (i *Instance) Open() {
	i.mu.Lock()
	if !i.mounted || i.open {
		i.mu.Unlock()
		return
	}
	i.open = true
	if i.firstOpen && i.store != nil {
		if err := i.store.MarkOpened(i.cfg.ChatbotID); err != nil {
			i.log.Debug("failed to persist opened flag", zap.Error(err))
		}
	}
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
}

// Close hides the chat panel. An in-flight stream keeps accumulating in
// the background and its result appears if the panel is reopened.
// Embedded surfaces cannot close.
func (i *Instance) Close() {
	i.mu.Lock()
	if !i.mounted || i.style == domain.StyleEmbedded {
		i.mu.Unlock()
		return
	}
	i.open = false
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
}

// Send submits a visitor message. The message renders before any
// network activity, and at most one assistant turn streams at a time:
// sending while streaming is rejected.
func (i *Instance) Send(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ErrEmptyMessage
	}

	i.mu.Lock()
	if !i.mounted {
		i.mu.Unlock()
		return domain.ErrNotMounted
	}
	if i.streaming {
		i.mu.Unlock()
		return domain.ErrStreamBusy
	}
	if !i.profileLoaded || i.loadFailed {
		i.mu.Unlock()
		return domain.ErrProfileUnavailable
	}

	i.appendLocked(domain.RoleUser, text)
	history := domain.LastTurns(i.messages[:len(i.messages)-1], domain.HistoryLimit)
	i.streaming = true
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)

	if i.caps.Streaming {
		go i.runStream(text, history)
	} else {
		go i.runLegacy(text, history)
	}
	return nil
}

// Messages returns a copy of the local transcript
func (i *Instance) Messages() []domain.Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]domain.Message, len(i.messages))
	copy(out, i.messages)
	return out
}

// SessionID returns the visitor session token
func (i *Instance) SessionID() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.sessionID
}

// View returns a snapshot of the current surface state
func (i *Instance) View() View {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.snapshotLocked()
}

func (i *Instance) loadProfile() {
	profile, err := i.client.Profile(i.ctx, i.cfg.ChatbotID)

	i.mu.Lock()
	if !i.mounted {
		i.mu.Unlock()
		return
	}
	if err != nil {
		// No automatic retry: the launcher stays in a visible failed
		// state and the visitor refreshes to try again.
		i.loadFailed = true
		i.log.Warn("bot profile load failed", zap.Error(err))
		view := i.snapshotLocked()
		i.mu.Unlock()
		i.publish(view)
		return
	}

	if !PageAllowed(profile.DisplayMode, profile.AllowedPages, i.host.Path()) {
		i.log.Info("unmounting widget",
			zap.String("path", i.host.Path()),
			zap.Error(domain.ErrPageNotAllowed))
		i.teardownLocked()
		view := i.snapshotLocked()
		i.mu.Unlock()
		i.publish(view)
		return
	}

	i.profile = *profile
	i.profileLoaded = true
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
}

// applyStaticProfileLocked builds the identity from embed attributes
// for the variant that never consults the remote profile.
func (i *Instance) applyStaticProfileLocked() {
	p := domain.DefaultProfile()
	if i.cfg.BotName != "" {
		p.Name = i.cfg.BotName
	}
	p.Tagline = i.cfg.Tagline
	if i.cfg.PrimaryColor != "" {
		p.Theme.Primary = domain.SanitizeColor(i.cfg.PrimaryColor, p.Theme.Primary)
		p.Theme.UserBubble = p.Theme.Primary
	}
	i.profile = p
	i.profileLoaded = true
}

// loadLegacyProfile backfills identity fields the embed attributes left
// empty from the unauthenticated legacy endpoint. The static variant is
// already usable when this runs, so a failed fetch changes nothing.
func (i *Instance) loadLegacyProfile() {
	profile, err := i.client.LegacyProfile(i.ctx, i.cfg.ChatbotID)
	if err != nil {
		i.log.Debug("legacy profile fetch failed", zap.Error(err))
		return
	}

	i.mu.Lock()
	if !i.mounted {
		i.mu.Unlock()
		return
	}
	if i.cfg.BotName == "" {
		i.profile.Name = profile.Name
	}
	if i.cfg.Tagline == "" {
		i.profile.Tagline = profile.Tagline
	}
	if i.cfg.PrimaryColor == "" {
		i.profile.Theme.Primary = profile.Theme.Primary
		i.profile.Theme.UserBubble = profile.Theme.UserBubble
	}
	i.profile.Language = profile.Language
	i.profile.Services = profile.Services
	i.profile.OpeningHours = profile.OpeningHours
	i.profile.Phone = profile.Phone
	i.profile.Email = profile.Email
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)
}

func (i *Instance) runStream(text string, history []domain.Turn) {
	events, err := i.client.StreamChat(i.ctx, &backend.ChatRequest{
		ChatbotID: i.cfg.ChatbotID,
		SessionID: i.sessionID,
		History:   history,
		Message:   text,
	})
	loc := i.locale()
	if err != nil {
		i.finishTurn("", classifyStreamError(err.Error(), loc), false, nil)
		return
	}

	var acc strings.Builder
	var errMsg string
	bookingTrigger := false
	var prefill map[string]string

	for ev := range events {
		switch {
		case ev.Err != "":
			errMsg = classifyStreamError(ev.Err, loc)
		case ev.ToolCall == "show_booking_form":
			if i.bookingEnabled() {
				bookingTrigger = true
			}
		case ev.BookingSubmitted:
			prefill = ev.BookingData
			if prefill == nil {
				prefill = map[string]string{}
			}
		case ev.Content != "":
			acc.WriteString(ev.Content)
		}
	}

	i.finishTurn(acc.String(), errMsg, bookingTrigger, prefill)
}

func (i *Instance) runLegacy(text string, history []domain.Turn) {
	reply, err := i.client.LegacyChat(i.ctx, i.cfg.ChatbotID, history, text)
	if err != nil {
		i.finishTurn("", classifyStreamError(err.Error(), i.locale()), false, nil)
		return
	}
	i.finishTurn(reply, "", false, nil)
}

// finishTurn closes out one assistant turn: flush the accumulated text
// as a single message, then the error bubble if any, then apply the
// booking follow-ups collected during the stream.
func (i *Instance) finishTurn(accumulated, errMsg string, bookingTrigger bool, prefill map[string]string) {
	i.mu.Lock()
	i.streaming = false
	if !i.mounted {
		i.mu.Unlock()
		return
	}

	if accumulated != "" && (errMsg == "" || i.caps.KeepPartialOnError) {
		i.appendLocked(domain.RoleAssistant, accumulated)
	}
	if errMsg != "" {
		i.appendLocked(domain.RoleError, errMsg)
	}
	if errMsg == "" && prefill != nil {
		i.openBookingLocked(prefill)
	}
	view := i.snapshotLocked()
	i.mu.Unlock()
	i.publish(view)

	if bookingTrigger && errMsg == "" {
		time.AfterFunc(bookingActionDelay, func() {
			i.mu.Lock()
			if !i.mounted || i.bookingAction {
				i.mu.Unlock()
				return
			}
			i.bookingAction = true
			v := i.snapshotLocked()
			i.mu.Unlock()
			i.publish(v)
		})
	}
}

func (i *Instance) bookingEnabled() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.caps.ThemeSource == ThemeStatic {
		return false
	}
	return i.profile.BookingOn
}

func (i *Instance) locale() locale {
	i.mu.Lock()
	defer i.mu.Unlock()
	return localeFor(i.profile.Language)
}

// classifyStreamError maps raw backend failure text onto one of the
// user-facing bubbles: usage limits, domain authorization, or generic.
func classifyStreamError(raw string, loc locale) string {
	l := strings.ToLower(raw)
	switch {
	case strings.Contains(l, "rate limit"),
		strings.Contains(l, "usage limit"),
		strings.Contains(l, "limit exceeded"),
		strings.Contains(l, "quota"),
		strings.Contains(l, "too many requests"):
		return loc.errRateLimit
	case strings.Contains(l, "domain"),
		strings.Contains(l, "origin not allowed"),
		strings.Contains(l, "not authorized"):
		return loc.errDomainAuth
	default:
		return loc.errGeneric
	}
}

func (i *Instance) appendLocked(role, content string) {
	msg := domain.Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	i.messages = append(i.messages, msg)
	if i.transcript != nil {
		err := i.transcript.Append(i.sessionID, StoredMessage{
			ID:        msg.ID,
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
		if err != nil {
			i.log.Debug("failed to persist message", zap.Error(err))
		}
	}
}

func (i *Instance) restoreTranscriptLocked() {
	if i.transcript == nil {
		return
	}
	stored, err := i.transcript.Load(i.sessionID)
	if err != nil {
		i.log.Debug("failed to restore transcript", zap.Error(err))
		return
	}
	for _, m := range stored {
		i.messages = append(i.messages, domain.Message{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
}

func (i *Instance) snapshotLocked() View {
	v := View{
		Mounted:    i.mounted,
		Open:       i.open,
		Style:      i.style,
		Position:   i.cfg.Position,
		Theme:      i.profile.Theme,
		BotName:    i.profile.Name,
		Tagline:    i.profile.Tagline,
		Ready:      i.mounted && i.profileLoaded && !i.loadFailed && !i.streaming,
		LoadFailed: i.loadFailed,
		FirstOpen:  i.firstOpen,
		Typing:     i.streaming,
	}
	if !i.mounted {
		return v
	}

	loc := localeFor(i.profile.Language)
	if i.loadFailed {
		v.Notice = loc.loadFailedNote
	}

	// The welcome view exists only while the transcript is empty; the
	// first message ever hides it for the rest of the mount.
	if i.profileLoaded && len(i.messages) == 0 {
		v.ShowWelcome = true
		v.Welcome = WelcomeFor(i.profile)
		v.Suggestions = SuggestionsFor(i.profile)
	}

	v.Messages = make([]MessageView, len(i.messages))
	for idx, m := range i.messages {
		v.Messages[idx] = MessageView{
			ID:       m.ID,
			Role:     m.Role,
			HTML:     EscapeText(m.Content),
			Entrance: idx >= i.rendered,
		}
	}
	i.rendered = len(i.messages)

	v.BookingAction = i.bookingAction
	v.Booking = BookingFormView{
		Visible:    i.booking.visible,
		Fields:     i.profile.BookingFields,
		Draft:      i.booking.draft,
		Submitting: i.booking.submitting,
		Error:      i.booking.errMsg,
	}
	return v
}

func (i *Instance) publish(v View) {
	if i.renderer != nil {
		i.renderer.Apply(v)
	}
}
