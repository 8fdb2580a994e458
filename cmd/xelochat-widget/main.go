package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/xelochat/widget-engine/internal/config"
	"github.com/xelochat/widget-engine/internal/domain"
	"github.com/xelochat/widget-engine/internal/repository"
	"github.com/xelochat/widget-engine/internal/widget"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath = flag.String("config", "", "Path to config file")
	chatbotID  = flag.String("chatbot", "", "Chatbot id (overrides config)")
	apiKey     = flag.String("api-key", "", "Widget API key (overrides config)")
	apiURL     = flag.String("api-url", "", "Backend base URL (overrides config)")
	pagePath   = flag.String("page", "", "Simulated page path for display-policy checks")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *chatbotID != "" {
		cfg.Backend.ChatbotID = *chatbotID
	}
	if *apiKey != "" {
		cfg.Backend.APIKey = *apiKey
	}
	if *apiURL != "" {
		cfg.Backend.BaseURL = *apiURL
	}
	if *pagePath != "" {
		cfg.Widget.PagePath = *pagePath
	}

	logger := buildLogger(cfg.Log.Level)
	defer logger.Sync()

	// The terminal surface resolves embed parameters exactly like the
	// script tag would; an invalid embed mounts nothing.
	widgetCfg, err := widget.ResolveConfig(map[string]string{
		widget.AttrChatbotID: cfg.Backend.ChatbotID,
		widget.AttrAPIKey:    cfg.Backend.APIKey,
		widget.AttrAPIURL:    cfg.Backend.BaseURL,
		widget.AttrStyle:     cfg.Widget.Style,
		widget.AttrPosition:  cfg.Widget.Position,
	})
	if err != nil {
		logger.Error("invalid widget configuration", zap.Error(err))
		os.Exit(1)
	}

	db, err := repository.NewDB(cfg.Storage.Path)
	if err != nil {
		logger.Fatal("Failed to initialize session storage", zap.Error(err))
	}
	defer db.Close()
	sessions := repository.NewSessionRepository(db)

	term := newTerminal(os.Stdout)
	instance := widget.New(widgetCfg, widget.EmbedCapabilities(), widget.Deps{
		Store:      sessions,
		Transcript: sessions,
		Renderer:   term,
		Logger:     logger,
	})

	host := widget.NewMemHost(cfg.Widget.PagePath)
	if err := instance.Mount(host); err != nil {
		logger.Error("failed to mount widget", zap.Error(err))
		os.Exit(1)
	}
	instance.Open()
	defer instance.Teardown()

	fmt.Println("Type a message, /book to request an appointment, /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit":
			return
		case line == "/book":
			promptBooking(scanner, instance)
		default:
			if err := instance.Send(line); err != nil {
				fmt.Printf("  (%v)\n", err)
				continue
			}
			term.waitTurn()
		}
	}
}

// promptBooking collects the booking draft field by field and submits
// it. Validation failures come back inline and leave the draft intact.
func promptBooking(scanner *bufio.Scanner, instance *widget.Instance) {
	instance.OpenBooking()

	read := func(label string) string {
		fmt.Printf("  %s: ", label)
		if !scanner.Scan() {
			return ""
		}
		return strings.TrimSpace(scanner.Text())
	}

	draft := domain.BookingDraft{
		Name:          read("Name"),
		Email:         read("Email"),
		Phone:         read("Phone"),
		Service:       read("Service"),
		PreferredDate: read("Preferred date"),
		PreferredTime: read("Preferred time"),
		Notes:         read("Notes"),
	}
	instance.UpdateBookingDraft(draft)

	if err := instance.SubmitBooking(); err != nil {
		fmt.Printf("  (%v)\n", err)
		instance.CancelBooking()
	}
}

func buildLogger(level string) *zap.Logger {
	var lvl zapcore.Level
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// terminal renders view snapshots as plain terminal output. Only the
// entrance delta is printed, so a snapshot never repeats what is
// already on screen.
type terminal struct {
	mu       sync.Mutex
	out      *os.File
	typing   bool
	greeted  bool
	noticed  bool
	turnDone chan struct{}
}

func newTerminal(out *os.File) *terminal {
	return &terminal{out: out, turnDone: make(chan struct{}, 1)}
}

func (t *terminal) Apply(v widget.View) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !v.Mounted {
		return
	}

	if v.LoadFailed && !t.noticed {
		t.noticed = true
		fmt.Fprintf(t.out, "\n%s\n", v.Notice)
	}

	if v.ShowWelcome && !t.greeted {
		t.greeted = true
		fmt.Fprintf(t.out, "\n%s\n", v.Welcome)
		for _, chip := range v.Suggestions {
			fmt.Fprintf(t.out, "  • %s\n", chip.Label)
		}
	}

	for _, m := range v.Messages {
		if !m.Entrance {
			continue
		}
		switch m.Role {
		case domain.RoleUser:
			// Already on screen: the visitor just typed it.
		case domain.RoleError:
			fmt.Fprintf(t.out, "  ! %s\n", unescape(m.HTML))
		default:
			fmt.Fprintf(t.out, "%s: %s\n", v.BotName, unescape(m.HTML))
		}
	}

	if v.BookingAction {
		fmt.Fprintln(t.out, "  [Book Appointment available — type /book]")
	}

	if t.typing && !v.Typing {
		select {
		case t.turnDone <- struct{}{}:
		default:
		}
	}
	t.typing = v.Typing
}

// waitTurn blocks until the in-flight assistant turn finishes
func (t *terminal) waitTurn() {
	select {
	case <-t.turnDone:
	case <-time.After(2 * time.Minute):
	}
}

// unescape reverses EscapeText for plain terminal output, which has no
// HTML to protect.
func unescape(s string) string {
	r := strings.NewReplacer(
		"<br>", "\n",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
	)
	return r.Replace(s)
}
