package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/quickwish/quickwish/internal/api"
	"github.com/quickwish/quickwish/internal/appstate"
	"github.com/quickwish/quickwish/internal/audio"
	"github.com/quickwish/quickwish/internal/config"
	"github.com/quickwish/quickwish/internal/geo"
	"github.com/quickwish/quickwish/internal/keyring"
	"github.com/quickwish/quickwish/internal/tui"
	"github.com/quickwish/quickwish/internal/tui/wizard"
	"github.com/quickwish/quickwish/internal/wish"
)

// CLI defines the quickwish command structure.
type CLI struct {
	// Default TUI command (runs when no subcommand given)
	TUI TUICmd `cmd:"" default:"withargs" help:"Launch the terminal UI"`

	// Subcommands
	List     ListCmd     `cmd:"" help:"List your wishes"`
	Show     ShowCmd     `cmd:"" help:"Show one wish"`
	Cancel   CancelCmd   `cmd:"" help:"Cancel a pending wish"`
	Complete CompleteCmd `cmd:"" help:"Mark a wish completed"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a wish"`
	Devices  DevicesCmd  `cmd:"" help:"List available audio devices"`
	Config   ConfigCmd   `cmd:"" help:"Manage configuration"`
}

// TUICmd is the default command that runs the TUI.
type TUICmd struct {
	Token    string `flag:"" optional:"" env:"QUICKWISH_TOKEN" help:"API bearer token (overrides keychain)"`
	NotesDir string `flag:"" optional:"" help:"Directory for recorded voice notes"`
}

// Run executes the TUI command.
func (c *TUICmd) Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := newClient(cfg, c.Token)
	if err != nil {
		return err
	}

	notesDir := c.NotesDir
	if notesDir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			return fmt.Errorf("failed to determine notes directory: %w", err)
		}

		notesDir = filepath.Join(cacheDir, "quickwish", "notes")
	}

	if err := os.MkdirAll(notesDir, 0o755); err != nil {
		return fmt.Errorf("failed to prepare notes directory: %w", err)
	}

	store := appstate.New()

	resolver := geo.NewResolver(
		cfg.LocationConsent,
		&geo.StaticSource{Lat: cfg.Lat, Lng: cfg.Lng},
		geo.NewHTTPGeocoder(cfg.GeocodeURL),
		store,
	)

	startSession := func() (wizard.RecordingSession, error) {
		return audio.StartRecordSession(ctx, audio.RecorderConfig{
			SampleRate:  audio.DefaultSampleRate,
			Channels:    audio.DefaultChannels,
			MaxDuration: cfg.MaxNoteDuration(),
		})
	}

	player := audio.NewPlayer(audio.NewDeviceHandleFactory(
		audio.DefaultSampleRate, audio.DefaultChannels))
	defer player.Stop(ctx)

	p := tea.NewProgram(tui.New(tui.Deps{
		Ctx:             ctx,
		Cancel:          cancel,
		Client:          client,
		Resolver:        resolver,
		Store:           store,
		StartSession:    startSession,
		Player:          player,
		NotesDir:        notesDir,
		MaxNoteDuration: cfg.MaxNoteDuration(),
	}))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	return nil
}

// ListCmd prints the user's wishes.
type ListCmd struct {
	Token string `flag:"" optional:"" env:"QUICKWISH_TOKEN" help:"API bearer token (overrides keychain)"`
}

// Run executes the list command.
func (c *ListCmd) Run() error {
	client, ctx, cleanup, err := clientContext(c.Token)
	if err != nil {
		return err
	}
	defer cleanup()

	wishes, err := client.ListWishes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list wishes: %w", err)
	}

	if len(wishes) == 0 {
		fmt.Println("no wishes yet")

		return nil
	}

	for _, w := range wishes {
		fmt.Printf("%s  %-12s  %-10s  ₹%.0f  %s\n",
			w.ID, w.Type, w.Status, w.Remuneration, w.Title)
	}

	return nil
}

// ShowCmd prints one wish in detail.
type ShowCmd struct {
	ID    string `arg:"" required:"" help:"Wish ID"`
	Token string `flag:"" optional:"" env:"QUICKWISH_TOKEN" help:"API bearer token (overrides keychain)"`
}

// Run executes the show command.
func (c *ShowCmd) Run() error {
	client, ctx, cleanup, err := clientContext(c.Token)
	if err != nil {
		return err
	}
	defer cleanup()

	w, err := client.GetWish(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch wish: %w", err)
	}

	printWish(w)

	return nil
}

// CancelCmd cancels a pending wish.
type CancelCmd struct {
	ID    string `arg:"" required:"" help:"Wish ID"`
	Token string `flag:"" optional:"" env:"QUICKWISH_TOKEN" help:"API bearer token (overrides keychain)"`
}

// Run executes the cancel command.
func (c *CancelCmd) Run() error {
	return runTransition(c.Token, c.ID, "cancelled", (*api.Client).CancelWish)
}

// CompleteCmd marks a wish completed.
type CompleteCmd struct {
	ID    string `arg:"" required:"" help:"Wish ID"`
	Token string `flag:"" optional:"" env:"QUICKWISH_TOKEN" help:"API bearer token (overrides keychain)"`
}

// Run executes the complete command.
func (c *CompleteCmd) Run() error {
	return runTransition(c.Token, c.ID, "completed", (*api.Client).CompleteWish)
}

// DeleteCmd deletes a wish.
type DeleteCmd struct {
	ID    string `arg:"" required:"" help:"Wish ID"`
	Token string `flag:"" optional:"" env:"QUICKWISH_TOKEN" help:"API bearer token (overrides keychain)"`
}

// Run executes the delete command.
func (c *DeleteCmd) Run() error {
	return runTransition(c.Token, c.ID, "deleted", (*api.Client).DeleteWish)
}

func runTransition(token, id, verb string, call func(*api.Client, context.Context, string) error) error {
	client, ctx, cleanup, err := clientContext(token)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := call(client, ctx, id); err != nil {
		return fmt.Errorf("failed to update wish: %w", err)
	}

	fmt.Printf("wish %s %s\n", id, verb)

	return nil
}

// DevicesCmd lists available audio devices.
type DevicesCmd struct{}

// Run executes the devices command.
func (dcmd *DevicesCmd) Run() error {
	slog.Info("Enumerating audio devices...")

	adev := audio.NewDevice(nil)
	devices, err := adev.EnumerateDevices(context.Background())
	if err != nil {
		return fmt.Errorf("failed to enumerate audio devices: %w", err)
	}

	for _, dev := range devices {
		slog.Info("Audio Device",
			"name", dev.Name,
			"isDefault", dev.IsDefault,
			"formatCount", dev.FormatCount,
			"formats", dev.Formats,
		)
	}

	return nil
}

// ConfigCmd groups configuration-related subcommands.
type ConfigCmd struct {
	SetToken  SetTokenCmd  `cmd:"" name:"set-token" help:"Store the API token in the system keychain"`
	ShowToken ShowTokenCmd `cmd:"" name:"show-token" help:"Show whether an API token is configured"`
}

// SetTokenCmd stores the API bearer token in the system keychain.
type SetTokenCmd struct {
	Token string `arg:"" help:"Bearer token value"`
}

// Run executes the set-token command.
func (c *SetTokenCmd) Run() error {
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("token cannot be empty")
	}

	if err := keyring.Set(keyring.SessionToken, c.Token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Println("token stored in keychain")

	return nil
}

// ShowTokenCmd reports whether a token is configured.
type ShowTokenCmd struct{}

// Run executes the show-token command.
//
//nolint:unparam // error return required by Kong interface
func (c *ShowTokenCmd) Run() error {
	if keyring.IsSet(keyring.SessionToken) {
		fmt.Println("token: configured")
	} else {
		fmt.Println("token: not set")
		fmt.Println("\nRun 'quickwish config set-token <token>' to configure.")
	}

	return nil
}

func main() {
	// Set up text-based logger for CLI output
	//nolint:exhaustruct // Using default values for other HandlerOptions fields
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}

// newClient builds an API client. An explicit token wins; otherwise the
// keychain is consulted, and an empty token still works against a dev
// server that skips auth.
func newClient(cfg *config.Config, token string) (*api.Client, error) {
	if token == "" {
		if secret, err := keyring.Get(keyring.SessionToken); err == nil {
			token = secret
		} else {
			slog.Debug("keychain lookup failed", "key", "session-token", "error", err)
		}
	}

	return api.NewClient(cfg.APIURL, token), nil
}

func clientContext(token string) (*api.Client, context.Context, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	client, err := newClient(cfg, token)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	return client, ctx, cancel, nil
}

func printWish(w *wish.Wish) {
	fmt.Printf("id:       %s\n", w.ID)
	fmt.Printf("type:     %s", w.Type)

	if w.SubCategory != "" {
		fmt.Printf(" (%s)", w.SubCategory)
	}

	fmt.Println()
	fmt.Printf("title:    %s\n", w.Title)

	if w.Description != "" {
		fmt.Printf("details:  %s\n", w.Description)
	}

	fmt.Printf("where:    %s (within %.0f km)\n", w.Location.Address, w.RadiusKm)
	fmt.Printf("price:    ₹%.2f\n", w.Remuneration)

	if w.IsImmediate {
		fmt.Println("when:     now")
	} else if w.ScheduledTime != nil {
		fmt.Printf("when:     %s\n", w.ScheduledTime.Format("2006-01-02 15:04"))
	}

	fmt.Printf("status:   %s\n", w.Status)

	if w.AcceptedBy != "" {
		fmt.Printf("helper:   %s\n", w.AcceptedBy)
	}

	fmt.Printf("created:  %s\n", w.CreatedAt.Format(time.RFC3339))
}
