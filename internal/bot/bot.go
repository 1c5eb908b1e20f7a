// Package bot is the composition root: it owns the session, the command
// registry, the synchronizer and the dispatcher as explicit fields and
// delegates between them.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/slashd/slashd/internal/command"
	"github.com/slashd/slashd/internal/dispatch"
	"github.com/slashd/slashd/internal/reconcile"
	"github.com/slashd/slashd/internal/registry"
)

// Config holds the bot configuration.
type Config struct {
	Token string

	// AppID overrides the application ID; when empty the connected user's
	// ID is used.
	AppID string

	// DebugGuilds sandboxes commands declared without an explicit scope
	// into these guilds instead of publishing them globally.
	DebugGuilds []string

	// OwnerID and OwnerIDs configure owner checks. Setting both is a
	// construction-time error.
	OwnerID  string
	OwnerIDs []string
}

// Bot wraps a discordgo session with command registration and dispatch.
type Bot struct {
	cfg        Config
	session    *discordgo.Session
	reg        *registry.Registry
	dispatcher *dispatch.Dispatcher
	syncer     *reconcile.Synchronizer
	log        *slog.Logger

	mu        sync.RWMutex
	checks    []command.Check
	listeners map[string][]func(args ...any)
}

// New validates config and creates a new Bot.
func New(cfg Config) (*Bot, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if cfg.OwnerID != "" && len(cfg.OwnerIDs) > 0 {
		return nil, fmt.Errorf("owner_id and owner_ids are mutually exclusive")
	}
	b := &Bot{
		cfg:       cfg,
		reg:       registry.New(cfg.DebugGuilds...),
		listeners: make(map[string][]func(args ...any)),
		log:       slog.Default().With("component", "bot"),
	}
	b.dispatcher = dispatch.New(b.reg, b)
	return b, nil
}

// Registry exposes the command registry.
func (b *Bot) Registry() *registry.Registry { return b.reg }

// AddCommand declares a constructed command for the next sync.
func (b *Bot) AddCommand(cmd *command.Command) { b.reg.Add(cmd) }

// Slash constructs a slash command from cfg and declares it.
func (b *Bot) Slash(cfg command.Config, handler command.Handler) (*command.Command, error) {
	cmd, err := command.NewSlash(cfg, handler)
	if err != nil {
		return nil, err
	}
	b.reg.Add(cmd)
	return cmd, nil
}

// UserMenu constructs a user context-menu command and declares it.
func (b *Bot) UserMenu(cfg command.Config, handler command.Handler) (*command.Command, error) {
	cmd, err := command.NewUserMenu(cfg, handler)
	if err != nil {
		return nil, err
	}
	b.reg.Add(cmd)
	return cmd, nil
}

// MessageMenu constructs a message context-menu command and declares it.
func (b *Bot) MessageMenu(cfg command.Config, handler command.Handler) (*command.Command, error) {
	cmd, err := command.NewMessageMenu(cfg, handler)
	if err != nil {
		return nil, err
	}
	b.reg.Add(cmd)
	return cmd, nil
}

// AddCog declares every command contributed by a cog, stamping the cog
// onto each so its error hook participates in error routing.
func (b *Bot) AddCog(cog command.Cog) {
	for _, cmd := range cog.Commands() {
		cmd.Cog = cog
		b.reg.Add(cmd)
	}
}

// AddCheck installs a bot-level once-check evaluated before every command.
func (b *Bot) AddCheck(check command.Check) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checks = append(b.checks, check)
}

// CanRun evaluates the bot-level once-checks, short-circuiting on the
// first failure.
func (b *Bot) CanRun(ctx *command.Context) bool {
	b.mu.RLock()
	checks := b.checks
	b.mu.RUnlock()
	for _, check := range checks {
		if !check(ctx) {
			return false
		}
	}
	return true
}

// IsOwner reports whether the user is a configured owner.
func (b *Bot) IsOwner(userID string) bool {
	if b.cfg.OwnerID != "" {
		return userID == b.cfg.OwnerID
	}
	for _, id := range b.cfg.OwnerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// OwnerOnly returns a check passing only for configured owners.
func (b *Bot) OwnerOnly() command.Check {
	return func(ctx *command.Context) bool {
		u := ctx.User()
		return u != nil && b.IsOwner(u.ID)
	}
}

// On registers a listener for a dispatch event.
func (b *Bot) On(event string, fn func(args ...any)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[event] = append(b.listeners[event], fn)
}

// Emit fans an event out to its listeners. An unhandled command error
// falls back to printing the error to the error stream; the dispatch loop
// is never crashed by a listener.
func (b *Bot) Emit(event string, args ...any) {
	b.mu.RLock()
	listeners := b.listeners[event]
	b.mu.RUnlock()

	if len(listeners) == 0 && event == command.EventCommandError {
		b.printCommandError(args)
		return
	}
	for _, fn := range listeners {
		runListener(event, fn, args)
	}
}

func runListener(event string, fn func(args ...any), args []any) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event listener panicked", "event", event, "panic", r)
		}
	}()
	fn(args...)
}

func (b *Bot) printCommandError(args []any) {
	name := "?"
	var err any
	if len(args) > 0 {
		if ctx, ok := args[0].(*command.Context); ok && ctx.Command != nil {
			name = ctx.Command.Name
		}
	}
	if len(args) > 1 {
		err = args[1]
	}
	fmt.Fprintf(os.Stderr, "ignoring exception in command %s: %v\n", name, err)
}

// RegisterCommands reconciles declared commands against the remote store.
// Invoke once per established connection; re-running is idempotent.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	if b.syncer == nil {
		return fmt.Errorf("bot is not connected")
	}
	appID := b.cfg.AppID
	if appID == "" {
		appID = b.session.State.User.ID
	}
	return b.syncer.Sync(ctx, appID)
}

// ProcessApplicationCommands routes one inbound interaction event.
func (b *Bot) ProcessApplicationCommands(ctx context.Context, i *discordgo.InteractionCreate) {
	b.dispatcher.Process(ctx, b.session, i)
}

// Start connects to the gateway, registers commands on ready and installs
// the interaction handler.
func (b *Bot) Start(ctx context.Context) error {
	session, err := discordgo.New("Bot " + b.cfg.Token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	b.session = session
	b.session.Identify.Intents = discordgo.IntentsGuilds

	b.syncer = reconcile.New(
		sessionRest{session},
		stateGuilds{session},
		sessionAppInfo{session},
		b.reg,
	)

	b.session.AddHandler(func(s *discordgo.Session, _ *discordgo.Ready) {
		b.log.Info("connected", "user", s.State.User.Username)
		if err := b.RegisterCommands(ctx); err != nil {
			b.log.Error("command sync failed", "error", err)
		}
	})
	b.session.AddHandler(b.dispatcher.HandleInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	return nil
}

// Stop closes the session.
func (b *Bot) Stop() error {
	if b.session != nil {
		return b.session.Close()
	}
	return nil
}
