package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/bwmarrin/discordgo"
)

// Handler is a user callback invoked for a resolved interaction.
type Handler func(ctx *Context) error

// Check is a guard predicate evaluated before invocation. Checks are
// evaluated in declaration order and short-circuit on the first failure.
type Check func(ctx *Context) bool

// Hook is a lifecycle callback run around the handler.
type Hook func(ctx *Context) error

// ErrorHook receives invocation errors routed to a command or cog.
type ErrorHook func(ctx *Context, err error)

// Cog groups related commands. Only the hook-lookup contract is consumed
// here; a cog that also implements CogErrorHandler gets its hook consulted
// after the command-local one.
type Cog interface {
	Commands() []*Command
}

// CogErrorHandler is the optional cog-level error hook.
type CogErrorHandler interface {
	OnCommandError(ctx *Context, err error)
}

// Outcome classifies how an invocation ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeFailed
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Result is the terminal state of one invocation. Err is set only for
// OutcomeFailed; a cancelled invocation is a silent no-op, never an error.
type Result struct {
	Outcome Outcome
	Err     error
}

// Command is an immutable-after-construction descriptor for one invocable
// unit: a slash command, a context-menu command, or a subcommand group.
type Command struct {
	Type        discordgo.ApplicationCommandType
	Name        string
	Description string

	// ID is the remote-assigned command ID. Unset until the first
	// successful sync; refreshed on every sync cycle.
	ID string

	// GuildIDs restricts the command to those guilds. Empty means global.
	GuildIDs []string

	// Global pins the command to global scope even when a sandbox guild
	// set is configured on the registry.
	Global bool

	Options           []*Option
	Checks            []Check
	Permissions       []Permission
	DefaultPermission bool

	Before       Hook
	After        Hook
	OnError      ErrorHook
	Autocomplete Handler

	Cog Cog

	handler     Handler
	parent      *Command
	subcommands []*Command
}

// IsSubcommand reports whether the command lives inside a group.
func (c *Command) IsSubcommand() bool { return c.parent != nil }

// Subcommands returns the group's children, in declaration order.
func (c *Command) Subcommands() []*Command { return c.subcommands }

// CanRun evaluates the bot-level once-checks and then the command's own
// checks, short-circuiting on the first failure.
func (c *Command) CanRun(ctx *Context) bool {
	if ctx.Bot != nil && !ctx.Bot.CanRun(ctx) {
		return false
	}
	for _, check := range c.Checks {
		if !check(ctx) {
			return false
		}
	}
	return true
}

// prepare attaches the command to the context, runs the check pipeline and
// the before-hook.
func (c *Command) prepare(ctx *Context) error {
	ctx.Command = c
	if ctx.Bot != nil && !ctx.Bot.CanRun(ctx) {
		return &CheckFailure{Command: c.Name, Global: true}
	}
	for _, check := range c.Checks {
		if !check(ctx) {
			return &CheckFailure{Command: c.Name}
		}
	}
	if c.Before != nil {
		if err := c.Before(ctx); err != nil {
			return c.wrap(err)
		}
	}
	return nil
}

// Invoke runs the full pipeline: checks, before-hook, handler, after-hook.
// The after-hook runs whether or not the handler failed; it is skipped only
// on genuine cancellation, which terminates the invocation silently.
func (c *Command) Invoke(ctx *Context) Result {
	if len(c.subcommands) > 0 {
		return c.invokeGroup(ctx)
	}
	if err := c.prepare(ctx); err != nil {
		if cancelled(err) {
			return Result{Outcome: OutcomeCancelled}
		}
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	err := c.runHandler(ctx)
	if cancelled(err) {
		return Result{Outcome: OutcomeCancelled}
	}

	c.runAfterHook(ctx)

	if err != nil {
		return Result{Outcome: OutcomeFailed, Err: err}
	}
	return Result{Outcome: OutcomeCompleted}
}

// invokeGroup routes a group invocation to the subcommand named by the
// interaction's option path.
func (c *Command) invokeGroup(ctx *Context) Result {
	ctx.Command = c
	target := c
	opts := ctx.Interaction.ApplicationCommandData().Options
	for len(opts) > 0 &&
		(opts[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
			opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		child := target.subcommand(opts[0].Name)
		if child == nil {
			return Result{Outcome: OutcomeFailed, Err: &InvokeError{
				Command:  c.Name,
				Original: fmt.Errorf("no subcommand %q in group %s", opts[0].Name, target.Name),
			}}
		}
		target = child
		opts = opts[0].Options
	}
	if target == c {
		return Result{Outcome: OutcomeFailed, Err: &InvokeError{
			Command:  c.Name,
			Original: errors.New("group invoked without a subcommand path"),
		}}
	}
	return target.Invoke(ctx)
}

func (c *Command) subcommand(name string) *Command {
	for _, sub := range c.subcommands {
		if sub.Name == name {
			return sub
		}
	}
	return nil
}

// runHandler calls the user handler with panic containment. Framework
// errors pass through; anything else is wrapped exactly once.
func (c *Command) runHandler(ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = c.wrap(fmt.Errorf("panic: %v\n%s", r, debug.Stack()))
		}
	}()
	if herr := c.handler(ctx); herr != nil {
		return c.wrap(herr)
	}
	return nil
}

// runAfterHook guarantees the after-hook cannot take down the dispatch
// path; a failing after-hook is logged and dropped.
func (c *Command) runAfterHook(ctx *Context) {
	if c.After == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("after-hook panicked", "command", c.Name, "invocation", ctx.ID, "panic", r)
		}
	}()
	if err := c.After(ctx); err != nil {
		slog.Error("after-hook failed", "command", c.Name, "invocation", ctx.ID, "error", err)
	}
}

// wrap translates a handler error into a framework error, leaving framework
// errors and cancellation untouched.
func (c *Command) wrap(err error) error {
	var ce Error
	if errors.As(err, &ce) {
		return err
	}
	if cancelled(err) {
		return err
	}
	return &InvokeError{Command: c.Name, Original: err}
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// DispatchError routes an invocation error through the command-local hook,
// then the cog-level hook, and finally always emits the global error event.
// The global notification fires exactly once regardless of which hooks
// exist or how they behave.
func (c *Command) DispatchError(ctx *Context, err error) {
	ctx.Failed = true
	defer func() {
		if ctx.Bot != nil {
			ctx.Bot.Emit(EventCommandError, ctx, err)
		}
	}()

	if c.OnError != nil {
		runErrorHook(ctx, err, c.OnError)
	}
	if handler, ok := c.Cog.(CogErrorHandler); ok {
		runErrorHook(ctx, err, handler.OnCommandError)
	}
}

// runErrorHook shields dispatch from a misbehaving error hook.
func runErrorHook(ctx *Context, err error, hook ErrorHook) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("error hook panicked", "command", ctx.Command.Name, "invocation", ctx.ID, "panic", r)
		}
	}()
	hook(ctx, err)
}

// Copy produces a fresh command from the original construction arguments,
// re-attaching checks, hooks and the error handler. Used when one handler
// is bound under multiple guild scopes.
func (c *Command) Copy() *Command {
	dup := *c
	dup.ID = ""
	dup.GuildIDs = append([]string(nil), c.GuildIDs...)
	dup.Options = append([]*Option(nil), c.Options...)
	dup.Checks = append([]Check(nil), c.Checks...)
	dup.Permissions = append([]Permission(nil), c.Permissions...)
	dup.subcommands = append([]*Command(nil), c.subcommands...)
	return &dup
}

// ApplicationCommand converts the command into its registration payload.
// Groups nest their subcommands as subcommand / subcommand-group options.
func (c *Command) ApplicationCommand() *discordgo.ApplicationCommand {
	dp := c.DefaultPermission
	ac := &discordgo.ApplicationCommand{
		Type:              c.Type,
		Name:              c.Name,
		Description:       c.Description,
		DefaultPermission: &dp,
	}
	if c.Type != discordgo.ChatApplicationCommand {
		return ac
	}
	if len(c.subcommands) > 0 {
		for _, sub := range c.subcommands {
			ac.Options = append(ac.Options, sub.subcommandOption())
		}
		return ac
	}
	for _, opt := range c.Options {
		ac.Options = append(ac.Options, opt.applicationCommandOption())
	}
	return ac
}

func (c *Command) subcommandOption() *discordgo.ApplicationCommandOption {
	opt := &discordgo.ApplicationCommandOption{
		Name:        c.Name,
		Description: c.Description,
	}
	if len(c.subcommands) > 0 {
		opt.Type = discordgo.ApplicationCommandOptionSubCommandGroup
		for _, sub := range c.subcommands {
			opt.Options = append(opt.Options, sub.subcommandOption())
		}
		return opt
	}
	opt.Type = discordgo.ApplicationCommandOptionSubCommand
	for _, o := range c.Options {
		opt.Options = append(opt.Options, o.applicationCommandOption())
	}
	return opt
}
