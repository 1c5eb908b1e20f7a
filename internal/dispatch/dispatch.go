// Package dispatch routes inbound interaction events to registered
// commands and runs them through the check/hook/error pipeline. Errors
// never escape the dispatcher; a failing command cannot take the process
// down or leave the registry inconsistent.
package dispatch

import (
	"context"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/slashd/slashd/internal/command"
	"github.com/slashd/slashd/internal/metrics"
	"github.com/slashd/slashd/internal/registry"
)

// Dispatcher resolves interactions against the registry and invokes the
// matched command.
type Dispatcher struct {
	reg *registry.Registry
	bot command.Bot
	log *slog.Logger
}

// New creates a dispatcher reading from reg and reporting through bot.
func New(reg *registry.Registry, bot command.Bot) *Dispatcher {
	return &Dispatcher{
		reg: reg,
		bot: bot,
		log: slog.Default().With("component", "dispatch"),
	}
}

// HandleInteraction is the discordgo handler entry point.
func (d *Dispatcher) HandleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	d.Process(context.Background(), s, i)
}

// Process runs one interaction through the dispatch state machine.
// Interaction kinds other than application commands and autocomplete are
// ignored.
func (d *Dispatcher) Process(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand, discordgo.InteractionApplicationCommandAutocomplete:
	default:
		return
	}

	data := i.ApplicationCommandData()
	cmd, ok := d.reg.ByID(data.ID)
	if !ok {
		d.log.Warn("received unknown application command", "id", data.ID, "name", data.Name)
		metrics.IncInteraction("unknown")
		d.bot.Emit(command.EventUnknownCommand, i)
		return
	}

	cctx := command.NewContext(ctx, s, i, d.bot)

	if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
		metrics.IncInteraction("autocomplete")
		d.autocomplete(cctx, cmd)
		return
	}

	metrics.IncInteraction("command")
	d.bot.Emit(command.EventCommand, cctx)

	res := cmd.Invoke(cctx)
	metrics.IncInvocation(res.Outcome.String())
	switch res.Outcome {
	case OutcomeFailed:
		d.log.Error("command failed", "command", cmd.Name, "invocation", cctx.ID, "error", res.Err)
		cmd.DispatchError(cctx, res.Err)
	case OutcomeCancelled:
		// Cancellation reflects shutdown or teardown, not a fault.
		d.log.Debug("invocation cancelled", "command", cmd.Name, "invocation", cctx.ID)
	}
}

// autocomplete delegates straight to the command's autocomplete callback,
// bypassing checks and hooks entirely.
func (d *Dispatcher) autocomplete(ctx *command.Context, cmd *command.Command) {
	ctx.Command = cmd
	if cmd.Autocomplete == nil {
		d.log.Warn("autocomplete interaction for command without callback", "command", cmd.Name)
		return
	}
	if err := cmd.Autocomplete(ctx); err != nil {
		d.log.Error("autocomplete callback failed", "command", cmd.Name, "invocation", ctx.ID, "error", err)
	}
}

// Outcome aliases, re-exported so callers don't need to import command.
const (
	OutcomeCompleted = command.OutcomeCompleted
	OutcomeFailed    = command.OutcomeFailed
	OutcomeCancelled = command.OutcomeCancelled
)
