// Package reconcile synchronizes locally declared commands with the remote
// command store: one bulk upsert for the global set, one per guild, with
// remote-assigned IDs written back into the registry, followed by per-guild
// permission upserts.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/slashd/slashd/internal/command"
	"github.com/slashd/slashd/internal/metrics"
	"github.com/slashd/slashd/internal/registry"
)

// Rest is the slice of the REST transport the synchronizer consumes. Rate
// limiting is owned by the transport; the synchronizer only paces its own
// call sites.
type Rest interface {
	GlobalApplicationCommands(appID string) ([]*discordgo.ApplicationCommand, error)
	BulkOverwriteGlobal(appID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
	BulkOverwriteGuild(appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
	BatchEditCommandPermissions(appID, guildID string, perms []*discordgo.GuildApplicationCommandPermissions) error
}

// GuildSource provides the guilds the bot is currently in, with their role
// lists, from the gateway cache.
type GuildSource interface {
	Guilds() []*discordgo.Guild
	Guild(id string) (*discordgo.Guild, bool)
}

// AppInfoSource fetches the application record, including owner and team.
type AppInfoSource interface {
	Application() (*discordgo.Application, error)
}

// Synchronizer reconciles pending commands against the remote store. Sync
// is idempotent: re-running it with unchanged declarations reproduces the
// same ID assignments without duplicating remote commands.
type Synchronizer struct {
	rest    Rest
	guilds  GuildSource
	app     AppInfoSource
	reg     *registry.Registry
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates a synchronizer writing bindings into reg.
func New(rest Rest, guilds GuildSource, app AppInfoSource, reg *registry.Registry) *Synchronizer {
	return &Synchronizer{
		rest:   rest,
		guilds: guilds,
		app:    app,
		reg:    reg,
		// Pace our own bulk calls so a large guild list doesn't hammer
		// the transport's rate limiter.
		limiter: rate.NewLimiter(rate.Every(25*time.Millisecond), 1),
		log:     slog.Default().With("component", "reconcile"),
	}
}

// Sync runs one full reconciliation pass. Global reconciliation completes,
// including ID write-back, before any guild is touched, because per-guild
// permission resolution for global commands needs their IDs.
func (s *Synchronizer) Sync(ctx context.Context, appID string) error {
	pending := s.reg.Pending()

	var globals, scoped []*command.Command
	for _, cmd := range pending {
		if len(cmd.GuildIDs) == 0 {
			globals = append(globals, cmd)
		} else {
			scoped = append(scoped, cmd)
		}
	}

	if err := s.syncGlobal(ctx, appID, globals); err != nil {
		return err
	}

	synced, err := s.syncGuilds(ctx, appID, scoped)
	if err != nil {
		return err
	}

	return s.syncPermissions(ctx, appID, synced, globals, scoped)
}

// syncGlobal bulk-upserts the global command set. Remote commands matching
// a local (name, type) carry their ID into the payload so the upsert
// updates in place instead of duplicating.
func (s *Synchronizer) syncGlobal(ctx context.Context, appID string, globals []*command.Command) error {
	remote, err := s.rest.GlobalApplicationCommands(appID)
	if err != nil {
		return fmt.Errorf("fetch global commands: %w", err)
	}

	payloads := make([]*discordgo.ApplicationCommand, 0, len(globals))
	for _, cmd := range globals {
		payload := cmd.ApplicationCommand()
		if match := matchRemote(remote, cmd); match != nil {
			payload.ID = match.ID
		}
		payloads = append(payloads, payload)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	returned, err := s.rest.BulkOverwriteGlobal(appID, payloads)
	if err != nil {
		return fmt.Errorf("global command upsert: %w", err)
	}

	bound := 0
	for _, rc := range returned {
		for _, cmd := range globals {
			if cmd.Name == rc.Name && cmd.Type == rc.Type {
				s.reg.Bind(rc.ID, cmd)
				bound++
				break
			}
		}
	}
	metrics.SyncedCommands.WithLabelValues("global").Set(float64(bound))
	s.log.Info("global commands synced", "declared", len(globals), "bound", bound)
	return nil
}

// syncGuilds upserts scoped commands into every guild the bot is in.
// Guilds with nothing scoped to them still receive an empty upsert so
// stale remote commands are cleared. A Forbidden response is tolerated,
// and the guild skipped, only when that guild had nothing to register;
// losing pending commands aborts the sync.
func (s *Synchronizer) syncGuilds(ctx context.Context, appID string, scoped []*command.Command) ([]string, error) {
	var synced []string
	bound := 0
	for _, guild := range s.guilds.Guilds() {
		var payloads []*discordgo.ApplicationCommand
		var owners []*command.Command
		for _, cmd := range scoped {
			if !inScope(cmd, guild.ID) {
				continue
			}
			payloads = append(payloads, cmd.ApplicationCommand())
			owners = append(owners, cmd)
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return synced, err
		}
		returned, err := s.rest.BulkOverwriteGuild(appID, guild.ID, payloads)
		if err != nil {
			if isForbidden(err) && len(payloads) == 0 {
				s.log.Warn("skipping guild without command access", "guild", guild.ID)
				metrics.GuildSyncSkips.Inc()
				continue
			}
			return synced, fmt.Errorf("guild %s command upsert: %w", guild.ID, err)
		}

		for _, rc := range returned {
			for _, cmd := range owners {
				if cmd.Name == rc.Name && cmd.Type == rc.Type {
					s.reg.Bind(rc.ID, cmd)
					bound++
					break
				}
			}
		}
		synced = append(synced, guild.ID)
	}
	metrics.SyncedCommands.WithLabelValues("guild").Set(float64(bound))
	return synced, nil
}

// syncPermissions resolves symbolic overwrite targets and issues one batch
// permission upsert per successfully synced guild, covering both its
// scoped commands and every global command. A denial here is unsafe to
// ignore and aborts the remaining guilds.
func (s *Synchronizer) syncPermissions(ctx context.Context, appID string, guilds []string, globals, scoped []*command.Command) error {
	resolver, err := s.newResolver(append(globals, scoped...))
	if err != nil {
		return err
	}

	for _, guildID := range guilds {
		guild, ok := s.guilds.Guild(guildID)
		if !ok {
			continue
		}

		var batch []*discordgo.GuildApplicationCommandPermissions
		for _, cmd := range commandsForGuild(guildID, globals, scoped) {
			overwrites := resolver.resolveCommand(cmd, guild)
			if len(overwrites) == 0 || cmd.ID == "" {
				continue
			}
			batch = append(batch, &discordgo.GuildApplicationCommandPermissions{
				ID:          cmd.ID,
				Permissions: overwrites,
			})
		}
		if len(batch) == 0 {
			continue
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.rest.BatchEditCommandPermissions(appID, guildID, batch); err != nil {
			s.log.Error("permission upsert failed", "guild", guildID, "error", err)
			return fmt.Errorf("guild %s permission upsert: %w", guildID, err)
		}
	}
	return nil
}

// newResolver builds the permission resolver, fetching application info
// only when some command actually declares an owner target.
func (s *Synchronizer) newResolver(cmds []*command.Command) (*Resolver, error) {
	r := &Resolver{log: s.log}
	for _, cmd := range cmds {
		for _, p := range cmd.Permissions {
			if p.Target == command.OwnerTarget {
				app, err := s.app.Application()
				if err != nil {
					return nil, fmt.Errorf("fetch application info: %w", err)
				}
				r.app = app
				return r, nil
			}
		}
	}
	return r, nil
}

func commandsForGuild(guildID string, globals, scoped []*command.Command) []*command.Command {
	out := make([]*command.Command, 0, len(globals))
	for _, cmd := range scoped {
		if inScope(cmd, guildID) {
			out = append(out, cmd)
		}
	}
	return append(out, globals...)
}

func inScope(cmd *command.Command, guildID string) bool {
	for _, id := range cmd.GuildIDs {
		if id == guildID {
			return true
		}
	}
	return false
}

func matchRemote(remote []*discordgo.ApplicationCommand, cmd *command.Command) *discordgo.ApplicationCommand {
	for _, rc := range remote {
		if rc.Name == cmd.Name && rc.Type == cmd.Type {
			return rc
		}
	}
	return nil
}

func isForbidden(err error) bool {
	var rerr *discordgo.RESTError
	return errors.As(err, &rerr) && rerr.Response != nil && rerr.Response.StatusCode == http.StatusForbidden
}
