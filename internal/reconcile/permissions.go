package reconcile

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/slashd/slashd/internal/command"
	"github.com/slashd/slashd/internal/metrics"
)

// Resolver converts declared permission overwrites into concrete records
// for one guild. Symbolic targets — role names and the owner marker — are
// resolved against the guild's role list and the application record.
type Resolver struct {
	app *discordgo.Application
	log *slog.Logger
}

// resolveCommand resolves every overwrite declared on cmd that applies in
// the guild, truncating the result at the platform cap in declaration
// order.
func (r *Resolver) resolveCommand(cmd *command.Command, guild *discordgo.Guild) []*discordgo.ApplicationCommandPermissions {
	var out []*discordgo.ApplicationCommandPermissions
	for _, p := range cmd.Permissions {
		if p.GuildID != "" && p.GuildID != guild.ID {
			continue
		}
		out = append(out, r.Resolve(p, guild)...)
	}
	if len(out) > command.MaxOverwrites {
		r.log.Warn("permission overwrites truncated",
			"command", cmd.Name, "guild", guild.ID,
			"declared", len(out), "cap", command.MaxOverwrites)
		metrics.TruncatedOverwrites.Inc()
		out = out[:command.MaxOverwrites]
	}
	return out
}

// Resolve expands one declared overwrite into zero or more concrete
// records. Unresolvable role names are dropped with a diagnostic rather
// than failing the sync.
func (r *Resolver) Resolve(p command.Permission, guild *discordgo.Guild) []*discordgo.ApplicationCommandPermissions {
	switch {
	case p.Type == discordgo.ApplicationCommandPermissionTypeRole && !isSnowflake(p.Target):
		role := roleByName(guild, p.Target)
		if role == nil {
			r.log.Warn("no role matching name, skipping permission",
				"role", p.Target, "guild", guild.ID)
			return nil
		}
		return []*discordgo.ApplicationCommandPermissions{
			{ID: role.ID, Type: p.Type, Permission: p.Allow},
		}

	case p.Type == discordgo.ApplicationCommandPermissionTypeUser && p.Target == command.OwnerTarget:
		return r.resolveOwner(p)

	default:
		return []*discordgo.ApplicationCommandPermissions{
			{ID: p.Target, Type: p.Type, Permission: p.Allow},
		}
	}
}

// resolveOwner expands the owner marker: one record per team member for
// team-owned applications, otherwise one for the application owner.
func (r *Resolver) resolveOwner(p command.Permission) []*discordgo.ApplicationCommandPermissions {
	if r.app == nil {
		r.log.Warn("owner permission declared but application info unavailable")
		return nil
	}
	if r.app.Team != nil {
		out := make([]*discordgo.ApplicationCommandPermissions, 0, len(r.app.Team.Members))
		for _, member := range r.app.Team.Members {
			out = append(out, &discordgo.ApplicationCommandPermissions{
				ID: member.User.ID, Type: p.Type, Permission: p.Allow,
			})
		}
		return out
	}
	return []*discordgo.ApplicationCommandPermissions{
		{ID: r.app.Owner.ID, Type: p.Type, Permission: p.Allow},
	}
}

func roleByName(guild *discordgo.Guild, name string) *discordgo.Role {
	for _, role := range guild.Roles {
		if role.Name == name {
			return role
		}
	}
	return nil
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
