package command

import "github.com/bwmarrin/discordgo"

// OwnerTarget is the symbolic permission target for the application owner.
// It expands at sync time to the owner's ID, or to every team member when
// the application is team-owned.
const OwnerTarget = "owner"

// MaxOverwrites is the per-command, per-guild cap the platform places on
// permission overwrites. Resolved overwrites beyond it are truncated in
// declaration order.
const MaxOverwrites = 10

// Permission declares a visibility overwrite for a command. Target is
// either a concrete snowflake, a role name, or OwnerTarget; symbolic
// targets are resolved per guild at sync time since role IDs and team
// membership are unknown at declaration time.
type Permission struct {
	Target  string
	Type    discordgo.ApplicationCommandPermissionType
	Allow   bool
	GuildID string // empty applies the overwrite in every synced guild
}

// HasRole allows the command for a role, given by ID or name.
func HasRole(role, guildID string) Permission {
	return Permission{Target: role, Type: discordgo.ApplicationCommandPermissionTypeRole, Allow: true, GuildID: guildID}
}

// HasAnyRole allows the command for each of the given roles.
func HasAnyRole(guildID string, roles ...string) []Permission {
	out := make([]Permission, 0, len(roles))
	for _, r := range roles {
		out = append(out, HasRole(r, guildID))
	}
	return out
}

// IsUser allows the command for a single user ID.
func IsUser(userID, guildID string) Permission {
	return Permission{Target: userID, Type: discordgo.ApplicationCommandPermissionTypeUser, Allow: true, GuildID: guildID}
}

// IsOwner allows the command for the application owner (or, for team-owned
// applications, every team member).
func IsOwner(guildID string) Permission {
	return Permission{Target: OwnerTarget, Type: discordgo.ApplicationCommandPermissionTypeUser, Allow: true, GuildID: guildID}
}
