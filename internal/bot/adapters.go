package bot

import (
	"github.com/bwmarrin/discordgo"
)

// sessionRest adapts the discordgo session to the reconcile.Rest contract.
type sessionRest struct {
	s *discordgo.Session
}

func (r sessionRest) GlobalApplicationCommands(appID string) ([]*discordgo.ApplicationCommand, error) {
	return r.s.ApplicationCommands(appID, "")
}

func (r sessionRest) BulkOverwriteGlobal(appID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	return r.s.ApplicationCommandBulkOverwrite(appID, "", cmds)
}

func (r sessionRest) BulkOverwriteGuild(appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	return r.s.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
}

func (r sessionRest) BatchEditCommandPermissions(appID, guildID string, perms []*discordgo.GuildApplicationCommandPermissions) error {
	return r.s.ApplicationCommandPermissionsBatchEdit(appID, guildID, perms)
}

// stateGuilds reads the bot's guild membership from the gateway cache.
type stateGuilds struct {
	s *discordgo.Session
}

func (g stateGuilds) Guilds() []*discordgo.Guild {
	return g.s.State.Guilds
}

func (g stateGuilds) Guild(id string) (*discordgo.Guild, bool) {
	guild, err := g.s.State.Guild(id)
	if err != nil {
		return nil, false
	}
	return guild, true
}

// sessionAppInfo fetches the application record for owner resolution.
type sessionAppInfo struct {
	s *discordgo.Session
}

func (a sessionAppInfo) Application() (*discordgo.Application, error) {
	return a.s.Application("@me")
}
