package command

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/gofrs/uuid/v5"
)

// Events fans notifications out to registered listeners.
type Events interface {
	Emit(event string, args ...any)
}

// Bot is the surface of the owning bot that commands consume at invocation
// time: notification fan-out plus the bot-level once-checks.
type Bot interface {
	Events
	CanRun(ctx *Context) bool
}

// Event names emitted during dispatch.
const (
	EventCommand        = "application_command"
	EventCommandError   = "application_command_error"
	EventUnknownCommand = "unknown_application_command"
)

// Context binds one inbound interaction to the command resolved for it.
// The embedded context.Context carries cancellation across every remote
// call and user hook.
type Context struct {
	context.Context

	Session     *discordgo.Session
	Interaction *discordgo.InteractionCreate
	Command     *Command
	Bot         Bot

	// ID correlates all log lines produced by one invocation.
	ID uuid.UUID

	// Failed is set once the invocation has been routed to error handling.
	Failed bool

	responded bool
}

// NewContext builds an invocation context for an inbound interaction.
func NewContext(parent context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, bot Bot) *Context {
	return &Context{
		Context:     parent,
		Session:     s,
		Interaction: i,
		Bot:         bot,
		ID:          uuid.Must(uuid.NewV4()),
	}
}

// GuildID returns the guild the interaction was issued in, or "" for DMs.
func (c *Context) GuildID() string { return c.Interaction.GuildID }

// ChannelID returns the channel the interaction was issued in.
func (c *Context) ChannelID() string { return c.Interaction.ChannelID }

// User returns the invoking user, regardless of guild or DM origin.
func (c *Context) User() *discordgo.User {
	if c.Interaction.Member != nil {
		return c.Interaction.Member.User
	}
	return c.Interaction.User
}

// Respond sends the initial interaction response, or a follow-up message if
// the interaction has already been acknowledged.
func (c *Context) Respond(content string) error {
	if c.responded {
		_, err := c.Followup(content)
		return err
	}
	err := c.Session.InteractionRespond(c.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err == nil {
		c.responded = true
	}
	return err
}

// Defer acknowledges the interaction without content, buying time past the
// platform's response deadline. Subsequent Respond calls become follow-ups.
func (c *Context) Defer() error {
	err := c.Session.InteractionRespond(c.Interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err == nil {
		c.responded = true
	}
	return err
}

// Followup sends a follow-up message for an acknowledged interaction.
func (c *Context) Followup(content string) (*discordgo.Message, error) {
	return c.Session.FollowupMessageCreate(c.Interaction.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
}

// options returns the interaction's leaf option list, descending through
// subcommand and subcommand-group nesting.
func (c *Context) options() []*discordgo.ApplicationCommandInteractionDataOption {
	opts := c.Interaction.ApplicationCommandData().Options
	for len(opts) == 1 &&
		(opts[0].Type == discordgo.ApplicationCommandOptionSubCommand ||
			opts[0].Type == discordgo.ApplicationCommandOptionSubCommandGroup) {
		opts = opts[0].Options
	}
	return opts
}

// StringOption returns the named string option, or "" when absent.
func (c *Context) StringOption(name string) string {
	for _, opt := range c.options() {
		if opt.Name == name {
			return opt.StringValue()
		}
	}
	return ""
}

// IntOption returns the named integer option, or def when absent.
func (c *Context) IntOption(name string, def int64) int64 {
	for _, opt := range c.options() {
		if opt.Name == name {
			return opt.IntValue()
		}
	}
	return def
}

// BoolOption returns the named boolean option, or def when absent.
func (c *Context) BoolOption(name string, def bool) bool {
	for _, opt := range c.options() {
		if opt.Name == name {
			return opt.BoolValue()
		}
	}
	return def
}
