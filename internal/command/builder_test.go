package command

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(ctx *Context) error { return nil }

func TestNewSlash_RequiresHandler(t *testing.T) {
	_, err := NewSlash(Config{Name: "ping", Description: "d"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler")
}

func TestNewSlash_ValidatesName(t *testing.T) {
	for _, name := range []string{"", "UPPER", "has space", strings.Repeat("x", 33)} {
		_, err := NewSlash(Config{Name: name, Description: "d"}, noop)
		assert.Error(t, err, "name %q", name)
	}
	_, err := NewSlash(Config{Name: "valid-name_1", Description: "d"}, noop)
	assert.NoError(t, err)
}

func TestNewSlash_ValidatesDescription(t *testing.T) {
	_, err := NewSlash(Config{Name: "ping"}, noop)
	assert.Error(t, err)

	_, err = NewSlash(Config{Name: "ping", Description: strings.Repeat("x", 101)}, noop)
	assert.Error(t, err)
}

func TestNewSlash_ConflictingScope(t *testing.T) {
	_, err := NewSlash(Config{
		Name:        "ping",
		Description: "d",
		Global:      true,
		GuildIDs:    []string{"g1"},
	}, noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "global")
}

func TestNewSlash_OptionValidation(t *testing.T) {
	maxVal := 10.0

	cases := []struct {
		name string
		opt  *Option
	}{
		{"min/max on string", &Option{
			Type: discordgo.ApplicationCommandOptionString, Name: "s", Description: "d", MaxValue: &maxVal,
		}},
		{"channel types on integer", &Option{
			Type: discordgo.ApplicationCommandOptionInteger, Name: "n", Description: "d",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		}},
		{"direct subcommand option", &Option{
			Type: discordgo.ApplicationCommandOptionSubCommand, Name: "sub", Description: "d",
		}},
		{"missing description", &Option{
			Type: discordgo.ApplicationCommandOptionString, Name: "s",
		}},
	}
	for _, tc := range cases {
		_, err := NewSlash(Config{Name: "cmd", Description: "d", Options: []*Option{tc.opt}}, noop)
		assert.Error(t, err, tc.name)
	}

	_, err := NewSlash(Config{Name: "cmd", Description: "d", Options: []*Option{
		{Type: discordgo.ApplicationCommandOptionInteger, Name: "n", Description: "d", MaxValue: &maxVal},
	}}, noop)
	assert.NoError(t, err)
}

func TestNewContextMenu_Validation(t *testing.T) {
	_, err := NewUserMenu(Config{Name: "Show Profile", Description: "not allowed"}, noop)
	assert.Error(t, err, "context menus reject descriptions")

	_, err = NewMessageMenu(Config{Name: "Quote"}, nil)
	assert.Error(t, err, "handler required")

	cmd, err := NewUserMenu(Config{Name: "Show Profile"}, noop)
	require.NoError(t, err)
	assert.Equal(t, discordgo.UserApplicationCommand, cmd.Type)
}

func TestPermissionsForceRestrictedDefault(t *testing.T) {
	cmd, err := NewSlash(Config{
		Name:        "admin",
		Description: "d",
		Permissions: []Permission{HasRole("Mods", "g1")},
	}, noop)
	require.NoError(t, err)
	assert.False(t, cmd.DefaultPermission)

	payload := cmd.ApplicationCommand()
	require.NotNil(t, payload.DefaultPermission)
	assert.False(t, *payload.DefaultPermission)
}

func TestApplicationCommand_SlashPayload(t *testing.T) {
	maxVal := 100.0
	cmd, err := NewSlash(Config{
		Name:        "snap",
		Description: "take a snapshot",
		Options: []*Option{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "facing",
				Description: "camera direction",
				Required:    true,
				Choices: []OptionChoice{
					{Name: "Front", Value: "front"},
					{Name: "Back", Value: "back"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "quality",
				Description: "jpeg quality",
				MaxValue:    &maxVal,
			},
		},
	}, noop)
	require.NoError(t, err)

	payload := cmd.ApplicationCommand()
	assert.Equal(t, discordgo.ChatApplicationCommand, payload.Type)
	assert.Equal(t, "snap", payload.Name)
	require.Len(t, payload.Options, 2)
	assert.True(t, payload.Options[0].Required)
	assert.Len(t, payload.Options[0].Choices, 2)
	assert.Equal(t, 100.0, payload.Options[1].MaxValue)
}

func TestApplicationCommand_GroupPayloadNestsSubcommands(t *testing.T) {
	group, err := NewGroup(Config{Name: "config", Description: "settings"})
	require.NoError(t, err)

	_, err = group.Subcommand(Config{
		Name:        "get",
		Description: "read a setting",
		Options: []*Option{
			{Type: discordgo.ApplicationCommandOptionString, Name: "key", Description: "d", Required: true},
		},
	}, noop)
	require.NoError(t, err)

	sub, err := group.Subgroup(Config{Name: "roles", Description: "role settings"})
	require.NoError(t, err)
	_, err = sub.Subcommand(Config{Name: "add", Description: "d"}, noop)
	require.NoError(t, err)

	payload := group.ApplicationCommand()
	require.Len(t, payload.Options, 2)
	assert.Equal(t, discordgo.ApplicationCommandOptionSubCommand, payload.Options[0].Type)
	assert.Equal(t, "get", payload.Options[0].Name)
	assert.Equal(t, discordgo.ApplicationCommandOptionSubCommandGroup, payload.Options[1].Type)
	require.Len(t, payload.Options[1].Options, 1)
	assert.Equal(t, "add", payload.Options[1].Options[0].Name)
}

func TestSubgroup_NestingLimit(t *testing.T) {
	group, err := NewGroup(Config{Name: "a", Description: "d"})
	require.NoError(t, err)
	sub, err := group.Subgroup(Config{Name: "b", Description: "d"})
	require.NoError(t, err)
	_, err = sub.Subgroup(Config{Name: "c", Description: "d"})
	assert.Error(t, err)
}

func TestSubcommand_DuplicateName(t *testing.T) {
	group, err := NewGroup(Config{Name: "g", Description: "d"})
	require.NoError(t, err)
	_, err = group.Subcommand(Config{Name: "x", Description: "d"}, noop)
	require.NoError(t, err)
	_, err = group.Subcommand(Config{Name: "x", Description: "d"}, noop)
	assert.Error(t, err)
}

func TestIsOwnerPermission(t *testing.T) {
	p := IsOwner("g1")
	assert.Equal(t, OwnerTarget, p.Target)
	assert.Equal(t, discordgo.ApplicationCommandPermissionTypeUser, p.Type)
	assert.True(t, p.Allow)
}
