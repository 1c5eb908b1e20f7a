package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slashd/slashd/internal/command"
	"github.com/slashd/slashd/internal/reconcile"
	"github.com/slashd/slashd/internal/registry"
)

// MockBot records emitted events.
type MockBot struct {
	CanRunFn func(ctx *command.Context) bool
	Events   []string
	Args     [][]any
}

func (m *MockBot) Emit(event string, args ...any) {
	m.Events = append(m.Events, event)
	m.Args = append(m.Args, args)
}

func (m *MockBot) CanRun(ctx *command.Context) bool {
	if m.CanRunFn == nil {
		return true
	}
	return m.CanRunFn(ctx)
}

func (m *MockBot) count(event string) int {
	n := 0
	for _, e := range m.Events {
		if e == event {
			n++
		}
	}
	return n
}

func commandInteraction(id, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{ID: id, Name: name, Options: opts},
	}}
}

func slash(t *testing.T, cfg command.Config, h command.Handler) *command.Command {
	t.Helper()
	cmd, err := command.NewSlash(cfg, h)
	require.NoError(t, err)
	return cmd
}

func TestProcess_IgnoresOtherInteractionTypes(t *testing.T) {
	bot := &MockBot{}
	d := New(registry.New(), bot)

	d.Process(context.Background(), nil, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionMessageComponent,
		Data: discordgo.MessageComponentInteractionData{CustomID: "x"},
	}})

	assert.Empty(t, bot.Events)
}

func TestProcess_UnknownCommandEmitsExactlyOneNotification(t *testing.T) {
	bot := &MockBot{}
	d := New(registry.New(), bot)

	d.Process(context.Background(), nil, commandInteraction("404", "ghost"))

	assert.Equal(t, []string{command.EventUnknownCommand}, bot.Events)
}

func TestProcess_ErrorContainment(t *testing.T) {
	reg := registry.New()
	bot := &MockBot{}
	boom := errors.New("boom")
	cmd := slash(t, command.Config{Name: "bad", Description: "d"}, func(ctx *command.Context) error {
		return boom
	})
	reg.Bind("1", cmd)

	d := New(reg, bot)
	assert.NotPanics(t, func() {
		d.Process(context.Background(), nil, commandInteraction("1", "bad"))
	})

	require.Equal(t, 1, bot.count(command.EventCommandError), "exactly one global error notification")
	errArgs := bot.Args[len(bot.Args)-1]
	require.Len(t, errArgs, 2)
	var invokeErr *command.InvokeError
	require.ErrorAs(t, errArgs[1].(error), &invokeErr)
	assert.Same(t, boom, invokeErr.Original)
}

func TestProcess_PanickingHandlerDoesNotCrashDispatch(t *testing.T) {
	reg := registry.New()
	bot := &MockBot{}
	cmd := slash(t, command.Config{Name: "bad", Description: "d"}, func(ctx *command.Context) error {
		panic("boom")
	})
	reg.Bind("1", cmd)

	d := New(reg, bot)
	assert.NotPanics(t, func() {
		d.Process(context.Background(), nil, commandInteraction("1", "bad"))
	})
	assert.Equal(t, 1, bot.count(command.EventCommandError))
}

func TestProcess_SuccessEmitsInvokedNotification(t *testing.T) {
	reg := registry.New()
	bot := &MockBot{}
	invoked := false
	cmd := slash(t, command.Config{Name: "ok", Description: "d"}, func(ctx *command.Context) error {
		invoked = true
		return nil
	})
	reg.Bind("1", cmd)

	New(reg, bot).Process(context.Background(), nil, commandInteraction("1", "ok"))

	assert.True(t, invoked)
	assert.Equal(t, []string{command.EventCommand}, bot.Events)
}

func TestProcess_CancelledInvocationIsSilent(t *testing.T) {
	reg := registry.New()
	bot := &MockBot{}
	cmd := slash(t, command.Config{Name: "c", Description: "d"}, func(ctx *command.Context) error {
		return context.Canceled
	})
	reg.Bind("1", cmd)

	New(reg, bot).Process(context.Background(), nil, commandInteraction("1", "c"))

	assert.Zero(t, bot.count(command.EventCommandError), "cancellation is not an error")
}

func TestProcess_AutocompleteBypassesChecksAndHooks(t *testing.T) {
	reg := registry.New()
	bot := &MockBot{}
	var trail []string
	cmd := slash(t, command.Config{
		Name:        "auto",
		Description: "d",
		Checks:      []command.Check{func(ctx *command.Context) bool { trail = append(trail, "check"); return false }},
		Before:      func(ctx *command.Context) error { trail = append(trail, "before"); return nil },
		Autocomplete: func(ctx *command.Context) error {
			trail = append(trail, "autocomplete")
			return nil
		},
	}, func(ctx *command.Context) error {
		trail = append(trail, "handler")
		return nil
	})
	reg.Bind("1", cmd)

	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommandAutocomplete,
		Data: discordgo.ApplicationCommandInteractionData{ID: "1", Name: "auto"},
	}}
	New(reg, bot).Process(context.Background(), nil, i)

	assert.Equal(t, []string{"autocomplete"}, trail)
	assert.Empty(t, bot.Events, "no invoked notification for autocomplete")
}

func TestProcess_GlobalCheckFailureRoutedToError(t *testing.T) {
	reg := registry.New()
	bot := &MockBot{CanRunFn: func(ctx *command.Context) bool { return false }}
	cmd := slash(t, command.Config{Name: "gated", Description: "d"}, func(ctx *command.Context) error { return nil })
	reg.Bind("1", cmd)

	New(reg, bot).Process(context.Background(), nil, commandInteraction("1", "gated"))

	require.Equal(t, 1, bot.count(command.EventCommandError))
	errArgs := bot.Args[len(bot.Args)-1]
	var failure *command.CheckFailure
	require.ErrorAs(t, errArgs[1].(error), &failure)
	assert.True(t, failure.Global)
}

// End to end: declare /ping, sync against an empty remote store, dispatch
// an interaction carrying the remote-assigned ID, observe the bound option.
func TestEndToEnd_DeclareSyncDispatch(t *testing.T) {
	reg := registry.New()
	var gotMsg string
	ping := slash(t, command.Config{
		Name:        "ping",
		Description: "echo a message",
		Options: []*command.Option{
			{Type: discordgo.ApplicationCommandOptionString, Name: "msg", Description: "d", Required: true},
		},
	}, func(ctx *command.Context) error {
		gotMsg = ctx.StringOption("msg")
		return nil
	})
	reg.Add(ping)

	globalCalls := 0
	rest := &mockRest{
		bulkGlobal: func(appID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
			globalCalls++
			require.Len(t, cmds, 1)
			dup := *cmds[0]
			dup.ID = "42"
			return []*discordgo.ApplicationCommand{&dup}, nil
		},
	}
	s := reconcile.New(rest, &mockGuilds{}, &mockApp{}, reg)
	require.NoError(t, s.Sync(context.Background(), "app"))
	assert.Equal(t, 1, globalCalls, "exactly one global upsert with one payload")
	assert.Equal(t, "42", ping.ID)

	bot := &MockBot{}
	New(reg, bot).Process(context.Background(), nil, commandInteraction("42", "ping",
		&discordgo.ApplicationCommandInteractionDataOption{
			Name: "msg", Type: discordgo.ApplicationCommandOptionString, Value: "hello",
		}))

	assert.Equal(t, "hello", gotMsg)
	assert.Equal(t, []string{command.EventCommand}, bot.Events)
}

// Minimal reconcile mocks for the end-to-end test.

type mockRest struct {
	bulkGlobal func(appID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
}

func (m *mockRest) GlobalApplicationCommands(appID string) ([]*discordgo.ApplicationCommand, error) {
	return nil, nil
}

func (m *mockRest) BulkOverwriteGlobal(appID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	return m.bulkGlobal(appID, cmds)
}

func (m *mockRest) BulkOverwriteGuild(appID, guildID string, cmds []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
	return cmds, nil
}

func (m *mockRest) BatchEditCommandPermissions(appID, guildID string, perms []*discordgo.GuildApplicationCommandPermissions) error {
	return nil
}

type mockGuilds struct{}

func (mockGuilds) Guilds() []*discordgo.Guild            { return nil }
func (mockGuilds) Guild(string) (*discordgo.Guild, bool) { return nil, false }

type mockApp struct{}

func (mockApp) Application() (*discordgo.Application, error) { return nil, nil }
