package command

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/bwmarrin/discordgo"
)

const maxDescriptionLen = 100

var slashNameRe = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)

// Config is the declarative configuration accepted by the constructors.
// It is the explicit-builder rendition of the source framework's decorator
// keywords: name, description, guild scope, checks, default permission and
// permission overwrites.
type Config struct {
	Name        string
	Description string

	// GuildIDs scopes the command to those guilds. Leave empty for global
	// scope. Mutually exclusive with Global.
	GuildIDs []string

	// Global pins the command to global scope even under a sandbox guild
	// configuration. Setting it together with GuildIDs is a declaration
	// error.
	Global bool

	Options           []*Option
	Checks            []Check
	DefaultPermission *bool
	Permissions       []Permission

	Before       Hook
	After        Hook
	OnError      ErrorHook
	Autocomplete Handler
}

// NewSlash constructs a slash command. The handler is mandatory; declaring
// a command without one is a construction-time error, as are invalid names,
// descriptions, option schemas and conflicting scope declarations.
func NewSlash(cfg Config, handler Handler) (*Command, error) {
	if handler == nil {
		return nil, fmt.Errorf("slash command %q: handler is required", cfg.Name)
	}
	c, err := newChatCommand(cfg)
	if err != nil {
		return nil, err
	}
	for _, opt := range cfg.Options {
		if err := opt.validate(); err != nil {
			return nil, fmt.Errorf("slash command %q: %w", cfg.Name, err)
		}
	}
	c.Options = cfg.Options
	c.handler = handler
	c.Autocomplete = cfg.Autocomplete
	return c, nil
}

// NewGroup constructs a subcommand group. Groups have no handler of their
// own; invocation routes to a subcommand added via Subcommand or Subgroup.
func NewGroup(cfg Config) (*Command, error) {
	if len(cfg.Options) > 0 {
		return nil, fmt.Errorf("group %q: options belong on subcommands", cfg.Name)
	}
	return newChatCommand(cfg)
}

func newChatCommand(cfg Config) (*Command, error) {
	if !slashNameRe.MatchString(cfg.Name) {
		return nil, fmt.Errorf("command name %q must be 1-32 lowercase characters from [a-z0-9_-]", cfg.Name)
	}
	if cfg.Description == "" || len(cfg.Description) > maxDescriptionLen {
		return nil, fmt.Errorf("command %q: description must be 1-%d characters", cfg.Name, maxDescriptionLen)
	}
	return build(discordgo.ChatApplicationCommand, cfg)
}

// NewUserMenu constructs a user context-menu command.
func NewUserMenu(cfg Config, handler Handler) (*Command, error) {
	return newContextMenu(discordgo.UserApplicationCommand, cfg, handler)
}

// NewMessageMenu constructs a message context-menu command.
func NewMessageMenu(cfg Config, handler Handler) (*Command, error) {
	return newContextMenu(discordgo.MessageApplicationCommand, cfg, handler)
}

func newContextMenu(typ discordgo.ApplicationCommandType, cfg Config, handler Handler) (*Command, error) {
	if handler == nil {
		return nil, fmt.Errorf("context menu command %q: handler is required", cfg.Name)
	}
	if cfg.Name == "" || len(cfg.Name) > 32 {
		return nil, fmt.Errorf("context menu command name %q must be 1-32 characters", cfg.Name)
	}
	// The platform rejects context menu commands carrying a description.
	if cfg.Description != "" {
		return nil, fmt.Errorf("context menu command %q: description must be empty", cfg.Name)
	}
	if len(cfg.Options) > 0 {
		return nil, fmt.Errorf("context menu command %q: options are not supported", cfg.Name)
	}
	c, err := build(typ, cfg)
	if err != nil {
		return nil, err
	}
	c.handler = handler
	return c, nil
}

func build(typ discordgo.ApplicationCommandType, cfg Config) (*Command, error) {
	if cfg.Global && len(cfg.GuildIDs) > 0 {
		return nil, fmt.Errorf("command %q: declared both global and guild-scoped", cfg.Name)
	}
	defaultPermission := true
	if cfg.DefaultPermission != nil {
		defaultPermission = *cfg.DefaultPermission
	}
	// Declaring overwrites forces restricted default visibility.
	if len(cfg.Permissions) > 0 {
		defaultPermission = false
	}
	return &Command{
		Type:              typ,
		Name:              cfg.Name,
		Description:       cfg.Description,
		GuildIDs:          cfg.GuildIDs,
		Global:            cfg.Global,
		Checks:            cfg.Checks,
		Permissions:       cfg.Permissions,
		DefaultPermission: defaultPermission,
		Before:            cfg.Before,
		After:             cfg.After,
		OnError:           cfg.OnError,
	}, nil
}

// Subcommand adds a leaf subcommand to a group.
func (c *Command) Subcommand(cfg Config, handler Handler) (*Command, error) {
	if c.Type != discordgo.ChatApplicationCommand || c.handler != nil {
		return nil, fmt.Errorf("%q is not a group", c.Name)
	}
	if len(cfg.GuildIDs) > 0 || cfg.Global {
		return nil, fmt.Errorf("subcommand %q: scope is declared on the enclosing group", cfg.Name)
	}
	sub, err := NewSlash(cfg, handler)
	if err != nil {
		return nil, err
	}
	if c.subcommand(sub.Name) != nil {
		return nil, fmt.Errorf("group %q already has a subcommand %q", c.Name, sub.Name)
	}
	sub.parent = c
	c.subcommands = append(c.subcommands, sub)
	return sub, nil
}

// Subgroup adds a nested subcommand group. The platform allows exactly one
// level of group nesting.
func (c *Command) Subgroup(cfg Config) (*Command, error) {
	if c.parent != nil {
		return nil, errors.New("subcommand groups cannot be nested further")
	}
	if len(cfg.GuildIDs) > 0 || cfg.Global {
		return nil, fmt.Errorf("subgroup %q: scope is declared on the enclosing group", cfg.Name)
	}
	group, err := NewGroup(cfg)
	if err != nil {
		return nil, err
	}
	if c.subcommand(group.Name) != nil {
		return nil, fmt.Errorf("group %q already has a subcommand %q", c.Name, group.Name)
	}
	group.parent = c
	c.subcommands = append(c.subcommands, group)
	return group, nil
}
