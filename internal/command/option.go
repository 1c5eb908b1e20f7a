package command

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// OptionChoice is a fixed label/value pair offered for an option.
type OptionChoice struct {
	Name  string
	Value any
}

// Option describes a single slash-command parameter.
type Option struct {
	Type         discordgo.ApplicationCommandOptionType
	Name         string
	Description  string
	Required     bool
	Choices      []OptionChoice
	MinValue     *float64
	MaxValue     *float64
	ChannelTypes []discordgo.ChannelType
	Autocomplete bool
}

func (o *Option) validate() error {
	if o.Type == discordgo.ApplicationCommandOptionSubCommand ||
		o.Type == discordgo.ApplicationCommandOptionSubCommandGroup {
		return fmt.Errorf("option %q: subcommand options are built via groups, not declared directly", o.Name)
	}
	if !slashNameRe.MatchString(o.Name) {
		return fmt.Errorf("option name %q must be 1-32 lowercase characters from [a-z0-9_-]", o.Name)
	}
	if o.Description == "" || len(o.Description) > maxDescriptionLen {
		return fmt.Errorf("option %q: description must be 1-%d characters", o.Name, maxDescriptionLen)
	}
	numeric := o.Type == discordgo.ApplicationCommandOptionInteger ||
		o.Type == discordgo.ApplicationCommandOptionNumber
	if (o.MinValue != nil || o.MaxValue != nil) && !numeric {
		return fmt.Errorf("option %q: min/max values are only valid on integer and number options", o.Name)
	}
	if len(o.ChannelTypes) > 0 && o.Type != discordgo.ApplicationCommandOptionChannel {
		return fmt.Errorf("option %q: channel type filters are only valid on channel options", o.Name)
	}
	return nil
}

// applicationCommandOption converts the option to its wire representation.
func (o *Option) applicationCommandOption() *discordgo.ApplicationCommandOption {
	out := &discordgo.ApplicationCommandOption{
		Type:         o.Type,
		Name:         o.Name,
		Description:  o.Description,
		Required:     o.Required,
		ChannelTypes: o.ChannelTypes,
		MinValue:     o.MinValue,
		Autocomplete: o.Autocomplete,
	}
	if o.MaxValue != nil {
		out.MaxValue = *o.MaxValue
	}
	for _, ch := range o.Choices {
		out.Choices = append(out.Choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  ch.Name,
			Value: ch.Value,
		})
	}
	return out
}
