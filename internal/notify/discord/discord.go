// Package discord posts notify events to a Discord channel.
package discord

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/sprintyard/internal/notify"
)

// session abstracts the discordgo methods we use, enabling test mocks.
type session interface {
	Open() error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// Adapter implements notify.Adapter for Discord.
type Adapter struct {
	sess      session
	channelID string
	opened    bool
}

// AdapterOpts holds parameters for creating a Discord Adapter.
type AdapterOpts struct {
	BotToken  string
	ChannelID string
	// For testing: inject a mock session instead of a real gateway session.
	Session session
}

// New creates a Discord Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel is required")
	}

	sess := opts.Session
	if sess == nil {
		s, err := discordgo.New("Bot " + opts.BotToken)
		if err != nil {
			return nil, fmt.Errorf("discord: create session: %w", err)
		}
		sess = s
	}
	return &Adapter{sess: sess, channelID: opts.ChannelID}, nil
}

// Post sends the event as an embed, opening the session on first use.
func (a *Adapter) Post(ctx context.Context, evt notify.Event) error {
	if !a.opened {
		if err := a.sess.Open(); err != nil {
			return fmt.Errorf("discord: open session: %w", err)
		}
		a.opened = true
	}

	embed := &discordgo.MessageEmbed{
		Title:       evt.Title,
		Description: evt.Body,
		Color:       parseHexColor(evt.Color),
	}
	for _, f := range evt.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Short,
		})
	}

	_, err := a.sess.ChannelMessageSendEmbed(a.channelID, embed, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// Close shuts the gateway session down.
func (a *Adapter) Close() error {
	if !a.opened {
		return nil
	}
	a.opened = false
	return a.sess.Close()
}

// parseHexColor converts "#36a64f" into the int Discord expects.
func parseHexColor(hex string) int {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	v, err := strconv.ParseInt(hex, 16, 32)
	if err != nil {
		return 0
	}
	return int(v)
}
