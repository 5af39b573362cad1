// Package slack posts notify events to a Slack channel.
package slack

import (
	"context"
	"fmt"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/sprintyard/internal/notify"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Adapter implements notify.Adapter for Slack.
type Adapter struct {
	client    slackClient
	channelID string
}

// AdapterOpts holds parameters for creating a Slack Adapter.
type AdapterOpts struct {
	BotToken  string // xoxb-... Slack bot token
	ChannelID string // channel to post to
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Slack Adapter.
func New(opts AdapterOpts) (*Adapter, error) {
	if opts.Client == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("slack: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("slack: channel is required")
	}

	client := opts.Client
	if client == nil {
		client = slackapi.New(opts.BotToken)
	}
	return &Adapter{client: client, channelID: opts.ChannelID}, nil
}

// Post sends the event as a message with one attachment.
func (a *Adapter) Post(ctx context.Context, evt notify.Event) error {
	att := slackapi.Attachment{
		Title:    evt.Title,
		Text:     evt.Body,
		Color:    evt.Color,
		Fallback: evt.Title,
	}
	for _, f := range evt.Fields {
		att.Fields = append(att.Fields, slackapi.AttachmentField{
			Title: f.Name,
			Value: f.Value,
			Short: f.Short,
		})
	}

	_, _, err := a.client.PostMessageContext(ctx, a.channelID,
		slackapi.MsgOptionText(evt.Title, false),
		slackapi.MsgOptionAttachments(att),
	)
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// Close is a no-op; the Slack web API client holds no connection.
func (a *Adapter) Close() error { return nil }
