package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"
)

// Notifier posts the weekly digest to a Slack channel. It is nil when
// Slack is not configured; callers must tolerate a nil notifier.
type Notifier struct {
	api     *slack.Client
	channel string
}

// NewNotifier returns nil unless both the bot token and the channel
// are configured.
func NewNotifier(cfg Config) *Notifier {
	if cfg.SlackBotToken == "" || cfg.SlackChannelID == "" {
		return nil
	}
	return &Notifier{
		api:     slack.New(cfg.SlackBotToken),
		channel: cfg.SlackChannelID,
	}
}

// PostDigest sends the digest to the configured channel.
func (n *Notifier) PostDigest(content string) error {
	_, _, err := n.api.PostMessage(n.channel, slack.MsgOptionText(slackifyMarkdown(content), false))
	if err != nil {
		return fmt.Errorf("post digest to slack: %w", err)
	}
	log.Printf("digest posted channel=%s", n.channel)
	return nil
}

// slackifyMarkdown rewrites the digest for Slack's mrkdwn dialect:
// headings become bold lines and list dashes become bullets.
func slackifyMarkdown(md string) string {
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "## "):
			lines[i] = "*" + strings.TrimPrefix(line, "## ") + "*"
		case strings.HasPrefix(line, "- "):
			lines[i] = "• " + strings.TrimPrefix(line, "- ")
		}
	}
	return strings.Join(lines, "\n")
}
