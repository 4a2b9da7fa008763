// Package telegram implements the transport interfaces over a Telegram bot,
// for guilds that mirror reminders into a Telegram chat instead of a webhook.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	kit "xivherald/internal/transport"
	logx "xivherald/pkg/logx"
)

type Config struct {
	Token   string
	Timeout time.Duration
}

type Client struct {
	bot *tele.Bot
	log logx.Logger
}

var _ kit.Sender = (*Client)(nil)
var _ kit.Provisioner = (*Client)(nil)

func New(cfg Config, log logx.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: false,
	})
	if err != nil {
		return nil, err
	}
	return &Client{bot: b, log: log}, nil
}

// CreateEndpoint verifies the chat exists and returns a synthetic endpoint
// carrying the chat id. Telegram needs no server-side handle.
func (c *Client) CreateEndpoint(ctx context.Context, channelID int64) (kit.Endpoint, error) {
	_ = ctx // telebot's API calls carry their own timeout
	_, err := c.bot.ChatByID(channelID)
	if err != nil {
		if isChatGone(err) {
			return kit.Endpoint{}, kit.ErrChannelGone
		}
		return kit.Endpoint{}, err
	}
	return kit.Endpoint{ID: strconv.FormatInt(channelID, 10)}, nil
}

func (c *Client) Send(ctx context.Context, ep kit.Endpoint, p kit.Payload, threadID int64) error {
	_ = ctx
	chatID, err := strconv.ParseInt(ep.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram endpoint id %q: %w", ep.ID, err)
	}

	opts := &tele.SendOptions{DisableWebPagePreview: p.URL == ""}
	if threadID != 0 {
		opts.ThreadID = int(threadID)
	}

	_, err = c.bot.Send(tele.ChatID(chatID), renderText(p), opts)
	if err != nil {
		if isChatGone(err) {
			return kit.ErrEndpointGone
		}
		return err
	}
	return nil
}

func renderText(p kit.Payload) string {
	var b strings.Builder
	b.WriteString(p.Title)
	if p.Body != "" {
		b.WriteString("\n\n")
		b.WriteString(p.Body)
	}
	if p.URL != "" {
		b.WriteString("\n")
		b.WriteString(p.URL)
	}
	return b.String()
}

func isChatGone(err error) bool {
	if errors.Is(err, tele.ErrChatNotFound) || errors.Is(err, tele.ErrKickedFromGroup) ||
		errors.Is(err, tele.ErrKickedFromSuperGroup) || errors.Is(err, tele.ErrKickedFromChannel) ||
		errors.Is(err, tele.ErrBlockedByUser) {
		return true
	}
	// telebot wraps some API replies as plain errors; fall back to matching
	// the canonical descriptions.
	msg := err.Error()
	return strings.Contains(msg, "chat not found") || strings.Contains(msg, "bot was kicked")
}
