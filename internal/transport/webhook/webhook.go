// Package webhook implements the transport interfaces over Discord-style
// webhook REST endpoints.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	kit "xivherald/internal/transport"
	logx "xivherald/pkg/logx"
)

type Config struct {
	// APIBase is the REST base used to create webhooks
	// (default "https://discord.com/api/v10").
	APIBase string
	// Token authorizes webhook creation. Executing an existing webhook
	// needs no token.
	Token string
	// WebhookName is the display name given to created webhooks.
	WebhookName string
	Timeout     time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  logx.Logger
}

var _ kit.Sender = (*Client)(nil)
var _ kit.Provisioner = (*Client)(nil)

func New(cfg Config, log logx.Logger) *Client {
	if strings.TrimSpace(cfg.APIBase) == "" {
		cfg.APIBase = "https://discord.com/api/v10"
	}
	if strings.TrimSpace(cfg.WebhookName) == "" {
		cfg.WebhookName = "XIV Timers"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

// webhookMessage is the execute-webhook body.
type webhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	URL         string      `json:"url,omitempty"`
	Timestamp   string      `json:"timestamp,omitempty"`
	Image       *embedImage `json:"image,omitempty"`
}

type embedImage struct {
	URL string `json:"url"`
}

// Send executes the webhook. A 404 or 401 means the webhook was deleted on
// the remote side and is reported as ErrEndpointGone.
func (c *Client) Send(ctx context.Context, ep kit.Endpoint, p kit.Payload, threadID int64) error {
	if ep.URL == "" {
		return kit.ErrEndpointGone
	}

	e := embed{
		Title:       p.Title,
		Description: p.Body,
		URL:         p.URL,
	}
	if !p.When.IsZero() {
		e.Timestamp = p.When.UTC().Format(time.RFC3339)
	}
	if p.ImageURL != "" {
		e.Image = &embedImage{URL: p.ImageURL}
	}

	body, err := json.Marshal(webhookMessage{Embeds: []embed{e}})
	if err != nil {
		return err
	}

	url := ep.URL
	if threadID != 0 {
		url = fmt.Sprintf("%s?thread_id=%d", url, threadID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnauthorized:
		return kit.ErrEndpointGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("webhook execute: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// createWebhookResponse is the subset of the create-webhook reply we keep.
type createWebhookResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	URL   string `json:"url"`
}

// CreateEndpoint creates a webhook in the channel. A 404/403 on the channel
// is reported as ErrChannelGone so the registry can flag the destination as
// misconfigured.
func (c *Client) CreateEndpoint(ctx context.Context, channelID int64) (kit.Endpoint, error) {
	body, err := json.Marshal(map[string]string{"name": c.cfg.WebhookName})
	if err != nil {
		return kit.Endpoint{}, err
	}

	url := fmt.Sprintf("%s/channels/%d/webhooks", strings.TrimRight(c.cfg.APIBase, "/"), channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return kit.Endpoint{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bot "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return kit.Endpoint{}, err
	}
	defer drain(resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusForbidden:
		return kit.Endpoint{}, kit.ErrChannelGone
	case resp.StatusCode >= 400:
		return kit.Endpoint{}, fmt.Errorf("webhook create: unexpected status %d", resp.StatusCode)
	}

	var out createWebhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return kit.Endpoint{}, err
	}
	ep := kit.Endpoint{ID: out.ID, URL: out.URL}
	if ep.URL == "" && out.Token != "" {
		ep.URL = fmt.Sprintf("%s/webhooks/%s/%s", strings.TrimRight(c.cfg.APIBase, "/"), out.ID, out.Token)
	}
	return ep, nil
}

func drain(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 1<<16))
	_ = rc.Close()
}
