package announcer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const webhookAnnouncePath = "/announcements"

type Option func(*Webhook)

// Service reports a completed mailbox mutation.
type Service interface {
	Do(ctx context.Context, action, folder string, count int) error
}

func WithWebhookURL(webhookURL string) Option {
	return func(a *Webhook) {
		a.baseURL = strings.TrimSpace(webhookURL)
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(a *Webhook) {
		a.client = client
	}
}

type Webhook struct {
	baseURL string
	client  *http.Client
}

// New returns an announcer that posts to the webhook. Without a URL, Do is a no-op.
func New(opts ...Option) *Webhook {
	announcer := &Webhook{
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(announcer)
	}
	return announcer
}

func (a *Webhook) Enabled() bool {
	return a.baseURL != ""
}

func (a *Webhook) Do(ctx context.Context, action, folder string, count int) error {
	if !a.Enabled() {
		return nil
	}
	baseURL := strings.TrimRight(a.baseURL, "/")
	message := fmt.Sprintf("%s: %d messages into %q", action, count, folder)
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+webhookAnnouncePath, strings.NewReader(string(payload)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("reporting webhook returned status %s", resp.Status)
	}
	return nil
}
