// Package push implements the server-relayed notification channel: the
// client that registers a push token and asks the backend to relay a
// notification, and the backend-side FCM sender.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client talks to the push relay endpoints. It only becomes an available
// delivery channel once a token has been registered successfully.
type Client struct {
	baseURL  string
	clientID string
	hc       *http.Client
	logger   *log.Logger

	mu    sync.RWMutex
	token string
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.hc = hc }
}

func WithClientLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  baseURL,
		clientID: uuid.NewString(),
		hc:       &http.Client{Timeout: 10 * time.Second},
		logger:   log.New(os.Stderr, "[push] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientID is the per-process identity sent along with the token.
func (c *Client) ClientID() string {
	return c.clientID
}

// RegisterToken saves the push token with the backend. On success the
// client reports itself available for relay sends.
func (c *Client) RegisterToken(ctx context.Context, token string) error {
	body := map[string]string{
		"token":     token,
		"client_id": c.clientID,
	}
	if err := c.post(ctx, "/save-fcm-token", body); err != nil {
		return fmt.Errorf("failed to save push token: %w", err)
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
	return nil
}

// Available reports whether a push token has been registered.
func (c *Client) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

// Send asks the backend to relay a notification out-of-band. The backend
// delivers it even while this process is gone.
func (c *Client) Send(ctx context.Context, title, body string, reminderID int64) error {
	payload := map[string]any{
		"title":       title,
		"body":        body,
		"reminder_id": reminderID,
	}
	if err := c.post(ctx, "/send-fcm-notification", payload); err != nil {
		return fmt.Errorf("failed to request push relay: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", path, res.StatusCode, msg)
	}
	return nil
}
