package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultFCMEndpoint is the cloud messaging send endpoint.
const DefaultFCMEndpoint = "https://fcm.googleapis.com/fcm/send"

// FCM sends notifications to registered device tokens through the cloud
// messaging provider. It backs the /send-fcm-notification relay endpoint.
type FCM struct {
	endpoint  string
	serverKey string
	hc        *http.Client
}

type FCMOption func(*FCM)

func WithFCMEndpoint(endpoint string) FCMOption {
	return func(f *FCM) { f.endpoint = endpoint }
}

func WithFCMHTTPClient(hc *http.Client) FCMOption {
	return func(f *FCM) { f.hc = hc }
}

func NewFCM(serverKey string, opts ...FCMOption) *FCM {
	f := &FCM{
		endpoint:  DefaultFCMEndpoint,
		serverKey: serverKey,
		hc:        &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Enabled reports whether a server key is configured.
func (f *FCM) Enabled() bool {
	return f.serverKey != ""
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

// Send pushes one notification to one device token.
func (f *FCM) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	msg := fcmMessage{
		To: token,
		Notification: fcmNotification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+f.serverKey)

	res, err := f.hc.Do(req)
	if err != nil {
		return fmt.Errorf("fcm send failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("fcm returned status %d: %s", res.StatusCode, msg)
	}
	return nil
}
