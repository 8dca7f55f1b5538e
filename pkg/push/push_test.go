package push

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTokenMakesClientAvailable(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/save-fcm-token", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	assert.False(t, c.Available())

	require.NoError(t, c.RegisterToken(context.Background(), "tok-123"))
	assert.True(t, c.Available())
	assert.Equal(t, "tok-123", got["token"])
	assert.Equal(t, c.ClientID(), got["client_id"])
}

func TestRegisterTokenFailureLeavesClientUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	assert.Error(t, c.RegisterToken(context.Background(), "tok-123"))
	assert.False(t, c.Available())
}

func TestSendPostsRelayPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/send-fcm-notification", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.Send(context.Background(), "🔔 Reminder", "BUY APPLES", 7))

	assert.Equal(t, "🔔 Reminder", got["title"])
	assert.Equal(t, "BUY APPLES", got["body"])
	assert.EqualValues(t, 7, got["reminder_id"])
}

func TestFCMSendSetsAuthAndPayload(t *testing.T) {
	var (
		auth string
		got  fcmMessage
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := NewFCM("server-key", WithFCMEndpoint(srv.URL))
	require.True(t, f.Enabled())

	err := f.Send(context.Background(), "device-token", "🔔 Reminder", "BUY APPLES", map[string]string{"url": "/dashboard"})
	require.NoError(t, err)

	assert.Equal(t, "key=server-key", auth)
	assert.Equal(t, "device-token", got.To)
	assert.Equal(t, "🔔 Reminder", got.Notification.Title)
	assert.Equal(t, "/dashboard", got.Data["url"])
}

func TestFCMDisabledWithoutServerKey(t *testing.T) {
	assert.False(t, NewFCM("").Enabled())
}

func TestFCMSendReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := NewFCM("server-key", WithFCMEndpoint(srv.URL))
	err := f.Send(context.Background(), "device-token", "t", "b", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
