package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL: srv.URL,
		APIKey:  "key-1",
		From:    "alerts@wecare.test",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestSend_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))

		var req sendEmailReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alerts@wecare.test", req.From)
		assert.Equal(t, []string{"ada@example.com"}, req.To)
		assert.Equal(t, "Health Alert", req.Subject)
		assert.Equal(t, "<p>hi</p>", req.HTML)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg-42"}`))
	})

	id, err := c.Send(context.Background(), "ada@example.com", "Health Alert", "<p>hi</p>")

	require.NoError(t, err)
	assert.Equal(t, "msg-42", id)
}

func TestSend_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid to address"}`))
	})

	_, err := c.Send(context.Background(), "nobody", "s", "b")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid to address")
}

func TestSend_EmptyRecipient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called")
	})

	_, err := c.Send(context.Background(), "", "s", "b")
	assert.Error(t, err)
}

func TestSend_ContextDeadline(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Send(ctx, "ada@example.com", "s", "b")
	assert.Error(t, err)
}
