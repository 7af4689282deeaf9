package line

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"SignalWatch/internal/domain"
	applogger "SignalWatch/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestSendPostsPushMessage(t *testing.T) {
	var got pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(applogger.Nop(), time.Second,
		WithEndpoint(srv.URL), WithCredentials("tok", "U123"), WithEnv(noEnv))
	require.NoError(t, c.Send(context.Background(), "hello"))

	assert.Equal(t, "U123", got.To)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, textMessage{Type: "text", Text: "hello"}, got.Messages[0])
}

func TestSendPrefersEnvironment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer from-env", r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	env := map[string]string{EnvChannelAccessToken: "from-env"}
	c := NewClient(applogger.Nop(), time.Second,
		WithEndpoint(srv.URL), WithCredentials("from-config", "U1"),
		WithEnv(func(k string) string { return env[k] }))
	require.NoError(t, c.Send(context.Background(), "x"))
}

func TestSendMissingCredentialsMakesNoCall(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := NewClient(applogger.Nop(), time.Second, WithEndpoint(srv.URL), WithCredentials("tok", ""), WithEnv(noEnv))
	err := c.Send(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.False(t, c.Configured())
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSendAPIErrorIsDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"The request body has 1 error(s)","details":[{"message":"May not be empty","property":"to"}]}`))
	}))
	defer srv.Close()

	c := NewClient(applogger.Nop(), time.Second, WithEndpoint(srv.URL), WithCredentials("tok", "U1"), WithEnv(noEnv))
	err := c.Send(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrDelivery)
	assert.ErrorContains(t, err, "The request body has 1 error(s)")
}

func TestSendTimeoutIsDelivery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(applogger.Nop(), 50*time.Millisecond, WithEndpoint(srv.URL), WithCredentials("tok", "U1"), WithEnv(noEnv))
	err := c.Send(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrDelivery)
}
