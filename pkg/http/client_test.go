package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAndParseJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		assert.Equal(t, "1", r.URL.Query().Get("a"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["x"]})
	}))
	defer srv.Close()

	var out map[string]string
	err := NewClient().SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		Headers:     map[string]string{"Authorization": "Bearer t"},
		QueryParams: map[string][]string{"a": {"1"}},
		Body:        map[string]string{"x": "y"},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "y", out["echo"])
}

func TestSendAndParseStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad"}`))
	}))
	defer srv.Close()

	err := NewClient().SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	se, ok := AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)

	var body struct{ Message string }
	require.NoError(t, se.DecodeBody(&body))
	assert.Equal(t, "bad", body.Message)
}

func TestClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	c := NewClient(WithTimeout(50 * time.Millisecond))
	err := c.SendAndParse(context.Background(), &RequestOptions{Method: MethodGet, URL: srv.URL}, nil)
	require.Error(t, err)
	_, isStatus := AsStatusError(err)
	assert.False(t, isStatus)
}
