package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{APIKey: "  "})
	require.Error(t, err)
}

func TestGenerateText(t *testing.T) {
	var gotPath, gotKey string
	var gotBody []byte

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"world"}]}}]}`)
	})

	text, err := client.GenerateText(context.Background(), "gemini-2.0-flash", "say hi")
	require.NoError(t, err)

	assert.Equal(t, "Hello world", text)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	var req generateRequest
	require.NoError(t, json.Unmarshal(gotBody, &req))
	require.Len(t, req.Contents, 1)
	assert.Equal(t, "say hi", req.Contents[0].Parts[0].Text)
}

func TestGenerateTextEmptyCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	})

	_, err := client.GenerateText(context.Background(), "m", "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGenerateTextUpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":"quota exhausted"}`)
	})

	_, err := client.GenerateText(context.Background(), "m", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 429")
	assert.Contains(t, err.Error(), "quota exhausted")
}

func TestCreateAuthTokenLockedPayload(t *testing.T) {
	var gotPath string
	var gotBody []byte

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"name":"authTokens/tok-1"}`)
	})

	expire := time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC)
	newSession := time.Date(2026, 8, 30, 12, 2, 0, 0, time.UTC)

	token, err := client.CreateAuthToken(context.Background(), AuthTokenRequest{
		Model:            "gemini-live",
		Uses:             10,
		ExpireTime:       expire,
		NewSessionExpire: newSession,
		SystemPrompt:     "You are a tutor.",
		LockConfig:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, "authTokens/tok-1", token.Name)
	assert.Equal(t, expire, token.ExpireTime)
	assert.Equal(t, "/v1alpha/auth_tokens", gotPath)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, float64(10), payload["uses"])
	assert.Equal(t, "2026-08-30T12:30:00Z", payload["expireTime"])
	assert.Equal(t, "2026-08-30T12:02:00Z", payload["newSessionExpireTime"])

	constraints, ok := payload["liveConnectConstraints"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "models/gemini-live", constraints["model"])
}

func TestCreateAuthTokenUnlockedOmitsConstraints(t *testing.T) {
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		io.WriteString(w, `{"name":"authTokens/tok-2"}`)
	})

	_, err := client.CreateAuthToken(context.Background(), AuthTokenRequest{
		Model:            "gemini-live",
		ExpireTime:       time.Now(),
		NewSessionExpire: time.Now(),
	})
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	_, present := payload["liveConnectConstraints"]
	assert.False(t, present)
}

func TestCreateAuthTokenRequiresModel(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k"})
	require.NoError(t, err)

	_, err = client.CreateAuthToken(context.Background(), AuthTokenRequest{})
	require.Error(t, err)
}
