package browserbase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryfanout/pkg/errors"
)

func TestCreateSession(t *testing.T) {
	var captured SessionRequest
	var gotHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/sessions", r.URL.Path)

		gotHeader = r.Header.Get("X-BB-API-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Session{
			ID:         "sess_123",
			Status:     "RUNNING",
			ConnectURL: "wss://connect.example/devtools/browser/abc",
		})
	}))
	defer server.Close()

	client := NewClient("key_test", WithBaseURL(server.URL))

	session, err := client.CreateSession(context.Background(),
		NewSessionRequest("proj_1", "", Viewport{Width: 1440, Height: 900}))
	require.NoError(t, err)

	assert.Equal(t, "key_test", gotHeader)
	assert.Equal(t, "sess_123", session.ID)
	assert.Equal(t, "wss://connect.example/devtools/browser/abc", session.ConnectURL)

	assert.Equal(t, "proj_1", captured.ProjectID)
	assert.True(t, captured.Proxies)
	assert.True(t, captured.KeepAlive)
	assert.Equal(t, 900, captured.Timeout)
	assert.True(t, captured.BrowserSettings.BlockAds)
	assert.True(t, captured.BrowserSettings.SolveCaptchas)
	assert.True(t, captured.BrowserSettings.RecordSession)
	assert.Equal(t, []string{"chrome"}, captured.BrowserSettings.Fingerprint.Browsers)
	assert.Equal(t, []string{"windows", "macos"}, captured.BrowserSettings.Fingerprint.OperatingSystems)
	assert.Equal(t, 1440, captured.BrowserSettings.Viewport.Width)
	assert.Equal(t, 900, captured.BrowserSettings.Viewport.Height)
}

func TestCreateSessionOmitsEmptyExtension(t *testing.T) {
	var raw map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		json.NewEncoder(w).Encode(Session{ID: "sess_1"})
	}))
	defer server.Close()

	client := NewClient("key", WithBaseURL(server.URL))

	_, err := client.CreateSession(context.Background(),
		NewSessionRequest("proj", "", Viewport{Width: 1440, Height: 900}))
	require.NoError(t, err)
	_, present := raw["extensionId"]
	assert.False(t, present, "empty extension id must not appear on the wire")

	_, err = client.CreateSession(context.Background(),
		NewSessionRequest("proj", "ext_9", Viewport{Width: 1440, Height: 900}))
	require.NoError(t, err)
	assert.Equal(t, "ext_9", raw["extensionId"])
}

func TestCreateSessionErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer server.Close()

	client := NewClient("bad", WithBaseURL(server.URL))

	_, err := client.CreateSession(context.Background(),
		NewSessionRequest("proj", "", Viewport{Width: 1440, Height: 900}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid key")
}

func TestStopSession(t *testing.T) {
	var body map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/sessions/sess_9", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewClient("key", WithBaseURL(server.URL))

	require.NoError(t, client.StopSession(context.Background(), "proj", "sess_9"))
	assert.Equal(t, "REQUEST_RELEASE", body["status"])
	assert.Equal(t, "proj", body["projectId"])
}

func TestInspectorURL(t *testing.T) {
	assert.Equal(t, "https://browserbase.com/sessions/sess_1", InspectorURL("sess_1"))
}

func TestLoadCredentialsPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.ini")
	require.NoError(t, os.WriteFile(path, []byte(
		"[browserbase]\napi_key = file_key\nproject_id = file_proj\nextension_id = file_ext\n",
	), 0600))

	t.Setenv(EnvAPIKey, "env_key")
	t.Setenv(EnvProjectID, "")
	t.Setenv(EnvExtensionID, "")

	creds, err := LoadCredentials(path)
	require.NoError(t, err)

	assert.Equal(t, "env_key", creds.APIKey, "environment wins over the file")
	assert.Equal(t, "file_proj", creds.ProjectID, "file fills keys the environment left empty")
	assert.Equal(t, "file_ext", creds.ExtensionID)
}

func TestLoadCredentialsMissingIsFatal(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvProjectID, "")
	t.Setenv(EnvExtensionID, "")

	_, err := LoadCredentials(filepath.Join(t.TempDir(), "nope.ini"))
	require.Error(t, err)

	var configErr *errors.ConfigError
	require.True(t, errors.As(err, &configErr))
	assert.Contains(t, configErr.Missing, EnvAPIKey)
	assert.Contains(t, configErr.Missing, EnvProjectID)
}
