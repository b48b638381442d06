package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/taskflow/internal/config"
)

// testEnv приложение поверх временной sqlite базы
type testEnv struct {
	app    *App
	server *httptest.Server
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	static := filepath.Join(dir, "public")
	require.NoError(t, os.Mkdir(static, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(static, "landing.html"), []byte("<h1>TaskFlow</h1>"), 0o644))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        "0",
			Host:        "127.0.0.1",
			StaticDir:   static,
			LandingPage: "/landing.html",
		},
		Storage: config.StorageConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(dir, "taskflow.db"),
		},
		JWT: config.JWTConfig{
			Secret:          "test-jwt-secret-key-for-app-tests",
			ExpirationHours: 24,
		},
		Tracker: config.TrackerConfig{
			NotificationInterval: time.Second,
			IdleInterval:         time.Second,
			IdleThreshold:        5 * time.Minute,
			DeadlineWarning:      5 * time.Minute,
			FreeTaskLimit:        2,
			Timezone:             "UTC",
		},
		OpenAI: config.OpenAIConfig{
			BaseURL:     "http://127.0.0.1:1",
			ChatModel:   "gpt-3.5-turbo",
			VisionModel: "gpt-4-vision-preview",
			Timeout:     time.Second,
		},
		Calendar: config.CalendarConfig{BaseURL: "http://127.0.0.1:1"},
		Redis:    config.RedisConfig{ProxyPerMinute: 60},
	}

	application, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, application.Initialize(context.Background()))

	server := httptest.NewServer(application.server.Handler)
	t.Cleanup(func() {
		server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = application.Shutdown(ctx)
	})

	return &testEnv{app: application, server: server}
}

// request отправляет JSON запрос и возвращает статус и тело ответа
func (e *testEnv) request(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	status, body := e.request(t, http.MethodPost, "/auth/signup", map[string]string{
		"email":    email,
		"password": "Secret123",
	}, "")
	require.Equal(t, http.StatusCreated, status, string(body))

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestE2E_TasksAndPlans(t *testing.T) {
	env := setupTestEnv(t)

	t.Run("health", func(t *testing.T) {
		status, body := env.request(t, http.MethodGet, "/health", nil, "")
		assert.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, `{"status":"ok"}`, string(body))
	})

	t.Run("unauthorized", func(t *testing.T) {
		status, _ := env.request(t, http.MethodGet, "/tasks", nil, "")
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = env.request(t, http.MethodGet, "/tasks", nil, "garbage")
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	token := env.signup(t, "alice@example.com")

	t.Run("duplicate signup", func(t *testing.T) {
		status, body := env.request(t, http.MethodPost, "/auth/signup", map[string]string{
			"email":    "ALICE@example.com",
			"password": "Secret123",
		}, "")
		assert.Equal(t, http.StatusConflict, status)
		assert.Contains(t, string(body), "EMAIL_REGISTERED")
	})

	t.Run("me", func(t *testing.T) {
		status, body := env.request(t, http.MethodGet, "/auth/me", nil, token)
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(body), `"email":"alice@example.com"`)
		assert.NotContains(t, string(body), "password")
	})

	t.Run("free plan limit", func(t *testing.T) {
		for _, text := range []string{"write code", "team meeting"} {
			status, body := env.request(t, http.MethodPost, "/tasks", map[string]string{"text": text}, token)
			require.Equal(t, http.StatusCreated, status, string(body))
		}
		status, body := env.request(t, http.MethodPost, "/tasks", map[string]string{"text": "one more"}, token)
		assert.Equal(t, http.StatusPaymentRequired, status)
		assert.Contains(t, string(body), "PLAN_LIMIT")
	})

	t.Run("upgrade lifts the limit", func(t *testing.T) {
		status, body := env.request(t, http.MethodPost, "/subscription/checkout", map[string]string{"plan": "pro"}, token)
		require.Equal(t, http.StatusOK, status, string(body))
		assert.Contains(t, string(body), `"simulated":true`)

		status, _ = env.request(t, http.MethodPost, "/tasks", map[string]string{"text": "one more"}, token)
		assert.Equal(t, http.StatusCreated, status)
	})

	t.Run("list and stats", func(t *testing.T) {
		status, body := env.request(t, http.MethodGet, "/tasks", nil, token)
		require.Equal(t, http.StatusOK, status)
		var list struct {
			Tasks []struct {
				ID string `json:"id"`
			} `json:"tasks"`
		}
		require.NoError(t, json.Unmarshal(body, &list))
		assert.Len(t, list.Tasks, 3)

		status, body = env.request(t, http.MethodGet, "/stats", nil, "")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, string(body), `"users":1`)
		assert.Contains(t, string(body), `"paid_plans":1`)
		assert.NotContains(t, string(body), "alice@example.com")
	})

	t.Run("static fallback", func(t *testing.T) {
		status, body := env.request(t, http.MethodGet, "/", nil, "")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "<h1>TaskFlow</h1>", string(body))

		status, _ = env.request(t, http.MethodGet, "/missing.html", nil, "")
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("proxy rejects GET", func(t *testing.T) {
		status, body := env.request(t, http.MethodGet, "/api/translate", nil, "")
		assert.Equal(t, http.StatusMethodNotAllowed, status)
		assert.JSONEq(t, `{"error":"Method not allowed"}`, string(body))
	})

	t.Run("ai without key", func(t *testing.T) {
		status, body := env.request(t, http.MethodPost, "/ai/enhance", map[string]string{"text": "fix bug"}, token)
		assert.Equal(t, http.StatusPreconditionFailed, status)
		assert.Contains(t, string(body), "NOT_CONFIGURED")
	})
}

func TestE2E_TeamInvitation(t *testing.T) {
	env := setupTestEnv(t)

	ownerToken := env.signup(t, "owner@example.com")
	bobToken := env.signup(t, "bob@example.com")

	status, body := env.request(t, http.MethodPost, "/teams", map[string]string{"name": "Platform"}, ownerToken)
	require.Equal(t, http.StatusCreated, status, string(body))
	var created struct {
		Team struct {
			ID string `json:"id"`
		} `json:"team"`
	}
	require.NoError(t, json.Unmarshal(body, &created))
	teamID := created.Team.ID

	status, body = env.request(t, http.MethodPost, "/teams/"+teamID+"/invitations", map[string]string{
		"email": "bob@example.com",
		"role":  "member",
	}, ownerToken)
	require.Equal(t, http.StatusCreated, status, string(body))
	var invited struct {
		Invitation struct {
			ID string `json:"id"`
		} `json:"invitation"`
	}
	require.NoError(t, json.Unmarshal(body, &invited))

	// Команда недоступна до принятия приглашения
	status, _ = env.request(t, http.MethodGet, "/teams/"+teamID, nil, bobToken)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = env.request(t, http.MethodGet, "/invitations", nil, bobToken)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), invited.Invitation.ID)

	status, body = env.request(t, http.MethodPost, "/invitations/"+invited.Invitation.ID+"/accept", nil, bobToken)
	require.Equal(t, http.StatusOK, status, string(body))

	status, _ = env.request(t, http.MethodPost, "/invitations/"+invited.Invitation.ID+"/accept", nil, bobToken)
	assert.Equal(t, http.StatusConflict, status)

	status, body = env.request(t, http.MethodGet, "/teams", nil, bobToken)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), teamID)
	assert.Contains(t, string(body), `"user_role":"member"`)
}
