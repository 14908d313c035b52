package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"practice_backend/internal/config"
	"practice_backend/internal/model"
	"practice_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func writeBank(t *testing.T, dir string, size int) {
	t.Helper()
	questions := make([]model.Question, 0, size)
	for i := 1; i <= size; i++ {
		questions = append(questions, model.Question{
			ID:       model.QuestionIDFromInt(i),
			Level:    (i-1)%5 + 1,
			Question: fmt.Sprintf("How much is %d cents?", i),
			Answer:   fmt.Sprint(i),
		})
	}
	data, err := json.Marshal(questions)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "math"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math", "money.json"), data, 0644))
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	bankDir := t.TempDir()
	writeBank(t, bankDir, 30)

	cfg := &config.Config{
		Server:       config.ServerConfig{Port: "0", Mode: "test"},
		Database:     config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		Learner:      config.LearnerConfig{UserID: "malcolm", Name: "Malcolm"},
		Sync:         config.SyncConfig{Enabled: true, Backend: "memory", StartupTimeout: time.Second, WriteTimeout: time.Second},
		Session:      config.SessionConfig{WarmupCount: 2, AvgSecondsPerQuestion: 40},
		QuestionBank: config.QuestionBankConfig{Dir: bankDir},
		JWT:          config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", ExpireTime: time.Hour},
		Storage:      config.StorageConfig{Type: "local", LocalPath: t.TempDir()},
		CORS:         config.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit:    config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1, LoginAttemptsPerMinute: 5},
	}

	a, err := NewApp(cfg)
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(a.Close)
	return a
}

func call(t *testing.T, a *App, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func TestLearnerFlow(t *testing.T) {
	a := newTestApp(t)

	code, env := call(t, a, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"sync":"synced"`)

	code, env = call(t, a, http.MethodPost, "/api/progress/math/money/answers", payload{"correct": true, "questionId": 7}, "")
	require.Equal(t, http.StatusOK, code)
	var progress model.ModuleProgress
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Equal(t, 1, progress.TotalAttempts)
	assert.Equal(t, model.QuestionID("7"), progress.History[0].QuestionID)

	code, _ = call(t, a, http.MethodPost, "/api/progress/math/unknown/answers", payload{"correct": true, "questionId": 7}, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = call(t, a, http.MethodPost, "/api/progress/math/money/answers", payload{"questionId": 7}, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, a, http.MethodPost, "/api/sessions", payload{"subject": "math", "moduleId": "money"}, "")
	assert.Equal(t, http.StatusCreated, code)

	code, env = call(t, a, http.MethodGet, "/api/sessions/today/math", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"completed":true}`, string(env.Data))

	// 对账完成后本地写入会在后台镜像到远端
	require.NoError(t, a.Sync.Flush(context.Background()))
	text, found, err := a.Remote.Read(context.Background(), repository.KeyPath("malcolm", model.KeySessions))
	require.NoError(t, err)
	require.True(t, found)
	assert.Contains(t, text, `"totalSessions":1`)
}

func TestPracticeQuestionsFollowSettings(t *testing.T) {
	a := newTestApp(t)

	code, env := call(t, a, http.MethodGet, "/api/practice/math/money/questions", nil, "")
	require.Equal(t, http.StatusOK, code)
	var session struct {
		Questions []model.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	// 30 分钟的目标题数大于题库，全部 30 题
	assert.Len(t, session.Questions, 30)

	code, env = call(t, a, http.MethodPatch, "/api/settings", payload{"sessionMinutes": 15}, "")
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), "parentPin")

	code, env = call(t, a, http.MethodGet, "/api/practice/math/money/questions", nil, "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Len(t, session.Questions, 23)

	code, _ = call(t, a, http.MethodPatch, "/api/settings", payload{"sessionMinutes": 50}, "")
	assert.Equal(t, http.StatusBadRequest, code)

	// 没有题库的模块返回空题目列表
	code, env = call(t, a, http.MethodGet, "/api/practice/english/greetings/questions", nil, "")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Empty(t, session.Questions)
}

func TestParentFlow(t *testing.T) {
	a := newTestApp(t)

	code, _ := call(t, a, http.MethodGet, "/api/parent/dashboard", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, a, http.MethodPost, "/api/parent/login", payload{"pin": "0000"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env := call(t, a, http.MethodPost, "/api/parent/login", payload{"pin": "1234"}, "")
	require.Equal(t, http.StatusOK, code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	call(t, a, http.MethodPost, "/api/progress/math/time/answers", payload{"correct": false, "questionId": "t1"}, "")
	call(t, a, http.MethodPost, "/api/sessions", payload{"subject": "math", "moduleId": "time"}, "")

	code, env = call(t, a, http.MethodGet, "/api/parent/dashboard", nil, login.Token)
	require.Equal(t, http.StatusOK, code)
	var dashboard model.Dashboard
	require.NoError(t, json.Unmarshal(env.Data, &dashboard))
	assert.Equal(t, 1, dashboard.TotalSessions)
	assert.Equal(t, 1, dashboard.TotalAttempts)

	code, _ = call(t, a, http.MethodPut, "/api/parent/pin", payload{"pin": "12a4"}, login.Token)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = call(t, a, http.MethodPut, "/api/parent/pin", payload{"pin": "4321"}, login.Token)
	assert.Equal(t, http.StatusOK, code)

	code, _ = call(t, a, http.MethodPost, "/api/parent/reset/math/time", nil, login.Token)
	assert.Equal(t, http.StatusOK, code)
	code, env = call(t, a, http.MethodGet, "/api/progress/math/time", nil, "")
	require.Equal(t, http.StatusOK, code)
	var progress model.ModuleProgress
	require.NoError(t, json.Unmarshal(env.Data, &progress))
	assert.Equal(t, 0, progress.TotalAttempts)

	code, env = call(t, a, http.MethodPost, "/api/parent/backup", nil, login.Token)
	require.Equal(t, http.StatusCreated, code)
	var backup struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &backup))

	code, _ = call(t, a, http.MethodPost, "/api/parent/restore", payload{"name": backup.Name}, login.Token)
	assert.Equal(t, http.StatusOK, code)
	code, _ = call(t, a, http.MethodPost, "/api/parent/restore", payload{"name": "backups/someone/x.json"}, login.Token)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestParentLoginIsThrottled(t *testing.T) {
	a := newTestApp(t)

	for i := 0; i < 5; i++ {
		code, _ := call(t, a, http.MethodPost, "/api/parent/login", payload{"pin": "0000"}, "")
		require.Equal(t, http.StatusUnauthorized, code)
	}
	code, _ := call(t, a, http.MethodPost, "/api/parent/login", payload{"pin": "1234"}, "")
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestSyncStatusAndReload(t *testing.T) {
	a := newTestApp(t)

	code, env := call(t, a, http.MethodGet, "/api/sync/status", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"clients":0`)
	assert.Contains(t, string(env.Data), `"subscribed":true`)

	next := *a.Config
	next.Session.WarmupCount = 0
	next.Session.AvgSecondsPerQuestion = 60
	for _, cb := range a.configCallbacks {
		cb(&next)
	}
	// 30 分钟 / 60 秒 = 30 题，题库恰好 30 题
	code, env = call(t, a, http.MethodGet, "/api/practice/math/money/questions", nil, "")
	require.Equal(t, http.StatusOK, code)
	var session struct {
		Questions []model.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &session))
	assert.Len(t, session.Questions, 30)
}

type payload map[string]interface{}
