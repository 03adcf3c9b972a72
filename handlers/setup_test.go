package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"votechain-client/client"
	"votechain-client/database"
	"votechain-client/migrations"
	"votechain-client/repository"
	"votechain-client/service"
	"votechain-client/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv 处理器测试环境：假投票服务 + 真实控制器 + 内存 SQLite 存档
type testEnv struct {
	router *gin.Engine
	fake   *testutil.FakeVotingService
	ctrl   *service.SyncController
	db     *gorm.DB
	sse    *SSEBroker
}

// SetupTestEnvironment sets up the Gin router, the fake voting service and an in-memory SQLite archive.
func SetupTestEnvironment(t *testing.T, extra ...func(*Deps)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fake := testutil.NewFakeVotingService(t)
	cl, err := client.New(client.Config{BaseURL: fake.URL(), Timeout: 5 * time.Second})
	require.NoError(t, err)

	db, err := database.Open(database.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	require.NoError(t, migrations.Migrate(db, logger))
	t.Cleanup(func() { _ = database.Close(db) })

	sse := NewSSEBroker(logger)
	ctrl := service.New(cl,
		service.WithLogger(logger),
		service.WithReceiptArchive(repository.NewReceiptRepository(db)),
		service.WithPublisher(sse),
	)

	deps := Deps{Controller: ctrl, SSE: sse, DB: db, Logger: logger}
	for _, fn := range extra {
		fn(&deps)
	}
	h := New(deps)

	// Setup Routes (same as routes.SetupRouter)
	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/health", HealthCheck)
		api.GET("/status", h.SystemStatus)

		limited := api.Group("")
		if deps.Limiter != nil {
			limited.Use(deps.Limiter.Middleware())
		}
		limited.GET("/state", h.GetState)
		limited.GET("/events", h.HandleSSE)
		limited.POST("/refresh", h.Refresh)
		limited.PATCH("/draft", h.PatchDraft)
		limited.DELETE("/draft", h.ResetDraft)
		limited.POST("/draft/options", h.AddOption)
		limited.PUT("/draft/options/:index", h.UpdateOption)
		limited.DELETE("/draft/options/:index", h.RemoveOption)
		limited.POST("/draft/submit", h.SubmitDraft)
		limited.PUT("/session/voter", h.SetVoter)
		limited.DELETE("/session/receipt", h.ClearReceipt)
		limited.POST("/votes", h.SubmitVote)
		limited.GET("/polls/:id", h.GetPoll)
		limited.GET("/receipts", h.ListReceipts)
		limited.POST("/receipts/verify", h.VerifyReceipt)
		limited.DELETE("/snapshot", h.ClearSnapshot)
	}

	return &testEnv{router: router, fake: fake, ctrl: ctrl, db: db, sse: sse}
}

// do 发送请求并返回响应
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// stateResponse 带状态的响应
type stateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	PollURL string `json:"poll_url"`
	Receipt string `json:"receipt"`
	State   struct {
		Draft struct {
			Title         string   `json:"title"`
			Question      string   `json:"question"`
			Options       []string `json:"options"`
			DurationHours int      `json:"duration_hours"`
			Language      string   `json:"language"`
		} `json:"draft"`
		Session struct {
			VoterIdentifier string `json:"voter_identifier"`
			Receipt         string `json:"receipt"`
		} `json:"session"`
		Store struct {
			Polls []struct {
				ID        string `json:"poll_id"`
				VoteCount int64  `json:"vote_count"`
			} `json:"polls"`
			PollsLoaded bool `json:"polls_loaded"`
		} `json:"store"`
	} `json:"state"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	var resp stateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}
