package handlers

import (
	"net/http"
	"testing"

	"votechain-client/model"
	"votechain-client/service"
	"votechain-client/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetState_Initial(t *testing.T) {
	env := SetupTestEnvironment(t)

	w := env.do(t, http.MethodGet, "/api/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"", ""}, resp.State.Draft.Options)
	assert.Equal(t, 24, resp.State.Draft.DurationHours)
	assert.Equal(t, "ar", resp.State.Draft.Language)
	assert.False(t, resp.State.Store.PollsLoaded)
}

func TestPatchDraft(t *testing.T) {
	env := SetupTestEnvironment(t)

	w := env.do(t, http.MethodPatch, "/api/draft", gin.H{"title": "Budget", "duration_hours": 48, "language": "fr"})
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, "Budget", resp.State.Draft.Title)
	assert.Equal(t, "", resp.State.Draft.Question)
	assert.Equal(t, 48, resp.State.Draft.DurationHours)
	assert.Equal(t, "fr", resp.State.Draft.Language)
}

func TestPatchDraft_InvalidInput(t *testing.T) {
	env := SetupTestEnvironment(t)

	tests := []struct {
		name        string
		body        interface{}
		expectedErr string
	}{
		{"Unknown language", gin.H{"language": "de"}, "Language must be one of ar, fr, en"},
		{"Wrong type", gin.H{"duration_hours": "long"}, "Invalid request body"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPatch, "/api/draft", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.expectedErr, decode(t, w).Error)
		})
	}
	assert.Equal(t, "ar", string(env.ctrl.Snapshot().Draft.Language))
}

func TestDraftOptions(t *testing.T) {
	env := SetupTestEnvironment(t)

	for i := 0; i < 12; i++ {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/draft/options", nil).Code)
	}
	assert.Len(t, env.ctrl.Snapshot().Draft.Options, 10)

	w := env.do(t, http.MethodPut, "/api/draft/options/9", gin.H{"value": "Last"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Last", decode(t, w).State.Draft.Options[9])

	for i := 0; i < 12; i++ {
		require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/draft/options/0", nil).Code)
	}
	opts := env.ctrl.Snapshot().Draft.Options
	assert.Equal(t, []string{"", "Last"}, opts)
}

func TestDraftOptions_BadIndex(t *testing.T) {
	env := SetupTestEnvironment(t)

	w := env.do(t, http.MethodPut, "/api/draft/options/7", gin.H{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgOptionOutOfRange, decode(t, w).Error)

	w = env.do(t, http.MethodDelete, "/api/draft/options/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid option index", decode(t, w).Error)
}

func TestSubmitDraft(t *testing.T) {
	env := SetupTestEnvironment(t)
	env.do(t, http.MethodPatch, "/api/draft", gin.H{"title": "T", "question": "Q?", "language": "en"})
	env.do(t, http.MethodPut, "/api/draft/options/0", gin.H{"value": "A"})
	env.do(t, http.MethodPut, "/api/draft/options/1", gin.H{"value": "B"})

	w := env.do(t, http.MethodPost, "/api/draft/submit", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.Contains(t, resp.PollURL, "/poll/")
	assert.Equal(t, "", resp.State.Draft.Title)
	assert.Equal(t, []string{"", ""}, resp.State.Draft.Options)
	assert.Len(t, resp.State.Store.Polls, 1)
	assert.Equal(t, 1, env.fake.Calls(testutil.RouteListPolls))
}

func TestSubmitDraft_Errors(t *testing.T) {
	env := SetupTestEnvironment(t)

	// 服务端校验失败，原样返回
	w := env.do(t, http.MethodPost, "/api/draft/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Title and question are required", decode(t, w).Error)

	// 时长越界在本地拒绝
	env.do(t, http.MethodPatch, "/api/draft", gin.H{"duration_hours": 0})
	w = env.do(t, http.MethodPost, "/api/draft/submit", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, service.MsgDurationOutOfRange, decode(t, w).Error)
	assert.Equal(t, 1, env.fake.Calls(testutil.RouteCreatePoll))
}

func TestRefresh(t *testing.T) {
	env := SetupTestEnvironment(t)
	env.fake.SetPolls(model.Poll{ID: "p1", Options: []string{"Yes", "No"}})

	w := env.do(t, http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.State.Store.PollsLoaded)
	assert.Len(t, resp.State.Store.Polls, 1)
	assert.Equal(t, 1, env.fake.Calls(testutil.RouteStats))
}

func TestRefresh_ServiceDown(t *testing.T) {
	env := SetupTestEnvironment(t)
	env.fake.Server.Close()

	w := env.do(t, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, service.MsgTransport, decode(t, w).Error)
}

func TestRefresh_PollsFailureStillRefreshesStats(t *testing.T) {
	env := SetupTestEnvironment(t)
	env.fake.Override(testutil.RouteListPolls, func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database is locked"})
	})
	env.fake.SetStats(model.ChainStats{TotalVotes: 7, IsValid: true})

	w := env.do(t, http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "database is locked", decode(t, w).Error)

	assert.Equal(t, 1, env.fake.Calls(testutil.RouteStats))
	stats := env.ctrl.Snapshot().Store.Stats
	require.NotNil(t, stats)
	assert.Equal(t, int64(7), stats.TotalVotes)
}

func TestGetPoll(t *testing.T) {
	env := SetupTestEnvironment(t)
	env.fake.SetPolls(model.Poll{ID: "p1", Title: "Budget", Options: []string{"Yes", "No"}})

	w := env.do(t, http.MethodGet, "/api/polls/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"Budget"`)

	w = env.do(t, http.MethodGet, "/api/polls/nope", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Poll not found", decode(t, w).Error)
}
