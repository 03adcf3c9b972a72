package client_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"votechain-client/client"
	"votechain-client/model"
	"votechain-client/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, svc *testutil.FakeVotingService) *client.Client {
	t.Helper()
	c, err := client.New(client.Config{BaseURL: svc.URL()})
	require.NoError(t, err)
	return c
}

func TestNew_RejectsRelativeURL(t *testing.T) {
	_, err := client.New(client.Config{BaseURL: "/api"})
	assert.Error(t, err)
}

func TestListActivePolls(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	closes := time.Unix(1767225600, 0).UTC()
	svc.SetPolls(model.Poll{
		ID:       "p1",
		Title:    "Referendum",
		Question: "Approve?",
		Options:  []string{"Yes", "No"},
		Language: model.LanguageEnglish,
		ClosesAt: model.NewUnixTime(closes),
	})

	var gotQuery string
	svc.Override(testutil.RouteListPolls, func(c *gin.Context) {
		gotQuery = c.Request.URL.RawQuery
		c.JSON(http.StatusOK, gin.H{"success": true, "polls": []gin.H{{
			"poll_id":   "p1",
			"title":     "Referendum",
			"question":  "Approve?",
			"options":   []string{"Yes", "No"},
			"language":  "en",
			"closes_at": 1767225600.5,
		}}})
	})

	polls, err := newClient(t, svc).ListActivePolls(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "active=true", gotQuery)
	require.Len(t, polls, 1)
	assert.Equal(t, "p1", polls[0].ID)
	assert.Equal(t, []string{"Yes", "No"}, polls[0].Options)
	assert.Equal(t, closes.Add(500*time.Millisecond), polls[0].ClosesAt.Time)
	assert.Zero(t, polls[0].VoteCount)
}

func TestChainStats(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	svc.SetStats(model.ChainStats{TotalPolls: 2, TotalVotes: 7, TotalBlocks: 3, IsValid: true})

	stats, err := newClient(t, svc).ChainStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.ChainStats{TotalPolls: 2, TotalVotes: 7, TotalBlocks: 3, IsValid: true}, stats)
}

func TestChainStats_MissingPayloadIsTransportError(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	svc.Override(testutil.RouteStats, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	_, err := newClient(t, svc).ChainStats(context.Background())
	assert.True(t, client.IsTransport(err))
	assert.True(t, errors.Is(err, client.ErrMalformedResponse))
}

func TestCreatePoll(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	req := model.CreatePollRequest{
		Title:         "T",
		Question:      "Q?",
		Options:       []string{"A", "B"},
		DurationHours: 24,
		Language:      model.LanguageEnglish,
	}

	pollURL, err := newClient(t, svc).CreatePoll(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, pollURL, "/poll/")
	assert.Equal(t, []model.CreatePollRequest{req}, svc.Created())
}

func TestCreatePoll_ServiceErrorIsVerbatim(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)

	_, err := newClient(t, svc).CreatePoll(context.Background(), model.CreatePollRequest{
		Options: []string{"A", "B"},
	})

	se, ok := client.AsService(err)
	require.True(t, ok)
	assert.Equal(t, "Title and question are required", se.Message)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.False(t, client.IsTransport(err))
}

func TestSubmitVote(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	svc.SetPolls(model.Poll{ID: "p1", Options: []string{"Yes", "No"}})
	svc.SetReceiptFunc(func(int) string { return "eyJwb2xsX2lkIjogInAxIn0=" })

	receipt, err := newClient(t, svc).SubmitVote(context.Background(), model.VoteRequest{
		PollID:          "p1",
		VoterIdentifier: "voter@example.com",
		VoteChoice:      "Yes",
	})
	require.NoError(t, err)
	assert.Equal(t, "eyJwb2xsX2lkIjogInAxIn0=", receipt)
	assert.Equal(t, []model.VoteRequest{{PollID: "p1", VoterIdentifier: "voter@example.com", VoteChoice: "Yes"}}, svc.Votes())
}

func TestSubmitVote_SendsRequestID(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	var header string
	svc.Override(testutil.RouteVote, func(c *gin.Context) {
		header = c.GetHeader(client.RequestIDHeader)
		c.JSON(http.StatusCreated, gin.H{"success": true, "receipt": "r"})
	})

	_, err := newClient(t, svc).SubmitVote(context.Background(), model.VoteRequest{PollID: "p1"})
	require.NoError(t, err)
	assert.Len(t, header, 36)
}

func TestDo_MalformedBodyIsTransportError(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	svc.Override(testutil.RouteListPolls, func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "<html>Internal Server Error</html>")
	})

	_, err := newClient(t, svc).ListActivePolls(context.Background())
	require.Error(t, err)

	var te *client.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
}

func TestDo_UnreachableIsTransportError(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	c := newClient(t, svc)
	svc.Server.Close()

	_, err := c.ListActivePolls(context.Background())
	assert.True(t, client.IsTransport(err))
}

func TestDo_SuccessFalseWithoutMessage(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	svc.Override(testutil.RouteListPolls, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": false})
	})

	_, err := newClient(t, svc).ListActivePolls(context.Background())
	se, ok := client.AsService(err)
	require.True(t, ok)
	assert.Empty(t, se.Message)
}

func TestDo_TimeoutIsTransportError(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	release := make(chan struct{})
	defer close(release)
	svc.Override(testutil.RouteStats, func(c *gin.Context) {
		<-release
	})

	c, err := client.New(client.Config{BaseURL: svc.URL(), Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.ChainStats(context.Background())
	assert.True(t, client.IsTransport(err))
}

func TestVerifyReceipt(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	svc.SetPolls(model.Poll{ID: "p1", Options: []string{"Yes", "No"}})
	c := newClient(t, svc)

	receipt, err := c.SubmitVote(context.Background(), model.VoteRequest{PollID: "p1", VoterIdentifier: "v", VoteChoice: "No"})
	require.NoError(t, err)

	res, err := c.VerifyReceipt(context.Background(), model.VerifyRequest{Receipt: receipt, PollID: "p1"})
	require.NoError(t, err)
	assert.True(t, res.Valid)

	res, err = c.VerifyReceipt(context.Background(), model.VerifyRequest{Receipt: "forged", PollID: "p1"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestGetPoll(t *testing.T) {
	svc := testutil.NewFakeVotingService(t)
	svc.SetPolls(model.Poll{ID: "p1", Title: "T", Options: []string{"Yes", "No"}})
	c := newClient(t, svc)

	p, err := c.GetPoll(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "T", p.Title)

	_, err = c.GetPoll(context.Background(), "missing")
	se, ok := client.AsService(err)
	require.True(t, ok)
	assert.Equal(t, "Poll not found", se.Message)
}
