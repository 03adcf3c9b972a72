package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"votechain-client/model"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 假服务的路由键
const (
	RouteListPolls  = "GET /api/polls"
	RouteGetPoll    = "GET /api/polls/:id"
	RouteStats      = "GET /api/blockchain/stats"
	RouteCreatePoll = "POST /api/polls"
	RouteVote       = "POST /api/vote"
	RouteVerify     = "POST /api/verify"
)

// FakeVotingService 基于 gin 的内存投票服务，行为与真实服务的接口约定一致
type FakeVotingService struct {
	Server *httptest.Server

	mu        sync.Mutex
	polls     []model.Poll
	stats     model.ChainStats
	calls     map[string]int
	created   []model.CreatePollRequest
	votes     []model.VoteRequest
	voters    map[string]bool
	receipts  map[string]string
	overrides map[string]gin.HandlerFunc
	receiptFn func(n int) string
}

// NewFakeVotingService 启动假服务，测试结束时自动关闭
func NewFakeVotingService(t *testing.T) *FakeVotingService {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeVotingService{
		calls:     make(map[string]int),
		voters:    make(map[string]bool),
		receipts:  make(map[string]string),
		overrides: make(map[string]gin.HandlerFunc),
		stats:     model.ChainStats{TotalBlocks: 1, IsValid: true},
		receiptFn: func(n int) string { return fmt.Sprintf("receipt-%d", n) },
	}

	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/polls", f.route(RouteListPolls, f.listPolls))
		api.GET("/polls/:id", f.route(RouteGetPoll, f.getPoll))
		api.POST("/polls", f.route(RouteCreatePoll, f.createPoll))
		api.POST("/vote", f.route(RouteVote, f.vote))
		api.POST("/verify", f.route(RouteVerify, f.verify))
		api.GET("/blockchain/stats", f.route(RouteStats, f.chainStats))
	}

	f.Server = httptest.NewServer(router)
	t.Cleanup(f.Server.Close)
	return f
}

// URL 服务地址
func (f *FakeVotingService) URL() string {
	return f.Server.URL
}

// SetPolls 设置活跃投票
func (f *FakeVotingService) SetPolls(polls ...model.Poll) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls = polls
}

// SetStats 设置账本统计
func (f *FakeVotingService) SetStats(stats model.ChainStats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stats = stats
}

// SetReceiptFunc 自定义第 n 张回执的内容
func (f *FakeVotingService) SetReceiptFunc(fn func(n int) string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptFn = fn
}

// Override 替换某个路由的处理函数
func (f *FakeVotingService) Override(route string, h gin.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[route] = h
}

// Calls 某个路由被调用的次数
func (f *FakeVotingService) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[route]
}

// TotalCalls 全部调用次数
func (f *FakeVotingService) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// Created 收到的创建请求
func (f *FakeVotingService) Created() []model.CreatePollRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CreatePollRequest(nil), f.created...)
}

// Votes 收到的投票请求
func (f *FakeVotingService) Votes() []model.VoteRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.VoteRequest(nil), f.votes...)
}

func (f *FakeVotingService) route(name string, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		f.mu.Lock()
		f.calls[name]++
		override := f.overrides[name]
		f.mu.Unlock()

		if override != nil {
			override(c)
			return
		}
		h(c)
	}
}

func (f *FakeVotingService) listPolls(c *gin.Context) {
	f.mu.Lock()
	polls := append([]model.Poll{}, f.polls...)
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true, "polls": polls})
}

func (f *FakeVotingService) getPoll(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.polls {
		if p.ID == c.Param("id") {
			c.JSON(http.StatusOK, gin.H{"success": true, "poll": p})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
}

func (f *FakeVotingService) chainStats(c *gin.Context) {
	f.mu.Lock()
	stats := f.stats
	f.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

func (f *FakeVotingService) createPoll(c *gin.Context) {
	var req model.CreatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == "" || req.Question == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title and question are required"})
		return
	}
	if len(req.Options) < 2 || len(req.Options) > 10 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Must have 2-10 options"})
		return
	}

	now := time.Now()
	poll := model.Poll{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Question:      req.Question,
		Options:       req.Options,
		Language:      req.Language,
		DurationHours: req.DurationHours,
		Status:        model.PollStatusActive,
		CreatedAt:     model.NewUnixTime(now),
		ClosesAt:      model.NewUnixTime(now.Add(time.Duration(req.DurationHours) * time.Hour)),
	}

	f.mu.Lock()
	f.created = append(f.created, req)
	f.polls = append(f.polls, poll)
	f.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{"success": true, "poll": poll, "poll_url": "/poll/" + poll.ID})
}

func (f *FakeVotingService) vote(c *gin.Context) {
	var req model.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PollID == "" || req.VoterIdentifier == "" || req.VoteChoice == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i, p := range f.polls {
		if p.ID == req.PollID {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not found"})
		return
	}
	valid := false
	for _, opt := range f.polls[idx].Options {
		if opt == req.VoteChoice {
			valid = true
			break
		}
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vote choice"})
		return
	}
	voterKey := req.PollID + "|" + req.VoterIdentifier
	if f.voters[voterKey] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You have already voted in this poll"})
		return
	}

	f.voters[voterKey] = true
	f.votes = append(f.votes, req)
	f.polls[idx].VoteCount++
	f.stats.TotalVotes++
	receipt := f.receiptFn(len(f.votes))
	f.receipts[receipt] = req.PollID

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Vote submitted successfully",
		"receipt": receipt,
	})
}

func (f *FakeVotingService) verify(c *gin.Context) {
	var req model.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Receipt == "" || req.PollID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receipt and poll_id required"})
		return
	}

	f.mu.Lock()
	pollID, ok := f.receipts[req.Receipt]
	f.mu.Unlock()

	valid := ok && pollID == req.PollID
	message := "Vote not found"
	if valid {
		message = "Vote verified on blockchain"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "valid": valid, "message": message})
}
