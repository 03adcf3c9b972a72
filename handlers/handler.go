package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"votechain-client/model"
	"votechain-client/service"
	"votechain-client/state"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Controller 处理器依赖的同步控制器操作
type Controller interface {
	Snapshot() state.App
	Dispatch(action state.Action) error
	RefreshActivePolls(ctx context.Context) error
	RefreshStats(ctx context.Context) error
	SubmitPollCreation(ctx context.Context) (string, error)
	SubmitVote(ctx context.Context, pollID, choice string) (string, error)
	VerifyReceipt(ctx context.Context, pollID, receipt string) (*model.VerifyResult, error)
	FetchPoll(ctx context.Context, id string) (*model.Poll, error)
	Receipts(ctx context.Context, limit int) ([]model.ArchivedReceipt, error)
	PollReceipts(ctx context.Context, pollID string) ([]model.ArchivedReceipt, error)
}

// ClientCounter 推送通道的连接数
type ClientCounter interface {
	ClientCount() int
}

// SnapshotClearer 预热缓存
type SnapshotClearer interface {
	Clear(ctx context.Context) error
}

// Deps 处理器依赖，除 Controller 外都可以为空
type Deps struct {
	Controller Controller
	SSE        *SSEBroker
	Hub        ClientCounter
	Limiter    *IPRateLimiter
	DB         *gorm.DB
	Snapshot   SnapshotClearer
	Logger     *slog.Logger
}

// Handler 本地界面使用的 HTTP 接口
type Handler struct {
	ctrl     Controller
	sse      *SSEBroker
	hub      ClientCounter
	limiter  *IPRateLimiter
	db       *gorm.DB
	snapshot SnapshotClearer
	logger   *slog.Logger
}

// New 创建处理器
func New(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ctrl:     d.Controller,
		sse:      d.SSE,
		hub:      d.Hub,
		limiter:  d.Limiter,
		db:       d.DB,
		snapshot: d.Snapshot,
		logger:   logger,
	}
}

// GetState 当前完整状态
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "state": h.ctrl.Snapshot()})
}

// dispatch 依次应用动作，返回最新状态
func (h *Handler) dispatch(c *gin.Context, actions ...state.Action) {
	for _, action := range actions {
		if err := h.ctrl.Dispatch(action); err != nil {
			h.respondError(c, err)
			return
		}
	}
	h.GetState(c)
}

// respondError 按错误分类返回状态码，正文为用户可见信息
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch service.Classify(err) {
	case service.KindLocal:
		status = http.StatusBadRequest
	case service.KindTransport:
		status = http.StatusBadGateway
	case service.KindService:
		status = http.StatusUnprocessableEntity
	default:
		h.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, gin.H{"success": false, "error": service.UserMessage(err)})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
