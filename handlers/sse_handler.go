package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"votechain-client/model"
	"votechain-client/state"

	"github.com/gin-gonic/gin"
)

const (
	sseBuffer         = 16
	sseHeartbeatEvery = 15 * time.Second
)

// SSEBroker 把状态快照分发给所有 SSE 连接
type SSEBroker struct {
	mu      sync.Mutex
	clients map[chan []byte]struct{}
	logger  *slog.Logger
}

// NewSSEBroker 创建分发器
func NewSSEBroker(logger *slog.Logger) *SSEBroker {
	return &SSEBroker{clients: make(map[chan []byte]struct{}), logger: logger}
}

// Publish 分发状态快照；缓冲已满时丢弃最旧的一条，最新快照总能送达
func (b *SSEBroker) Publish(app state.App) {
	payload, err := model.NewPushMessage(model.PushTypeState, app).ToJSON()
	if err != nil {
		b.logger.Error("encode push message failed", "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
			continue
		default:
		}
		// 只有持锁的 Publish 写入，取出一条后必有空位
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- payload:
		default:
		}
		b.logger.Debug("sse client lagging, oldest snapshot dropped")
	}
}

// ClientCount 当前连接数
func (b *SSEBroker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *SSEBroker) subscribe() chan []byte {
	ch := make(chan []byte, sseBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *SSEBroker) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.clients, ch)
	b.mu.Unlock()
}

// HandleSSE 先推送当前状态，之后推送每次变更，并定时发送心跳
func (h *Handler) HandleSSE(c *gin.Context) {
	if h.sse == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Event stream is not enabled"})
		return
	}
	ch := h.sse.subscribe()
	defer h.sse.unsubscribe(ch)

	initial, err := model.NewPushMessage(model.PushTypeState, h.ctrl.Snapshot()).ToJSON()
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no") // 禁用Nginx缓冲

	heartbeat := time.NewTicker(sseHeartbeatEvery)
	defer heartbeat.Stop()

	pending := initial
	c.Stream(func(w io.Writer) bool {
		if pending != nil {
			c.SSEvent(model.PushTypeState, string(pending))
			pending = nil
			return true
		}
		select {
		case payload := <-ch:
			c.SSEvent(model.PushTypeState, string(payload))
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().Format(time.RFC3339))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
	h.logger.Debug("sse client disconnected", "client_ip", c.ClientIP())
}
