package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// SystemInfo contains basic system metrics and information
type SystemInfo struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	StartTime    time.Time         `json:"start_time"`
	CurrentTime  time.Time         `json:"current_time"`
	GoVersion    string            `json:"go_version"`
	NumGoroutine int               `json:"num_goroutine"`
	DBStatus     string            `json:"db_status"`
	PollsLoaded  bool              `json:"polls_loaded"`
	ActivePolls  int               `json:"active_polls"`
	WSClients    int               `json:"ws_clients"`
	SSEClients   int               `json:"sse_clients"`
	RateLimit    *RateLimiterStats `json:"rate_limit,omitempty"`
}

var (
	startTime = time.Now()
	// Version 应用版本，可通过构建参数注入
	Version = "0.1.0"
)

// HealthCheck 提供基本健康检查端点
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// SystemStatus 提供详细的系统状态信息
func (h *Handler) SystemStatus(c *gin.Context) {
	// 回执存档未启用时为 disabled
	dbStatus := "disabled"
	if h.db != nil {
		dbStatus = "ok"
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			dbStatus = "error"
		}
	}

	snap := h.ctrl.Snapshot()
	info := SystemInfo{
		Status:       "ok",
		Version:      Version,
		Uptime:       time.Since(startTime).String(),
		StartTime:    startTime,
		CurrentTime:  time.Now(),
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		DBStatus:     dbStatus,
		PollsLoaded:  snap.Store.PollsLoaded,
		ActivePolls:  len(snap.Store.Polls),
	}
	if h.hub != nil {
		info.WSClients = h.hub.ClientCount()
	}
	if h.sse != nil {
		info.SSEClients = h.sse.ClientCount()
	}
	if h.limiter != nil {
		stats := h.limiter.Stats()
		info.RateLimit = &stats
	}

	c.JSON(http.StatusOK, info)
}
