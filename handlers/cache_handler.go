package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ClearSnapshot 清空预热缓存，下次启动完全依赖服务端数据
func (h *Handler) ClearSnapshot(c *gin.Context) {
	if h.snapshot == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Snapshot cache is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.snapshot.Clear(ctx); err != nil {
		h.logger.Error("clear snapshot cache failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to clear snapshot cache"})
		return
	}
	h.logger.Info("snapshot cache cleared", "client_ip", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}
