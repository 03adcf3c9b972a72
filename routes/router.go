package routes

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"votechain-client/handlers"
	"votechain-client/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config 路由配置
type Config struct {
	AllowedOrigins []string
	// Gatherer 为空时不注册 /metrics
	Gatherer prometheus.Gatherer
	Limiter  *handlers.IPRateLimiter
}

// SetupRouter 设置和配置Gin路由
func SetupRouter(h *handlers.Handler, ws *websocket.Handler, cfg Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowOrigins:  cfg.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || containsWildcard(cfg.AllowedOrigins) {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
	}
	router.Use(cors.New(corsCfg))

	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
	if ws != nil {
		ws.RegisterRoutes(router)
	}

	api := router.Group("/api")
	{
		// 健康检查不限流
		api.GET("/health", handlers.HealthCheck)
		api.GET("/status", h.SystemStatus)

		limited := api.Group("")
		if cfg.Limiter != nil {
			limited.Use(cfg.Limiter.Middleware())
		}

		limited.GET("/state", h.GetState)
		limited.GET("/events", h.HandleSSE)
		limited.POST("/refresh", h.Refresh)

		draft := limited.Group("/draft")
		{
			draft.PATCH("", h.PatchDraft)
			draft.DELETE("", h.ResetDraft)
			draft.POST("/options", h.AddOption)
			draft.PUT("/options/:index", h.UpdateOption)
			draft.DELETE("/options/:index", h.RemoveOption)
			draft.POST("/submit", h.SubmitDraft)
		}

		session := limited.Group("/session")
		{
			session.PUT("/voter", h.SetVoter)
			session.DELETE("/receipt", h.ClearReceipt)
		}

		limited.POST("/votes", h.SubmitVote)
		limited.GET("/polls/:id", h.GetPoll)
		limited.GET("/receipts", h.ListReceipts)
		limited.POST("/receipts/verify", h.VerifyReceipt)
		limited.DELETE("/snapshot", h.ClearSnapshot)
	}

	return router
}

// StartServer 启动HTTP服务器，ctx 结束时优雅关闭
func StartServer(ctx context.Context, addr string, router http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// 关闭时同时结束 SSE 与其他长连接请求
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("shell listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shell shutting down")
	return srv.Shutdown(shutdownCtx)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
