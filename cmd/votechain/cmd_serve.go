package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"votechain-client/handlers"
	"votechain-client/routes"
	"votechain-client/service"
	"votechain-client/websocket"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var cmdServe = &cobra.Command{
	Use:   "serve",
	Short: "Run the local shell: HTTP API, websocket and SSE state pushes.",
	RunE: func(c *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(c.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withRuntime(ctx, func(rt *env) error {
			if rt.log.Enabled(ctx, slog.LevelDebug) {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			hub := websocket.NewHub(rt.log)
			go hub.Run(ctx)
			sse := handlers.NewSSEBroker(rt.log)

			ctrl := rt.controller(service.WithPublisher(hub), service.WithPublisher(sse))
			// 初始加载失败不阻止启动，界面可以稍后手动刷新
			if err := ctrl.Initialize(ctx); err != nil {
				rt.log.Warn("starting with incomplete data", "error", err)
			}

			limiter := handlers.NewIPRateLimiter(handlers.RateLimiterConfig{
				Rate:  rt.cfg.Shell.RateLimit,
				Burst: rt.cfg.Shell.RateBurst,
			})
			deps := handlers.Deps{
				Controller: ctrl,
				SSE:        sse,
				Hub:        hub,
				Limiter:    limiter,
				DB:         rt.db,
				Logger:     rt.log,
			}
			if rt.snapshot != nil {
				deps.Snapshot = rt.snapshot
			}

			router := routes.SetupRouter(
				handlers.New(deps),
				websocket.NewHandler(hub, ctrl.Snapshot, rt.cfg.Shell.AllowedOrigins, rt.log),
				routes.Config{
					AllowedOrigins: rt.cfg.Shell.AllowedOrigins,
					Gatherer:       rt.registry,
					Limiter:        limiter,
				},
			)
			return routes.StartServer(ctx, rt.cfg.Shell.Addr, router, rt.log)
		})
	},
}
