package websocket

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"votechain-client/model"
	"votechain-client/state"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时
	pongWait = 60 * time.Second

	// 发送ping间隔时间，必须小于pongWait
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 512

	sendBuffer = 64
)

// SnapshotFunc 新连接建立时推送的当前状态
type SnapshotFunc func() state.App

// Handler WebSocket处理器
type Handler struct {
	hub      *Hub
	snapshot SnapshotFunc
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler 创建WebSocket处理器；allowedOrigins 含 "*" 时不检查来源
func NewHandler(hub *Hub, snapshot SnapshotFunc, allowedOrigins []string, logger *slog.Logger) *Handler {
	return &Handler{
		hub:      hub,
		snapshot: snapshot,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/ws", h.HandleWebSocketConnection)
}

// HandleWebSocketConnection 升级连接，先推送一次当前状态，之后推送每次变更
func (h *Handler) HandleWebSocketConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	initial, err := model.NewPushMessage(model.PushTypeState, h.snapshot()).ToJSON()
	if err != nil {
		h.logger.Error("encode push message failed", "error", err)
	}
	h.hub.RegisterClient(client, initial)

	go h.writePump(client)
	go h.readPump(client)
}

// readPump 只处理控制帧，界面不通过 websocket 发送指令
func (h *Handler) readPump(client *Client) {
	defer func() {
		h.hub.UnregisterClient(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
	}
}

// writePump 每条消息单独成帧
func (h *Handler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
