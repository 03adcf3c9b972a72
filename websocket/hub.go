package websocket

import (
	"context"
	"log/slog"
	"sync"

	"votechain-client/model"
	"votechain-client/state"

	"github.com/gorilla/websocket"
)

// Client 一个界面连接
type Client struct {
	conn *websocket.Conn

	// 消息发送通道
	send chan []byte
}

// Hub 维护活跃连接并广播状态快照
type Hub struct {
	clients map[*Client]bool
	// 最近一次广播的消息，新连接以它为准
	latest []byte

	unregister chan *Client
	// Run 退出后关闭
	done chan struct{}

	// 互斥锁保护clients map
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHub 创建一个新的Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run 处理注销，ctx 结束时关闭全部连接
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()
			h.logger.Debug("websocket client unregistered")

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for client := range h.clients {
				h.removeLocked(client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Publish 广播状态快照，不阻塞调用方
func (h *Hub) Publish(app state.App) {
	h.Broadcast(model.NewPushMessage(model.PushTypeState, app))
}

// Broadcast 向所有连接广播消息；发送缓冲区已满的连接会被断开
func (h *Hub) Broadcast(message *model.PushMessage) {
	payload, err := message.ToJSON()
	if err != nil {
		h.logger.Error("encode push message failed", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = payload
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			h.removeLocked(client)
		}
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RegisterClient 注册客户端并排入首条消息
//
// initial 是注册前取得的状态；注册前已有广播时改用最近一次广播，
// 保证连接收到的第一条消息不早于之后的任何广播。
// Hub 已停止时直接关闭该连接的发送通道。
func (h *Hub) RegisterClient(client *Client, initial []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	select {
	case <-h.done:
		close(client.send)
		return
	default:
	}

	first := initial
	if h.latest != nil {
		first = h.latest
	}
	if first != nil {
		client.send <- first
	}
	h.clients[client] = true
	h.logger.Debug("websocket client registered", "clients", len(h.clients))
}

// UnregisterClient 从Hub中注销客户端
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}
