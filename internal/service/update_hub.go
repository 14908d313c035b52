package service

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"practice_backend/pkg/logger"
	"practice_backend/pkg/monitoring"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

const (
	MessageCloudUpdate   = "CLOUD_UPDATE"
	MessageSyncStatus    = "SYNC_STATUS"
	MessageStatusRequest = "GET_SYNC_STATUS"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Client struct {
	ID      string
	Hub     *UpdateHub
	Conn    *websocket.Conn
	Send    chan []byte
	Limiter *rate.Limiter
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.unregisterClient(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.String("clientId", c.ID))
			}
			break
		}

		if !c.Limiter.Allow() {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		if msg.Type == MessageStatusRequest {
			c.Hub.sendStatus(c)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// UpdateHub 把同步引擎应用的远端更新推送给连接中的界面
type UpdateHub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	stopped bool

	// StatusFn 客户端请求同步状态时调用
	StatusFn func() SyncStatus
}

func NewUpdateHub(statusFn func() SyncStatus) *UpdateHub {
	return &UpdateHub{
		clients:  make(map[string]*Client),
		StatusFn: statusFn,
	}
}

func (h *UpdateHub) registerClient(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.clients[c.ID] = c
	monitoring.UpdateHubClients.Inc()
	return true
}

func (h *UpdateHub) unregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		close(c.Send)
		monitoring.UpdateHubClients.Dec()
	}
}

func (h *UpdateHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastCloudUpdate 作为同步引擎的 OnCloudUpdate 回调，不会阻塞
func (h *UpdateHub) BroadcastCloudUpdate(keys []string) {
	h.Broadcast(WSMessage{
		Type: MessageCloudUpdate,
		Data: map[string]interface{}{"keys": keys},
	})
}

func (h *UpdateHub) Broadcast(msg WSMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Log.Error("Failed to encode websocket message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.Send <- payload:
		default:
			// 客户端消费太慢，丢弃这条通知，下一次更新会带上最新的键
		}
	}
}

func (h *UpdateHub) sendStatus(c *Client) {
	if h.StatusFn == nil {
		return
	}
	payload, err := json.Marshal(WSMessage{Type: MessageSyncStatus, Data: h.StatusFn()})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	select {
	case c.Send <- payload:
	default:
	}
}

// Stop 关闭所有连接，之后的连接会被拒绝
func (h *UpdateHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopped = true
	for id, client := range h.clients {
		close(client.Send)
		delete(h.clients, id)
	}
	monitoring.UpdateHubClients.Set(0)
	logger.Log.Info("UpdateHub stopped")
}

func ServeWs(hub *UpdateHub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	client := &Client{
		ID:      uuid.NewString(),
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 64),
		Limiter: rate.NewLimiter(rate.Limit(5), 10),
	}
	if !hub.registerClient(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()

	// 连接建立后先推送一次当前状态
	hub.sendStatus(client)
}
