package server

import (
	"encoding/json"
	"sync"
	"time"

	"crossroadSim/log"
	"crossroadSim/simulator"

	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 16
	writeWait  = time.Second
)

// Frame 推送给订阅者的一帧遥测数据
type Frame struct {
	Snapshot simulator.Snapshot `json:"snapshot"`
	Status   simulator.Status   `json:"status"`
	Siren    bool               `json:"siren"` // 是否有紧急车辆在场
}

// client 一个 websocket 订阅者
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub 保存最新一帧并广播给所有订阅者
// 广播不阻塞，发送缓冲已满的订阅者会被断开
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	latest  []byte
	frame   *Frame
	closed  bool
}

// NewHub 创建广播中心
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Consume 实现 simulator.SnapshotConsumer
func (h *Hub) Consume(snap simulator.Snapshot, status simulator.Status) error {
	frame := &Frame{Snapshot: snap, Status: status, Siren: snap.EmergencyActive()}
	msg, err := json.Marshal(frame)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = msg
	h.frame = frame
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.drop(c)
		}
	}
	return nil
}

// Latest 返回最新一帧，尚未采样时返回 false
func (h *Hub) Latest() (Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.frame == nil {
		return Frame{}, false
	}
	return *h.frame, true
}

// Clients 返回当前订阅者数量
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// register 加入订阅者并立即补发最新一帧
func (h *Hub) register(conn *websocket.Conn) (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if h.latest != nil {
		c.send <- h.latest
	}
	h.clients[c] = struct{}{}
	return c, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop 需在持有 h.mu 时调用
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Close 断开所有订阅者，之后不再接受新的订阅
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.drop(c)
	}
}

// writePump 将发送缓冲中的数据写入连接，缓冲关闭后关闭连接
func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Debugf("websocket write: %v", err)
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// readPump 丢弃客户端消息，连接断开时返回
func (c *client) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
