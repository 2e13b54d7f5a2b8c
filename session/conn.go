package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/JackieWYB/majiang-sub000/common/log"
)

var (
	pongWait             = 30 * time.Second
	writeWait            = 10 * time.Second
	pingInterval         = (pongWait * 9) / 10
	maxMessageSize int64 = 4096
	sendQueueSize        = 256
)

// client 单个用户的长连接。所有出站帧走 sendChan，
// 同一用户的消息由单个写协程保序发出
type client struct {
	connID string
	userID int64

	conn *websocket.Conn
	hub  *Hub

	sendChan   chan []byte
	closeChan  chan struct{}
	closeOnce  sync.Once
	pingTicker *time.Ticker
}

func newClient(connID string, userID int64, conn *websocket.Conn, hub *Hub) *client {
	return &client{
		connID:    connID,
		userID:    userID,
		conn:      conn,
		hub:       hub,
		sendChan:  make(chan []byte, sendQueueSize),
		closeChan: make(chan struct{}),
	}
}

func (c *client) run() {
	c.conn.SetPongHandler(c.pongHandler)
	go c.writePump()
	go c.readPump()
}

// send 入队失败说明客户端消费太慢，断开让它走重连
func (c *client) send(buf []byte) {
	select {
	case c.sendChan <- buf:
	case <-c.closeChan:
	default:
		log.Warn("客户端[%s] 发送队列已满, 主动断开", c.connID)
		c.close()
	}
}

func (c *client) writePump() {
	c.pingTicker = time.NewTicker(pingInterval)
	defer c.pingTicker.Stop()

	for {
		select {
		case message := <-c.sendChan:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("客户端[%s] SetWriteDeadline err: %v", c.connID, err)
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("客户端[%s] write stream err: %v", c.connID, err)
				c.close()
				return
			}
		case <-c.pingTicker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("客户端[%s] ping SetWriteDeadline err: %v", c.connID, err)
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error("客户端[%s] ping err: %v", c.connID, err)
				c.close()
				return
			}
		case <-c.closeChan:
			return
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.close()
		c.hub.dropClient(c)
	}()
	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error("客户端[%s] SetReadDeadline err: %v", c.connID, err)
		return
	}
	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error("客户端[%s] 读取异常: %v", c.connID, err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			log.Error("客户端[%s] 不支持的流类型: %d", c.connID, messageType)
			continue
		}
		var frame Frame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Warn("客户端[%s] 帧解析失败: %v", c.connID, err)
			continue
		}
		c.hub.handleFrame(c, &frame)
	}
}

func (c *client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
		_ = c.conn.Close()
	})
}
