package websocket

import (
	"errors"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"socialgraph/models"
	"socialgraph/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

var ErrNotConnected = errors.New("user is not connected")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	ID       string
	UserID   uuid.UUID
	Username string
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
}

func (c *Client) Identity() models.Identity {
	return models.Identity{ID: c.UserID, Name: c.Username}
}

func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.context().Done():
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Websocket read error", zap.String("client", c.ID), zap.Error(err))
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) WritePump() {
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

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
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

func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := sonic.Unmarshal(message, &msg); err != nil {
		c.reply(&Message{Event: EventError, Data: NoticeData{Message: "malformed message"}})
		return
	}

	switch msg.Action {
	case "ping":
		c.reply(&Message{Event: EventPong})
	case "private_message":
		c.handlePrivateMessage(&msg)
	default:
		c.reply(&Message{Event: EventError, Data: NoticeData{Message: "unknown action"}})
	}
}

func (c *Client) handlePrivateMessage(msg *ClientMessage) {
	if c.Hub.listener == nil || msg.To == "" || msg.Content == "" {
		return
	}

	if _, err := c.Hub.listener.SendPrivateMessage(c.Hub.context(), c.Identity(), msg.To, msg.Content); err != nil {
		c.Hub.logger.Error("Failed to send private message",
			zap.String("user", c.UserID.String()),
			zap.Error(err))
		c.reply(&Message{Event: EventError, Data: NoticeData{Message: "failed to send message"}})
	}
}

func (c *Client) reply(msg *Message) {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return
	}
	c.Hub.sendToClient(c, data)
}

func (h *Hub) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Unauthorized(c, "missing token")
		return
	}

	claims, err := h.tokens.ParseToken(token)
	if err != nil {
		utils.Unauthorized(c, "invalid token")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:       utils.GenerateUUID(),
		UserID:   uuid.MustParse(claims.UserID),
		Username: claims.Username,
		Hub:      h,
		Conn:     conn,
		Send:     make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.context().Done():
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
