package websocket

import (
	"socialgraph/models"
	"socialgraph/utils"
)

func NewDetachedClient(h *Hub, user models.Identity) *Client {
	return &Client{
		ID:       utils.GenerateUUID(),
		UserID:   user.ID,
		Username: user.Name,
		Hub:      h,
		Send:     make(chan []byte, 256),
	}
}

func (h *Hub) RegisterClient(c *Client) {
	h.register <- c
}

func (c *Client) HandleMessage(message []byte) {
	c.handleMessage(message)
}
