package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"socialgraph/middleware"
	"socialgraph/utils"
)

type PrivateMessageRequest struct {
	Content string `json:"content" binding:"required,max=256"`
}

func (h *Handler) SendPrivateMessage(c *gin.Context) {
	var req PrivateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		utils.BadRequest(c, "content is required")
		return
	}

	ok, err := h.social.SendPrivateMessage(c.Request.Context(), middleware.GetIdentity(c), c.Param("username"), content)
	h.respond(c, "private_message", ok, err)
}
