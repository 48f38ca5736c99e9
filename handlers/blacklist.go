package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"socialgraph/middleware"
	"socialgraph/models"
	"socialgraph/utils"
)

type BlockRequest struct {
	Username string `json:"username" binding:"required"`
	Reason   string `json:"reason" binding:"max=255"`
}

func (h *Handler) GetBlacklist(c *gin.Context) {
	entries, err := h.social.Blacklist(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("Failed to load blacklist", zap.Error(err))
		utils.InternalError(c, "database error")
		return
	}
	if entries == nil {
		entries = []models.BlacklistEntry{}
	}
	utils.Success(c, entries)
}

func (h *Handler) AddToBlacklist(c *gin.Context) {
	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	target, found := h.lookupUser(c, req.Username)
	if !found {
		return
	}

	ok, err := h.social.AddToBlacklist(c.Request.Context(), middleware.GetIdentity(c), target, req.Reason)
	h.respond(c, "add_to_blacklist", ok, err)
}

func (h *Handler) RemoveFromBlacklist(c *gin.Context) {
	ok, err := h.social.RemoveFromBlacklist(c.Request.Context(), middleware.GetIdentity(c), c.Param("username"))
	h.respond(c, "remove_from_blacklist", ok, err)
}
