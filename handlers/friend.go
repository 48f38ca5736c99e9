package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"socialgraph/middleware"
	"socialgraph/models"
	"socialgraph/utils"
)

type FriendRequest struct {
	Username string `json:"username" binding:"required"`
}

type NicknameRequest struct {
	Nickname string `json:"nickname" binding:"max=32"`
}

func (h *Handler) GetFriends(c *gin.Context) {
	friends, err := h.social.Friends(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("Failed to load friends", zap.Error(err))
		utils.InternalError(c, "database error")
		return
	}

	resp := make([]models.FriendResponse, len(friends))
	for i, f := range friends {
		resp[i] = models.FriendResponse{
			Friendship:  f,
			DisplayName: f.DisplayName(),
			Online:      h.presence.IsOnline(f.TargetID),
		}
	}

	utils.Success(c, resp)
}

func (h *Handler) GetFriendRequests(c *gin.Context) {
	requests := h.social.PendingRequests(middleware.GetUserID(c))
	if requests == nil {
		requests = []models.FriendRequest{}
	}
	utils.Success(c, requests)
}

func (h *Handler) SendFriendRequest(c *gin.Context) {
	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	receiver, found := h.lookupUser(c, req.Username)
	if !found {
		return
	}

	ok, err := h.social.SendRequest(c.Request.Context(), middleware.GetIdentity(c), receiver)
	h.respond(c, "send_request", ok, err)
}

func (h *Handler) AcceptFriendRequest(c *gin.Context) {
	ok, err := h.social.AcceptRequest(c.Request.Context(), middleware.GetIdentity(c), c.Param("username"))
	h.respond(c, "accept_request", ok, err)
}

func (h *Handler) DenyFriendRequest(c *gin.Context) {
	ok, err := h.social.DenyRequest(c.Request.Context(), middleware.GetIdentity(c), c.Param("username"))
	h.respond(c, "deny_request", ok, err)
}

func (h *Handler) DeleteFriend(c *gin.Context) {
	ok, err := h.social.RemoveFriend(c.Request.Context(), middleware.GetIdentity(c), c.Param("username"))
	h.respond(c, "remove_friend", ok, err)
}

func (h *Handler) ToggleFavorite(c *gin.Context) {
	ok, err := h.social.ToggleFavorite(c.Request.Context(), middleware.GetUserID(c), c.Param("username"))
	h.respond(c, "toggle_favorite", ok, err)
}

func (h *Handler) SetNickname(c *gin.Context) {
	var req NicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	ok, err := h.social.SetNickname(c.Request.Context(), middleware.GetUserID(c), c.Param("username"), req.Nickname)
	h.respond(c, "set_nickname", ok, err)
}

func (h *Handler) TeleportToFriend(c *gin.Context) {
	ok, err := h.social.TeleportToFriend(c.Request.Context(), middleware.GetIdentity(c), c.Param("username"))
	h.respond(c, "teleport", ok, err)
}
