package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"socialgraph/database"
	"socialgraph/middleware"
	"socialgraph/models"
	"socialgraph/utils"
)

const searchLimit = 20

type DeviceTokenRequest struct {
	Platform string `json:"platform" binding:"required,oneof=ios android"`
	Token    string `json:"token"`
}

func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if errors.Is(err, database.ErrNotFound) {
		utils.NotFound(c, "user not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load user", zap.Error(err))
		utils.InternalError(c, "database error")
		return
	}

	resp := user.ToResponse()
	resp.Online = h.presence.IsOnline(user.ID)
	utils.Success(c, resp)
}

func (h *Handler) SearchUsers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		utils.BadRequest(c, "search query is required")
		return
	}

	userID := middleware.GetUserID(c)
	found, err := h.users.Search(c.Request.Context(), query, searchLimit+1)
	if err != nil {
		h.logger.Error("Failed to search users", zap.Error(err))
		utils.InternalError(c, "database error")
		return
	}

	users := make([]models.UserResponse, 0, len(found))
	for _, user := range found {
		if user.ID == userID || len(users) == searchLimit {
			continue
		}
		resp := user.ToResponse()
		resp.Online = h.presence.IsOnline(user.ID)
		users = append(users, *resp)
	}

	utils.Success(c, users)
}

func (h *Handler) RegisterDeviceToken(c *gin.Context) {
	var req DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	if req.Token == "" {
		utils.BadRequest(c, "token is required")
		return
	}

	if err := h.devices.Register(c.Request.Context(), middleware.GetUserID(c), req.Platform, req.Token); err != nil {
		h.logger.Error("Failed to register device token", zap.Error(err))
		utils.InternalError(c, "failed to register device token")
		return
	}

	utils.Success(c, nil)
}

func (h *Handler) UnregisterDeviceToken(c *gin.Context) {
	var req DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := h.devices.Unregister(c.Request.Context(), middleware.GetUserID(c), req.Platform); err != nil {
		h.logger.Error("Failed to unregister device token", zap.Error(err))
		utils.InternalError(c, "failed to unregister device token")
		return
	}

	utils.Success(c, nil)
}

// lookupUser resolves a username to an identity, answering 404 itself when there is none.
func (h *Handler) lookupUser(c *gin.Context, username string) (models.Identity, bool) {
	user, err := h.users.GetByUsername(c.Request.Context(), username)
	if errors.Is(err, database.ErrNotFound) {
		utils.NotFound(c, "user not found")
		return models.Identity{}, false
	}
	if err != nil {
		h.logger.Error("Failed to load user", zap.Error(err))
		utils.InternalError(c, "database error")
		return models.Identity{}, false
	}
	return user.Identity(), true
}
