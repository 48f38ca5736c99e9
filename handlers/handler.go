package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"socialgraph/database"
	"socialgraph/social"
	"socialgraph/utils"
)

type Handler struct {
	users    *database.UserRepository
	devices  *database.DeviceTokenRepository
	social   *social.Service
	presence social.Presence
	tokens   *utils.TokenIssuer
	logger   *zap.Logger
}

func New(
	users *database.UserRepository,
	devices *database.DeviceTokenRepository,
	svc *social.Service,
	presence social.Presence,
	tokens *utils.TokenIssuer,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		users:    users,
		devices:  devices,
		social:   svc,
		presence: presence,
		tokens:   tokens,
		logger:   logger.Named("handlers"),
	}
}

// RegisterRoutes mounts the API under /api. auth guards everything except login and
// registration.
func (h *Handler) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", auth, h.RefreshToken)
	}

	users := r.Group("/api/users")
	users.Use(auth)
	{
		users.GET("/me", h.GetCurrentUser)
		users.GET("/search", h.SearchUsers)
		users.POST("/me/device", h.RegisterDeviceToken)
		users.DELETE("/me/device", h.UnregisterDeviceToken)
	}

	friends := r.Group("/api/friends")
	friends.Use(auth)
	{
		friends.GET("", h.GetFriends)
		friends.GET("/requests", h.GetFriendRequests)
		friends.POST("/request", h.SendFriendRequest)
		friends.POST("/accept/:username", h.AcceptFriendRequest)
		friends.POST("/deny/:username", h.DenyFriendRequest)
		friends.DELETE("/:username", h.DeleteFriend)
		friends.POST("/:username/favorite", h.ToggleFavorite)
		friends.PUT("/:username/nickname", h.SetNickname)
		friends.POST("/:username/teleport", h.TeleportToFriend)
		friends.POST("/:username/messages", h.SendPrivateMessage)
	}

	blacklist := r.Group("/api/blacklist")
	blacklist.Use(auth)
	{
		blacklist.GET("", h.GetBlacklist)
		blacklist.POST("", h.AddToBlacklist)
		blacklist.DELETE("/:username", h.RemoveFromBlacklist)
	}
}

// respond maps a service outcome onto the response envelope.
func (h *Handler) respond(c *gin.Context, op string, ok bool, err error) {
	if err != nil {
		h.logger.Error("Social operation failed", zap.String("operation", op), zap.Error(err))
		utils.InternalError(c, "internal error")
		return
	}
	if !ok {
		utils.Rejected(c, gin.H{"operation": op})
		return
	}
	utils.Success(c, gin.H{"operation": op})
}
