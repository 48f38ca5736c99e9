package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"socialgraph/database"
	"socialgraph/middleware"
	"socialgraph/models"
	"socialgraph/utils"
)

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=16,alphanum"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	exists, err := h.users.ExistsByUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.logger.Error("Failed to check username", zap.Error(err))
		utils.InternalError(c, "database error")
		return
	}
	if exists {
		utils.Conflict(c, "username already exists")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.InternalError(c, "failed to hash password")
		return
	}

	user := &models.User{Username: req.Username, Password: string(hashedPassword)}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		h.logger.Error("Failed to create user", zap.Error(err))
		utils.InternalError(c, "failed to create user")
		return
	}

	h.issueToken(c, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, database.ErrNotFound) {
		utils.Unauthorized(c, "invalid username or password")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load user", zap.Error(err))
		utils.InternalError(c, "database error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		utils.Unauthorized(c, "invalid username or password")
		return
	}

	h.issueToken(c, user)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	identity := middleware.GetIdentity(c)

	token, err := h.tokens.GenerateToken(identity.ID, identity.Name)
	if err != nil {
		utils.InternalError(c, "failed to generate token")
		return
	}

	utils.Success(c, gin.H{"token": token})
}

func (h *Handler) issueToken(c *gin.Context, user *models.User) {
	token, err := h.tokens.GenerateToken(user.ID, user.Username)
	if err != nil {
		utils.InternalError(c, "failed to generate token")
		return
	}

	utils.Success(c, AuthResponse{
		Token: token,
		User:  *user.ToResponse(),
	})
}
