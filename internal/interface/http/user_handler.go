package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/matrixnet/social-service/internal/adapters"
	"github.com/matrixnet/social-service/internal/domain"
	"github.com/matrixnet/social-service/internal/interface/middleware"
	"github.com/matrixnet/social-service/internal/service"
	"github.com/matrixnet/social-service/pkg/helpers"
	"github.com/matrixnet/social-service/pkg/response"
	"github.com/matrixnet/social-service/pkg/validation"
)

// UserHandler adapts HTTP requests into commands on the bus plus the
// login/session flow, which never goes through the bus.
type UserHandler struct {
	Bus        *service.MessageBus
	Views      *service.Views
	JWT        *helpers.JWTManager
	Redis      *redis.Client
	Logger     *logrus.Logger
	Search     *adapters.UserSearchIndexer // nil when ES is not configured
	SessionTTL time.Duration
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Username  string `json:"username"`
	Password  string `json:"password" binding:"required,pwd"`
	Bio       string `json:"bio"`
	Location  string `json:"location"`
	AvatarURL string `json:"avatar_url"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	Bio       *string `json:"bio"`
	Location  *string `json:"location"`
	AvatarURL *string `json:"avatar_url"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	results, err := h.Bus.Handle(c.Request.Context(), domain.RegisterUser{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		Bio:       req.Bio,
		Location:  req.Location,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		response.Error(c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user_id": results[0]}, "user registered")
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	user, err := h.Views.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "login failed", nil)
		return
	}
	if user == nil || !helpers.CheckPassword(user.PasswordHash, req.Password) {
		response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	access, aexp, err := h.JWT.GenerateAccessToken(user.User.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "login failed", nil)
		return
	}
	refresh, rexp, err := h.JWT.GenerateRefreshToken(user.User.ID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "login failed", nil)
		return
	}

	if err := helpers.PutSession(c.Request.Context(), h.Redis, user.User.ID, map[string]any{
		"user_id":  user.User.ID,
		"email":    user.User.Email,
		"username": user.User.Username,
	}, h.SessionTTL); err != nil {
		h.Logger.WithError(err).WithField("user_id", user.User.ID).Warn("session write failed")
	}

	response.Success(c, http.StatusOK, gin.H{
		"user_id":            user.User.ID,
		"access_token":       access,
		"access_expires_at":  aexp,
		"refresh_token":      refresh,
		"refresh_expires_at": rexp,
	}, "login successful")
}

func (h *UserHandler) Logout(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)
	if err := helpers.DropSession(c.Request.Context(), h.Redis, userID); err != nil {
		h.Logger.WithError(err).WithField("user_id", userID).Warn("session drop failed")
	}
	response.Success(c, http.StatusOK, gin.H{"logged_out": true}, "logged out")
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)
	user, err := h.Views.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "profile lookup failed", nil)
		return
	}
	if user == nil {
		response.Error(c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":         user.User.ID,
		"email":      user.User.Email,
		"username":   user.User.Username,
		"bio":        user.Bio,
		"location":   user.Location,
		"avatar_url": user.AvatarURL,
		"created_at": user.CreatedAt,
	}, "profile")
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	_, err := h.Bus.Handle(c.Request.Context(), domain.UpdateProfile{
		UserID:    userID,
		Bio:       req.Bio,
		Location:  req.Location,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		response.Error(c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user_id": userID}, "profile updated")
}

// ChangePassword verifies the current password at this layer, then sends
// the new hash through the bus.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	user, err := h.Views.GetUser(c.Request.Context(), userID)
	if err != nil || user == nil {
		response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	if !helpers.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		response.Error(c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	newHash, err := helpers.HashPassword(req.NewPassword)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "password change failed", nil)
		return
	}
	_, err = h.Bus.Handle(c.Request.Context(), domain.ChangePassword{UserID: userID, NewPasswordHash: newHash})
	if err != nil {
		response.Error(c, statusFor(err), err.Error(), nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user_id": userID}, "password changed")
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)
	_, err := h.Bus.Handle(c.Request.Context(), domain.DeleteAccount{UserID: userID})
	if err != nil {
		response.Error(c, statusFor(err), err.Error(), nil)
		return
	}
	if err := helpers.DropSession(c.Request.Context(), h.Redis, userID); err != nil {
		h.Logger.WithError(err).WithField("user_id", userID).Warn("session drop failed")
	}
	response.Success(c, http.StatusOK, gin.H{"deleted_user_id": userID}, "account deleted")
}

// SearchUsers queries the Elasticsearch index.
func (h *UserHandler) SearchUsers(c *gin.Context) {
	if h.Search == nil {
		response.Error(c, http.StatusServiceUnavailable, "search not configured", nil)
		return
	}
	q := c.Query("q")
	if q == "" {
		response.Error(c, http.StatusBadRequest, "missing query", nil)
		return
	}
	hits, err := h.Search.SearchUsers(c.Request.Context(), q, 10)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "users")
}
