package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studyflow/internal/service"
)

// ProfileHandler exposes the authenticated user's profile.
type ProfileHandler struct {
	logger  *zap.Logger
	userSvc *service.UserService
}

func NewProfileHandler(logger *zap.Logger, userSvc *service.UserService) *ProfileHandler {
	return &ProfileHandler{logger: logger, userSvc: userSvc}
}

// GetProfile handles GET /api/profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfile handles PUT /api/profile.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Username  *string    `json:"username"`
		Email     *string    `json:"email" binding:"omitempty,email"`
		Gender    *string    `json:"gender"`
		Birthdate *time.Time `json:"birthdate"`
		UserClass *string    `json:"user_class"`
		StudyGoal *string    `json:"study_goal"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid profile update request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	updated, err := h.userSvc.UpdateProfile(c.Request.Context(), user.ID, service.UpdateProfileInput{
		Username:  req.Username,
		Email:     req.Email,
		Gender:    req.Gender,
		Birthdate: req.Birthdate,
		UserClass: req.UserClass,
		StudyGoal: req.StudyGoal,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		case errors.Is(err, service.ErrDuplicateUsername):
			c.JSON(http.StatusBadRequest, gin.H{"error": "username already taken"})
		case errors.Is(err, service.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			h.logger.Error("update profile failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update profile"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": updated})
}
