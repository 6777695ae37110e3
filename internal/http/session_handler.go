package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studyflow/internal/domain"
	"studyflow/internal/service"
)

// SessionHandler exposes study-session CRUD and statistics. Ownership always
// comes from the authenticated identity.
type SessionHandler struct {
	logger     *zap.Logger
	sessionSvc *service.SessionService
}

func NewSessionHandler(logger *zap.Logger, sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{logger: logger, sessionSvc: sessionSvc}
}

type sessionRequest struct {
	Subject              string    `json:"subject"`
	StartTime            time.Time `json:"start_time" binding:"required"`
	EndTime              time.Time `json:"end_time" binding:"required"`
	DurationMinutes      int       `json:"duration_minutes"`
	Quality              *int      `json:"quality"`
	PercentageCompletion *int      `json:"percentage_completion"`
	Notes                string    `json:"notes"`
}

func (r sessionRequest) toDomain() domain.StudySession {
	return domain.StudySession{
		Subject:              r.Subject,
		StartTime:            r.StartTime,
		EndTime:              r.EndTime,
		DurationMinutes:      r.DurationMinutes,
		Quality:              r.Quality,
		PercentageCompletion: r.PercentageCompletion,
		Notes:                r.Notes,
	}
}

// ListSessions handles GET /api/sessions.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	sessions, err := h.sessionSvc.List(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions"})
		return
	}
	if sessions == nil {
		sessions = []domain.StudySession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CreateSession handles POST /api/sessions.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.sessionSvc.Create(c.Request.Context(), user.ID, req.toDomain())
	if err != nil {
		if errors.Is(err, service.ErrInvalidSession) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session data"})
			return
		}
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// UpdateSession handles PUT /api/sessions/:id.
func (h *SessionHandler) UpdateSession(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := h.sessionSvc.Update(c.Request.Context(), user.ID, sessionID, req.toDomain())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		case errors.Is(err, service.ErrInvalidSession):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session data"})
		default:
			h.logger.Error("update session failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update session"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// DeleteSession handles DELETE /api/sessions/:id.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	sessionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	if err := h.sessionSvc.Delete(c.Request.Context(), user.ID, sessionID); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		h.logger.Error("delete session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}

// DashboardStats handles GET /api/stats/dashboard.
func (h *SessionHandler) DashboardStats(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	stats, err := h.sessionSvc.DashboardStats(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("dashboard stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// HistoryStats handles GET /api/stats/history.
func (h *SessionHandler) HistoryStats(c *gin.Context) {
	user, ok := GetAuthUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	stats, err := h.sessionSvc.HistoryStats(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("history stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
