package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"studyflow/internal/repository"
	"studyflow/internal/service"
)

// NewRouter wires middlewares and routes.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	users repository.UserRepository,
	authH *AuthHandler,
	profileH *ProfileHandler,
	sessionH *SessionHandler,
) *gin.Engine {
	r := gin.New()

	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/verify-email", authH.VerifyEmail)
	auth.POST("/resend-verification", authH.ResendVerification)
	auth.POST("/forgot-password", authH.ForgotPassword)
	auth.POST("/reset-password", authH.ResetPassword)

	protected := api.Group("")
	protected.Use(AuthMiddleware(jwtSvc, users))
	protected.GET("/profile", profileH.GetProfile)
	protected.PUT("/profile", profileH.UpdateProfile)
	protected.GET("/sessions", sessionH.ListSessions)
	protected.POST("/sessions", sessionH.CreateSession)
	protected.PUT("/sessions/:id", sessionH.UpdateSession)
	protected.DELETE("/sessions/:id", sessionH.DeleteSession)
	protected.GET("/stats/dashboard", sessionH.DashboardStats)
	protected.GET("/stats/history", sessionH.HistoryStats)

	return r
}

// zapLoggerMiddleware logs each request with zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware forces Content-Type: application/json on responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
