package handlers

import (
	"net/http"
	"time"

	"sayit/internal/middleware"
	"sayit/internal/models"
	"sayit/pkg/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers is every HTTP handler the API mounts.
type Handlers struct {
	Auth          *AuthHandler
	Complaints    *ComplaintHandler
	Notifications *NotificationHandler
	Directory     *DirectoryHandler
	Users         *UserHandler
	Files         *FileHandler
	Feedback      *FeedbackHandler
	Health        *HealthHandler
	WebSocket     *WebSocketHandler
}

type RouterConfig struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	JWT            *auth.JWTManager
	Log            logrus.FieldLogger
}

func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(cfg.Log))
	router.Use(middleware.Recovery(cfg.Log))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimiter != nil {
		router.Use(cfg.RateLimiter.RateLimit())
	}
	router.Use(middleware.SecurityHeaders())
	if cfg.MaxBodyBytes > 0 {
		router.Use(middleware.RequestSizeLimit(cfg.MaxBodyBytes))
	}

	health := router.Group("/health")
	{
		health.GET("", h.Health.Health)
		health.GET("/detailed", h.Health.Detailed)
		health.GET("/liveness", h.Health.Liveness)
		health.GET("/readiness", h.Health.Readiness)
	}

	requireAuth := middleware.AuthMiddleware(cfg.JWT)
	optionalAuth := middleware.OptionalAuth(cfg.JWT)
	agentOnly := middleware.RequireRole(models.RoleAgent)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	staffDesk := middleware.RequireAnyRole(models.RoleStaff, models.RoleAdmin)

	api := router.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", h.Auth.Register)
		authRoutes.POST("/login", h.Auth.Login)
		authRoutes.POST("/agent/login", h.Auth.AgentLogin)
		authRoutes.POST("/staff/login", h.Auth.StaffLogin)
		authRoutes.POST("/admin/login", h.Auth.AdminLogin)
		authRoutes.POST("/anonymous", h.Auth.CreateAnonymous)
		authRoutes.POST("/anonymous/login", h.Auth.LoginAnonymous)
		authRoutes.GET("/me", requireAuth, h.Auth.Me)
	}

	// public
	api.GET("/complaints/track/:trackingId", h.Complaints.Track)
	api.POST("/external/complaints", h.Complaints.CreateExternal)
	api.GET("/categories", optionalAuth, h.Directory.ListCategories)
	api.GET("/agencies", h.Directory.ListAgencies)
	api.GET("/agencies/:id", h.Directory.GetAgency)
	api.POST("/contact", h.Feedback.SubmitContact)
	api.POST("/feedback", optionalAuth, h.Feedback.SubmitFeedback)

	complaints := api.Group("/complaints", requireAuth)
	{
		complaints.POST("", h.Complaints.Create)
		complaints.GET("", h.Complaints.List)
		complaints.GET("/mine", h.Complaints.List)
		complaints.GET("/:id", h.Complaints.Get)
		complaints.PUT("/:id", h.Complaints.Update)
		complaints.POST("/:id/responses", h.Complaints.AddResponse)
		complaints.POST("/:id/attachments", h.Complaints.AddAttachments)
	}

	api.POST("/files/upload", requireAuth, h.Files.Upload)

	// the socket authenticates itself from the query string
	api.GET("/notifications/ws", h.WebSocket.HandleWebSocket)
	notifications := api.Group("/notifications", requireAuth)
	mountNotifications(notifications, h.Notifications)

	agent := api.Group("/agent", requireAuth, agentOnly)
	{
		agent.GET("/dashboard/stats", h.Complaints.DashboardStats)
		agent.GET("/complaints", h.Complaints.List)
		mountNotifications(agent.Group("/notifications"), h.Notifications)
	}

	api.GET("/contact", requireAuth, staffDesk, h.Feedback.ListContacts)
	api.GET("/feedback", requireAuth, staffDesk, h.Feedback.ListFeedback)

	admin := api.Group("/admin", requireAuth, adminOnly)
	{
		admin.GET("/complaints/unassigned", h.Complaints.Unassigned)
		admin.POST("/notifications/system", h.Notifications.SendSystemMessage)

		admin.POST("/categories", h.Directory.CreateCategory)
		admin.PUT("/categories/:id", h.Directory.UpdateCategory)
		admin.DELETE("/categories/:id", h.Directory.DeleteCategory)
		admin.POST("/agencies", h.Directory.CreateAgency)
		admin.PUT("/agencies/:id", h.Directory.UpdateAgency)

		admin.GET("/users", h.Users.List)
		admin.POST("/users", h.Users.CreateStaff)
		admin.PUT("/users/:id/active", h.Users.SetActive)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, Response{Message: "Endpoint not found"})
	})

	return router
}

func mountNotifications(g *gin.RouterGroup, h *NotificationHandler) {
	g.GET("", h.Unread)
	g.GET("/unread-count", h.UnreadCount)
	g.PUT("/read-all", h.MarkAllRead)
	g.PUT("/:id/read", h.MarkRead)
	g.DELETE("/purge", h.Purge)
}
