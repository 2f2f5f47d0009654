package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/config"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/http/middleware"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/interface/http/handler"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/metrics"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/service"
)

// Handlers — набор обработчиков, которые подключает роутер. WS может быть nil.
type Handlers struct {
	Health       *handler.HealthHandler
	Projects     *handler.ProjectHandler
	Orders       *handler.OrderHandler
	Payments     *handler.PaymentHandler
	Admin        *handler.AdminHandler
	Notification *handler.NotificationHandler
	WS           *handler.WSHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.ErrorHandler())

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")

	// Платёжные маршруты ограничены по частоте запросов.
	paymentRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	// Колбэки шлюзов приходят пачками с немногих IP, лимит для них выше.
	callbackRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit*10, cfg.RateLimitPeriod)

	if h.WS != nil {
		api.GET("/ws", h.WS.Handle)
	}

	public := api.Group("/payments")
	public.Use(callbackRateLimit)
	{
		public.GET("/khalti/return", h.Payments.KhaltiReturn)
		public.POST("/stripe/webhook", h.Payments.StripeWebhook)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.POST("/projects", h.Projects.CreateProject)
		protected.GET("/projects/:id", middleware.UUIDValidator("id"), h.Projects.GetProject)
		protected.POST("/projects/:id/cancel", middleware.UUIDValidator("id"), h.Projects.CancelProject)
		protected.POST("/projects/:id/bids", middleware.UUIDValidator("id"), h.Projects.SubmitBid)
		protected.GET("/projects/:id/bids", middleware.UUIDValidator("id"), h.Projects.ListBids)

		protected.POST("/bids/:bidId/withdraw", middleware.UUIDValidator("bidId"), h.Projects.WithdrawBid)
		protected.POST("/bids/:bidId/award", middleware.UUIDValidator("bidId"), h.Projects.AwardBid)

		protected.POST("/orders", h.Orders.CreateOrder)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), h.Orders.GetOrder)
		protected.DELETE("/orders/:id", middleware.UUIDValidator("id"), h.Orders.DeleteOrder)
		protected.PUT("/orders/:id/work-status", middleware.UUIDValidator("id"), h.Orders.UpdateWorkStatus)
		protected.GET("/orders/:id/escrow", middleware.UUIDValidator("id"), h.Orders.GetEscrow)
		protected.POST("/orders/:id/checkout", middleware.UUIDValidator("id"), paymentRateLimit, h.Payments.Checkout)

		protected.POST("/payments/verify", paymentRateLimit, h.Payments.Verify)

		protected.GET("/notifications", h.Notification.List)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(valueobject.RoleAdmin))
	{
		admin.GET("/escrows/releasable", h.Admin.ListReleasable)
		admin.POST("/escrows/:escrowId/release", middleware.UUIDValidator("escrowId"), h.Admin.Release)
		admin.GET("/payments/refund-due", h.Admin.ListRefundDue)
	}

	return r
}
