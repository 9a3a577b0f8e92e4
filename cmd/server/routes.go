package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"recovery-kita.backend/internal/interfaces/http/handlers"
	"recovery-kita.backend/internal/interfaces/http/middleware"
)

const (
	webhookRateLimit  = 5
	webhookRateWindow = time.Minute
)

type routeDeps struct {
	dashboardHandler *handlers.DashboardHandler
	taskHandler      *handlers.TaskHandler
	merchantHandler  *handlers.MerchantHandler
	templateHandler  *handlers.TemplateHandler
	webhookHandler   *handlers.WebhookHandler
	workerHandler    *handlers.WorkerHandler
	connectHandler   *handlers.ConnectHandler
	trackingHandler  *handlers.TrackingHandler
	adminHandler     *handlers.AdminHandler
	authMiddleware   gin.HandlerFunc
	workerSecret     string
	adminKey         string
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	// Webhook ingress: signature-authenticated, rate-limited per IP.
	r.POST("/webhooks/stripe",
		middleware.RateLimitMiddleware("webhook", webhookRateLimit, webhookRateWindow),
		d.webhookHandler.HandlePaymentProviderWebhook)

	// Tracking endpoints: pixel is open, click is HMAC-gated internally.
	r.GET("/track/open/:logId", d.trackingHandler.TrackOpen)
	r.GET("/track/click", d.trackingHandler.TrackClick)

	// Merchant surface (auth + auto-provisioning).
	authed := r.Group("/")
	authed.Use(d.authMiddleware)
	{
		authed.GET("/dashboard", d.dashboardHandler.GetDashboard)
		authed.GET("/activity", d.dashboardHandler.GetActivity)

		authed.POST("/tasks", d.taskHandler.CreateTask)
		authed.GET("/tasks", d.taskHandler.ListTasks)
		authed.DELETE("/tasks/completed", d.taskHandler.DeleteCompleted)
		authed.GET("/tasks/:id", d.taskHandler.GetTask)
		authed.POST("/tasks/:id/retry", d.taskHandler.RetryTask)
		authed.DELETE("/tasks/:id", d.taskHandler.DeleteTask)

		authed.PATCH("/merchants/:id", d.merchantHandler.UpdateMerchant)
		authed.POST("/email-templates", d.templateHandler.SaveTemplate)

		authed.POST("/stripe/connect/authorize", d.connectHandler.Authorize)
		authed.GET("/stripe/connect/callback", d.connectHandler.Callback)
		authed.POST("/stripe/disconnect", d.connectHandler.Disconnect)
	}

	// Out-of-process worker surface.
	worker := r.Group("/worker")
	worker.Use(middleware.WorkerSecretMiddleware(d.workerSecret))
	{
		worker.POST("/claim", d.workerHandler.ClaimTask)
		worker.POST("/complete/:id", d.workerHandler.CompleteTask)
	}

	// Operator surface.
	admin := r.Group("/admin")
	admin.Use(middleware.AdminKeyMiddleware(d.adminKey))
	{
		admin.DELETE("/merchants/:id", d.adminHandler.EraseMerchant)
	}
}
