package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hostel-backend/internal/mw"
)

// RouterConfig tunes the middleware in front of the API.
type RouterConfig struct {
	RateLimit    rate.Limit
	RateBurst    int
	PrincipalTTL time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger())

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = rate.Limit(10)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 5
	}
	if cfg.PrincipalTTL <= 0 {
		cfg.PrincipalTTL = 30 * time.Second
	}
	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(cfg.RateLimit, cfg.RateBurst, 10*time.Minute))
	authenticate := mw.Authenticate(h.tokens, h.svc.Identity, mw.NewPrincipalCache(cfg.PrincipalTTL))

	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
	}

	authed := api.Group("")
	authed.Use(authenticate)
	{
		authed.GET("/me", h.Me)

		authed.GET("/rooms", h.ListRooms)
		authed.POST("/rooms", h.CreateRoom)
		authed.DELETE("/rooms/:id", h.DeleteRoom)
		authed.GET("/beds", h.ListBeds)
		authed.POST("/beds/:id/toggle", h.ToggleBed)

		authed.GET("/students", h.ListStudents)
		authed.GET("/students/:id", h.GetStudent)
		authed.POST("/students/:id/assign", h.AssignBed)
		authed.POST("/students/:id/unassign", h.UnassignBed)
		authed.PATCH("/students/:id/active", h.SetStudentActive)

		authed.GET("/complaints", h.ListComplaints)
		authed.POST("/complaints", h.FileComplaint)
		authed.PATCH("/complaints/:id/status", h.SetComplaintStatus)
		authed.POST("/complaints/:id/response", h.RespondToComplaint)

		authed.GET("/notices", h.ListNotices)
		authed.POST("/notices", h.PostNotice)
		authed.DELETE("/notices/:id", h.DeleteNotice)

		authed.GET("/rent", h.ListRent)
		authed.POST("/rent", h.CreateRent)
		authed.GET("/rent/summary", h.RentSummary)
		authed.GET("/rent/student/:id", h.StudentRent)
		authed.POST("/rent/:id/paid", h.MarkRentPaid)
		authed.POST("/rent/:id/overdue", h.MarkRentOverdue)
		authed.POST("/rent/:id/undo", h.UndoRent)

		authed.GET("/dashboard", h.Dashboard)
		authed.GET("/dashboard/stream", h.DashboardStream)
		authed.GET("/changes", h.Changes)

		authed.GET("/admin/consistency", h.CheckConsistency)
		authed.POST("/admin/reconcile", h.Reconcile)
	}

	return r
}

