package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/resumerank/internal/api/handlers"
	"github.com/yoockh/resumerank/internal/api/middleware"
	"github.com/yoockh/resumerank/internal/token"
)

type Deps struct {
	Tokens *token.Manager
	Roles  middleware.RoleLookup

	Auth   *handlers.AuthHandler
	Guest  *handlers.GuestHandler
	Job    *handlers.JobHandler
	Resume *handlers.ResumeHandler
	WS     *handlers.WSHandler // nil without Redis

	AsyncAnalysis bool // Redis stream workers are running
	AnalysisLog   bool // Mongo archive is configured
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	requireAuth := middleware.Auth(d.Tokens)

	r.POST("/auth/signup", d.Auth.Signup)
	r.POST("/auth/login", d.Auth.Login)
	r.POST("/auth/refresh", d.Auth.Refresh)
	r.GET("/auth/me", requireAuth, d.Auth.Me)
	r.PUT("/auth/me", requireAuth, d.Auth.UpdateMe)

	r.POST("/guest-session", d.Guest.Create)
	r.GET("/guest-session/:token", d.Guest.Get)
	r.PUT("/guest-session/:token", d.Guest.Update)
	r.POST("/guest-session/:token/migrate", requireAuth, d.Guest.Migrate)

	// Protected routes
	auth := r.Group("/")
	auth.Use(requireAuth)

	auth.POST("/create-job", d.Job.Create)
	auth.GET("/jobs", d.Job.List)
	auth.DELETE("/delete-job", d.Job.Delete)

	auth.POST("/upload", d.Resume.Upload)
	auth.POST("/analyze-batch", d.Resume.Analyze)
	auth.GET("/rankings", d.Resume.Rankings)
	auth.GET("/export-csv", d.Resume.ExportCSV)

	if d.AsyncAnalysis {
		auth.POST("/analyze-batch/async", d.Resume.AnalyzeAsync)
	}
	if d.AnalysisLog {
		auth.GET("/analysis-log", d.Resume.AnalysisLog)
	}

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin(d.Roles))
	admin.GET("/jobs", d.Job.ListAll)

	// WebSocket
	if d.WS != nil {
		auth.GET("/ws/jobs/:job_id", d.WS.JobProgress)
	}
}
