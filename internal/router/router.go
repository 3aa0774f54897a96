package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/config"
	"github.com/literexia/assignment-engine/internal/handler"
	"github.com/literexia/assignment-engine/internal/middleware"
	"github.com/literexia/assignment-engine/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Catalog  *handler.CatalogHandler
	Content  *handler.ContentHandler
	Workflow *handler.WorkflowHandler
	History  *handler.HistoryHandler
	Health   *handler.HealthHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// commitLimiter may be nil to disable rate limiting on commit.
func SetupRouter(
	handlers *Handlers,
	commitLimiter *middleware.RateLimiter,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	// Health check.
	health := handlers.Health
	if health == nil {
		health = handler.NewHealthHandler(string(cfg.DataSource), nil)
	}
	router.GET("/health", health.Health)

	api := router.Group("/api/v1")

	// ─── 1. Catalog & Content (read-only, cacheable) ───────────────────
	lookups := api.Group("")
	lookups.Use(middleware.CacheControl(60))
	if handlers.Catalog != nil {
		lookups.GET("/catalog/categories", handlers.Catalog.ListCategories)
		lookups.GET("/catalog/assessments", handlers.Catalog.ListAssessments)
	}
	if handlers.Content != nil {
		lookups.GET("/content", handlers.Content.ListAll)
		lookups.GET("/content/resolve", handlers.Content.Resolve)
		lookups.GET("/content/:kind", handlers.Content.ListContent)
	}

	// ─── 2. Workflows ──────────────────────────────────────────────────
	if handlers.Workflow != nil {
		wf := api.Group("/workflows")
		wf.Use(middleware.NoStore())
		{
			wf.POST("", handlers.Workflow.Create)
			wf.GET("/:id", handlers.Workflow.Get)
			wf.DELETE("/:id", handlers.Workflow.Delete)
			wf.GET("/:id/catalog", handlers.Workflow.Catalog)
			wf.GET("/:id/payload", handlers.Workflow.Payload)

			wf.PUT("/:id/tier", handlers.Workflow.SetReadingLevel)
			wf.POST("/:id/categories/:category_id/toggle", handlers.Workflow.ToggleCategory)

			wf.POST("/:id/advance", handlers.Workflow.Advance)
			wf.POST("/:id/review", handlers.Workflow.Review)
			wf.POST("/:id/back", handlers.Workflow.Back)
			wf.POST("/:id/restart", handlers.Workflow.Restart)

			commit := []gin.HandlerFunc{handlers.Workflow.Commit}
			if commitLimiter != nil {
				commit = append([]gin.HandlerFunc{commitLimiter.Middleware()}, commit...)
			}
			wf.POST("/:id/commit", commit...)

			wf.POST("/:id/questions/toggle", handlers.Workflow.ToggleQuestion)
			wf.POST("/:id/questions", handlers.Workflow.InjectQuestion)
			wf.PUT("/:id/overrides", handlers.Workflow.SetOverride)
			wf.POST("/:id/overrides/randomize", handlers.Workflow.RandomizeOverride)
		}
	}

	// ─── 3. Commit history ─────────────────────────────────────────────
	if handlers.History != nil {
		api.GET("/students/:student_id/commits", middleware.NoStore(), handlers.History.ListCommits)
	}

	// ─── 4. WebSocket ──────────────────────────────────────────────────
	if handlers.WS != nil {
		router.GET("/ws/v1/workflows/:id/events", handlers.WS.WorkflowEvents)
	}

	return router
}
