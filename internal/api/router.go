package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pulcova-api/internal/config"
	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/service"
	"github.com/pulcova-api/internal/validation"
	"github.com/pulcova-api/pkg/logger"
	"github.com/rs/zerolog"
)

// catalogRoutes maps public path segments onto content kinds
var catalogRoutes = map[string]models.Kind{
	"blog":      models.KindArticle,
	"portfolio": models.KindProject,
	"solutions": models.KindSolution,
	"services":  models.KindService,
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Binding errors report JSON field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.UseJSONFieldNames(v)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.CORSAllowedOrigins))

	// Handlers
	catalogHandler := NewCatalogHandler(services.Catalog, log)
	engagementHandler := NewEngagementHandler(services.Engagement, log)

	// Health check
	router.GET("/health", healthCheck(services))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/v1")
	{
		// Catalog endpoints
		for segment, kind := range catalogRoutes {
			group := v1.Group("/" + segment)
			group.GET("", catalogHandler.List(kind))
			group.GET("/:slug", catalogHandler.Detail(kind))
		}

		// Engagement endpoints
		forms := v1.Group("")
		forms.Use(rateLimitMiddleware(cfg.RateLimit, log))
		{
			forms.POST("/chatbot/lead", engagementHandler.CaptureLead)
			forms.POST("/chatbot/conversation", engagementHandler.SaveConversation)
			forms.POST("/newsletter/subscribe", engagementHandler.Subscribe)
			forms.POST("/newsletter/unsubscribe", engagementHandler.Unsubscribe)
			forms.POST("/contact", engagementHandler.SubmitContact)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

// healthCheck returns the health status with the visible catalog size
func healthCheck(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
		}
		if counts, err := services.Catalog.VisibleCounts(c.Request.Context()); err == nil {
			content := gin.H{}
			for kind, n := range counts {
				content[string(kind)] = n
			}
			body["content"] = content
		}
		c.JSON(http.StatusOK, body)
	}
}
