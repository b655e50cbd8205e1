package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/farmastock/internal/api/handlers"
	"github.com/andresuchdata/farmastock/internal/api/middleware"
	"github.com/andresuchdata/farmastock/internal/domain"
	"github.com/andresuchdata/farmastock/internal/service"
)

type Services struct {
	AnalysisService *service.AnalysisService
}

// Options carries the HTTP-facing settings of the router.
type Options struct {
	AllowedOrigins []string
	MaxUploadMB    int64
	Defaults       domain.AnalysisConfig
}

func NewRouter(services *Services, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(opts.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(opts.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.AnalysisService != nil {
		analysisHandler := handlers.NewAnalysisHandler(services.AnalysisService, opts.Defaults)
		apiGroup.GET("/families", analysisHandler.GetFamilies)

		analysisGroup := apiGroup.Group("/analysis", middleware.BodyLimit(opts.MaxUploadMB<<20))
		{
			analysisGroup.POST("", analysisHandler.Analyze)
			analysisGroup.POST("/summary", analysisHandler.GetSummary)
			analysisGroup.POST("/lists", analysisHandler.GetList)
			analysisGroup.POST("/export", analysisHandler.Export)
			analysisGroup.DELETE("/cache", analysisHandler.ClearCache)
		}

		exportsGroup := apiGroup.Group("/exports")
		{
			exportsGroup.GET("", analysisHandler.ListExports)
			exportsGroup.GET("/*key", analysisHandler.DownloadExport)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
