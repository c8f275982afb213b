// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/salesreport/internal/api/handlers"
	"github.com/andresuchdata/salesreport/internal/api/middleware"
	"github.com/andresuchdata/salesreport/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	ReportService *service.ReportService
}

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	AllowedOrigins []string
	MaxUploadMB    int
}

func NewRouter(services *Services, opts RouterOptions) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if opts.MaxUploadMB > 0 {
		router.MaxMultipartMemory = int64(opts.MaxUploadMB) << 20
	}

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
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

	if services != nil && services.ReportService != nil {
		reportHandler := handlers.NewReportHandler(services.ReportService)
		reportGroup := apiGroup.Group("/reports")
		{
			reportGroup.POST("/upload", reportHandler.Upload)
			reportGroup.POST("/refresh", reportHandler.Refresh)
			reportGroup.GET("/objects", reportHandler.ListObjects)
			reportGroup.POST("/ingest/object", reportHandler.IngestObject)
			reportGroup.GET("/drive/files", reportHandler.ListDriveFiles)
			reportGroup.POST("/ingest/drive", reportHandler.IngestDrive)
			reportGroup.DELETE("", reportHandler.Reset)

			reportGroup.GET("/summary", reportHandler.GetSummary)
			reportGroup.GET("/date-range", reportHandler.GetDateRange)
			reportGroup.GET("/customers", reportHandler.GetCustomers)
			reportGroup.GET("/products", reportHandler.GetProducts)
			reportGroup.GET("/promotions", reportHandler.GetPromotions)
			reportGroup.GET("/branches", reportHandler.GetBranches)
			reportGroup.GET("/branches/daily", reportHandler.GetDaily)
			reportGroup.GET("/stockiest-branches", reportHandler.GetStockiestBranches)
			reportGroup.GET("/purchase-types", reportHandler.GetPurchaseTypes)
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
