package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with all workflow routes registered.
func NewRouter(handler *Handler, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "quoteflow",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	{
		quotes := api.Group("/quotes")
		{
			quotes.POST("", handler.CreateQuote)
			quotes.GET("", handler.ListQuotes)
			quotes.GET("/:id", handler.GetQuote)
			quotes.POST("/:id/submit", handler.SubmitQuote)
			quotes.POST("/:id/approve", handler.ApproveQuote)
			quotes.POST("/:id/reject", handler.RejectQuote)
			quotes.POST("/:id/accept", handler.AcceptQuote)
			quotes.POST("/:id/decline", handler.DeclineQuote)
		}

		contracts := api.Group("/contracts")
		{
			contracts.POST("", handler.CreateContract)
			contracts.GET("/:id", handler.GetContract)
			contracts.POST("/:id/checkpoints", handler.AddCheckpoint)
			contracts.POST("/:id/checkpoints/:checkpointId/decide", handler.DecideCheckpoint)
			contracts.POST("/:id/signature-requests", handler.RequestSignature)
		}

		quotations := api.Group("/quotations")
		{
			quotations.POST("", handler.CreateQuotation)
			quotations.GET("/:id", handler.GetQuotation)
			quotations.PUT("/:id/status", handler.UpdateQuotationStatus)
			quotations.GET("/:id/status", handler.GetQuotationStatus)
			quotations.POST("/:id/share-links", handler.CreateShareLink)
			quotations.GET("/:id/responses", handler.ListCustomerResponses)
			quotations.POST("/:id/versions", handler.CreateQuoteVersion)
			quotations.GET("/:id/versions", handler.ListQuoteVersions)
		}

		api.GET("/audit/:entityType/:entityId", handler.AuditTrail)
	}

	// Customer-facing routes: the share token is the only credential.
	public := router.Group("/public")
	{
		public.GET("/quotes/:token", handler.GetSharedQuote)
		public.POST("/quotes/:token/responses", handler.SubmitQuoteResponse)
	}

	return router
}
