package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"wallet_core/pkg/middleware"
	"wallet_core/pkg/service"
)

type Config struct {
	AllowOrigins []string
	SessionToken string
}

type Handler struct {
	service *service.Service
	cfg     Config
}

func NewHandler(service *service.Service, cfg Config) *Handler {
	return &Handler{
		service: service,
		cfg:     cfg,
	}
}

func (h *Handler) InitRoute() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.SessionHeader},
		ExposeHeaders: []string{"Content-Length"},
	}
	if allowsAnyOrigin(h.cfg.AllowOrigins) {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = h.cfg.AllowOrigins
		corsCfg.AllowCredentials = true
	}
	router.Use(cors.New(corsCfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		wallet := api.Group("/wallet", middleware.SessionMiddleware(h.cfg.SessionToken))
		{
			wallet.GET("/balance", h.GetBalance)
			wallet.GET("/portfolio", h.GetPortfolio)
			wallet.GET("/receive/:currency", h.GetReceiveInfo)
			wallet.GET("/quick-amounts/:currency", h.GetQuickAmounts)
			wallet.POST("/send/summary", h.SendSummary)
			wallet.POST("/send", h.Send)
			wallet.POST("/deposit", h.Deposit)
			wallet.POST("/capture", h.Capture)

			transactions := wallet.Group("/transactions")
			{
				transactions.GET("", h.GetTransactions)
				transactions.GET("/:id", h.GetTransaction)
				transactions.POST("/:id/confirm", h.Confirm)
				transactions.POST("/:id/settle", h.Settle)
				transactions.POST("/:id/fail", h.Fail)
				transactions.POST("/:id/retry", h.Retry)
			}
		}
	}
	return router
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return len(origins) == 0
}
