package handler

import (
	"net/http"
	"time"

	"expenses/internal/log"
	"expenses/internal/middleware"
	"expenses/internal/service"
	"expenses/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Claims    service.ClaimService
	Receipts  service.ReceiptService
	Listing   service.ListingService
	Accounts  service.AccountService
	Users     service.UserService
	Export    service.ExportService
	Audit     service.AuditService
	Reference service.ReferenceDataService
}

type RouterConfig struct {
	JWTSecret      []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
}

// NewRouter wires middleware and every handler. hub may be nil, in which
// case /ws is not served.
func NewRouter(cfg RouterConfig, svc Services, hub *websocket.Hub, logger *log.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "Location"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	if hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			websocket.ServeWs(hub, c, cfg.JWTSecret)
		})
	}

	public := router.Group("/api")
	authed := router.Group("/api", middleware.RequireAuth(cfg.JWTSecret))

	NewUserHandler(svc.Users, cfg.TokenTTL).RegisterRoutes(public, authed)
	NewAccountHandler(svc.Accounts, svc.Reference).RegisterRoutes(authed)
	NewClaimHandler(svc.Claims, svc.Receipts, svc.Export).RegisterRoutes(authed)
	NewReceiptHandler(svc.Receipts).RegisterRoutes(authed)
	NewListingHandler(svc.Listing).RegisterRoutes(authed)
	NewAuditHandler(svc.Audit).RegisterRoutes(authed)

	return router
}
