package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"wastemarket/mobile/internal/config"
	"wastemarket/mobile/internal/marketplace"
	"wastemarket/mobile/internal/middleware"
	"wastemarket/mobile/internal/models"
	"wastemarket/mobile/internal/repository"
	"wastemarket/mobile/internal/storage"
)

// Deps are the backing stores a HandlerSet runs on. DB and Cache are
// optional and only reported by the health check.
type Deps struct {
	Store   repository.Store
	Objects storage.Store
	DB      *pgxpool.Pool
	Cache   *redis.Client
}

type HandlerSet struct {
	log     zerolog.Logger
	cfg     *config.AppConfig
	auth    *marketplace.AuthService
	catalog *marketplace.CatalogService
	orders  *marketplace.OrderService
	uploads *marketplace.UploadService
	db      *pgxpool.Pool
	cache   *redis.Client
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Deps) HandlerSet {
	return HandlerSet{
		log:     log,
		cfg:     cfg,
		auth:    marketplace.NewAuthService(deps.Store, cfg.Backend.Security, log),
		catalog: marketplace.NewCatalogService(deps.Store, log),
		orders:  marketplace.NewOrderService(deps.Store, log),
		uploads: marketplace.NewUploadService(deps.Objects, log),
		db:      deps.DB,
		cache:   deps.Cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	requireUser := middleware.Auth(h.auth, h.cfg.Backend.Security.CookieName)

	router.GET("/health", h.Health)

	auth := router.Group("/auth")
	auth.POST("/register", h.RegisterUser)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)

	users := router.Group("/users", requireUser)
	users.GET("/profile", h.Profile)
	users.PUT("/profile", h.UpdateProfile)
	users.PUT("/change-password", h.ChangePassword)
	users.GET("/my-listings", h.MyListings)

	router.GET("/products", h.ListProducts)
	router.GET("/products/:id", h.GetProduct)
	router.POST("/products", requireUser, h.CreateProduct)
	router.PUT("/products/:id", requireUser, h.UpdateProduct)
	router.DELETE("/products/:id", requireUser, h.DeleteProduct)

	router.GET("/categories", h.Categories)

	orders := router.Group("/orders", requireUser)
	orders.POST("", h.CreateOrder)
	orders.GET("/history", h.OrderHistory)
	orders.GET("/:id", h.OrderDetails)
	orders.PUT("/:id/status", h.UpdateOrderStatus)
	orders.PUT("/:id/cancel", h.CancelOrder)

	router.POST("/upload/image", requireUser, h.UploadImage)
	router.GET("/media/*key", h.ServeMedia)
}

// NotFound answers unmatched routes with the API's error envelope.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{Success: false, Message: "Route not found"})
}

// fail writes err as {success:false, message, errors?}. Errors the
// marketplace did not classify are logged and reported as 500.
func (h HandlerSet) fail(c *gin.Context, err error) {
	if apiErr, ok := marketplace.AsError(err); ok {
		c.JSON(apiErr.Status, models.ErrorResponse{
			Success: false,
			Message: apiErr.Message,
			Errors:  apiErr.Errors,
		})
		return
	}

	h.log.Error().
		Err(err).
		Str("path", c.Request.URL.Path).
		Str("request_id", c.Writer.Header().Get("X-Request-Id")).
		Msg("request failed")
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{Success: false, Message: "Internal server error"})
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Success: false, Message: "Invalid request body"})
}

func currentUser(c *gin.Context) models.Account {
	account, _ := middleware.CurrentUser(c)
	return account
}
