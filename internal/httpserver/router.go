package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"cryptomart/internal/domain"
	"cryptomart/internal/metrics"
	"cryptomart/internal/pricing"
	authsvc "cryptomart/internal/service/auth"
	productsvc "cryptomart/internal/service/product"
	salesvc "cryptomart/internal/service/sale"
)

type AuthService interface {
	Register(ctx context.Context, in authsvc.Credentials) (string, error)
	Login(ctx context.Context, username, password string) (string, domain.Role, error)
	CreateAdmin(ctx context.Context, in authsvc.Credentials) (*domain.User, error)
	Authenticate(ctx context.Context, token string) (authsvc.Claims, error)
	Logout(ctx context.Context, sessionID string) error
}

type ProductService interface {
	Create(ctx context.Context, ownerID string, in productsvc.CreateInput) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Count(ctx context.Context) (int, error)
	TotalSales(ctx context.Context) (pricing.Money, error)
}

type SaleService interface {
	Quote(ctx context.Context, lines []salesvc.LineInput) (*domain.Cart, error)
	Record(ctx context.Context, sellerID string, customer domain.Customer, lines []salesvc.LineInput) (*domain.Sale, error)
	Get(ctx context.Context, id, viewerID string, admin bool) (*domain.Sale, error)
}

type UserService interface {
	Count(ctx context.Context) (int, error)
}

// Deps carries the services the handlers call.
type Deps struct {
	AuthSvc     AuthService
	ProductSvc  ProductService
	SaleSvc     SaleService
	UserSvc     UserService
	CORSOrigins []string
	ServiceName string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db pinger, deps Deps) (*gin.Engine, error) {
	if deps.AuthSvc == nil || deps.ProductSvc == nil || deps.SaleSvc == nil || deps.UserSvc == nil {
		return nil, errors.New("httpserver: all services are required")
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "cryptomart-api"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(deps.ServiceName))
	router.Use(requestLogger(logger))
	router.Use(metrics.Middleware())
	router.Use(cors.New(corsConfig(deps.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	router.GET("/metrics", metrics.Handler())

	h := &handlers{auth: deps.AuthSvc, products: deps.ProductSvc, sales: deps.SaleSvc, users: deps.UserSvc, logger: logger}
	requireAuth := authMiddleware(deps.AuthSvc)

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/add-admin", h.addAdmin)
	authGroup.POST("/logout", requireAuth, h.logout)

	products := api.Group("/products")
	products.GET("", h.listProducts)
	products.GET("/count", h.countProducts)
	products.GET("/sales/total", requireAuth, h.totalSales)
	products.GET("/:id", h.getProduct)
	products.POST("", requireAuth, adminRequired(), h.createProduct)

	api.GET("/users/count", h.countUsers)

	sales := api.Group("/sales", requireAuth)
	sales.POST("/quote", h.quoteSale)
	sales.POST("", h.recordSale)
	sales.GET("/:id", h.getSale)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

type handlers struct {
	auth     AuthService
	products ProductService
	sales    SaleService
	users    UserService
	logger   *zap.Logger
}
