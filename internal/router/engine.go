package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sepehr-data/mithra-pay/internal/service"
	"github.com/sepehr-data/mithra-pay/pkg/auth"
	"github.com/sepehr-data/mithra-pay/pkg/global"
	"github.com/sepehr-data/mithra-pay/pkg/models"
)

var defaultOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// Pinger is a dependency the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Dependencies are the services the HTTP layer dispatches to.
type Dependencies struct {
	Config  global.Config
	Logger  *slog.Logger
	Tokens  *auth.TokenIssuer
	Catalog *service.CatalogService
	Carts   *service.CartService
	Orders  *service.OrderService
	Auth    *service.AuthService
	Blog    *service.BlogService
	// Health maps a dependency name to its check.
	Health map[string]Pinger
}

// NewEngine builds the gin engine with every route registered.
func NewEngine(deps Dependencies) *gin.Engine {
	switch {
	case deps.Config.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	case deps.Config.Env == "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	registerTagNames()

	origins := deps.Config.CORSOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(deps.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := &handler{deps: deps, log: deps.Logger}
	authn := Authenticate(deps.Tokens)

	r.GET("/", h.root)

	api := r.Group("/api")
	{
		api.GET("/health", h.health)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.register)
			authGroup.POST("/login", h.login)
			authGroup.POST("/otp/send", h.sendOTP)
			authGroup.POST("/otp/verify", h.verifyOTP)
			authGroup.POST("/request-otp", h.sendOTP)
			authGroup.POST("/verify-otp", h.verifyOTP)
		}

		users := api.Group("/users", authn)
		{
			users.GET("/me", h.me)
		}

		products := api.Group("/products")
		{
			products.GET("", h.listProducts)
			products.GET("/top-weekly", h.topWeekly)
			products.GET("/:slug", h.getProduct)
		}

		cart := api.Group("/cart", authn)
		{
			cart.GET("", h.getCart)
			cart.POST("/items", h.addCartItem)
			cart.PUT("/items/:item_id", h.updateCartItem)
			cart.DELETE("/items/:item_id", h.removeCartItem)
			cart.DELETE("", h.clearCart)
		}

		orders := api.Group("/orders", authn)
		{
			orders.POST("", h.createOrder)
			orders.GET("", h.listMyOrders)
			orders.GET("/number/:number", h.getOrderByNumber)
			orders.GET("/:id", h.getOrder)
			orders.POST("/:id/pay", h.payOrder)
		}

		blog := api.Group("/blog")
		{
			blog.GET("/posts", h.listPosts)
			blog.GET("/posts/:slug", h.getPost)
		}

		admin := api.Group("/admin", authn, RequireRoles(models.RoleAdmin))
		{
			admin.GET("/products", h.adminListProducts)
			admin.POST("/products", h.adminCreateProduct)
			admin.PUT("/products/:id", h.adminUpdateProduct)
			admin.PUT("/orders/:id/status", h.adminUpdateOrderStatus)
			admin.POST("/posts", h.adminCreatePost)
		}
	}

	return r
}
