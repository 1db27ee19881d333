package httpapi

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storefront/internal/catalog"
	"storefront/internal/feed"
	"storefront/internal/service"
	"storefront/internal/session"
)

// Deps are the collaborators the HTTP layer drives.
type Deps struct {
	Catalog  *catalog.Store
	Products *service.ProductService
	Carts    *service.CartService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Accounts *service.AccountService
	Sessions session.Store
	Feed     *feed.Feed
	// SecureCookies marks the session cookie Secure; enable behind HTTPS.
	SecureCookies bool
}

type Server struct {
	engine *gin.Engine
	Deps
}

func NewServer(deps Deps) *Server {
	r := gin.New()
	r.Use(requestLogger(), gin.Recovery())
	s := &Server{engine: r, Deps: deps}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	v1.Use(s.sessionMiddleware())
	{
		products := v1.Group("/products")
		products.GET("", s.listProducts)
		products.GET(":id", s.getProduct)

		cart := v1.Group("/cart")
		cart.GET("", s.getCart)
		cart.POST("/items", s.addCartItem)
		cart.PUT("/items/:id", s.setCartItem)
		cart.DELETE("/items/:id", s.removeCartItem)

		v1.POST("/checkout", s.checkout)

		auth := v1.Group("/auth")
		auth.POST("/signup", s.signUp)
		auth.POST("/login", s.signIn)
		auth.POST("/logout", s.signOut)
		auth.GET("/me", s.me)

		admin := v1.Group("/admin")
		admin.Use(s.requireAdmin())
		admin.POST("/products", s.createProduct)
		admin.PUT("/products/:id", s.updateProduct)
		admin.DELETE("/products/:id", s.deleteProduct)
		admin.GET("/orders", s.listOrders)
		admin.GET("/orders/stream", s.streamOrders)
		admin.GET("/orders/:id", s.getOrder)
		admin.POST("/orders/:id/complete", s.completeOrder)
		admin.POST("/orders/:id/cancel", s.cancelOrder)
		admin.GET("/sales", s.sales)
	}
}
