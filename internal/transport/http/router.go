package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/moonmist/storefront/internal/handlers"
	"github.com/moonmist/storefront/internal/middleware/auth"
	"github.com/moonmist/storefront/internal/token"
)

type Deps struct {
	Issuer           *token.Issuer
	AuthHandler      *handlers.AuthHandler
	ProductHandler   *handlers.ProductHandler
	CartHandler      *handlers.CartHandler
	FavoritesHandler *handlers.FavoritesHandler
	SearchHandler    *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	requireAuth := auth.RequireAuth(d.Issuer)
	adminOnly := auth.RequireRole("admin")

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.GET("/me", d.AuthHandler.Me, requireAuth)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.List)
	products.GET("/:id", d.ProductHandler.Get)
	products.POST("", d.ProductHandler.Create, requireAuth, adminOnly)
	products.PUT("/:id", d.ProductHandler.Update, requireAuth, adminOnly)
	products.DELETE("/:id", d.ProductHandler.Delete, requireAuth, adminOnly)

	cart := api.Group("/cart", requireAuth)
	cart.GET("", d.CartHandler.Get)
	cart.POST("", d.CartHandler.Add)
	cart.DELETE("/:productId", d.CartHandler.Remove)

	favorites := api.Group("/favorites", requireAuth)
	favorites.GET("", d.FavoritesHandler.List)
	favorites.POST("", d.FavoritesHandler.Add)
	favorites.DELETE("/:productId", d.FavoritesHandler.Remove)

	api.GET("/search", d.SearchHandler.Search)
}
