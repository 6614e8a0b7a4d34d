package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"

	_ "github.com/MikeMC777/storefront/docs"
	"github.com/MikeMC777/storefront/internal/address"
	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/checkout"
	"github.com/MikeMC777/storefront/internal/clientstore"
	"github.com/MikeMC777/storefront/internal/favorites"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/settings"
)

// deps is everything the HTTP layer talks to.
type deps struct {
	sessions   clientstore.Sessions
	sessionTTL time.Duration
	verifier   *auth.Verifier
	admins     httpx.AdminChecker
	limiter    *httpx.RateLimiter

	catalog   *product.Catalog
	favorites favorites.Remote
	settings  *settings.Provider
	orders    *order.Service
	addresses *address.Service
	checkout  *checkout.Service
}

func newRouter(d deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		httpx.RequestID(),
		httpx.Trace(otel.Tracer("storefront/http"), otel.GetTextMapPropagator()),
		httpx.OptionalAuth(d.verifier),
		httpx.Logger(),
	)

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/products", listProductsHandler(d.catalog))
	r.GET("/products/:id", getProductHandler(d.catalog))
	r.GET("/settings", getSettingsHandler(d.settings))

	s := r.Group("/", httpx.Session(d.sessionTTL))
	s.GET("/cart", getCartHandler(d.sessions))
	s.DELETE("/cart", clearCartHandler(d.sessions))
	s.POST("/cart/items", addCartItemHandler(d.sessions, d.catalog))
	s.PUT("/cart/items/:product_id", setCartQuantityHandler(d.sessions))
	s.DELETE("/cart/items/:product_id", removeCartItemHandler(d.sessions))
	s.POST("/cart/toggle", toggleCartHandler(d.sessions))
	s.PUT("/cart/open", setCartOpenHandler(d.sessions))

	s.GET("/favorites", listFavoritesHandler(d.sessions, d.favorites))
	s.POST("/favorites/:product_id/toggle", toggleFavoriteHandler(d.sessions, d.favorites))

	s.GET("/preferences", getPreferencesHandler(d.sessions))
	s.PUT("/preferences/language", setLanguageHandler(d.sessions))
	s.POST("/preferences/showcase/dismiss", dismissShowcaseHandler(d.sessions))

	co := s.Group("/checkout")
	co.GET("", getCheckoutHandler(d.sessions, d.checkout))
	co.POST("", enterCheckoutHandler(d.sessions, d.checkout))
	co.POST("/address", selectAddressHandler(d.sessions, d.checkout))
	co.PUT("/shipping", submitShippingHandler(d.sessions, d.checkout))
	co.PUT("/delivery", submitDeliveryHandler(d.sessions, d.checkout))
	co.POST("/back", checkoutBackHandler(d.sessions, d.checkout))
	pay := co.Group("", d.limiter.Middleware())
	pay.POST("/payment-intent", createPaymentIntentHandler(d.sessions, d.checkout))
	pay.POST("/payment", completePaymentHandler(d.sessions, d.checkout))

	me := r.Group("/me", httpx.RequireAuth())
	me.GET("/orders", listMyOrdersHandler(d.orders))
	me.GET("/orders/:id", getMyOrderHandler(d.orders))
	me.GET("/addresses", listAddressesHandler(d.addresses))
	me.POST("/addresses", saveAddressHandler(d.addresses))
	me.PUT("/addresses/:id", saveAddressHandler(d.addresses))
	me.DELETE("/addresses/:id", deleteAddressHandler(d.addresses))
	me.POST("/addresses/:id/default", setDefaultAddressHandler(d.addresses))

	admin := r.Group("/admin", httpx.RequireAdmin(d.admins))
	admin.GET("/orders", listOrdersHandler(d.orders))
	admin.GET("/orders/stats", orderStatsHandler(d.orders))
	admin.PUT("/orders/:id/status", updateOrderStatusHandler(d.orders))
	admin.PUT("/settings", updateSettingsHandler(d.settings))

	return r
}
