package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = JSONErrors(h.Logger)

	// Prometheus scrape endpoint sits outside the JSON middleware and key auth
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("")
	api.Use(SetJSONContentType)
	api.Use(SetNoCacheHeaders)

	// Optional API key authentication
	if cfg.APIKey != "" {
		api.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := api.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/network", h.Network)
	v1.GET("/quote", h.Quote)
	v1.GET("/swaps/recent", h.RecentSwaps)  // Redis list
	v1.GET("/swaps/history", h.SwapHistory)  // ClickHouse, filtered by wallet

	// Execution signs with the server wallet, so it is throttled
	swapGroup := v1.Group("/swap")
	swapGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.swapRate()),
		Burst:     cfg.swapBurst(),
		ExpiresIn: 2 * time.Minute,
	})))
	swapGroup.POST("", h.Swap)

	walletGroup := v1.Group("/wallet")
	walletGroup.GET("", h.WalletInfo)
	walletGroup.GET("/history", h.WalletHistory)
	walletGroup.POST("/keys", h.GenerateKeys)

	// Feature flags CRUD endpoints
	flagGroup := v1.Group("/flags")
	flagGroup.GET("", h.FlagsList)
	flagGroup.POST("", h.FlagsUpsert)
	flagGroup.GET("/:key", h.FlagsGet)
	flagGroup.PUT("/:key", h.FlagsUpdate)
	flagGroup.DELETE("/:key", h.FlagsDelete)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}
