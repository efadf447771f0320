package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"listing-site-backend/internal/middleware"
)

type RouterOptions struct {
	JWTSecret string
	// SitesDir is served under /sites when not empty.
	SitesDir string
}

// NewRouter wires the HTTP API.
func NewRouter(listings ListingReader, opts RouterOptions, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(middleware.RequestLogger(log.Named("http")))
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", HealthHandler)

	if opts.SitesDir != "" {
		router.Static("/sites", opts.SitesDir)
	}

	h := NewListingsHandler(listings)
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(opts.JWTSecret))
	api.GET("/listings", h.ListListings)
	api.GET("/listings/:listing_id", h.GetListing)
	api.GET("/listings/:listing_id/leads", h.ListLeads)

	return router
}
