package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"listing-site-backend/internal/middleware"
	"listing-site-backend/internal/models"
	"listing-site-backend/internal/services"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// ListingReader is the read side of the listing service.
type ListingReader interface {
	Listings(ctx context.Context, ownerID int64, limit int) ([]models.Listing, error)
	Listing(ctx context.Context, ownerID, listingID int64) (*models.Listing, error)
	Leads(ctx context.Context, ownerID, listingID int64, limit int) ([]models.Lead, error)
}

var _ ListingReader = (*services.ListingService)(nil)

type ListingsHandler struct {
	listings ListingReader
}

func NewListingsHandler(listings ListingReader) *ListingsHandler {
	return &ListingsHandler{listings: listings}
}

// ListListings godoc
// @Summary     List listings
// @Description Returns listings of the authenticated owner, newest first
// @Tags        listings
// @Produce     json
// @Param       limit query int false "Maximum number of listings"
// @Success     200 {object} models.ListingListResponse
// @Failure     401 {object} models.ErrorResponse
// @Security    Bearer
// @Router      /listings [get]
func (h *ListingsHandler) ListListings(c *gin.Context) {
	ownerID, ok := middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	items, err := h.listings.Listings(c.Request.Context(), ownerID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list listings",
			Message: err.Error(),
		})
		return
	}

	resp := models.ListingListResponse{Listings: make([]models.ListingSummary, 0, len(items))}
	for _, l := range items {
		resp.Listings = append(resp.Listings, models.ListingSummary{
			ID:        l.ID,
			Title:     l.Fields.Title,
			Style:     l.StyleName,
			CreatedAt: l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetListing godoc
// @Summary     Get listing
// @Description Returns one listing; the page itself only with document=true
// @Tags        listings
// @Produce     json
// @Param       listing_id path int true "Listing ID"
// @Param       document query bool false "Include the page document"
// @Success     200 {object} models.ListingResponse
// @Failure     404 {object} models.ErrorResponse
// @Security    Bearer
// @Router      /listings/{listing_id} [get]
func (h *ListingsHandler) GetListing(c *gin.Context) {
	ownerID, listingID, ok := ids(c)
	if !ok {
		return
	}
	var q models.ListingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid query",
			Message: err.Error(),
		})
		return
	}

	l, err := h.listings.Listing(c.Request.Context(), ownerID, listingID)
	if err != nil {
		failLookup(c, err)
		return
	}

	items, err := models.DecodeManifest(l.Media)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to read listing media",
			Message: err.Error(),
		})
		return
	}
	photos, videos := models.CountMedia(items)

	resp := models.ListingResponse{
		ID:        l.ID,
		Fields:    l.Fields,
		StyleKey:  l.StyleKey,
		StyleName: l.StyleName,
		Photos:    photos,
		Videos:    videos,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
	if q.Document {
		resp.Document = l.Document
	}
	c.JSON(http.StatusOK, resp)
}

// ListLeads godoc
// @Summary     List leads
// @Description Returns leads left for a listing of the owner, newest first
// @Tags        leads
// @Produce     json
// @Param       listing_id path int true "Listing ID"
// @Param       limit query int false "Maximum number of leads"
// @Success     200 {object} models.LeadsResponse
// @Failure     404 {object} models.ErrorResponse
// @Security    Bearer
// @Router      /listings/{listing_id}/leads [get]
func (h *ListingsHandler) ListLeads(c *gin.Context) {
	ownerID, listingID, ok := ids(c)
	if !ok {
		return
	}
	limit, ok := queryLimit(c)
	if !ok {
		return
	}

	leads, err := h.listings.Leads(c.Request.Context(), ownerID, listingID, limit)
	if err != nil {
		failLookup(c, err)
		return
	}

	resp := models.LeadsResponse{Leads: make([]models.LeadResponse, 0, len(leads))}
	for _, l := range leads {
		resp.Leads = append(resp.Leads, models.LeadResponse{
			ID:        l.ID,
			UserID:    l.UserID,
			Username:  l.Username,
			FirstName: l.FirstName,
			Phone:     l.Phone,
			Email:     l.Email,
			Message:   l.Message,
			CreatedAt: l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func ids(c *gin.Context) (ownerID, listingID int64, ok bool) {
	ownerID, ok = middleware.OwnerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return 0, 0, false
	}
	listingID, err := strconv.ParseInt(c.Param("listing_id"), 10, 64)
	if err != nil || listingID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid listing id"})
		return 0, 0, false
	}
	return ownerID, listingID, true
}

func queryLimit(c *gin.Context) (int, bool) {
	var q models.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid limit",
			Message: err.Error(),
		})
		return 0, false
	}
	if q.Limit == 0 {
		return defaultLimit, true
	}
	return min(q.Limit, maxLimit), true
}

func failLookup(c *gin.Context, err error) {
	if errors.Is(err, services.ErrListingNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "listing not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "failed to load listing",
		Message: err.Error(),
	})
}
