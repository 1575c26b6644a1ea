package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/projectday/navigator-backend/internal/models"
	"github.com/projectday/navigator-backend/internal/storage"
)

// VenueHandler serves the read-only venue catalog
type VenueHandler struct {
	catalog *storage.VenueCatalog
}

// NewVenueHandler creates a new venue handler
func NewVenueHandler(catalog *storage.VenueCatalog) *VenueHandler {
	return &VenueHandler{catalog: catalog}
}

// VenueListResponse represents the venue browse/search response
type VenueListResponse struct {
	Venues []models.Venue `json:"venues"`
	Count  int            `json:"count"`
	Query  string         `json:"query,omitempty"`
}

// List handles GET /api/v1/venues?q=
// An empty query returns the full catalog in file order.
func (h *VenueHandler) List(c *gin.Context) {
	query := c.Query("q")
	venues := h.catalog.Search(query)
	if venues == nil {
		venues = []models.Venue{}
	}

	c.JSON(http.StatusOK, VenueListResponse{
		Venues: venues,
		Count:  len(venues),
		Query:  query,
	})
}

// Get handles GET /api/v1/venues/:id
func (h *VenueHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Venue id must be an integer",
		})
		return
	}

	venue, err := h.catalog.FindByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "No venue with id " + c.Param("id"),
		})
		return
	}

	c.JSON(http.StatusOK, venue)
}
