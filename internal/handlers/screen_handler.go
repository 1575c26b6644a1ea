package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projectday/navigator-backend/internal/config"
	"github.com/projectday/navigator-backend/internal/middleware"
	"github.com/projectday/navigator-backend/internal/models"
	"github.com/projectday/navigator-backend/internal/storage"
)

// Screen names the UI can render
const (
	ScreenLogin    = "login"
	ScreenBrowse   = "browse"
	ScreenMap      = "map"
	ScreenFeedback = "feedback"
	ScreenDone     = "done"
)

// ScreenHandler is the screen controller: it maps the session state to the
// screen the UI should render and the data that screen needs. All decisions
// beyond dispatch belong to the session service.
type ScreenHandler struct {
	catalog *storage.VenueCatalog
	config  *config.Config
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(catalog *storage.VenueCatalog, cfg *config.Config) *ScreenHandler {
	return &ScreenHandler{
		catalog: catalog,
		config:  cfg,
	}
}

// ScreenResponse tells the UI which screen to render and with what data
type ScreenResponse struct {
	Screen    string `json:"screen"`
	EventName string `json:"event_name"`
	VenueName string `json:"venue_name"`
	Data      gin.H  `json:"data,omitempty"`
}

// MapMarker is one pin on the navigation map
type MapMarker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// RoutePayload is everything the map screen needs to draw navigation: the
// event center, the destination, and a straight polyline between them.
type RoutePayload struct {
	Center      MapMarker    `json:"center"`
	Destination MapMarker    `json:"destination"`
	Polyline    [][2]float64 `json:"polyline"`
	Zoom        int          `json:"zoom"`
}

// buildRoute builds the map payload for a destination venue
func buildRoute(cfg *config.Config, venue models.Venue) RoutePayload {
	center := MapMarker{
		Lat:   cfg.Event.CenterLat,
		Lon:   cfg.Event.CenterLon,
		Label: cfg.Event.VenueName,
		Color: "blue",
	}
	dest := MapMarker{
		Lat:   venue.Lat,
		Lon:   venue.Lon,
		Label: venue.Name,
		Color: "red",
	}

	return RoutePayload{
		Center:      center,
		Destination: dest,
		Polyline: [][2]float64{
			{center.Lat, center.Lon},
			{dest.Lat, dest.Lon},
		},
		Zoom: 18,
	}
}

// Screen handles GET /api/v1/session/screen
func (h *ScreenHandler) Screen(c *gin.Context) {
	resp := ScreenResponse{
		EventName: h.config.Event.Name,
		VenueName: h.config.Event.VenueName,
	}

	session, ok := middleware.GetSession(c)
	if !ok {
		resp.Screen = ScreenLogin
		c.JSON(http.StatusOK, resp)
		return
	}

	switch session.State {
	case models.StateBrowsing:
		resp.Screen = ScreenBrowse
		resp.Data = gin.H{"venues": h.catalog.All()}

	case models.StateNavigating:
		if session.SelectedVenueID == nil {
			resp.Screen = ScreenBrowse
			resp.Data = gin.H{"venues": h.catalog.All()}
			break
		}
		resp.Screen = ScreenMap
		venue, err := h.catalog.FindByID(*session.SelectedVenueID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		resp.Data = gin.H{
			"venue": venue,
			"route": buildRoute(h.config, venue),
		}

	case models.StateArrived:
		if session.ArrivedVenueID == nil {
			resp.Screen = ScreenBrowse
			resp.Data = gin.H{"venues": h.catalog.All()}
			break
		}
		resp.Screen = ScreenFeedback
		venue, err := h.catalog.FindByID(*session.ArrivedVenueID)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		resp.Data = gin.H{"venue": venue}

	case models.StateFeedbackGiven:
		// Confirmation screen; selecting a new venue re-enters Navigating
		resp.Screen = ScreenDone
		resp.Data = gin.H{"message": "Thank you! Feedback submitted."}

	default:
		resp.Screen = ScreenLogin
	}

	c.JSON(http.StatusOK, resp)
}
