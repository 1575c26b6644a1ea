package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/projectday/navigator-backend/internal/config"
	"github.com/projectday/navigator-backend/internal/middleware"
	"github.com/projectday/navigator-backend/internal/models"
	"github.com/projectday/navigator-backend/internal/services"
)

// SessionHandler exposes the visitor state-machine actions: select a venue,
// mark arrival, submit feedback, inspect the session.
type SessionHandler struct {
	sessionService *services.SessionService
	config         *config.Config
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *services.SessionService, cfg *config.Config) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		config:         cfg,
	}
}

// SelectVenueRequest represents the navigation-target selection
type SelectVenueRequest struct {
	VenueID int `json:"venue_id" binding:"required"`
}

// SubmitFeedbackRequest represents a feedback submission
type SubmitFeedbackRequest struct {
	Rating   int    `json:"rating" binding:"required"`
	Comments string `json:"comments"`
}

// SessionResponse is the session view returned to the UI. Venue selections
// are only present for logged-in sessions by construction: a session only
// exists after login.
type SessionResponse struct {
	Name            string              `json:"name"`
	Phone           string              `json:"phone"`
	State           models.SessionState `json:"state"`
	SelectedVenueID *int                `json:"selected_venue_id,omitempty"`
	ArrivedVenueID  *int                `json:"arrived_venue_id,omitempty"`
}

// SelectVenue handles POST /api/v1/session/select-venue
func (h *SessionHandler) SelectVenue(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Session token is required"})
		return
	}

	var req SelectVenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body: venue_id is required",
		})
		return
	}

	venue, snap, err := h.sessionService.SelectVenue(session.Token, req.VenueID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Navigating to " + venue.Name,
		"state":   snap.State,
		"venue":   venue,
		"route":   buildRoute(h.config, venue),
	})
}

// MarkArrived handles POST /api/v1/session/arrive
func (h *SessionHandler) MarkArrived(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Session token is required"})
		return
	}

	venue, snap, err := h.sessionService.MarkArrived(session.Token)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Arrived at " + venue.Name + ". You can now give feedback.",
		"state":   snap.State,
		"venue":   venue,
	})
}

// SubmitFeedback handles POST /api/v1/session/feedback
func (h *SessionHandler) SubmitFeedback(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Session token is required"})
		return
	}

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body: rating is required",
		})
		return
	}

	record, snap, err := h.sessionService.SubmitFeedback(session.Token, req.Rating, req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Thank you! Feedback submitted.",
		"state":    snap.State,
		"feedback": record,
	})
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "Session token is required"})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		Name:            session.Name,
		Phone:           session.Phone,
		State:           session.State,
		SelectedVenueID: session.SelectedVenueID,
		ArrivedVenueID:  session.ArrivedVenueID,
	})
}
