package models

import (
	"fmt"
	"strings"
	"time"
)

// Rating bounds for feedback submissions
const (
	MinRating = 1
	MaxRating = 5
)

// FeedbackRecord represents one visitor feedback submission. Records are
// append-only; they are never updated or deleted.
type FeedbackRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	VisitorName  string    `json:"visitor_name"`
	VisitorPhone string    `json:"visitor_phone"`
	VenueID      int       `json:"venue_id"`
	VenueName    string    `json:"venue_name"`
	Rating       int       `json:"rating"`
	Comments     string    `json:"comments"`
}

// NewFeedbackRecord creates a feedback record stamped with the current time,
// validating required fields and the rating range. Comments are optional and
// trimmed.
func NewFeedbackRecord(visitorName, visitorPhone string, venueID int, venueName string, rating int, comments string) (FeedbackRecord, error) {
	if visitorName == "" {
		return FeedbackRecord{}, fmt.Errorf("visitor name is required")
	}
	if visitorPhone == "" {
		return FeedbackRecord{}, fmt.Errorf("visitor phone is required")
	}
	if venueID <= 0 {
		return FeedbackRecord{}, fmt.Errorf("venue id must be positive, got %d", venueID)
	}
	if venueName == "" {
		return FeedbackRecord{}, fmt.Errorf("venue name is required")
	}
	if rating < MinRating || rating > MaxRating {
		return FeedbackRecord{}, fmt.Errorf("rating must be between %d and %d, got %d", MinRating, MaxRating, rating)
	}

	return FeedbackRecord{
		Timestamp:    time.Now().Truncate(time.Second),
		VisitorName:  visitorName,
		VisitorPhone: visitorPhone,
		VenueID:      venueID,
		VenueName:    venueName,
		Rating:       rating,
		Comments:     strings.TrimSpace(comments),
	}, nil
}
