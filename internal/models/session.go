package models

import "time"

// SessionState is the visitor's position in the login → browse → navigate →
// arrive → feedback flow.
type SessionState string

const (
	// StateLoggedOut is the initial state before a successful login
	StateLoggedOut SessionState = "logged_out"

	// StateBrowsing means the visitor is logged in and exploring the catalog
	StateBrowsing SessionState = "browsing"

	// StateNavigating means a venue is selected and navigation is active
	StateNavigating SessionState = "navigating"

	// StateArrived means the visitor marked arrival at the selected venue
	StateArrived SessionState = "arrived"

	// StateFeedbackGiven means feedback was submitted for the arrived venue
	StateFeedbackGiven SessionState = "feedback_given"
)

// DeviceInfo holds the device details captured at login for request logs
type DeviceInfo struct {
	DeviceType string `json:"device_type"` // mobile, tablet, desktop
	OS         string `json:"os"`
	Browser    string `json:"browser"`
	Platform   string `json:"platform"`
}

// VisitorSession tracks one visitor's progress through the event. Sessions
// are in-memory only; a restart logs everyone out. All mutation goes through
// the session service so transitions stay atomic.
type VisitorSession struct {
	Token     string       `json:"token"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone"`
	LoggedIn  bool         `json:"logged_in"`
	State     SessionState `json:"state"`
	CreatedAt time.Time    `json:"created_at"`
	LastSeen  time.Time    `json:"last_seen"`
	Device    DeviceInfo   `json:"device"`
	IPAddress string       `json:"-"`

	// SelectedVenueID is the navigation target; nil when nothing is selected
	SelectedVenueID *int `json:"selected_venue_id,omitempty"`

	// ArrivedVenueID equals SelectedVenueID at the moment arrival was marked
	ArrivedVenueID *int `json:"arrived_venue_id,omitempty"`

	// ReviewedVenues tracks venue ids feedback was given for in this session,
	// so a visitor can review several venues but never one of them twice
	ReviewedVenues map[int]bool `json:"-"`
}

// NewVisitorSession creates a logged-in session in the Browsing state
func NewVisitorSession(token, name, phone string) *VisitorSession {
	now := time.Now()
	return &VisitorSession{
		Token:          token,
		Name:           name,
		Phone:          phone,
		LoggedIn:       true,
		State:          StateBrowsing,
		CreatedAt:      now,
		LastSeen:       now,
		ReviewedVenues: make(map[int]bool),
	}
}

// SessionSnapshot is a detached copy of a session's visible fields, taken
// under the service lock. Handlers build responses from snapshots so they
// never read a live session while another request is mutating it.
type SessionSnapshot struct {
	Token           string       `json:"token"`
	Name            string       `json:"name"`
	Phone           string       `json:"phone"`
	State           SessionState `json:"state"`
	SelectedVenueID *int         `json:"selected_venue_id,omitempty"`
	ArrivedVenueID  *int         `json:"arrived_venue_id,omitempty"`
}

// Snapshot copies the fields handlers may read. The venue id pointers are
// duplicated so the copy stays valid after the session moves on.
func (s *VisitorSession) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		Token: s.Token,
		Name:  s.Name,
		Phone: s.Phone,
		State: s.State,
	}
	if s.SelectedVenueID != nil {
		id := *s.SelectedVenueID
		snap.SelectedVenueID = &id
	}
	if s.ArrivedVenueID != nil {
		id := *s.ArrivedVenueID
		snap.ArrivedVenueID = &id
	}
	return snap
}

// HasReviewed reports whether feedback was already given for the venue in
// this session
func (s *VisitorSession) HasReviewed(venueID int) bool {
	return s.ReviewedVenues[venueID]
}

// Touch updates the last-seen timestamp
func (s *VisitorSession) Touch() {
	s.LastSeen = time.Now()
}
