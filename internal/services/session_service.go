package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/projectday/navigator-backend/internal/models"
	"github.com/projectday/navigator-backend/internal/storage"
	"github.com/projectday/navigator-backend/pkg/validator"
)

var (
	// ErrInvalidCredentials indicates the login name or phone failed validation
	ErrInvalidCredentials = errors.New("invalid name or phone number")

	// ErrInvalidOTP indicates the OTP requirement was not satisfied at login
	ErrInvalidOTP = errors.New("OTP verification failed")

	// ErrSessionNotFound indicates no session exists for the token
	ErrSessionNotFound = errors.New("session not found")

	// ErrUnknownVenue indicates the selected venue id is not in the catalog
	ErrUnknownVenue = errors.New("unknown venue")

	// ErrNoActiveNavigation indicates arrival was marked without an active navigation
	ErrNoActiveNavigation = errors.New("no active navigation: select a venue first")

	// ErrNotArrived indicates feedback was submitted before marking arrival
	ErrNotArrived = errors.New("feedback requires arrival at a venue")

	// ErrFeedbackAlreadyGiven indicates this session already reviewed the venue
	ErrFeedbackAlreadyGiven = errors.New("feedback already given for this venue")
)

// LoginInput carries everything a login attempt needs
type LoginInput struct {
	Name       string
	Phone      string
	OTPEnabled bool
	IPAddress  string
	Device     models.DeviceInfo
}

// SessionService owns the visitor session registry and the state machine
// Login → Browsing → Navigating → Arrived → FeedbackGiven. Every transition
// either completes fully or leaves the session untouched.
type SessionService struct {
	catalog        *storage.VenueCatalog
	feedback       *storage.FeedbackStore
	otp            *OTPService
	phoneValidator *validator.PhoneValidator
	nameValidator  *validator.NameValidator
	logger         *logrus.Logger

	mu       sync.RWMutex
	sessions map[string]*models.VisitorSession
}

// NewSessionService creates a new session service
func NewSessionService(
	catalog *storage.VenueCatalog,
	feedback *storage.FeedbackStore,
	otp *OTPService,
	phoneValidator *validator.PhoneValidator,
	nameValidator *validator.NameValidator,
	logger *logrus.Logger,
) *SessionService {
	return &SessionService{
		catalog:        catalog,
		feedback:       feedback,
		otp:            otp,
		phoneValidator: phoneValidator,
		nameValidator:  nameValidator,
		logger:         logger,
		sessions:       make(map[string]*models.VisitorSession),
	}
}

// Login validates the visitor's name and phone and, when OTP is enabled,
// consumes a previously verified OTP for the phone. On success it creates a
// session in the Browsing state and returns a snapshot of it.
func (s *SessionService) Login(input LoginInput) (models.SessionSnapshot, error) {
	name, err := s.nameValidator.Validate(input.Name)
	if err != nil {
		return models.SessionSnapshot{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
	}

	phone, err := s.phoneValidator.Validate(input.Phone)
	if err != nil {
		return models.SessionSnapshot{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, err)
	}

	if input.OTPEnabled {
		if err := s.otp.ConsumeVerified(phone); err != nil {
			return models.SessionSnapshot{}, fmt.Errorf("%w: %s", ErrInvalidOTP, err)
		}
	}

	session := models.NewVisitorSession(uuid.NewString(), name, phone)
	session.IPAddress = input.IPAddress
	session.Device = input.Device

	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"phone":       phone,
		"otp_enabled": input.OTPEnabled,
		"device_type": input.Device.DeviceType,
	}).Info("Visitor logged in")

	return session.Snapshot(), nil
}

// Get returns a snapshot of the session for the token, or ErrSessionNotFound
func (s *SessionService) Get(token string) (models.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return models.SessionSnapshot{}, ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// SelectVenue sets the navigation target and moves the session to
// Navigating. Reselecting is allowed from every logged-in state, including
// after feedback (which starts a fresh visit); any previous arrival is
// cleared. Fails with ErrUnknownVenue if the id is not in the catalog.
// Returns the venue and a post-transition snapshot.
func (s *SessionService) SelectVenue(token string, venueID int) (models.Venue, models.SessionSnapshot, error) {
	venue, err := s.catalog.FindByID(venueID)
	if err != nil {
		return models.Venue{}, models.SessionSnapshot{}, fmt.Errorf("%w: id %d", ErrUnknownVenue, venueID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return models.Venue{}, models.SessionSnapshot{}, ErrSessionNotFound
	}

	id := venue.ID
	session.SelectedVenueID = &id
	session.ArrivedVenueID = nil
	session.State = models.StateNavigating
	session.Touch()

	s.logger.WithFields(logrus.Fields{
		"phone":    session.Phone,
		"venue_id": venue.ID,
	}).Info("Navigation started")

	return venue, session.Snapshot(), nil
}

// MarkArrived records arrival at the currently selected venue and moves the
// session to Arrived. Only valid while Navigating. Returns the venue and a
// post-transition snapshot.
func (s *SessionService) MarkArrived(token string) (models.Venue, models.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return models.Venue{}, models.SessionSnapshot{}, ErrSessionNotFound
	}

	if session.State != models.StateNavigating || session.SelectedVenueID == nil {
		return models.Venue{}, models.SessionSnapshot{}, ErrNoActiveNavigation
	}

	venue, err := s.catalog.FindByID(*session.SelectedVenueID)
	if err != nil {
		return models.Venue{}, models.SessionSnapshot{}, fmt.Errorf("%w: id %d", ErrUnknownVenue, *session.SelectedVenueID)
	}

	id := venue.ID
	session.ArrivedVenueID = &id
	session.State = models.StateArrived
	session.Touch()

	s.logger.WithFields(logrus.Fields{
		"phone":    session.Phone,
		"venue_id": venue.ID,
	}).Info("Visitor arrived at venue")

	return venue, session.Snapshot(), nil
}

// SubmitFeedback appends a feedback record for the arrived venue and moves
// the session to FeedbackGiven. Only valid while Arrived, and only once per
// venue per session. The session is unchanged if the store rejects the
// record. Returns the stored record and a post-transition snapshot.
func (s *SessionService) SubmitFeedback(token string, rating int, comments string) (models.FeedbackRecord, models.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return models.FeedbackRecord{}, models.SessionSnapshot{}, ErrSessionNotFound
	}

	if session.State != models.StateArrived || session.ArrivedVenueID == nil {
		return models.FeedbackRecord{}, models.SessionSnapshot{}, ErrNotArrived
	}

	venueID := *session.ArrivedVenueID
	if session.HasReviewed(venueID) {
		return models.FeedbackRecord{}, models.SessionSnapshot{}, ErrFeedbackAlreadyGiven
	}

	venue, err := s.catalog.FindByID(venueID)
	if err != nil {
		return models.FeedbackRecord{}, models.SessionSnapshot{}, fmt.Errorf("%w: id %d", ErrUnknownVenue, venueID)
	}

	if rating < models.MinRating || rating > models.MaxRating {
		return models.FeedbackRecord{}, models.SessionSnapshot{}, &storage.ValidationError{
			Message: fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating),
		}
	}

	record, err := models.NewFeedbackRecord(session.Name, session.Phone, venue.ID, venue.Name, rating, comments)
	if err != nil {
		return models.FeedbackRecord{}, models.SessionSnapshot{}, &storage.ValidationError{Message: err.Error()}
	}

	if err := s.feedback.Append(record); err != nil {
		return models.FeedbackRecord{}, models.SessionSnapshot{}, err
	}

	session.ReviewedVenues[venueID] = true
	session.State = models.StateFeedbackGiven
	session.Touch()

	s.logger.WithFields(logrus.Fields{
		"phone":    session.Phone,
		"venue_id": venue.ID,
		"rating":   rating,
	}).Info("Feedback submitted")

	return record, session.Snapshot(), nil
}

// Logout removes the session unconditionally, from any state. Logging out a
// token that is already gone is a no-op.
func (s *SessionService) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return
	}

	delete(s.sessions, token)

	s.logger.WithField("phone", session.Phone).Info("Visitor logged out")
}

// ActiveSessions returns the number of logged-in visitors
func (s *SessionService) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
