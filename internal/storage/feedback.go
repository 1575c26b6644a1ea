package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/projectday/navigator-backend/internal/models"
)

// feedbackTimeLayout is ISO-8601 at seconds precision, matching the
// original feedback export format
const feedbackTimeLayout = "2006-01-02T15:04:05"

// feedbackHeader is the fixed column schema of the feedback file
var feedbackHeader = []string{"timestamp", "visitor_name", "visitor_phone", "venue_id", "venue_name", "rating", "comments"}

// ValidationError indicates a feedback record failed validation before any
// write happened
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FeedbackStore is an append-only sink of feedback records backed by a CSV
// file. Appends are serialized by a mutex so concurrent sessions can never
// interleave rows; prior rows are never rewritten.
type FeedbackStore struct {
	path    string
	catalog *VenueCatalog

	mu sync.Mutex
}

// NewFeedbackStore creates a feedback store backed by the given CSV file,
// creating the file with the fixed header if it does not exist. The catalog
// is used to verify that submitted venue ids exist.
func NewFeedbackStore(path string, catalog *VenueCatalog) (*FeedbackStore, error) {
	s := &FeedbackStore{path: path, catalog: catalog}
	if err := s.ensureFile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Append validates and durably appends one feedback record. Validation
// failures return a *ValidationError and write nothing.
func (s *FeedbackStore) Append(rec models.FeedbackRecord) error {
	if rec.Rating < models.MinRating || rec.Rating > models.MaxRating {
		return &ValidationError{Message: fmt.Sprintf("rating must be between %d and %d", models.MinRating, models.MaxRating)}
	}
	if !s.catalog.Exists(rec.VenueID) {
		return &ValidationError{Message: fmt.Sprintf("venue %d does not exist", rec.VenueID)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open feedback file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	row := []string{
		rec.Timestamp.Format(feedbackTimeLayout),
		rec.VisitorName,
		rec.VisitorPhone,
		strconv.Itoa(rec.VenueID),
		rec.VenueName,
		strconv.Itoa(rec.Rating),
		rec.Comments,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write feedback row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush feedback row: %w", err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync feedback file: %w", err)
	}

	return nil
}

// ReadAll returns every feedback record in append order
func (s *FeedbackStore) ReadAll() ([]models.FeedbackRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback file: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("feedback file %s has no header", s.path)
	}

	cols, err := columnIndex(rows[0], feedbackHeader)
	if err != nil {
		return nil, fmt.Errorf("feedback file %s: %w", s.path, err)
	}

	records := make([]models.FeedbackRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2

		ts, err := time.Parse(feedbackTimeLayout, row[cols["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("feedback file %s line %d: invalid timestamp %q", s.path, line, row[cols["timestamp"]])
		}
		venueID, err := strconv.Atoi(row[cols["venue_id"]])
		if err != nil {
			return nil, fmt.Errorf("feedback file %s line %d: invalid venue_id %q", s.path, line, row[cols["venue_id"]])
		}
		rating, err := strconv.Atoi(row[cols["rating"]])
		if err != nil {
			return nil, fmt.Errorf("feedback file %s line %d: invalid rating %q", s.path, line, row[cols["rating"]])
		}

		records = append(records, models.FeedbackRecord{
			Timestamp:    ts,
			VisitorName:  row[cols["visitor_name"]],
			VisitorPhone: row[cols["visitor_phone"]],
			VenueID:      venueID,
			VenueName:    row[cols["venue_name"]],
			Rating:       rating,
			Comments:     row[cols["comments"]],
		})
	}

	return records, nil
}

// Count returns the number of stored feedback records
func (s *FeedbackStore) Count() (int, error) {
	records, err := s.ReadAll()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// ensureFile creates the backing file with the fixed header when absent
func (s *FeedbackStore) ensureFile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat feedback file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create feedback file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(feedbackHeader); err != nil {
		return fmt.Errorf("failed to write feedback header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush feedback header: %w", err)
	}

	return nil
}
