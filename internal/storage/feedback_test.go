package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectday/navigator-backend/internal/models"
)

func setupFeedbackStore(t *testing.T) (*FeedbackStore, string) {
	t.Helper()
	catalog, err := NewVenueCatalog(writeCatalog(t, testCatalogCSV))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "feedback.csv")
	store, err := NewFeedbackStore(path, catalog)
	require.NoError(t, err)
	return store, path
}

func testRecord(t *testing.T, venueID, rating int, comments string) models.FeedbackRecord {
	t.Helper()
	rec, err := models.NewFeedbackRecord("Asha", "9876543210", venueID, "Physics Expo", rating, comments)
	require.NoError(t, err)
	return rec
}

func TestNewFeedbackStore_CreatesFileWithHeader(t *testing.T) {
	_, path := setupFeedbackStore(t)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,visitor_name,visitor_phone,venue_id,venue_name,rating,comments\n", string(content))
}

func TestNewFeedbackStore_KeepsExistingFile(t *testing.T) {
	catalog, err := NewVenueCatalog(writeCatalog(t, testCatalogCSV))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "feedback.csv")
	existing := "timestamp,visitor_name,visitor_phone,venue_id,venue_name,rating,comments\n" +
		"2026-02-14T10:30:00,Ravi,9812345678,1,Robotics Lab,4,Nice\n"
	require.NoError(t, os.WriteFile(path, []byte(existing), 0o644))

	store, err := NewFeedbackStore(path, catalog)
	require.NoError(t, err)

	records, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ravi", records[0].VisitorName)
}

func TestAppend_RoundTrip(t *testing.T) {
	store, _ := setupFeedbackStore(t)

	rec := testRecord(t, 3, 5, "Great!")
	require.NoError(t, store.Append(rec))

	records, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, rec.VisitorName, got.VisitorName)
	assert.Equal(t, rec.VisitorPhone, got.VisitorPhone)
	assert.Equal(t, rec.VenueID, got.VenueID)
	assert.Equal(t, rec.VenueName, got.VenueName)
	assert.Equal(t, rec.Rating, got.Rating)
	assert.Equal(t, rec.Comments, got.Comments)
	assert.True(t, rec.Timestamp.Truncate(time.Second).Equal(got.Timestamp))
}

func TestAppend_GrowsMonotonically(t *testing.T) {
	store, path := setupFeedbackStore(t)

	require.NoError(t, store.Append(testRecord(t, 1, 4, "first")))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, store.Append(testRecord(t, 2, 3, "second")))
	after, err := os.ReadFile(path)
	require.NoError(t, err)

	// Prior rows are untouched; the file only grows
	assert.True(t, strings.HasPrefix(string(after), string(before)))

	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAppend_ValidationFailures(t *testing.T) {
	store, _ := setupFeedbackStore(t)

	tests := []struct {
		name string
		rec  models.FeedbackRecord
	}{
		{"Rating too low", models.FeedbackRecord{VisitorName: "Asha", VisitorPhone: "9876543210", VenueID: 1, VenueName: "Robotics Lab", Rating: 0}},
		{"Rating too high", models.FeedbackRecord{VisitorName: "Asha", VisitorPhone: "9876543210", VenueID: 1, VenueName: "Robotics Lab", Rating: 6}},
		{"Unknown venue", models.FeedbackRecord{VisitorName: "Asha", VisitorPhone: "9876543210", VenueID: 999, VenueName: "Ghost", Rating: 3}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Append(tc.rec)
			require.Error(t, err)

			var valErr *ValidationError
			assert.ErrorAs(t, err, &valErr)
		})
	}

	// Nothing was written
	count, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAppend_CommentsWithCommasAndNewlines(t *testing.T) {
	store, _ := setupFeedbackStore(t)

	comments := "Loved it, especially the laser demo.\nWill visit again"
	require.NoError(t, store.Append(testRecord(t, 3, 5, comments)))

	records, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, comments, records[0].Comments)
}

func TestAppend_ConcurrentWriters(t *testing.T) {
	store, _ := setupFeedbackStore(t)

	const writers = 20
	rec := testRecord(t, 1, 5, "ok")
	done := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func() {
			done <- store.Append(rec)
		}()
	}
	for i := 0; i < writers; i++ {
		require.NoError(t, <-done)
	}

	// Every row parses back cleanly: no interleaved writes
	records, err := store.ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, writers)
}
