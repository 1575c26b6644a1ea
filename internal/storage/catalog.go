package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/projectday/navigator-backend/internal/models"
)

var (
	// ErrVenueNotFound indicates no venue exists with the requested id
	ErrVenueNotFound = errors.New("venue not found")
)

// catalogColumns are the required columns of the venue catalog file
var catalogColumns = []string{"id", "name", "building", "floor", "desc", "lat", "lon"}

// CatalogLoadError indicates the venue catalog file is missing or malformed.
// It is fatal at startup: no venue can be shown without the catalog.
type CatalogLoadError struct {
	Path string
	Err  error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("failed to load venue catalog %s: %v", e.Path, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

// VenueCatalog is a read-only lookup of venue records, loaded from a CSV
// file once and cached for the process lifetime.
type VenueCatalog struct {
	path string

	mu     sync.RWMutex
	venues []models.Venue
	byID   map[int]models.Venue
}

// NewVenueCatalog creates a catalog backed by the given CSV file and loads
// it immediately. Returns a CatalogLoadError if the file is missing or
// malformed.
func NewVenueCatalog(path string) (*VenueCatalog, error) {
	c := &VenueCatalog{path: path}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the backing file. The cached data is only replaced when
// the whole file parses cleanly.
func (c *VenueCatalog) Reload() error {
	venues, err := c.load()
	if err != nil {
		return err
	}

	byID := make(map[int]models.Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}

	c.mu.Lock()
	c.venues = venues
	c.byID = byID
	c.mu.Unlock()

	return nil
}

// All returns every venue in catalog order
func (c *VenueCatalog) All() []models.Venue {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Venue, len(c.venues))
	copy(out, c.venues)
	return out
}

// Count returns the number of venues in the catalog
func (c *VenueCatalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.venues)
}

// FindByID returns the venue with the given id, or ErrVenueNotFound
func (c *VenueCatalog) FindByID(id int) (models.Venue, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.byID[id]
	if !ok {
		return models.Venue{}, ErrVenueNotFound
	}
	return v, nil
}

// Exists reports whether a venue with the given id is in the catalog
func (c *VenueCatalog) Exists(id int) bool {
	_, err := c.FindByID(id)
	return err == nil
}

// Search returns venues whose name, building, or description contains the
// query, case-insensitively, preserving catalog order. An empty query
// returns the full catalog.
func (c *VenueCatalog) Search(query string) []models.Venue {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.All()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.Venue
	for _, v := range c.venues {
		if strings.Contains(strings.ToLower(v.Name), query) ||
			strings.Contains(strings.ToLower(v.Building), query) ||
			strings.Contains(strings.ToLower(v.Description), query) {
			out = append(out, v)
		}
	}
	return out
}

// load reads and parses the backing CSV file
func (c *VenueCatalog) load() ([]models.Venue, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, &CatalogLoadError{Path: c.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &CatalogLoadError{Path: c.path, Err: err}
	}

	if len(rows) == 0 {
		return nil, &CatalogLoadError{Path: c.path, Err: errors.New("file is empty")}
	}

	cols, err := columnIndex(rows[0], catalogColumns)
	if err != nil {
		return nil, &CatalogLoadError{Path: c.path, Err: err}
	}

	venues := make([]models.Venue, 0, len(rows)-1)
	seen := make(map[int]bool, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2 // 1-based, after the header

		id, err := strconv.Atoi(strings.TrimSpace(row[cols["id"]]))
		if err != nil {
			return nil, &CatalogLoadError{Path: c.path, Err: fmt.Errorf("line %d: invalid id %q", line, row[cols["id"]])}
		}
		if seen[id] {
			return nil, &CatalogLoadError{Path: c.path, Err: fmt.Errorf("line %d: duplicate venue id %d", line, id)}
		}
		seen[id] = true

		lat, err := strconv.ParseFloat(strings.TrimSpace(row[cols["lat"]]), 64)
		if err != nil {
			return nil, &CatalogLoadError{Path: c.path, Err: fmt.Errorf("line %d: invalid lat %q", line, row[cols["lat"]])}
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(row[cols["lon"]]), 64)
		if err != nil {
			return nil, &CatalogLoadError{Path: c.path, Err: fmt.Errorf("line %d: invalid lon %q", line, row[cols["lon"]])}
		}

		venue, err := models.NewVenue(id, row[cols["name"]], row[cols["building"]], row[cols["floor"]], row[cols["desc"]], lat, lon)
		if err != nil {
			return nil, &CatalogLoadError{Path: c.path, Err: fmt.Errorf("line %d: %w", line, err)}
		}

		venues = append(venues, venue)
	}

	return venues, nil
}

// columnIndex maps required column names to their positions in the header.
// Column order in the file does not matter; missing columns are an error.
func columnIndex(header, required []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	return index, nil
}
