package models

import "fmt"

// Venue represents a physical exhibit or booth location shown to visitors
// for navigation. Venues are loaded from the catalog once and never mutated
// at runtime.
type Venue struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Building    string  `json:"building"`
	Floor       string  `json:"floor"`
	Description string  `json:"desc"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// NewVenue creates a venue, validating required fields
func NewVenue(id int, name, building, floor, description string, lat, lon float64) (Venue, error) {
	if id <= 0 {
		return Venue{}, fmt.Errorf("venue id must be positive, got %d", id)
	}
	if name == "" {
		return Venue{}, fmt.Errorf("venue %d: name is required", id)
	}

	return Venue{
		ID:          id,
		Name:        name,
		Building:    building,
		Floor:       floor,
		Description: description,
		Lat:         lat,
		Lon:         lon,
	}, nil
}
