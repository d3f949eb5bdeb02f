// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"math"
)

const MaxLabelLen = 36

var (
	ErrDuplicateID       = errors.New("connection id already registered")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrInvalidLocation   = errors.New("invalid location")
)

// ConnID is an opaque identifier assigned at connect time.
// It is deliberately decoupled from the transport handle.
type ConnID string

type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// NewLocation rejects non-finite or out-of-range coordinates, so a
// stored Location is always fully valid.
func NewLocation(lat, lon float64) (Location, error) {
	if !finite(lat) || !finite(lon) {
		return Location{}, ErrInvalidLocation
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return Location{}, ErrInvalidLocation
	}
	return Location{Lat: lat, Lon: lon}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
