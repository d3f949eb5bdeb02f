package domain

import (
	"errors"
	"fmt"
)

var ErrMissingRoomKey = errors.New("missing room key component")

// RoomKey identifies one grid cell of one site. The struct is
// comparable and is used directly as a map key, so identical triples
// always give an equal key and distinct triples never collide.
type RoomKey struct {
	SiteID     string `json:"siteId"`
	GridMeters int    `json:"gridMeters"`
	CellID     string `json:"cellId"`
}

// NewRoomKey validates that all three components are present.
func NewRoomKey(siteID string, gridMeters int, cellID string) (RoomKey, error) {
	if siteID == "" || gridMeters <= 0 || cellID == "" {
		return RoomKey{}, ErrMissingRoomKey
	}
	return RoomKey{SiteID: siteID, GridMeters: gridMeters, CellID: cellID}, nil
}

func (k RoomKey) String() string {
	return fmt.Sprintf("%s/%d/%s", k.SiteID, k.GridMeters, k.CellID)
}
