package core

import "github.com/avdeyev/radar/internal/domain"

// Frame is a marshaled outbound message.
type Frame []byte

// SignalConnection abstracts the messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PeerEntry is one row of a viewer's sorted peer list.
type PeerEntry struct {
	ID       domain.ConnID `json:"id"`
	Label    string        `json:"label,omitempty"`
	Lat      float64       `json:"lat"`
	Lon      float64       `json:"lon"`
	Distance float64       `json:"distance"`
}

// NearestPeer points the viewer at its closest located peer.
type NearestPeer struct {
	ID       domain.ConnID `json:"id"`
	Lat      float64       `json:"lat"`
	Lon      float64       `json:"lon"`
	Distance float64       `json:"distance"`
	Bearing  float64       `json:"bearing"`
}

// PresenceSnapshot is a viewer-specific, point-in-time view of nearby
// peers. Recomputed fresh on every location update, never cached.
type PresenceSnapshot struct {
	Total       int          `json:"total"`
	NearbyCount int          `json:"nearbyCount"`
	Nearest     *NearestPeer `json:"nearest"`
	Others      []PeerEntry  `json:"others"`
}

// RoomInfo is a read-only view for APIs.
type RoomInfo struct {
	Key         domain.RoomKey `json:"key"`
	MemberCount int            `json:"memberCount"`
}
