package app

import (
	"sort"

	"github.com/avdeyev/radar/internal/core"
	"github.com/avdeyev/radar/internal/domain"
	"github.com/avdeyev/radar/internal/geo"
)

const DefaultNearbyRadius = 100.0 // meters

// SnapshotBuilder computes viewer-specific presence views from the
// registry. It never mutates registry state.
type SnapshotBuilder struct {
	Registry     *Registry
	NearbyRadius float64
}

// BuildFor produces the personalized view for one viewer: every other
// located peer with distance and bearing, sorted ascending by
// distance with ties broken by id. A viewer without a location still
// gets the total count.
func (b *SnapshotBuilder) BuildFor(viewer domain.ConnID) core.PresenceSnapshot {
	peers := b.Registry.View()
	snap := core.PresenceSnapshot{
		Total:  len(peers),
		Others: []core.PeerEntry{},
	}

	var me *geo.Point
	for _, p := range peers {
		if p.ID == viewer && p.Loc != nil {
			me = &geo.Point{Lat: p.Loc.Lat, Lon: p.Loc.Lon}
			break
		}
	}
	if me == nil {
		return snap
	}

	for _, p := range peers {
		if p.ID == viewer || p.Loc == nil {
			continue
		}
		d := geo.Distance(*me, geo.Point{Lat: p.Loc.Lat, Lon: p.Loc.Lon})
		snap.Others = append(snap.Others, core.PeerEntry{
			ID:       p.ID,
			Label:    p.Label,
			Lat:      p.Loc.Lat,
			Lon:      p.Loc.Lon,
			Distance: d,
		})
		if d <= b.NearbyRadius {
			snap.NearbyCount++
		}
	}

	sort.Slice(snap.Others, func(i, j int) bool {
		if snap.Others[i].Distance != snap.Others[j].Distance {
			return snap.Others[i].Distance < snap.Others[j].Distance
		}
		return snap.Others[i].ID < snap.Others[j].ID
	})

	if len(snap.Others) > 0 {
		n := snap.Others[0]
		snap.Nearest = &core.NearestPeer{
			ID:       n.ID,
			Lat:      n.Lat,
			Lon:      n.Lon,
			Distance: n.Distance,
			Bearing:  geo.Bearing(*me, geo.Point{Lat: n.Lat, Lon: n.Lon}),
		}
	}
	return snap
}
