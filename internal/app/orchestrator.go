package app

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/avdeyev/radar/internal/core"
	"github.com/avdeyev/radar/internal/domain"
)

// Orchestrator composes the registry, room manager, snapshot builder
// and dispatcher into the event handlers the transport adapter calls.
// One mutex serializes every handler, so each event is an atomic unit
// of work: teardown for a connection is fully applied before any later
// event for the same id takes effect, and late events degrade to
// no-ops. Sends inside a handler never block (TrySend), so holding
// the lock across the fan-out is safe.
type Orchestrator struct {
	Registry  *Registry
	Rooms     *RoomManager
	Snapshots *SnapshotBuilder
	Dispatch  *Dispatcher

	mu sync.Mutex
}

type totalCountMsg struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type roomCountMsg struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type presenceMsg struct {
	Type string `json:"type"`
	core.PresenceSnapshot
}

type roomJoinedMsg struct {
	Type       string `json:"type"`
	SiteID     string `json:"siteId"`
	GridMeters int    `json:"gridMeters"`
	CellID     string `json:"cellId"`
}

// OnConnect registers the connection and announces the new total.
func (o *Orchestrator) OnConnect(id domain.ConnID, conn core.SignalConnection) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.Registry.Register(id); err != nil {
		return err
	}
	o.Dispatch.Bind(id, conn)
	o.broadcastTotal()
	return nil
}

// OnLocation validates and stores the update, then unicasts a fresh
// presence snapshot back to the sender.
func (o *Orchestrator) OnLocation(id domain.ConnID, lat, lon float64, label string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.Registry.UpdateLocation(id, lat, lon, label); err != nil {
		if errors.Is(err, domain.ErrUnknownConnection) {
			// late message for an already reaped connection
			return nil
		}
		return err
	}
	snap := o.Snapshots.BuildFor(id)
	o.Dispatch.NotifyViewer(id, presenceMsg{Type: "presence", PresenceSnapshot: snap})
	return nil
}

func (o *Orchestrator) OnSetLabel(id domain.ConnID, label string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Registry.SetLabel(id, label)
}

// OnJoinRoom adds the connection to the keyed room and announces the
// new occupancy. Joining the current room again only re-acks.
func (o *Orchestrator) OnJoinRoom(id domain.ConnID, siteID string, gridMeters int, cellID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	key, err := domain.NewRoomKey(siteID, gridMeters, cellID)
	if err != nil {
		return err
	}
	if !o.Registry.Has(id) {
		return nil
	}
	left, entered := o.Rooms.Enter(id, key)
	o.announceRoom(left)
	o.announceRoom(entered)
	o.Dispatch.NotifyViewer(id, roomJoinedMsg{
		Type:       "room_joined",
		SiteID:     key.SiteID,
		GridMeters: key.GridMeters,
		CellID:     key.CellID,
	})
	return nil
}

// OnSwitchRoom is join-if-different: switching to the current room is
// a complete no-op, with no broadcast and no ack.
func (o *Orchestrator) OnSwitchRoom(id domain.ConnID, siteID string, gridMeters int, cellID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	key, err := domain.NewRoomKey(siteID, gridMeters, cellID)
	if err != nil {
		return err
	}
	if !o.Registry.Has(id) {
		return nil
	}
	left, entered := o.Rooms.Enter(id, key)
	if left == nil && entered == nil {
		return nil
	}
	o.announceRoom(left)
	o.announceRoom(entered)
	o.Dispatch.NotifyViewer(id, roomJoinedMsg{
		Type:       "room_joined",
		SiteID:     key.SiteID,
		GridMeters: key.GridMeters,
		CellID:     key.CellID,
	})
	return nil
}

// OnDisconnect tears the connection down: room departure, registry
// removal, transport close, total broadcast. Idempotent.
func (o *Orchestrator) OnDisconnect(id domain.ConnID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if left := o.Rooms.Leave(id); left != nil {
		o.announceRoom(left)
	}
	removed := o.Registry.Remove(id)
	o.Dispatch.Drop(id)
	if removed {
		o.broadcastTotal()
	}
}

// ReapStale purges every registry entry older than maxAge. Reaped
// connections go through the same teardown as an explicit disconnect,
// so observers cannot tell the two apart.
func (o *Orchestrator) ReapStale(maxAge time.Duration, now time.Time) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	ids := o.Registry.SweepStale(maxAge, now)
	for _, id := range ids {
		if left := o.Rooms.Leave(id); left != nil {
			o.announceRoom(left)
		}
		o.Dispatch.Drop(id)
		log.Info().Str("module", "app.orchestrator").Str("conn", string(id)).Msg("reaped stale connection")
	}
	if len(ids) > 0 {
		o.broadcastTotal()
	}
	return len(ids)
}

func (o *Orchestrator) announceRoom(u *RoomUpdate) {
	if u == nil {
		return
	}
	o.Dispatch.NotifyRoom(u.Members, roomCountMsg{Type: "room_count", Count: len(u.Members)})
}

func (o *Orchestrator) broadcastTotal() {
	o.Dispatch.NotifyAll(totalCountMsg{Type: "total_count", Count: o.Registry.Count()})
}
