package app

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avdeyev/radar/internal/core"
	"github.com/avdeyev/radar/internal/domain"
)

// Dispatcher owns the conn id -> transport table and performs all
// outbound fan-out. Delivery is fire-and-forget: a failed send is
// dropped and the connection is left for the liveness monitor.
type Dispatcher struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]core.SignalConnection
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{conns: make(map[domain.ConnID]core.SignalConnection)}
}

func (d *Dispatcher) Bind(id domain.ConnID, conn core.SignalConnection) {
	d.mu.Lock()
	d.conns[id] = conn
	d.mu.Unlock()
}

// Drop unbinds the id and closes its transport. Safe to call twice.
func (d *Dispatcher) Drop(id domain.ConnID) {
	d.mu.Lock()
	conn, ok := d.conns[id]
	delete(d.conns, id)
	d.mu.Unlock()
	if ok {
		conn.Close()
	}
}

// NotifyViewer unicasts to one connection.
func (d *Dispatcher) NotifyViewer(id domain.ConnID, v any) {
	frame, ok := marshal(v)
	if !ok {
		return
	}
	d.mu.RLock()
	conn, bound := d.conns[id]
	d.mu.RUnlock()
	if !bound {
		return
	}
	d.send(id, conn, frame)
}

// NotifyAll sends to every bound connection.
func (d *Dispatcher) NotifyAll(v any) {
	frame, ok := marshal(v)
	if !ok {
		return
	}
	d.mu.RLock()
	targets := make(map[domain.ConnID]core.SignalConnection, len(d.conns))
	for id, conn := range d.conns {
		targets[id] = conn
	}
	d.mu.RUnlock()
	for id, conn := range targets {
		d.send(id, conn, frame)
	}
}

// NotifyRoom sends to an explicit member list.
func (d *Dispatcher) NotifyRoom(ids []domain.ConnID, v any) {
	frame, ok := marshal(v)
	if !ok {
		return
	}
	for _, id := range ids {
		d.mu.RLock()
		conn, bound := d.conns[id]
		d.mu.RUnlock()
		if bound {
			d.send(id, conn, frame)
		}
	}
}

func (d *Dispatcher) send(id domain.ConnID, conn core.SignalConnection, frame core.Frame) {
	if err := conn.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "app.dispatch").Str("conn", string(id)).Msg("send dropped")
	}
}

func marshal(v any) (core.Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatch").Msg("marshal payload")
		return nil, false
	}
	return b, true
}
