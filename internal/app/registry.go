package app

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/avdeyev/radar/internal/domain"
)

type connEntry struct {
	Loc       *domain.Location
	Label     string
	UpdatedAt time.Time
}

// Registry owns the process-wide connection map. All mutation goes
// through its methods; readers get copied views.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
	now   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[domain.ConnID]*connEntry),
		now:   time.Now,
	}
}

// Register creates an empty entry. Callers must supply fresh ids; a
// duplicate is a contract violation, not a runtime condition.
func (r *Registry) Register(id domain.ConnID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return domain.ErrDuplicateID
	}
	r.conns[id] = &connEntry{UpdatedAt: r.now()}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("registered connection")
	return nil
}

// UpdateLocation overwrites the location and refreshes the timestamp.
// A rejected update leaves prior state untouched.
func (r *Registry) UpdateLocation(id domain.ConnID, lat, lon float64, label string) error {
	loc, err := domain.NewLocation(lat, lon)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return domain.ErrUnknownConnection
	}
	e.Loc = &loc
	e.UpdatedAt = r.now()
	if label != "" {
		e.Label = clampLabel(label)
	}
	return nil
}

// SetLabel updates the label only. Unknown ids are ignored.
func (r *Registry) SetLabel(id domain.ConnID, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.Label = clampLabel(label)
		log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("label", e.Label).Msg("updated label")
	}
}

// clampLabel truncates on a rune boundary so a multibyte label never
// becomes invalid UTF-8.
func clampLabel(label string) string {
	if utf8.RuneCountInString(label) <= domain.MaxLabelLen {
		return label
	}
	return string([]rune(label)[:domain.MaxLabelLen])
}

// Remove deletes the entry. Idempotent; reports whether it existed.
func (r *Registry) Remove(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("removed connection")
	return true
}

func (r *Registry) Has(id domain.ConnID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[id]
	return ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// SweepStale removes every entry whose last update is older than
// now-maxAge and returns the removed ids.
func (r *Registry) SweepStale(maxAge time.Duration, now time.Time) []domain.ConnID {
	cutoff := now.Add(-maxAge)
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []domain.ConnID
	for id, e := range r.conns {
		if e.UpdatedAt.Before(cutoff) {
			delete(r.conns, id)
			removed = append(removed, id)
		}
	}
	if len(removed) > 0 {
		log.Info().Str("module", "app.registry").Int("removed", len(removed)).Msg("swept stale connections")
	}
	return removed
}

// PeerState is a read-only copy of one registry entry.
type PeerState struct {
	ID    domain.ConnID
	Label string
	Loc   *domain.Location
}

// View returns a copy of every entry. Locations are replaced wholesale
// on update, never mutated in place, so sharing the pointer is safe.
func (r *Registry) View() []PeerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PeerState, 0, len(r.conns))
	for id, e := range r.conns {
		out = append(out, PeerState{ID: id, Label: e.Label, Loc: e.Loc})
	}
	return out
}
