package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avdeyev/radar/internal/core"
	"github.com/avdeyev/radar/internal/domain"
)

// RoomUpdate reports a membership change for one room, with the
// members remaining after the change.
type RoomUpdate struct {
	Key     domain.RoomKey
	Members []domain.ConnID
}

// RoomManager owns the room membership maps. A connection belongs to
// at most one room; a room with zero members is deleted immediately.
type RoomManager struct {
	mu      sync.Mutex
	members map[domain.RoomKey]map[domain.ConnID]struct{}
	current map[domain.ConnID]domain.RoomKey
}

func NewRoomManager() *RoomManager {
	return &RoomManager{
		members: make(map[domain.RoomKey]map[domain.ConnID]struct{}),
		current: make(map[domain.ConnID]domain.RoomKey),
	}
}

// Enter moves id into key's room, leaving any previous room first.
// The whole move happens under one lock, so the connection is never a
// member of two rooms. Both results are nil when id is already in key;
// left is nil when there was no previous room or it became empty.
func (m *RoomManager) Enter(id domain.ConnID, key domain.RoomKey) (left, entered *RoomUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.current[id]; ok {
		if prev == key {
			return nil, nil
		}
		left = m.dropLocked(id, prev)
	}

	set, ok := m.members[key]
	if !ok {
		set = make(map[domain.ConnID]struct{})
		m.members[key] = set
	}
	set[id] = struct{}{}
	m.current[id] = key
	log.Info().Str("module", "app.rooms").Str("conn", string(id)).Stringer("room", key).Int("count", len(set)).Msg("entered room")
	return left, &RoomUpdate{Key: key, Members: m.membersLocked(key)}
}

// Leave removes id from its current room, if any. Returns the update
// for the departed room, nil when the room was deleted or id had none.
func (m *RoomManager) Leave(id domain.ConnID) *RoomUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.current[id]
	if !ok {
		return nil
	}
	log.Info().Str("module", "app.rooms").Str("conn", string(id)).Stringer("room", key).Msg("left room")
	return m.dropLocked(id, key)
}

func (m *RoomManager) dropLocked(id domain.ConnID, key domain.RoomKey) *RoomUpdate {
	delete(m.current, id)
	set := m.members[key]
	delete(set, id)
	if len(set) == 0 {
		delete(m.members, key)
		return nil
	}
	return &RoomUpdate{Key: key, Members: m.membersLocked(key)}
}

func (m *RoomManager) membersLocked(key domain.RoomKey) []domain.ConnID {
	set := m.members[key]
	out := make([]domain.ConnID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func (m *RoomManager) MemberCount(key domain.RoomKey) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members[key])
}

func (m *RoomManager) CurrentRoom(id domain.ConnID) (domain.RoomKey, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key, ok := m.current[id]
	return key, ok
}

func (m *RoomManager) List() []core.RoomInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.RoomInfo, 0, len(m.members))
	for key, set := range m.members {
		out = append(out, core.RoomInfo{Key: key, MemberCount: len(set)})
	}
	return out
}
