package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeyev/radar/internal/domain"
)

func roomKey(t *testing.T, site string, grid int, cell string) domain.RoomKey {
	t.Helper()
	key, err := domain.NewRoomKey(site, grid, cell)
	require.NoError(t, err)
	return key
}

func TestNewRoomKey(t *testing.T) {
	tests := []struct {
		name    string
		site    string
		grid    int
		cell    string
		wantErr bool
	}{
		{name: "complete", site: "A", grid: 50, cell: "3_4"},
		{name: "missing site", site: "", grid: 50, cell: "3_4", wantErr: true},
		{name: "zero grid", site: "A", grid: 0, cell: "3_4", wantErr: true},
		{name: "missing cell", site: "A", grid: 50, cell: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewRoomKey(tt.site, tt.grid, tt.cell)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrMissingRoomKey)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoomKey_Deterministic(t *testing.T) {
	a := roomKey(t, "A", 50, "3_4")
	b := roomKey(t, "A", 50, "3_4")
	assert.Equal(t, a, b)

	// distinct triples never collide, even when a naive string concat would
	c := roomKey(t, "A", 5, "03_4")
	assert.NotEqual(t, a, c)
}

func TestRoomManager_Enter(t *testing.T) {
	m := NewRoomManager()
	key := roomKey(t, "A", 50, "3_4")

	left, entered := m.Enter("a", key)
	assert.Nil(t, left)
	require.NotNil(t, entered)
	assert.Equal(t, key, entered.Key)
	assert.ElementsMatch(t, []domain.ConnID{"a"}, entered.Members)

	_, entered = m.Enter("b", key)
	require.NotNil(t, entered)
	assert.ElementsMatch(t, []domain.ConnID{"a", "b"}, entered.Members)
	assert.Equal(t, 2, m.MemberCount(key))
}

func TestRoomManager_EnterSameRoomIsNoop(t *testing.T) {
	m := NewRoomManager()
	key := roomKey(t, "A", 50, "3_4")
	m.Enter("a", key)

	left, entered := m.Enter("a", key)
	assert.Nil(t, left)
	assert.Nil(t, entered)
	assert.Equal(t, 1, m.MemberCount(key))
}

func TestRoomManager_EnterSwitchesRooms(t *testing.T) {
	m := NewRoomManager()
	first := roomKey(t, "A", 50, "3_4")
	second := roomKey(t, "A", 50, "3_5")
	m.Enter("a", first)
	m.Enter("b", first)

	left, entered := m.Enter("a", second)
	require.NotNil(t, left)
	assert.Equal(t, first, left.Key)
	assert.ElementsMatch(t, []domain.ConnID{"b"}, left.Members)
	require.NotNil(t, entered)
	assert.ElementsMatch(t, []domain.ConnID{"a"}, entered.Members)

	// member of exactly one room
	cur, ok := m.CurrentRoom("a")
	require.True(t, ok)
	assert.Equal(t, second, cur)
	assert.Equal(t, 1, m.MemberCount(first))
	assert.Equal(t, 1, m.MemberCount(second))
}

func TestRoomManager_SwitchOutOfEmptyingRoom(t *testing.T) {
	m := NewRoomManager()
	first := roomKey(t, "A", 50, "3_4")
	second := roomKey(t, "A", 50, "3_5")
	m.Enter("a", first)

	left, entered := m.Enter("a", second)
	// the old room vanished with its last member, nothing to announce
	assert.Nil(t, left)
	require.NotNil(t, entered)
	assert.Equal(t, 0, m.MemberCount(first))
	for _, info := range m.List() {
		assert.NotEqual(t, first, info.Key)
	}
}

func TestRoomManager_Leave(t *testing.T) {
	m := NewRoomManager()
	key := roomKey(t, "A", 50, "3_4")
	m.Enter("a", key)
	m.Enter("b", key)

	update := m.Leave("a")
	require.NotNil(t, update)
	assert.ElementsMatch(t, []domain.ConnID{"b"}, update.Members)

	// last member out deletes the room
	update = m.Leave("b")
	assert.Nil(t, update)
	assert.Equal(t, 0, m.MemberCount(key))
	assert.Empty(t, m.List())

	// leaving with no room is a no-op
	assert.Nil(t, m.Leave("a"))
}
