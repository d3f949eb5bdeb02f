package ws

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avdeyev/radar/internal/app"
	"github.com/avdeyev/radar/internal/config"
	"github.com/avdeyev/radar/internal/core"
	"github.com/avdeyev/radar/internal/domain"
)

type mockConn struct {
	mu       sync.Mutex
	received []core.Frame
	closed   bool
}

func (m *mockConn) TrySend(f core.Frame) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, f)
	return nil
}

func (m *mockConn) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func newTestController(t *testing.T) (*Controller, domain.ConnID) {
	t.Helper()
	reg := app.NewRegistry()
	orch := &app.Orchestrator{
		Registry:  reg,
		Rooms:     app.NewRoomManager(),
		Snapshots: &app.SnapshotBuilder{Registry: reg, NearbyRadius: app.DefaultNearbyRadius},
		Dispatch:  app.NewDispatcher(),
	}
	ctl := NewController(orch, &config.Config{ReadLimit: 4096, PingPeriod: 30 * time.Second})

	id := domain.ConnID("conn-1")
	require.NoError(t, orch.OnConnect(id, &mockConn{}))
	return ctl, id
}

func storedLocation(ctl *Controller, id domain.ConnID) *domain.Location {
	for _, p := range ctl.Orch.Registry.View() {
		if p.ID == id {
			return p.Loc
		}
	}
	return nil
}

func TestHandleMessage_Location(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		stored  bool
	}{
		{
			name:    "valid update",
			payload: `{"type":"location","lat":10,"lon":20}`,
			stored:  true,
		},
		{
			name:    "partial payload without coordinates",
			payload: `{"type":"location"}`,
		},
		{
			name:    "lon missing",
			payload: `{"type":"location","lat":10}`,
		},
		{
			name:    "lat out of range",
			payload: `{"type":"location","lat":90.5,"lon":0}`,
		},
		{
			name:    "lon out of range",
			payload: `{"type":"location","lat":0,"lon":-180.5}`,
		},
		{
			name:    "lat wrong type",
			payload: `{"type":"location","lat":"10","lon":20}`,
		},
		{
			name:    "not json at all",
			payload: `location 10 20`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl, id := newTestController(t)

			ctl.handleMessage(id, []byte(tt.payload))

			loc := storedLocation(ctl, id)
			if tt.stored {
				require.NotNil(t, loc)
				assert.Equal(t, 10.0, loc.Lat)
				assert.Equal(t, 20.0, loc.Lon)
			} else {
				assert.Nil(t, loc)
			}
			// a discarded message never costs the connection
			assert.True(t, ctl.Orch.Registry.Has(id))
		})
	}
}

func TestHandleMessage_RejectedUpdateKeepsPriorLocation(t *testing.T) {
	ctl, id := newTestController(t)
	ctl.handleMessage(id, []byte(`{"type":"location","lat":10,"lon":20}`))

	ctl.handleMessage(id, []byte(`{"type":"location","lon":55}`))

	loc := storedLocation(ctl, id)
	require.NotNil(t, loc)
	assert.Equal(t, 10.0, loc.Lat)
	assert.Equal(t, 20.0, loc.Lon)
}

func TestHandleMessage_Room(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		inRoom  bool
	}{
		{
			name:    "valid join",
			payload: `{"type":"join","siteId":"A","gridMeters":50,"cellId":"3_4"}`,
			inRoom:  true,
		},
		{
			name:    "missing site",
			payload: `{"type":"join","gridMeters":50,"cellId":"3_4"}`,
		},
		{
			name:    "zero grid",
			payload: `{"type":"join","siteId":"A","gridMeters":0,"cellId":"3_4"}`,
		},
		{
			name:    "missing cell",
			payload: `{"type":"switch","siteId":"A","gridMeters":50}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl, id := newTestController(t)

			ctl.handleMessage(id, []byte(tt.payload))

			_, ok := ctl.Orch.Rooms.CurrentRoom(id)
			assert.Equal(t, tt.inRoom, ok)
		})
	}
}

func TestHandleMessage_UnknownTypeIgnored(t *testing.T) {
	ctl, id := newTestController(t)
	ctl.handleMessage(id, []byte(`{"type":"teleport"}`))
	assert.True(t, ctl.Orch.Registry.Has(id))
}
