package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_ReapsOnTick(t *testing.T) {
	o := newTestOrchestrator()
	o.Registry.now = func() time.Time { return time.Now().Add(-time.Hour) }
	conn := connect(t, o, "stale")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := &Monitor{Orch: o, Interval: 5 * time.Millisecond, MaxAge: time.Minute}
	go m.Run(ctx)

	require.Eventually(t, conn.isClosed, time.Second, 5*time.Millisecond)
	assert.False(t, o.Registry.Has("stale"))
}
