package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func startTank(t *testing.T, cfg *Config) (context.Context, *actor.PID, <-chan *Snapshot) {
	t.Helper()
	ctx := context.Background()

	system, err := actor.NewActorSystem("fishtank-test", actor.WithLogger(golog.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, system.Start(ctx))
	t.Cleanup(func() { _ = system.Stop(ctx) })

	snapshots := make(chan *Snapshot, 16)
	pid, err := system.Spawn(ctx, "tank", NewTankActor(cfg, snapshots))
	require.NoError(t, err)
	return ctx, pid, snapshots
}

func nextSnapshot(t *testing.T, ch <-chan *Snapshot) *Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a snapshot")
		return nil
	}
}

func TestTankActor_Tick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.FishCount = 10
	ctx, pid, snapshots := startTank(t, cfg)

	require.NoError(t, actor.Tell(ctx, pid, durationpb.New(500*time.Millisecond)))
	snap := nextSnapshot(t, snapshots)

	assert.EqualValues(t, 1, snap.Tick)
	assert.InDelta(t, 0.5, snap.Time, 1e-9)
	assert.Len(t, snap.Fish, 10)
}

func TestTankActor_Population(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.FishCount = 10
	ctx, pid, snapshots := startTank(t, cfg)

	require.NoError(t, actor.Tell(ctx, pid, wrapperspb.UInt32(25)))
	require.NoError(t, actor.Tell(ctx, pid, durationpb.New(16*time.Millisecond)))
	snap := nextSnapshot(t, snapshots)

	assert.Len(t, snap.Fish, 25)
	assert.Equal(t, 25, snap.Target)
}

func TestTankActor_Scatter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	ctx, pid, snapshots := startTank(t, cfg)

	require.NoError(t, actor.Tell(ctx, pid, durationpb.New(16*time.Millisecond)))
	before := nextSnapshot(t, snapshots)

	require.NoError(t, actor.Tell(ctx, pid, &emptypb.Empty{}))
	require.NoError(t, actor.Tell(ctx, pid, durationpb.New(0)))
	after := nextSnapshot(t, snapshots)

	require.Len(t, after.Fish, len(before.Fish))
	moved := 0
	for i := range after.Fish {
		assert.Equal(t, cfg.BaseSpeed, after.Fish[i].Speed)
		if !after.Fish[i].Position.Eq(before.Fish[i].Position) {
			moved++
		}
	}
	assert.Equal(t, len(after.Fish), moved, "every fish should be thrown somewhere else")
}

func TestTankActor_ConfigOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.FishCount = 10
	ctx, pid, snapshots := startTank(t, cfg)

	overrides, err := structpb.NewStruct(map[string]any{"fishCount": 5, "enableTrails": false})
	require.NoError(t, err)
	require.NoError(t, actor.Tell(ctx, pid, overrides))
	require.NoError(t, actor.Tell(ctx, pid, durationpb.New(time.Second)))
	snap := nextSnapshot(t, snapshots)
	assert.Len(t, snap.Fish, 5)
	assert.Empty(t, snap.Bubbles)

	// rejected overrides leave the tank as it was
	bad, err := structpb.NewStruct(map[string]any{"minSpeed": 9})
	require.NoError(t, err)
	require.NoError(t, actor.Tell(ctx, pid, bad))
	require.NoError(t, actor.Tell(ctx, pid, durationpb.New(time.Second)))
	snap = nextSnapshot(t, snapshots)
	assert.EqualValues(t, 2, snap.Tick)
	assert.Len(t, snap.Fish, 5)
	for _, f := range snap.Fish {
		assert.LessOrEqual(t, f.Speed, cfg.MaxSpeed)
	}
}
