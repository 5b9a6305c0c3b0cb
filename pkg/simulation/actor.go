package simulation

import (
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TankActor owns one Simulation and serializes every request to it through its
// mailbox. It understands four messages:
//
//	*durationpb.Duration     advance the tank by that much time, then publish a snapshot
//	*emptypb.Empty           scatter the school
//	*wrapperspb.UInt32Value  set the target population
//	*structpb.Struct         apply config overrides (same keys as the config file)
type TankActor struct {
	cfg        *Config
	opts       []Option
	sim        *Simulation
	snapshotCh chan<- *Snapshot

	// --- Benchmark Stats ---
	tickCount   int
	lastLogTime time.Time
}

var _ actor.Actor = (*TankActor)(nil)

// NewTankActor creates the actor. The simulation itself is built in PreStart so a
// bad config fails the spawn. snapshotCh may be nil when nobody watches.
func NewTankActor(cfg *Config, snapshotCh chan<- *Snapshot, opts ...Option) *TankActor {
	return &TankActor{
		cfg:        cfg,
		opts:       opts,
		snapshotCh: snapshotCh,
	}
}

func (t *TankActor) PreStart(ctx *actor.Context) error {
	opts := append([]Option{WithLogger(ctx.ActorSystem().Logger())}, t.opts...)
	sim, err := New(t.cfg, opts...)
	if err != nil {
		return err
	}
	t.sim = sim
	t.lastLogTime = time.Now()
	return nil
}

func (t *TankActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("Tank %s started with %d fish", ctx.Self().Name(), t.sim.Population())

	case *durationpb.Duration:
		t.logBenchmarks(ctx)
		t.sim.Tick(msg.AsDuration().Seconds())
		t.pushSnapshot()

	case *emptypb.Empty:
		t.sim.Scatter()

	case *wrapperspb.UInt32Value:
		if err := t.sim.SetTargetPopulation(int(msg.GetValue())); err != nil {
			ctx.Logger().Errorf("rejected population %d: %v", msg.GetValue(), err)
		}

	case *structpb.Struct:
		cfg, err := t.sim.Config().ApplyOverrides(msg.AsMap())
		if err == nil {
			err = t.sim.SetConfig(cfg)
		}
		if err != nil {
			ctx.Logger().Errorf("rejected config overrides: %v", err)
		}

	default:
		ctx.Unhandled()
	}
}

func (t *TankActor) PostStop(ctx *actor.Context) error {
	if t.sim != nil {
		ctx.ActorSystem().Logger().Infof("Tank %s is shutdown after %d ticks", ctx.ActorName(), t.sim.Ticks())
	}
	return nil
}

func (t *TankActor) logBenchmarks(ctx *actor.ReceiveContext) {
	t.tickCount++
	if time.Since(t.lastLogTime) >= time.Second {
		stats := t.sim.PoolStats()
		ctx.Logger().Infof("📊 TICK RATE: %d/sec | Fish: %d | Bubbles: %d active, %d free",
			t.tickCount, t.sim.Population(), stats.Active, stats.Free)
		t.tickCount = 0
		t.lastLogTime = time.Now()
	}
}

func (t *TankActor) pushSnapshot() {
	if t.snapshotCh == nil {
		return
	}
	select {
	case t.snapshotCh <- t.sim.Snapshot():
	default:
		// UI busy, skip frame
	}
}
