package simulation

import (
	"math"
	"math/rand/v2"

	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
)

// trailOffset is how far behind the fish a bubble appears.
const trailOffset = 0.5

// BubbleHandle names one bubble slot at one point of its life. Once the bubble
// fades, the slot's generation moves on and every handle to the old bubble
// goes stale.
type BubbleHandle struct {
	Index      int
	Generation uint32
}

type bubble struct {
	active     bool
	generation uint32
	position   geometry.Vector3D
	scale      float64
	elapsed    float64
	fade       float64
}

func (b *bubble) alpha() float64 {
	return math.Max(0, math.Min(1, 1-b.elapsed/b.fade))
}

// BubbleState is what a renderer needs to draw one bubble.
type BubbleState struct {
	Position geometry.Vector3D `json:"position"`
	Scale    float64           `json:"scale"`
	Alpha    float64           `json:"alpha"`
}

// PoolStats counts the slots of a BubblePool. Total only ever grows.
type PoolStats struct {
	Total  int `json:"total"`
	Free   int `json:"free"`
	Active int `json:"active"`
}

// BubblePool is an arena of bubbles shared by every fish. Slots are created on
// demand and never freed; a faded bubble goes to the back of the free list
// and the front of the list is reused first.
type BubblePool struct {
	slots  []bubble
	free   []int
	active int
}

func NewBubblePool() *BubblePool {
	return &BubblePool{}
}

// Spawn activates a bubble, reusing a free slot when there is one.
func (p *BubblePool) Spawn(position geometry.Vector3D, scale, fade float64) BubbleHandle {
	var i int
	if len(p.free) > 0 {
		i = p.free[0]
		p.free = p.free[1:]
	} else {
		p.slots = append(p.slots, bubble{})
		i = len(p.slots) - 1
	}

	b := &p.slots[i]
	b.active = true
	b.position = position
	b.scale = scale
	b.elapsed = 0
	b.fade = fade
	p.active++
	return BubbleHandle{Index: i, Generation: b.generation}
}

// Emit runs the trail timer of f for one tick and spawns a bubble behind it when
// the timer fires. The fish only keeps references to its newest
// MaxBubblesPerTrail bubbles; older ones keep fading on their own.
func (p *BubblePool) Emit(f *Fish, dt float64, cfg *Config, rng *rand.Rand) {
	f.trailTimer -= dt
	if f.trailTimer > 0 {
		return
	}
	f.trailTimer = uniform(rng, cfg.BubbleIntervalMin, cfg.BubbleIntervalMax)

	h := p.Spawn(
		f.position.Sub(f.heading.Mul(trailOffset)),
		uniform(rng, cfg.BubbleScaleMin, cfg.BubbleScaleMax),
		cfg.BubbleFadeDuration,
	)
	f.trail = append(f.trail, h)
	if over := len(f.trail) - cfg.MaxBubblesPerTrail; over > 0 {
		f.trail = append(f.trail[:0], f.trail[over:]...)
	}
}

// Advance ages every active bubble by dt and retires those whose fade is over.
func (p *BubblePool) Advance(dt float64) {
	for i := range p.slots {
		b := &p.slots[i]
		if !b.active {
			continue
		}
		b.elapsed += dt
		if b.elapsed >= b.fade {
			p.retire(i)
		}
	}
}

// Release retires the bubble at once. It reports false for a stale handle,
// in which case the slot, possibly reused by another fish, is left alone.
func (p *BubblePool) Release(h BubbleHandle) bool {
	if !p.Valid(h) {
		return false
	}
	p.retire(h.Index)
	return true
}

// Valid reports whether h still refers to an active bubble.
func (p *BubblePool) Valid(h BubbleHandle) bool {
	if h.Index < 0 || h.Index >= len(p.slots) {
		return false
	}
	b := &p.slots[h.Index]
	return b.active && b.generation == h.Generation
}

// Get returns the state of the bubble behind h.
func (p *BubblePool) Get(h BubbleHandle) (BubbleState, bool) {
	if !p.Valid(h) {
		return BubbleState{}, false
	}
	b := &p.slots[h.Index]
	return BubbleState{Position: b.position, Scale: b.scale, Alpha: b.alpha()}, true
}

// Live returns every active bubble in slot order.
func (p *BubblePool) Live() []BubbleState {
	out := make([]BubbleState, 0, p.active)
	for i := range p.slots {
		if b := &p.slots[i]; b.active {
			out = append(out, BubbleState{Position: b.position, Scale: b.scale, Alpha: b.alpha()})
		}
	}
	return out
}

func (p *BubblePool) Stats() PoolStats {
	return PoolStats{Total: len(p.slots), Free: len(p.free), Active: p.active}
}

func (p *BubblePool) retire(i int) {
	b := &p.slots[i]
	b.active = false
	b.generation++
	p.free = append(p.free, i)
	p.active--
}

// uniform draws from [lo, hi), or returns lo for an empty band.
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}
