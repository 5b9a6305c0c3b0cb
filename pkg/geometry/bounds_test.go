package geometry

import (
	"math"
	"math/rand/v2"
	"testing"
)

func testBounds(t *testing.T) Bounds {
	t.Helper()
	b, err := NewBounds(Vector3D{5, 5, 10}, 2, 5)
	if err != nil {
		t.Fatalf("NewBounds: %v", err)
	}
	return b
}

func TestNewBounds_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		half      Vector3D
		threshold float64
		lookAhead float64
	}{
		{"ZeroX", Vector3D{0, 1, 1}, 1, 1},
		{"NegativeZ", Vector3D{1, 1, -1}, 1, 1},
		{"ZeroThreshold", Vector3D{1, 1, 1}, 0, 1},
		{"NegativeLookAhead", Vector3D{1, 1, 1}, 1, -1},
		{"NaNX", Vector3D{math.NaN(), 1, 1}, 1, 1},
		{"InfiniteY", Vector3D{1, math.Inf(1), 1}, 1, 1},
		{"NaNThreshold", Vector3D{1, 1, 1}, math.NaN(), 1},
		{"InfiniteThreshold", Vector3D{1, 1, 1}, math.Inf(1), 1},
		{"NaNLookAhead", Vector3D{1, 1, 1}, 1, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBounds(tt.half, tt.threshold, tt.lookAhead); err == nil {
				t.Errorf("NewBounds(%v, %v, %v) should fail", tt.half, tt.threshold, tt.lookAhead)
			}
		})
	}
}

func TestBounds_Clamp(t *testing.T) {
	b := testBounds(t)
	tests := []struct {
		name string
		in   Vector3D
		want Vector3D
	}{
		{"Inside", Vector3D{1, -2, 3}, Vector3D{1, -2, 3}},
		{"PastX", Vector3D{7, 0, 0}, Vector3D{5, 0, 0}},
		{"PastNegY", Vector3D{0, -9, 0}, Vector3D{0, -5, 0}},
		{"PastEverything", Vector3D{-20, 20, 30}, Vector3D{-5, 5, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := b.Clamp(tt.in)
			if !got.Eq(tt.want) {
				t.Errorf("Clamp(%v) = %v; want %v", tt.in, got, tt.want)
			}
			if !b.Contains(got) {
				t.Errorf("Clamp(%v) = %v is outside the bounds", tt.in, got)
			}
		})
	}
}

func TestBounds_PredictiveAvoidance_Centre(t *testing.T) {
	b := testBounds(t)
	// look-ahead point (0,0,5) is 5 from the +Z wall, more than the threshold
	if got := b.PredictiveAvoidance(Zero, Forward); !got.IsZero() {
		t.Errorf("PredictiveAvoidance at centre = %v; want zero", got)
	}
}

func TestBounds_PredictiveAvoidance_EachWall(t *testing.T) {
	b := testBounds(t)
	tests := []struct {
		name string
		pos  Vector3D
		dir  Vector3D
		want Vector3D
	}{
		{"PlusX", Vector3D{4, 0, 0}, Right, Left},
		{"MinusX", Vector3D{-4, 0, 0}, Left, Right},
		{"PlusY", Vector3D{0, 4, 0}, Up, Down},
		{"MinusY", Vector3D{0, -4, 0}, Down, Up},
		{"PlusZ", Vector3D{0, 0, 9}, Forward, Back},
		{"MinusZ", Vector3D{0, 0, -9}, Back, Forward},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.PredictiveAvoidance(tt.pos, tt.dir); !got.Eq(tt.want) {
				t.Errorf("PredictiveAvoidance(%v, %v) = %v; want %v", tt.pos, tt.dir, got, tt.want)
			}
		})
	}
}

func TestBounds_WallPressureIsMonotonic(t *testing.T) {
	b := testBounds(t)
	// sit at the +X wall minus half the threshold, swimming into it, and push the
	// look-ahead point from inside the threshold band through the wall
	pos := Vector3D{b.HalfExtents.X - b.WallThreshold/2, 0, 0}

	prev := 0.0
	for _, lookAhead := range []float64{-0.5, 0, 0.5, 1, 1.5, 2, 3} {
		ahead := b
		ahead.LookAheadDistance = lookAhead
		f := ahead.WallPressure(pos, Right)
		if f.X >= 0 || f.Y != 0 || f.Z != 0 {
			t.Fatalf("look-ahead %v: pressure %v should point along -X only", lookAhead, f)
		}
		if f.Len() <= prev {
			t.Errorf("look-ahead %v: pressure %v did not grow past %v", lookAhead, f.Len(), prev)
		}
		prev = f.Len()
	}

	if got := b.PredictiveAvoidance(pos, Right); !got.Eq(Left) {
		t.Errorf("PredictiveAvoidance near +X wall = %v; want %v", got, Left)
	}
}

func TestBounds_WallPressureCorner(t *testing.T) {
	b := testBounds(t)
	f := b.WallPressure(Vector3D{4.5, 4.5, 0}, Zero)
	// 0.5 from both walls: (2-0.5)/2 = 0.75 on each axis
	want := Vector3D{-0.75, -0.75, 0}
	if !f.Eq(want) {
		t.Errorf("corner pressure = %v; want %v", f, want)
	}
}

func TestBounds_RandomPoint(t *testing.T) {
	b := testBounds(t)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		if p := b.RandomPoint(rng); !b.Contains(p) {
			t.Fatalf("RandomPoint() = %v outside bounds", p)
		}
	}
}

func TestRandomDirection(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 1000; i++ {
		if d := RandomDirection(rng); !floatEquals(d.Len(), 1) {
			t.Fatalf("RandomDirection() = %v has length %v", d, d.Len())
		}
	}
}

func TestBounds_Wireframe(t *testing.T) {
	b := testBounds(t)
	corners := b.Corners()
	for _, e := range b.Edges() {
		d := corners[e[0]].Sub(corners[e[1]])
		// every edge runs along exactly one axis
		axes := 0
		for _, c := range [3]float64{d.X, d.Y, d.Z} {
			if c != 0 {
				axes++
			}
		}
		if axes != 1 {
			t.Errorf("edge %v spans %d axes (%v)", e, axes, d)
		}
	}
	for _, c := range corners {
		if !b.Contains(c) {
			t.Errorf("corner %v outside bounds", c)
		}
	}
}
