// Package viewer renders a running tank in an ebiten window and forwards the
// user's input to the tank actor.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/animation"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	panelWidth = 280.0
	orbitSpeed = 1.5 // radians per second while an arrow key is held

	// fish model, in tank units
	bodyLength = 0.45
	bodyWidth  = 0.14
	tailLength = 0.09 // per segment
)

var whiteImage = ebiten.NewImage(3, 3)

var (
	wireColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	waterColor  = color.RGBA{R: 8, G: 24, B: 48, A: 255}
	fishNear    = [3]float32{1, 0.6, 0.15}
	fishFar     = [3]float32{0.45, 0.3, 0.2}
	bubbleColor = color.NRGBA{R: 190, G: 225, B: 255}
)

// sliderBinding ties a panel slider to a config override key.
type sliderBinding struct {
	key    string
	slider *ui.Slider
}

type checkboxBinding struct {
	key      string
	checkbox *ui.Checkbox
}

type Game struct {
	ctx        context.Context
	tankPID    *actor.PID
	snapshotCh chan *simulation.Snapshot
	lastState  *simulation.Snapshot

	width, height int
	camera        geometry.Camera
	swing         animation.TailSwing
	scatter       bool

	// UI Controls
	panel            *ui.UIPanel
	widgetPopulation *ui.Slider
	sliders          []sliderBinding
	checkboxes       []checkboxBinding

	// reused between frames
	order    []int
	depths   []float64
	vertices []ebiten.Vertex
	indices  []uint16

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

// NewGame spawns the tank actor on system and builds the control panel.
func NewGame(ctx context.Context, system actor.ActorSystem, cfg *simulation.Config, width, height int) (*Game, error) {
	// Buffer to avoid blocking the tank
	snapshotCh := make(chan *simulation.Snapshot, 10)

	tankPID, err := system.Spawn(ctx, "tank", simulation.NewTankActor(cfg, snapshotCh))
	if err != nil {
		return nil, fmt.Errorf("spawn tank: %w", err)
	}

	g := &Game{
		ctx:        ctx,
		tankPID:    tankPID,
		snapshotCh: snapshotCh,
		lastState:  &simulation.Snapshot{HalfExtents: cfg.HalfExtents}, // Avoid nil pointer
		width:      width,
		height:     height,
		swing:      animation.DefaultTailSwing(),
	}

	reach := math.Max(cfg.HalfExtents.X, math.Max(cfg.HalfExtents.Y, cfg.HalfExtents.Z))
	g.camera = geometry.Camera{
		Yaw:      0.6,
		Pitch:    0.35,
		Distance: 3 * reach,
		Focal:    1.4 * float64(height),
		CenterX:  panelWidth + (float64(width)-panelWidth)/2,
		CenterY:  float64(height) / 2,
	}

	g.buildPanel(cfg)
	return g, nil
}

func (g *Game) buildPanel(cfg *simulation.Config) {
	panel := ui.NewUIPanel("Fish Tank", 10, 10, panelWidth-20, float64(g.height)-20)

	panel.AddSection("School")
	g.widgetPopulation = panel.AddSlider("Fish", 0, 500, float64(cfg.FishCount))
	g.widgetPopulation.Step = 1
	panel.AddButton("Scatter (Space)", func() { g.scatter = true })
	panel.EndSection()

	slider := func(key, label string, min, max, value float64) {
		g.sliders = append(g.sliders, sliderBinding{key, panel.AddSlider(label, min, max, value)})
	}
	checkbox := func(key, label string, value bool) {
		g.checkboxes = append(g.checkboxes, checkboxBinding{key, panel.AddCheckbox(label, value)})
	}

	panel.AddSection("Behaviours")
	checkbox("enableCohesion", "Cohesion", cfg.EnableCohesion)
	checkbox("enableSeparation", "Separation", cfg.EnableSeparation)
	checkbox("enableAlignment", "Alignment", cfg.EnableAlignment)
	checkbox("enableWandering", "Wandering", cfg.EnableWandering)
	checkbox("enableWallAvoidance", "Wall Avoidance", cfg.EnableWallAvoidance)
	panel.EndSection()

	panel.AddSection("Weights")
	slider("neighborDistance", "Neighbour Distance", 0.5, 10, cfg.NeighborDistance)
	slider("cohesionWeight", "Cohesion", 0, 5, cfg.CohesionWeight)
	slider("separationWeight", "Separation", 0, 5, cfg.SeparationWeight)
	slider("alignmentWeight", "Alignment", 0, 5, cfg.AlignmentWeight)
	slider("wanderingWeight", "Wandering", 0, 5, cfg.WanderingWeight)
	slider("wallAvoidanceWeight", "Wall Avoidance", 0, 5, cfg.WallAvoidanceWeight)
	slider("wanderingStrength", "Wander Strength", 0, 2, cfg.WanderingStrength)
	panel.EndSection()

	panel.AddSection("Motion")
	slider("rotationSpeed", "Rotation Speed", 0, 15, cfg.RotationSpeed)
	slider("accelerationMultiplier", "Acceleration", 0, 10, cfg.AccelerationMultiplier)
	panel.EndSection()

	panel.AddSection("Trails")
	checkbox("enableTrails", "Bubbles", cfg.EnableTrails)
	slider("maxBubblesPerTrail", "Bubbles per Fish", 0, 30, float64(cfg.MaxBubblesPerTrail))
	g.sliders[len(g.sliders)-1].slider.Step = 1
	slider("bubbleFadeDuration", "Fade Duration", 0.1, 6, cfg.BubbleFadeDuration)
	panel.EndSection()

	g.panel = panel
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	g.panel.Update()

	tps := ebiten.TPS()
	if tps <= 0 {
		tps = ebiten.DefaultTPS
	}
	frame := time.Second / time.Duration(tps)
	g.orbit(frame.Seconds())

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.scatter = true
	}
	if g.scatter {
		g.scatter = false
		if err := actor.Tell(g.ctx, g.tankPID, &emptypb.Empty{}); err != nil {
			return fmt.Errorf("scatter: %w", err)
		}
	}
	if err := g.sendControls(); err != nil {
		return err
	}

	// Retrieve latest state (non-blocking)
	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
		// Use previous state if new one isn't ready
	}

	if err := actor.Tell(g.ctx, g.tankPID, durationpb.New(frame)); err != nil {
		return fmt.Errorf("tick: %w", err)
	}
	return nil
}

func (g *Game) orbit(dt float64) {
	var dYaw, dPitch float64
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		dYaw -= orbitSpeed * dt
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		dYaw += orbitSpeed * dt
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		dPitch += orbitSpeed * dt
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		dPitch -= orbitSpeed * dt
	}
	g.camera.Orbit(dYaw, dPitch)
}

// sendControls forwards only the widgets the user touched this frame.
func (g *Game) sendControls() error {
	if g.widgetPopulation.Changed() {
		n := uint32(g.widgetPopulation.Value)
		if err := actor.Tell(g.ctx, g.tankPID, wrapperspb.UInt32(n)); err != nil {
			return fmt.Errorf("set population: %w", err)
		}
	}

	overrides := make(map[string]any)
	for _, b := range g.sliders {
		if b.slider.Changed() {
			overrides[b.key] = b.slider.Value
		}
	}
	for _, b := range g.checkboxes {
		if b.checkbox.Changed() {
			overrides[b.key] = b.checkbox.Value
		}
	}
	if len(overrides) == 0 {
		return nil
	}
	msg, err := structpb.NewStruct(overrides)
	if err != nil {
		return fmt.Errorf("encode overrides: %w", err)
	}
	if err := actor.Tell(g.ctx, g.tankPID, msg); err != nil {
		return fmt.Errorf("send overrides: %w", err)
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	screen.Fill(waterColor)
	g.drawTank(screen)
	g.drawBubbles(screen)
	g.drawFish(screen)

	g.panel.Draw(screen)

	snap := g.lastState
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms\n\nFish:    %d/%d\nBubbles: %d/%d\nTime:    %.1fs",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg,
		len(snap.Fish), snap.Target,
		snap.Pool.Active, snap.Pool.Total,
		snap.Time)
	ebitenutil.DebugPrintAt(screen, msg, g.width-170, 10)
	ebitenutil.DebugPrintAt(screen, "Space: scatter   Arrows: orbit", int(panelWidth)+10, g.height-24)
}

// drawTank strokes the twelve edges of the tank.
func (g *Game) drawTank(screen *ebiten.Image) {
	b := geometry.Bounds{HalfExtents: g.lastState.HalfExtents}
	corners := b.Corners()
	for _, e := range b.Edges() {
		x0, y0, _, ok0 := g.camera.Project(corners[e[0]])
		x1, y1, _, ok1 := g.camera.Project(corners[e[1]])
		if !ok0 || !ok1 {
			continue
		}
		vector.StrokeLine(screen, float32(x0), float32(y0), float32(x1), float32(y1), 1, wireColor, true)
	}
}

func (g *Game) drawBubbles(screen *ebiten.Image) {
	for _, b := range g.lastState.Bubbles {
		x, y, depth, ok := g.camera.Project(b.Position)
		if !ok {
			continue
		}
		clr := bubbleColor
		clr.A = uint8(180 * b.Alpha)
		r := 0.5 * b.Scale * g.camera.Scale(depth) * 0.2
		vector.FillCircle(screen, float32(x), float32(y), float32(math.Max(r, 1)), clr, true)
	}
}

// drawFish renders every fish as a body triangle plus a swinging tail, far
// fish first.
func (g *Game) drawFish(screen *ebiten.Image) {
	fish := g.lastState.Fish
	depth := g.depths[:0]
	g.order = g.order[:0]
	for i, f := range fish {
		depth = append(depth, g.camera.View(f.Position).Z)
		g.order = append(g.order, i)
	}
	g.depths = depth
	slices.SortFunc(g.order, func(a, b int) int {
		switch {
		case depth[a] > depth[b]:
			return -1
		case depth[a] < depth[b]:
			return 1
		}
		return 0
	})

	g.vertices = g.vertices[:0]
	g.indices = g.indices[:0]
	far := g.camera.Distance * 1.5
	for _, i := range g.order {
		f := fish[i]
		shade := float32(math.Min(1, math.Max(0, 1-depth[i]/far)))
		g.appendFish(f, lerp3(fishFar, fishNear, shade))
	}
	if len(g.indices) > 0 {
		screen.DrawTriangles(g.vertices, g.indices, whiteImage, &ebiten.DrawTrianglesOptions{})
	}
}

func (g *Game) appendFish(f simulation.FishState, rgb [3]float32) {
	facing := f.Facing
	if facing == (geometry.Orientation{}) {
		facing = geometry.LookRotation(f.Heading, geometry.Up)
	}
	up := facing.Rotate(geometry.Up)
	pose := g.swing.At(g.lastState.Time, animation.Phase(f.ID))

	fwd := yaw(facing.Rotate(geometry.Forward), up, pose.Body)
	side := fwd.Cross(up).Normalize()

	nose := f.Position.Add(fwd.Mul(bodyLength / 2))
	root := f.Position.Sub(fwd.Mul(bodyLength / 2))
	g.appendTriangle(rgb,
		nose,
		f.Position.Add(side.Mul(bodyWidth/2)),
		f.Position.Sub(side.Mul(bodyWidth/2)),
	)
	g.appendTriangle(rgb,
		f.Position.Add(side.Mul(bodyWidth/2)),
		f.Position.Sub(side.Mul(bodyWidth/2)),
		root,
	)

	// each segment turns relative to the one before it
	dir := fwd.Neg()
	joint := root
	width := bodyWidth / 2
	for _, a := range [3]float64{pose.Base, pose.Mid, pose.Tip} {
		dir = yaw(dir, up, a)
		next := joint.Add(dir.Mul(tailLength))
		s := dir.Cross(up).Normalize().Mul(width / 2)
		g.appendTriangle(rgb, joint.Add(s), joint.Sub(s), next)
		joint = next
		width *= 1.3
	}
}

func (g *Game) appendTriangle(rgb [3]float32, a, b, c geometry.Vector3D) {
	if len(g.vertices)+3 > math.MaxUint16 {
		return
	}
	var v [3]ebiten.Vertex
	for i, p := range [3]geometry.Vector3D{a, b, c} {
		x, y, _, ok := g.camera.Project(p)
		if !ok {
			return
		}
		v[i] = ebiten.Vertex{
			DstX: float32(x), DstY: float32(y),
			SrcX: 1, SrcY: 1,
			ColorR: rgb[0], ColorG: rgb[1], ColorB: rgb[2], ColorA: 1,
		}
	}
	base := uint16(len(g.vertices))
	g.vertices = append(g.vertices, v[:]...)
	g.indices = append(g.indices, base, base+1, base+2)
}

func (g *Game) Layout(w, h int) (int, int) { return g.width, g.height }

// yaw turns v (perpendicular to the unit axis up) by angle radians around up.
func yaw(v, up geometry.Vector3D, angle float64) geometry.Vector3D {
	sin, cos := math.Sincos(angle)
	return v.Mul(cos).Add(up.Cross(v).Mul(sin))
}

func lerp3(a, b [3]float32, t float32) [3]float32 {
	return [3]float32{
		a[0] + (b[0]-a[0])*t,
		a[1] + (b[1]-a[1])*t,
		a[2] + (b[2]-a[2])*t,
	}
}

func init() {
	whiteImage.Fill(color.White)
}
