package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-fishtank-simulation/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfiguration is wrapped by every error caused by a bad parameter,
// whether it came from a file, an override or a direct call.
var ErrInvalidConfiguration = errors.New("invalid configuration")

//go:embed config.schema.json
var configSchemaJSON string

var configSchema = jsonschema.MustCompileString("config.schema.json", configSchemaJSON)

// Config holds every tunable of the tank. A Config is treated as an immutable
// value once handed to a Simulation; changes go through SetConfig.
type Config struct {
	// Tank
	HalfExtents       geometry.Vector3D `json:"halfExtents" yaml:"halfExtents"`
	WallThreshold     float64           `json:"wallThreshold" yaml:"wallThreshold"`
	LookAheadDistance float64           `json:"lookAheadDistance" yaml:"lookAheadDistance"`

	// Population
	FishCount int `json:"fishCount" yaml:"fishCount"`

	// Kinematics
	BaseSpeed              float64 `json:"baseSpeed" yaml:"baseSpeed"`
	MinSpeed               float64 `json:"minSpeed" yaml:"minSpeed"`
	MaxSpeed               float64 `json:"maxSpeed" yaml:"maxSpeed"`
	RotationSpeed          float64 `json:"rotationSpeed" yaml:"rotationSpeed"`                   // heading slerp rate per second
	AccelerationMultiplier float64 `json:"accelerationMultiplier" yaml:"accelerationMultiplier"` // |force| to speed change per second

	// Flocking
	NeighborDistance    float64 `json:"neighborDistance" yaml:"neighborDistance"`
	EnableCohesion      bool    `json:"enableCohesion" yaml:"enableCohesion"`
	EnableSeparation    bool    `json:"enableSeparation" yaml:"enableSeparation"`
	EnableAlignment     bool    `json:"enableAlignment" yaml:"enableAlignment"`
	EnableWandering     bool    `json:"enableWandering" yaml:"enableWandering"`
	EnableWallAvoidance bool    `json:"enableWallAvoidance" yaml:"enableWallAvoidance"`
	CohesionWeight      float64 `json:"cohesionWeight" yaml:"cohesionWeight"`
	SeparationWeight    float64 `json:"separationWeight" yaml:"separationWeight"`
	AlignmentWeight     float64 `json:"alignmentWeight" yaml:"alignmentWeight"`
	WanderingWeight     float64 `json:"wanderingWeight" yaml:"wanderingWeight"`
	WallAvoidanceWeight float64 `json:"wallAvoidanceWeight" yaml:"wallAvoidanceWeight"`
	WanderingStrength   float64 `json:"wanderingStrength" yaml:"wanderingStrength"`

	// Bubble trails
	EnableTrails        bool    `json:"enableTrails" yaml:"enableTrails"`
	MaxBubblesPerTrail  int     `json:"maxBubblesPerTrail" yaml:"maxBubblesPerTrail"`
	BubbleFadeDuration  float64 `json:"bubbleFadeDuration" yaml:"bubbleFadeDuration"`
	BubbleSpawnInterval float64 `json:"bubbleSpawnInterval" yaml:"bubbleSpawnInterval"` // delay before a new fish first emits
	BubbleIntervalMin   float64 `json:"bubbleIntervalMin" yaml:"bubbleIntervalMin"`
	BubbleIntervalMax   float64 `json:"bubbleIntervalMax" yaml:"bubbleIntervalMax"`
	BubbleScaleMin      float64 `json:"bubbleScaleMin" yaml:"bubbleScaleMin"`
	BubbleScaleMax      float64 `json:"bubbleScaleMax" yaml:"bubbleScaleMax"`

	// Seed drives spawn positions and wander noise; 0 picks one from the clock.
	Seed int64 `json:"seed" yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		HalfExtents:       geometry.Vector3D{X: 5, Y: 5, Z: 10},
		WallThreshold:     2,
		LookAheadDistance: 5,

		FishCount: 50,

		BaseSpeed:              3.5,
		MinSpeed:               2,
		MaxSpeed:               5,
		RotationSpeed:          5,
		AccelerationMultiplier: 2,

		NeighborDistance:    3,
		EnableCohesion:      true,
		EnableSeparation:    true,
		EnableAlignment:     true,
		EnableWandering:     true,
		EnableWallAvoidance: true,
		CohesionWeight:      1,
		SeparationWeight:    1.5,
		AlignmentWeight:     1,
		WanderingWeight:     0.5,
		WallAvoidanceWeight: 2,
		WanderingStrength:   0.5,

		EnableTrails:        true,
		MaxBubblesPerTrail:  10,
		BubbleFadeDuration:  2,
		BubbleSpawnInterval: 0.5,
		BubbleIntervalMin:   0.4,
		BubbleIntervalMax:   0.6,
		BubbleScaleMin:      0.2,
		BubbleScaleMax:      0.5,
	}
}

// Clone returns an independent copy.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// Validate reports every problem at once. Each one wraps ErrInvalidConfiguration.
func (c *Config) Validate() error {
	var problems []error
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfiguration}, args...)...))
	}

	if _, err := c.Bounds(); err != nil {
		add("%v", err)
	}
	if c.FishCount < 0 {
		add("fish count %d is negative", c.FishCount)
	}
	if c.MinSpeed < 0 {
		add("min speed %v is negative", c.MinSpeed)
	}
	if c.MinSpeed > c.MaxSpeed {
		add("min speed %v exceeds max speed %v", c.MinSpeed, c.MaxSpeed)
	} else if c.BaseSpeed < c.MinSpeed || c.BaseSpeed > c.MaxSpeed {
		add("base speed %v is outside [%v, %v]", c.BaseSpeed, c.MinSpeed, c.MaxSpeed)
	}
	if c.RotationSpeed < 0 {
		add("rotation speed %v is negative", c.RotationSpeed)
	}
	if c.AccelerationMultiplier < 0 {
		add("acceleration multiplier %v is negative", c.AccelerationMultiplier)
	}
	if c.NeighborDistance < 0 {
		add("neighbor distance %v is negative", c.NeighborDistance)
	}
	for name, w := range map[string]float64{
		"base speed":              c.BaseSpeed,
		"min speed":               c.MinSpeed,
		"max speed":               c.MaxSpeed,
		"rotation speed":          c.RotationSpeed,
		"acceleration multiplier": c.AccelerationMultiplier,
		"neighbor distance":       c.NeighborDistance,
		"bubble fade duration":    c.BubbleFadeDuration,
		"bubble spawn interval":   c.BubbleSpawnInterval,
		"bubble interval min":     c.BubbleIntervalMin,
		"bubble interval max":     c.BubbleIntervalMax,
		"bubble scale min":        c.BubbleScaleMin,
		"bubble scale max":        c.BubbleScaleMax,
		"cohesion weight":         c.CohesionWeight,
		"separation weight":       c.SeparationWeight,
		"alignment weight":        c.AlignmentWeight,
		"wandering weight":        c.WanderingWeight,
		"wall avoidance weight":   c.WallAvoidanceWeight,
		"wandering strength":      c.WanderingStrength,
	} {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			add("%s is not a finite number", name)
		}
	}
	if c.MaxBubblesPerTrail < 0 {
		add("max bubbles per trail %d is negative", c.MaxBubblesPerTrail)
	}
	if c.BubbleFadeDuration <= 0 {
		add("bubble fade duration %v must be positive", c.BubbleFadeDuration)
	}
	if c.BubbleSpawnInterval < 0 {
		add("bubble spawn interval %v is negative", c.BubbleSpawnInterval)
	}
	if c.BubbleIntervalMin <= 0 || c.BubbleIntervalMax < c.BubbleIntervalMin {
		add("bubble interval band [%v, %v) is invalid", c.BubbleIntervalMin, c.BubbleIntervalMax)
	}
	if c.BubbleScaleMin < 0 || c.BubbleScaleMax < c.BubbleScaleMin {
		add("bubble scale band [%v, %v) is invalid", c.BubbleScaleMin, c.BubbleScaleMax)
	}

	return errors.Join(problems...)
}

// Bounds builds the tank geometry.
func (c *Config) Bounds() (geometry.Bounds, error) {
	return geometry.NewBounds(c.HalfExtents, c.WallThreshold, c.LookAheadDistance)
}

// Settings extracts the steering parameters handed to the behavior engine each tick.
func (c *Config) Settings() behavior.Settings {
	return behavior.Settings{
		NeighborDistance:    c.NeighborDistance,
		EnableCohesion:      c.EnableCohesion,
		EnableSeparation:    c.EnableSeparation,
		EnableAlignment:     c.EnableAlignment,
		EnableWandering:     c.EnableWandering,
		EnableWallAvoidance: c.EnableWallAvoidance,
		CohesionWeight:      c.CohesionWeight,
		SeparationWeight:    c.SeparationWeight,
		AlignmentWeight:     c.AlignmentWeight,
		WanderingWeight:     c.WanderingWeight,
		WallAvoidanceWeight: c.WallAvoidanceWeight,
		WanderingStrength:   c.WanderingStrength,
	}
}

// LoadConfig reads a JSON or YAML file, validates it against the embedded schema
// and overlays it on DefaultConfig. Keys missing from the file keep their default.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var doc any
	switch ext := strings.ToLower(filepath.Ext(configFile)); ext {
	case ".json":
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}

	overrides, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must hold an object", ErrInvalidConfiguration, configFile)
	}
	cfg, err := DefaultConfig().ApplyOverrides(overrides)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", configFile, err)
	}
	return cfg, nil
}

// ApplyOverrides returns a copy of c with the given keys replaced. The keys use the
// same camelCase names as the config files and go through the same schema.
// c itself is never modified.
func (c *Config) ApplyOverrides(overrides map[string]any) (*Config, error) {
	// round-trip through JSON so YAML and structpb values look like decoded JSON to the validator
	raw, err := json.Marshal(overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to encode overrides: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode overrides: %w", err)
	}
	if err := configSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}

	cfg := c.Clone()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
