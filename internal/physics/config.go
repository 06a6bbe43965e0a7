package physics

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/time/rate"
)

// Config is the [physics] section of a world config file.
type Config struct {
	Gravity                  [3]float64 `toml:"gravity"`
	TickRate                 float64    `toml:"tick-rate"`
	MaxSubSteps              int        `toml:"max-sub-steps"`
	ContactBreakingThreshold float64    `toml:"contact-breaking-threshold"`

	// NoSimulation skips Simulate entirely, for debugging.
	NoSimulation bool `toml:"no-simulation"`

	Debug       DebugConfig `toml:"debug"`
	Diagnostics Limiter     `toml:"diagnostics"`
}

// DebugConfig selects what DrawDebug draws.
type DebugConfig struct {
	DrawCollisionShapes bool `toml:"draw-collision-shapes"`
	DrawContactPoints   bool `toml:"draw-contact-points"`
	DrawAABBs           bool `toml:"draw-aabbs"`
	DrawCenterOfMass    bool `toml:"draw-center-of-mass"`
}

// Limiter caps how often one diagnostic category may log, for example at
// most N messages every 5s.
type Limiter struct {
	Every duration `toml:"every"`
	N     int      `toml:"n"`
}

func (l *Limiter) Limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(l.Every.Duration), l.N)
}

type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func DefaultConfig() Config {
	return Config{
		Gravity:                  [3]float64{0, -9.81, 0},
		TickRate:                 60,
		MaxSubSteps:              8,
		ContactBreakingThreshold: 0.02,
		Diagnostics:              Limiter{Every: duration{5 * time.Second}, N: 4},
	}
}

// FixedTimeStep is the length of one sub-step in seconds.
func (c Config) FixedTimeStep() float64 {
	if c.TickRate <= 0 {
		return 1.0 / 60
	}
	return 1 / c.TickRate
}

func (c Config) GravityVec() mgl64.Vec3 {
	return mgl64.Vec3(c.Gravity)
}

// Validate rejects values the simulation cannot run with.
func (c Config) Validate() error {
	if c.TickRate <= 0 {
		return fmt.Errorf("tick-rate must be positive, got %v", c.TickRate)
	}
	if c.MaxSubSteps < 0 {
		return fmt.Errorf("max-sub-steps must not be negative, got %d", c.MaxSubSteps)
	}
	if c.ContactBreakingThreshold <= 0 {
		return fmt.Errorf("contact-breaking-threshold must be positive, got %v", c.ContactBreakingThreshold)
	}
	return nil
}

// LoadConfig reads a TOML file over DefaultConfig. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("physics: unmarshal %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		var unknown ErrUnknownConfig
		for _, key := range undecoded {
			unknown = append(unknown, key.String())
		}
		return Config{}, fmt.Errorf("physics: unmarshal %s: %w", path, unknown)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("physics: %s: %w", path, err)
	}
	return c, nil
}

// ErrUnknownConfig lists config keys that no field consumed.
type ErrUnknownConfig []string

func (e ErrUnknownConfig) Error() string {
	return "unknown config keys: [" + strings.Join(e, ", ") + "]"
}
