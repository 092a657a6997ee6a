package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid marks configuration errors. They are fatal at startup;
// the process exits non-zero instead of running with a guessed world.
var ErrInvalid = errors.New("config: invalid")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Path is the config file location. Empty means built-in defaults.
type Path string

// Config is the full initial configuration: global parameters plus the
// initial entity list. The schema is closed; unknown fields fail the
// load rather than being carried as an open attribute bag.
type Config struct {
	LogLevel string `yaml:"log_level"`
	Seed     int64  `yaml:"seed"`
	TickRate int    `yaml:"tick_rate"`
	Capacity int    `yaml:"capacity"`

	Grid     Grid                `yaml:"grid"`
	Params   map[string]float64  `yaml:"params"`
	Scripts  map[string]Script   `yaml:"scripts"`
	Entities []Entity            `yaml:"entities"`
	Feed     Feed                `yaml:"feed"`
	Watch    bool                `yaml:"watch"`
}

type Grid struct {
	Width    int     `yaml:"width"`
	Height   int     `yaml:"height"`
	CellSize float64 `yaml:"cell_size"`
}

type Feed struct {
	Listen       string   `yaml:"listen"`
	PushInterval Duration `yaml:"push_interval"`
}

// Duration parses yaml strings like "50ms"; bare integers are taken
// as nanoseconds the way time.Duration natively is.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return invalidf("bad duration %q: %v", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return invalidf("bad duration node %q", value.Value)
	}
	*d = Duration(n)
	return nil
}

// Script names a behavior script. Exactly one of File or Source is
// set; File is resolved relative to the config file and read at load.
type Script struct {
	File   string `yaml:"file"`
	Source string `yaml:"source"`
}

type Entity struct {
	Kind     string    `yaml:"kind"`
	Count    int       `yaml:"count"`
	Position *Position `yaml:"position"`
	Motion   *Motion   `yaml:"motion"`
	Energy   *float64  `yaml:"energy"`
	Food     *Food     `yaml:"food"`
	Source   *Source   `yaml:"source"`
	Behavior *Behavior `yaml:"behavior"`
}

type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Motion struct {
	Angle   float64 `yaml:"angle"`
	Speed   float64 `yaml:"speed"`
	Agility float64 `yaml:"agility"`
}

type Food struct {
	Value  float64 `yaml:"value"`
	Expiry uint64  `yaml:"expiry"`
}

type Source struct {
	Capacity   float64 `yaml:"capacity"`
	Regen      float64 `yaml:"regen"`
	Interval   uint64  `yaml:"interval"`
	DropCost   float64 `yaml:"drop_cost"`
	DropValue  float64 `yaml:"drop_value"`
	DropExpiry uint64  `yaml:"drop_expiry"`
}

type Behavior struct {
	Rule string `yaml:"rule"`
}

// Default returns the built-in configuration: a centered cluster of
// food sources and a handful of wandering agents, matching the classic
// demo scene.
func Default() *Config {
	cfg := &Config{
		LogLevel: "info",
		Seed:     1,
		TickRate: 60,
		Capacity: 1000,
		Grid:     Grid{Width: 40, Height: 30, CellSize: 16},
		Params: map[string]float64{
			"speed_scale": 1,
			"regen_scale": 1,
			"radius":      48,
		},
		Feed: Feed{Listen: "127.0.0.1:8080", PushInterval: Duration(50 * time.Millisecond)},
	}
	midX := float64(cfg.Grid.Width/2+1) * cfg.Grid.CellSize
	midY := float64(cfg.Grid.Height/2+1) * cfg.Grid.CellSize
	off := 2 * cfg.Grid.CellSize
	for _, p := range []Position{
		{X: midX, Y: midY},
		{X: midX - off, Y: midY - off},
		{X: midX + off, Y: midY + off},
		{X: midX - off, Y: midY + off},
		{X: midX + off, Y: midY - off},
	} {
		pos := p
		cfg.Entities = append(cfg.Entities, Entity{Kind: "source", Position: &pos})
	}
	cfg.Entities = append(cfg.Entities, Entity{
		Kind:     "agent",
		Count:    5,
		Position: &Position{X: midX, Y: midY},
		Behavior: &Behavior{Rule: "wander"},
	})
	return cfg
}

// Load reads and validates a configuration file. An empty path yields
// the defaults. Script files are read here so a missing script fails
// the startup, not the first tick.
func Load(path Path) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(string(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	defer func() { _ = f.Close() }()

	cfg := &Config{}
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.loadScripts(filepath.Dir(string(path))); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.TickRate == 0 {
		c.TickRate = 60
	}
	if c.Grid.Width == 0 {
		c.Grid.Width = 40
	}
	if c.Grid.Height == 0 {
		c.Grid.Height = 30
	}
	if c.Grid.CellSize == 0 {
		c.Grid.CellSize = 16
	}
	if c.Params == nil {
		c.Params = map[string]float64{}
	}
	if c.Feed.Listen == "" {
		c.Feed.Listen = "127.0.0.1:8080"
	}
	if c.Feed.PushInterval == 0 {
		c.Feed.PushInterval = Duration(50 * time.Millisecond)
	}
}

func (c *Config) validate() error {
	if c.TickRate <= 0 {
		return invalidf("tick_rate must be positive, got %d", c.TickRate)
	}
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return invalidf("grid must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if c.Grid.CellSize <= 0 {
		return invalidf("grid.cell_size must be positive, got %v", c.Grid.CellSize)
	}
	if c.Capacity < 0 {
		return invalidf("capacity must not be negative, got %d", c.Capacity)
	}
	for name, s := range c.Scripts {
		if (s.File == "") == (s.Source == "") {
			return invalidf("script %q needs exactly one of file or source", name)
		}
	}
	width := float64(c.Grid.Width) * c.Grid.CellSize
	height := float64(c.Grid.Height) * c.Grid.CellSize
	for i, e := range c.Entities {
		if e.Count < 0 {
			return invalidf("entities[%d]: count must not be negative", i)
		}
		if e.Position == nil {
			return invalidf("entities[%d]: position is required", i)
		}
		if e.Position.X < 0 || e.Position.X > width || e.Position.Y < 0 || e.Position.Y > height {
			return invalidf("entities[%d]: position (%v, %v) outside world %vx%v",
				i, e.Position.X, e.Position.Y, width, height)
		}
	}
	return nil
}

func (c *Config) loadScripts(baseDir string) error {
	for name, s := range c.Scripts {
		if s.File == "" {
			continue
		}
		src, err := os.ReadFile(filepath.Join(baseDir, s.File))
		if err != nil {
			return invalidf("script %q: %v", name, err)
		}
		s.Source = string(src)
		c.Scripts[name] = s
	}
	return nil
}

// WorldWidth is the world extent in units along X.
func (c *Config) WorldWidth() float64 {
	return float64(c.Grid.Width) * c.Grid.CellSize
}

// WorldHeight is the world extent in units along Y.
func (c *Config) WorldHeight() float64 {
	return float64(c.Grid.Height) * c.Grid.CellSize
}

// FixedDT is the fixed timestep in seconds.
func (c *Config) FixedDT() float64 {
	return 1 / float64(c.TickRate)
}
