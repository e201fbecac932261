// Package config loads the run configuration from an ini or yaml file on top of the
// embedded defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/EMinsight/fdtd3d/layout"
	"github.com/EMinsight/fdtd3d/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrConfig = errors.New("config: invalid configuration")

// Vec3 holds one value per axis. Only the axes of the scheme are used.
type Vec3 struct {
	X int32 `yaml:"x"`
	Y int32 `yaml:"y"`
	Z int32 `yaml:"z"`
}

type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Topology  TopologyConfig  `yaml:"topology"`
	Rebalance RebalanceConfig `yaml:"rebalance"`
	Run       RunConfig       `yaml:"run"`
	Log       LogConfig       `yaml:"log"`
}

type GridConfig struct {
	Scheme    string `yaml:"scheme"`
	Size      Vec3   `yaml:"size"`
	PML       Vec3   `yaml:"pml"`
	TFSFLeft  Vec3   `yaml:"tfsf_left"`
	TFSFRight Vec3   `yaml:"tfsf_right"`
	// incident wave angles, degrees
	Theta          float64 `yaml:"theta"`
	Phi            float64 `yaml:"phi"`
	Psi            float64 `yaml:"psi"`
	DoubleMaterial bool    `yaml:"double_material"`
}

type TopologyConfig struct {
	Shape         Vec3     `yaml:"shape"`
	Halo          int32    `yaml:"halo"`
	ShareInterval int32    `yaml:"share_interval"`
	Nodes         []string `yaml:"nodes"`
}

type RebalanceConfig struct {
	Interval  int64   `yaml:"interval"`
	Axis      string  `yaml:"axis"`
	Threshold float64 `yaml:"threshold"`
}

type RunConfig struct {
	Steps   int64  `yaml:"steps"`
	Workers int    `yaml:"workers"`
	Report  string `yaml:"report"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads path over the defaults. Files ending in .yaml or .yml are yaml, anything
// else is ini. An empty path gives the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		default:
			file, err := ini.Load(path)
			if err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
			loadIni(file, cfg)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadVec3(sec *ini.Section, name string, v *Vec3) {
	v.X = int32(sec.Key(name + "_x").MustInt(int(v.X)))
	v.Y = int32(sec.Key(name + "_y").MustInt(int(v.Y)))
	v.Z = int32(sec.Key(name + "_z").MustInt(int(v.Z)))
}

// loadIni overrides cfg with the keys present in file.
func loadIni(file *ini.File, cfg *Config) {
	g := file.Section("grid")
	cfg.Grid.Scheme = g.Key("scheme").MustString(cfg.Grid.Scheme)
	loadVec3(g, "size", &cfg.Grid.Size)
	loadVec3(g, "pml", &cfg.Grid.PML)
	loadVec3(g, "tfsf_left", &cfg.Grid.TFSFLeft)
	loadVec3(g, "tfsf_right", &cfg.Grid.TFSFRight)
	cfg.Grid.Theta = g.Key("theta").MustFloat64(cfg.Grid.Theta)
	cfg.Grid.Phi = g.Key("phi").MustFloat64(cfg.Grid.Phi)
	cfg.Grid.Psi = g.Key("psi").MustFloat64(cfg.Grid.Psi)
	cfg.Grid.DoubleMaterial = g.Key("double_material").MustBool(cfg.Grid.DoubleMaterial)

	t := file.Section("topology")
	loadVec3(t, "shape", &cfg.Topology.Shape)
	cfg.Topology.Halo = int32(t.Key("halo").MustInt(int(cfg.Topology.Halo)))
	cfg.Topology.ShareInterval = int32(t.Key("share_interval").MustInt(int(cfg.Topology.ShareInterval)))
	if t.HasKey("nodes") {
		cfg.Topology.Nodes = t.Key("nodes").Strings(",")
	}

	r := file.Section("rebalance")
	cfg.Rebalance.Interval = r.Key("interval").MustInt64(cfg.Rebalance.Interval)
	cfg.Rebalance.Axis = r.Key("axis").MustString(cfg.Rebalance.Axis)
	cfg.Rebalance.Threshold = r.Key("threshold").MustFloat64(cfg.Rebalance.Threshold)

	run := file.Section("run")
	cfg.Run.Steps = run.Key("steps").MustInt64(cfg.Run.Steps)
	cfg.Run.Workers = run.Key("workers").MustInt(cfg.Run.Workers)
	cfg.Run.Report = run.Key("report").MustString(cfg.Run.Report)

	cfg.Log.Level = file.Section("log").Key("level").MustString(cfg.Log.Level)
}

// Validate checks what the layout does not. Geometry is checked by layout.New.
func (c *Config) Validate() error {
	if _, err := model.ParseSchemeType(c.Grid.Scheme); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	for _, a := range []float64{c.Grid.Theta, c.Grid.Phi, c.Grid.Psi} {
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return fmt.Errorf("%w: angle %v", ErrConfig, a)
		}
	}
	if c.Topology.Halo < 1 {
		return fmt.Errorf("%w: halo width %d", ErrConfig, c.Topology.Halo)
	}
	if c.Topology.ShareInterval < 1 || c.Topology.ShareInterval > c.Topology.Halo {
		return fmt.Errorf("%w: share interval %d outside 1..%d", ErrConfig, c.Topology.ShareInterval, c.Topology.Halo)
	}
	if c.Rebalance.Interval < 1 {
		return fmt.Errorf("%w: rebalance interval %d", ErrConfig, c.Rebalance.Interval)
	}
	if c.Rebalance.Threshold < 0 {
		return fmt.Errorf("%w: rebalance threshold %v", ErrConfig, c.Rebalance.Threshold)
	}
	if _, err := c.RebalanceAxis(); err != nil {
		return err
	}
	if c.Run.Steps < 0 {
		return fmt.Errorf("%w: %d steps", ErrConfig, c.Run.Steps)
	}
	if c.Run.Workers < 1 {
		return fmt.Errorf("%w: %d workers", ErrConfig, c.Run.Workers)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}

func (c *Config) Scheme() model.SchemeType {
	s, err := model.ParseSchemeType(c.Grid.Scheme)
	if err != nil {
		panic(fmt.Sprintf("config: scheme %q was not validated", c.Grid.Scheme))
	}
	return s
}

func (c *Config) project(v Vec3) model.GridCoord {
	return model.InitAxes(v.X, v.Y, v.Z, c.Scheme().Axes())
}

// LayoutParams projects the grid section onto the axes of the scheme.
func (c *Config) LayoutParams() layout.Params {
	return layout.Params{
		Scheme:    c.Scheme(),
		Size:      c.project(c.Grid.Size),
		PML:       c.project(c.Grid.PML),
		TFSFLeft:  c.project(c.Grid.TFSFLeft),
		TFSFRight: c.project(c.Grid.TFSFRight),
		Angles: layout.Angles{
			Theta: c.Grid.Theta * math.Pi / 180,
			Phi:   c.Grid.Phi * math.Pi / 180,
			Psi:   c.Grid.Psi * math.Pi / 180,
		},
		DoubleMaterial: c.Grid.DoubleMaterial,
	}
}

// Shape is the requested process mesh, or the zero coordinate when any used axis is 0.
func (c *Config) Shape() model.GridCoord {
	shape := c.project(c.Topology.Shape)
	if shape.Volume() == 0 {
		return model.GridCoord{}
	}
	return shape
}

// RebalanceAxis returns AxisNone when the axis is left to the topology.
func (c *Config) RebalanceAxis() (model.Axis, error) {
	s := strings.TrimSpace(c.Rebalance.Axis)
	if s == "" || strings.EqualFold(s, "none") {
		return model.AxisNone, nil
	}
	a, err := model.ParseAxis(s)
	if err != nil {
		return model.AxisNone, fmt.Errorf("%w: rebalance axis: %v", ErrConfig, err)
	}
	return a, nil
}

// SetupLogging applies the log level.
func (c *Config) SetupLogging() {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(level)
}

func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
