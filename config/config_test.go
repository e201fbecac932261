package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EMinsight/fdtd3d/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, model.Dim3, cfg.Scheme())
	assert.Equal(t, Vec3{40, 40, 40}, cfg.Grid.Size)
	assert.Equal(t, int32(1), cfg.Topology.Halo)
	assert.Equal(t, int64(100), cfg.Rebalance.Interval)
	assert.Equal(t, 4, cfg.Run.Workers)
	assert.Equal(t, 0, cfg.Shape().Dims())

	a, err := cfg.RebalanceAxis()
	require.NoError(t, err)
	assert.Equal(t, model.AxisNone, a)
}

func TestLoadIni(t *testing.T) {
	path := writeFile(t, "run.ini", `
[grid]
scheme = 2d-tmz
size_x = 100
size_y = 60
pml_x = 5
pml_y = 5
tfsf_left_x = 10
tfsf_left_y = 10
tfsf_right_x = 10
tfsf_right_y = 10
phi = 45

[topology]
shape_x = 2
shape_y = 1
halo = 2
share_interval = 2
nodes = 127.0.0.1:9000, 127.0.0.1:9001

[rebalance]
axis = x
interval = 20

[run]
steps = 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	p := cfg.LayoutParams()
	assert.Equal(t, model.Dim2TMz, p.Scheme)
	assert.Equal(t, model.Coord2[int32](100, 60, model.AxisX, model.AxisY), p.Size)
	assert.Equal(t, model.Coord2[int32](5, 5, model.AxisX, model.AxisY), p.PML)
	assert.InDelta(t, math.Pi/4, p.Angles.Phi, 1e-12)
	assert.InDelta(t, math.Pi/2, p.Angles.Theta, 1e-12)

	assert.Equal(t, model.Coord2[int32](2, 1, model.AxisX, model.AxisY), cfg.Shape())
	assert.Equal(t, []string{"127.0.0.1:9000", "127.0.0.1:9001"}, cfg.Topology.Nodes)
	assert.Equal(t, int64(20), cfg.Rebalance.Interval)
	assert.Equal(t, 0.05, cfg.Rebalance.Threshold)
	assert.Equal(t, int64(50), cfg.Run.Steps)

	a, err := cfg.RebalanceAxis()
	require.NoError(t, err)
	assert.Equal(t, model.AxisX, a)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
grid:
  scheme: 1d-ezhy
  size: {x: 80}
  pml: {x: 4}
  tfsf_left: {x: 10}
  tfsf_right: {x: 10}
run:
  workers: 2
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, model.Dim1EzHy, cfg.Scheme())
	assert.Equal(t, model.Coord1[int32](80, model.AxisX), cfg.LayoutParams().Size)
	assert.Equal(t, 2, cfg.Run.Workers)

	cfg.SetupLogging()
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	log.SetLevel(log.InfoLevel)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"scheme":         func(c *Config) { c.Grid.Scheme = "4d" },
		"halo":           func(c *Config) { c.Topology.Halo = 0 },
		"share interval": func(c *Config) { c.Topology.ShareInterval = 2 },
		"rebalance":      func(c *Config) { c.Rebalance.Interval = 0 },
		"threshold":      func(c *Config) { c.Rebalance.Threshold = -1 },
		"axis":           func(c *Config) { c.Rebalance.Axis = "w" },
		"workers":        func(c *Config) { c.Run.Workers = 0 },
		"level":          func(c *Config) { c.Log.Level = "loud" },
		"angle":          func(c *Config) { c.Grid.Phi = math.Inf(1) },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.ErrorIs(t, cfg.Validate(), ErrConfig, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.ini"))
	assert.Error(t, err)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Grid.Scheme = "2d-tez"
	cfg.Topology.Nodes = []string{"a:1", "b:2"}
	path := filepath.Join(t.TempDir(), "out.yml")
	require.NoError(t, cfg.WriteYAML(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
