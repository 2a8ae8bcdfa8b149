package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultWidth, cfg.World.Width)
	assert.Equal(t, defaultHeight, cfg.World.Height)
	assert.Equal(t, defaultVisionRadius, cfg.World.VisionRadius)
	assert.Equal(t, defaultHTTPAddr, cfg.HTTPAddr)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hearth.yaml")
	contents := `
world:
  width: 64
  height: 48
agents:
  - name: Aria
    model_id: stub
    personality: curious
    x: 2
    y: 3
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.World.Width)
	assert.Equal(t, 48, cfg.World.Height)
	assert.Equal(t, defaultVisionRadius, cfg.World.VisionRadius, "omitted field keeps its default")
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "Aria", cfg.Agents[0].Name)
}

func TestSeedsConvertsAgentRoster(t *testing.T) {
	cfg := &Config{Agents: []AgentSeed{{Name: "Bram", ModelID: "stub", Personality: "stoic", X: 1, Y: 2}}}
	seeds := cfg.Seeds()
	require.Len(t, seeds, 1)
	assert.Equal(t, "Bram", string(seeds[0].Name))
	assert.Equal(t, 1, seeds[0].Position.X)
	assert.Equal(t, 2, seeds[0].Position.Y)
}

func TestResolvePaths(t *testing.T) {
	cfg := &Config{}
	cfg.ResolvePaths("/tmp/hearth-data", "/tmp/hearth-data/../config/recipes.yaml")
	assert.Equal(t, "/tmp/hearth-data/hearth.db", cfg.DBPath)
	assert.Equal(t, "/tmp/hearth-data/events.jsonl", cfg.AuditLogPath)
}
