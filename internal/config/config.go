// Package config loads hearth.yaml settings into typed structs (.env is
// loaded separately by cmd/hearth),
// grounded on tarsy's pkg/config loader shape: a YAML struct tree, a
// Load entry point, and defaults applied for anything the file omits.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// WorldConfig sizes the grid and the shared vision radius every service
// (action engine, movement phase, perception builder) derives its
// night-adjusted radius from.
type WorldConfig struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	VisionRadius int `yaml:"vision_radius"`
}

// AgentSeed describes one agent to create when starting a fresh world.
// Model/Personality are opaque strings handed to the (out-of-scope)
// AgentBrain implementation; Hearth's core never interprets them.
type AgentSeed struct {
	Name        string `yaml:"name"`
	ModelID     string `yaml:"model_id"`
	ModelName   string `yaml:"model_name"`
	Personality string `yaml:"personality"`
	X           int    `yaml:"x"`
	Y           int    `yaml:"y"`
}

// Config is the fully resolved configuration for one hearth process.
type Config struct {
	World    WorldConfig `yaml:"world"`
	Agents   []AgentSeed `yaml:"agents"`
	HTTPAddr string      `yaml:"http_addr"`

	// Derived, not read from YAML: paths under --data.
	DataDir      string `yaml:"-"`
	DBPath       string `yaml:"-"`
	AuditLogPath string `yaml:"-"`
	RecipesPath  string `yaml:"-"`
}

const (
	defaultWidth        = 32
	defaultHeight       = 32
	defaultVisionRadius = domain.DefaultVisionRadius
	defaultHTTPAddr     = ":8080"
)

// Load reads configPath (hearth.yaml) and fills in defaults for any
// field the file omits. A missing file is not an error: it yields an
// all-defaults Config, matching the original's tolerance for running
// against bare storage with no world-authoring file at all.
func Load(configPath string) (*Config, error) {
	cfg := &Config{
		World:    WorldConfig{Width: defaultWidth, Height: defaultHeight, VisionRadius: defaultVisionRadius},
		HTTPAddr: defaultHTTPAddr,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configPath, err)
	}

	if fileCfg.World.Width > 0 {
		cfg.World.Width = fileCfg.World.Width
	}
	if fileCfg.World.Height > 0 {
		cfg.World.Height = fileCfg.World.Height
	}
	if fileCfg.World.VisionRadius > 0 {
		cfg.World.VisionRadius = fileCfg.World.VisionRadius
	}
	if fileCfg.HTTPAddr != "" {
		cfg.HTTPAddr = fileCfg.HTTPAddr
	}
	cfg.Agents = fileCfg.Agents

	return cfg, nil
}

// ResolvePaths fills in the storage paths derived from dataDir and
// recipesPath, called once both are known (they come from CLI flags,
// not YAML).
func (c *Config) ResolvePaths(dataDir, recipesPath string) {
	c.DataDir = dataDir
	c.DBPath = dataDir + "/hearth.db"
	c.AuditLogPath = dataDir + "/events.jsonl"
	c.RecipesPath = recipesPath
}

// Seeds converts the configured agent roster into domain.Agent values
// ready for InitializeAgents, used by `hearth --init`.
func (c *Config) Seeds() []domain.Agent {
	agents := make([]domain.Agent, 0, len(c.Agents))
	for _, seed := range c.Agents {
		agents = append(agents, domain.Agent{
			Name:        domain.AgentName(seed.Name),
			Model:       domain.AgentModel{ID: seed.ModelID, DisplayName: seed.ModelName},
			Personality: seed.Personality,
			Position:    domain.Position{X: seed.X, Y: seed.Y},
			KnownAgents: map[domain.AgentName]bool{},
		})
	}
	return agents
}
