package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDataDir = ".tmx"
	DefaultTarget  = "petrinet"
	DefaultSource  = "reactionnet"
)

// Sources and Targets enumerate the formats the tool accepts and emits.
var (
	Sources = []string{"reactionnet", "bilayer", "stockflow"}
	Targets = []string{"classic", "petrinet", "stockflow"}
)

type Config struct {
	DataDir       string `yaml:"data_dir"`
	Source        string `yaml:"source"`
	Target        string `yaml:"target"`
	GroundingPath string `yaml:"grounding_path"`
	SaveArtifacts bool   `yaml:"save_artifacts"`
}

func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Source:  DefaultSource,
		Target:  DefaultTarget,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks that the configured formats are known.
func (c *Config) Validate() error {
	if !contains(Sources, c.Source) {
		return fmt.Errorf("config: unknown source format %q", c.Source)
	}
	if !contains(Targets, c.Target) {
		return fmt.Errorf("config: unknown target format %q", c.Target)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, have := range list {
		if have == s {
			return true
		}
	}
	return false
}
