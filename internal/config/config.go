package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	OASIS    OASISConfig    `yaml:"oasis"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
	Store    StoreConfig    `yaml:"store"`
}

type OASISConfig struct {
	// BaseURL defaults to the public OASIS endpoint when empty.
	BaseURL string `yaml:"base_url"`
}

type PipelineConfig struct {
	// LookbackMinutes sizes the query window ending at the current time.
	// 70 minutes captures a full hour of 5-minute intervals with slack for
	// upstream publication lag.
	LookbackMinutes int   `yaml:"lookback_minutes"`
	Hubs            []Hub `yaml:"hubs"`
}

// Hub pairs an OASIS pricing node with its display label.
type Hub struct {
	Node  string `yaml:"node"`
	Label string `yaml:"label"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type StoreConfig struct {
	// Path to the SQLite run-history database. Empty disables run tracking.
	Path string `yaml:"path"`
}

// Default returns the configuration the pipeline ships with: the three
// CAISO trading hubs over the last 70 minutes.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			LookbackMinutes: 70,
			Hubs: []Hub{
				{Node: "TH_SP15_GEN-APND", Label: "SP15"},
				{Node: "TH_NP15_GEN-APND", Label: "NP15"},
				{Node: "TH_ZP26_GEN-APND", Label: "ZP26"},
			},
		},
		Output: OutputConfig{Dir: "results"},
		Store:  StoreConfig{Path: "data/runs.db"},
	}
}

// Load reads and validates a YAML config. When path is empty the defaults
// are returned. Fields omitted from the file fall back to their defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Pipeline.LookbackMinutes <= 0 {
		return errors.New("pipeline.lookback_minutes must be positive")
	}
	if len(c.Pipeline.Hubs) == 0 {
		return errors.New("pipeline.hubs must list at least one node")
	}
	for i, h := range c.Pipeline.Hubs {
		if h.Node == "" {
			return fmt.Errorf("pipeline.hubs[%d].node is required", i)
		}
	}
	if c.Output.Dir == "" {
		return errors.New("output.dir is required")
	}
	return nil
}

// Nodes returns the hub node identifiers in configured order.
func (c *Config) Nodes() []string {
	nodes := make([]string, len(c.Pipeline.Hubs))
	for i, h := range c.Pipeline.Hubs {
		nodes[i] = h.Node
	}
	return nodes
}

// HubLabels returns the node-to-label map. Hubs without a label fall back
// to their node identifier downstream.
func (c *Config) HubLabels() map[string]string {
	labels := make(map[string]string, len(c.Pipeline.Hubs))
	for _, h := range c.Pipeline.Hubs {
		if h.Label != "" {
			labels[h.Node] = h.Label
		}
	}
	return labels
}
