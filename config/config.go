// Package config defines the swarm bus configuration: plain structs with
// defaults, Merge semantics, and YAML/JSON file loading.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultRootAgentID  = "orchestrator-root"
	defaultMaxHops      = 10
	defaultSignalTTL    = 60 * time.Second
	defaultHistoryLimit = 1000
)

// BusConfig holds initialization parameters for a Bus instance.
type BusConfig struct {
	// Bus identity, used in logs and events.
	Name string `json:"name,omitempty" yaml:"name"`

	// RootAgentID is the fixed root of every tenant's hierarchy. Agents
	// registered without a parent are parented to it.
	RootAgentID string `json:"root_agent_id,omitempty" yaml:"root_agent_id"`

	// Routing defaults stamped onto signals created through Bus.NewSignal.
	DefaultMaxHops int      `json:"default_max_hops,omitempty" yaml:"default_max_hops"`
	SignalTTL      Duration `json:"signal_ttl,omitempty" yaml:"signal_ttl"`

	// HistoryLimit caps each tenant's routing ledger.
	HistoryLimit int `json:"history_limit,omitempty" yaml:"history_limit"`

	// Observer names a registered observability.Observer ("noop", "slog",
	// or a custom registration).
	Observer string `json:"observer,omitempty" yaml:"observer"`

	// Logger receives structured bus logs. Not loadable from file.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

// DefaultBusConfig returns a BusConfig with sensible defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{
		Name:           "default",
		RootAgentID:    defaultRootAgentID,
		DefaultMaxHops: defaultMaxHops,
		SignalTTL:      Duration(defaultSignalTTL),
		HistoryLimit:   defaultHistoryLimit,
		Observer:       "noop",
		Logger:         slog.Default(),
	}
}

// Merge applies non-zero values from source into c.
func (c *BusConfig) Merge(source *BusConfig) {
	if source.Name != "" {
		c.Name = source.Name
	}
	if source.RootAgentID != "" {
		c.RootAgentID = source.RootAgentID
	}
	if source.DefaultMaxHops > 0 {
		c.DefaultMaxHops = source.DefaultMaxHops
	}
	if source.SignalTTL > 0 {
		c.SignalTTL = source.SignalTTL
	}
	if source.HistoryLimit > 0 {
		c.HistoryLimit = source.HistoryLimit
	}
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.Logger != nil {
		c.Logger = source.Logger
	}
}

// LoadBusConfig reads a config file, merges it with defaults, and returns
// the result. The format is picked by extension: .yaml/.yml or .json.
func LoadBusConfig(filename string) (*BusConfig, error) {
	cfg := DefaultBusConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded BusConfig
	switch ext := filepath.Ext(filename); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &loaded)
	case ".json":
		err = json.Unmarshal(data, &loaded)
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
