// Package simconfig loads the external device-population configuration:
// a list of device specs plus global limits, fed to internal/pool at
// startup.
package simconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceSpec describes one population of simulated devices.
type DeviceSpec struct {
	Class         string `yaml:"class"`
	ProfileSource string `yaml:"profileSource"`
	PortLow       int    `yaml:"portLow"`
	Count         int    `yaml:"count"`
	Community     string `yaml:"community"`
}

// Limits holds the global resource caps.
type Limits struct {
	MaxDevices  int    `yaml:"maxDevices"`
	MaxMemoryMB int    `yaml:"maxMemoryMB"`
	IdleTimeout string `yaml:"idleTimeout"` // parsed with time.ParseDuration by the caller
}

// Config is the top-level document.
type Config struct {
	Devices []DeviceSpec `yaml:"devices"`
	Limits  Limits       `yaml:"limits"`
}

// LoadFromFile reads and parses a device-population config file.
func LoadFromFile(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("simconfig: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("simconfig: parse %s: %w", path, err)
	}

	for i, d := range cfg.Devices {
		if d.Class == "" {
			return nil, fmt.Errorf("simconfig: device %d: class is required", i)
		}
		if d.Count <= 0 {
			return nil, fmt.Errorf("simconfig: device %d (%s): count must be positive", i, d.Class)
		}
	}

	return &cfg, nil
}
