package config

import (
	"encoding/json"
	"fmt"
	"os"

	coretypes "github.com/projecteru2/core/types"

	"github.com/projecteru2/vmbridge/sandbox"
)

// DefaultQEMUBinary is the hypervisor binary used when none is configured.
const DefaultQEMUBinary = "qemu-system-x86_64"

// Config holds global vmbridge configuration. It is established once at
// controller construction and immutable thereafter; re-probing the
// environment requires building a new controller.
type Config struct {
	// QEMUBinary is the hypervisor binary for directly spawned guests.
	QEMUBinary string `json:"qemu_binary"`
	// LibvirtURI optionally pins single-endpoint operations to one
	// connection; empty means fall back to the probed default.
	LibvirtURI string `json:"libvirt_uri"`
	// Sandboxed re-routes every external command through the host-escape
	// launcher. Detected at startup, overridable from config or env.
	Sandboxed bool `json:"sandboxed"`
	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		QEMUBinary: DefaultQEMUBinary,
		Sandboxed:  sandbox.InSandbox(),
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from file, falling back to defaults.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	if path == "" {
		return conf, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // config path from CLI flag
	if err != nil {
		if os.IsNotExist(err) {
			return conf, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if conf.QEMUBinary == "" {
		conf.QEMUBinary = DefaultQEMUBinary
	}
	return conf, nil
}
