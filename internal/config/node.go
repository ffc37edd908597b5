// Package config loads the node's startup configuration from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NodeConfig is the startup configuration for the MRS1000 node. All
// fields are optional; the Get* methods supply defaults, so a partial
// config file only needs to name the values it overrides.
type NodeConfig struct {
	// Device connection
	Host *string `json:"host,omitempty"`
	Port *int    `json:"port,omitempty"`

	// FrameID is the coordinate frame stamped on every published message.
	FrameID *string `json:"frame_id,omitempty"`

	// Publishing
	NATSURL       *string `json:"nats_url,omitempty"`
	SubjectPrefix *string `json:"subject_prefix,omitempty"`
}

// EmptyNodeConfig returns a NodeConfig with all fields unset, which
// resolves to the defaults.
func EmptyNodeConfig() *NodeConfig {
	return &NodeConfig{}
}

// LoadNodeConfig loads a NodeConfig from a JSON file. The file must have
// a .json extension and stay under the size cap.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyNodeConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *NodeConfig) Validate() error {
	if c.Host != nil && *c.Host == "" {
		return fmt.Errorf("host must not be empty")
	}
	if c.Port != nil {
		if *c.Port < 1 || *c.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", *c.Port)
		}
	}
	if c.FrameID != nil && *c.FrameID == "" {
		return fmt.Errorf("frame_id must not be empty")
	}
	return nil
}

// GetHost returns the device host or the default.
func (c *NodeConfig) GetHost() string {
	if c.Host == nil {
		return "192.168.1.2" // factory default of the MRS1000
	}
	return *c.Host
}

// GetPort returns the device CoLa A port or the default.
func (c *NodeConfig) GetPort() int {
	if c.Port == nil {
		return 2111
	}
	return *c.Port
}

// GetFrameID returns the coordinate frame or the default.
func (c *NodeConfig) GetFrameID() string {
	if c.FrameID == nil {
		return "laser"
	}
	return *c.FrameID
}

// GetNATSURL returns the NATS server URL or the default.
func (c *NodeConfig) GetNATSURL() string {
	if c.NATSURL == nil {
		return "nats://127.0.0.1:4222"
	}
	return *c.NATSURL
}

// GetSubjectPrefix returns the NATS subject prefix or the default.
func (c *NodeConfig) GetSubjectPrefix() string {
	if c.SubjectPrefix == nil {
		return "lidar"
	}
	return *c.SubjectPrefix
}
