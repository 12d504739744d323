package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DBPath     string `json:"db_path" toml:"db_path"`
	WebEnabled bool   `json:"web_enabled" toml:"web_enabled"`
	WebPort    int    `json:"web_port" toml:"web_port"`
	LogPath    string `json:"log_path" toml:"log_path"`
	LogLevel   string `json:"log_level" toml:"log_level"`
}

func Default() Config {
	return Config{WebPort: 8080, LogLevel: "info"}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazytodo", "config.json"), nil
}

// FillPaths puts the database and log file next to the config file when
// they are not set.
func (c *Config) FillPaths(configPath string) {
	dir := filepath.Dir(configPath)
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "lazytodo.db")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(dir, "lazytodo.log")
	}
	if c.WebPort == 0 {
		c.WebPort = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads the config at path. A missing file yields the defaults. Files
// ending in .toml are parsed as TOML, everything else as JSON.
func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if isTOML(path) {
		if _, err := toml.Decode(string(data), &config); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		return config, nil
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var data []byte
	if isTOML(path) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		encoded, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		data = encoded
	}

	return os.WriteFile(path, data, 0o644)
}
