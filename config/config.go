package config

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config is the indexer server configuration, loaded from a TOML file.
type Config struct {
	DataDir   string `toml:"data_dir"`
	Shards    int    `toml:"shards"`
	LogLevel  string `toml:"log_level"`
	Strict    bool   `toml:"strict"`
	Scripting bool   `toml:"scripting"`

	SchemaCache int `toml:"schema_cache"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		DataDir:     "data",
		Shards:      1,
		LogLevel:    "info",
		Scripting:   true,
		SchemaCache: 64,
	}
}

// Load reads a TOML configuration file over the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	if _, err := toml.DecodeFile(path, c); err != nil {
		return nil, errors.Wrapf(err, "loading config %s", path)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects unusable settings.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if c.Shards <= 0 {
		return errors.New("shards must be positive")
	}
	if c.SchemaCache <= 0 {
		c.SchemaCache = 64
	}
	return nil
}
