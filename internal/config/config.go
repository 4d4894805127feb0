// Package config loads the node-local settings of matchd from
// <home>/config/app.toml, overridable through MATCHD_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	EnvPrefix = "MATCHD"

	DefaultAddr      = "tcp://127.0.0.1:26658"
	DefaultTransport = "socket"
	DefaultLogLevel  = "info"
	DefaultDBDir     = "data/match.db"
)

type Config struct {
	Home string `mapstructure:"-"`

	// Addr is the ABCI listen address.
	Addr string `mapstructure:"addr"`
	// Transport is "socket" or "grpc".
	Transport string `mapstructure:"transport"`
	// LogLevel uses the cometbft syntax, e.g. "info" or "store:debug,*:info".
	LogLevel string `mapstructure:"log_level"`
	// DBDir is resolved against Home when relative.
	DBDir string `mapstructure:"db_dir"`
}

func Default(home string) Config {
	return Config{
		Home:      home,
		Addr:      DefaultAddr,
		Transport: DefaultTransport,
		LogLevel:  DefaultLogLevel,
		DBDir:     DefaultDBDir,
	}
}

// File is the path of the config file under home.
func File(home string) string {
	return filepath.Join(home, "config", "app.toml")
}

func newViper(home string) *viper.Viper {
	v := viper.New()
	def := Default(home)
	v.SetDefault("addr", def.Addr)
	v.SetDefault("transport", def.Transport)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("db_dir", def.DBDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file if present. A missing file yields defaults
// (plus environment overrides).
func Load(home string) (Config, error) {
	v := newViper(home)

	path := File(home)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	c.Home = home
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must be set")
	}
	switch c.Transport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("transport must be socket or grpc, got %q", c.Transport)
	}
	if c.DBDir == "" {
		return fmt.Errorf("db_dir must be set")
	}
	return nil
}

// DBPath returns the absolute database directory.
func (c Config) DBPath() string {
	if filepath.IsAbs(c.DBDir) {
		return c.DBDir
	}
	return filepath.Join(c.Home, c.DBDir)
}

// WriteDefault writes app.toml with default values unless it already exists.
// It returns the path and whether a file was written.
func WriteDefault(home string) (string, bool, error) {
	path := File(home)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", false, err
	}

	v := viper.New()
	def := Default(home)
	v.Set("addr", def.Addr)
	v.Set("transport", def.Transport)
	v.Set("log_level", def.LogLevel)
	v.Set("db_dir", def.DBDir)
	if err := v.WriteConfigAs(path); err != nil {
		return "", false, fmt.Errorf("writing config %s: %w", path, err)
	}
	return path, true, nil
}
