package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Defaults used when neither the config file nor the environment provides
// a value. Port 8123 is the ClickHouse HTTP interface.
const (
	DefaultHost     = "localhost"
	DefaultPort     = 8123
	DefaultUser     = "default"
	DefaultPassword = ""
	DefaultDatabase = "default"
)

// File is the optional on-disk configuration. Every field may be omitted;
// unset fields fall back to CLICKHOUSE_* environment variables, then to
// the defaults above.
type File struct {
	ClickHouse Overrides `yaml:"clickhouse"`
}

// Overrides are explicitly supplied connection parameters. They take
// precedence over the environment.
type Overrides struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
}

// Connection is a fully resolved set of connection parameters.
type Connection struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// LoadFile reads the YAML config at path. An empty path means no config
// file; the environment and defaults carry the whole configuration.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return &File{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &f, nil
}

// Resolve computes connection parameters for a single call: explicit
// overrides win, then the environment, then defaults. It runs on every
// call rather than once at startup, so environment changes take effect
// on the next call without restarting the server.
func Resolve(o Overrides) Connection {
	c := Connection{
		Host:     firstOf(o.Host, os.Getenv("CLICKHOUSE_HOST"), DefaultHost),
		Port:     o.Port,
		User:     firstOf(o.User, os.Getenv("CLICKHOUSE_USER"), DefaultUser),
		Password: firstOf(o.Password, os.Getenv("CLICKHOUSE_PASSWORD"), DefaultPassword),
		Database: firstOf(o.Database, os.Getenv("CLICKHOUSE_DATABASE"), DefaultDatabase),
	}

	if c.Port == 0 {
		if port, err := strconv.Atoi(os.Getenv("CLICKHOUSE_PORT")); err == nil && port > 0 {
			c.Port = port
		} else {
			c.Port = DefaultPort
		}
	}

	return c
}

// Addr returns the host:port pair for the HTTP interface.
func (c Connection) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
