// Package config loads the relay server and client settings. Values are
// resolved in order: built-in defaults, an optional YAML file, an optional
// .env file, then PONG_* environment variables. Validate is always run last.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cyberinferno/netpong/logger"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// Options converts the section into logger options for service.
func (l Log) Options(service string) logger.Options {
	return logger.Options{
		Service: service,
		Level:   l.Level,
		Format:  l.Format,
		Dir:     l.Dir,
	}
}

func (l *Log) applyEnv() {
	envString("PONG_LOG_LEVEL", &l.Level)
	envString("PONG_LOG_FORMAT", &l.Format)
	envString("PONG_LOG_DIR", &l.Dir)
}

func (l *Log) validate() error {
	switch l.Format {
	case "", logger.FormatJSON, logger.FormatConsole:
		return nil
	default:
		return fmt.Errorf("invalid log.format=%s", l.Format)
	}
}

// LoadEnvFile loads variables from .env style files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
//
// Parameters:
//   - files: Paths to load; none means ".env"
//
// Returns:
//   - An error if a file exists but cannot be parsed
func LoadEnvFile(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}

	return nil
}

// readYAML decodes path into out. An empty path leaves out untouched.
func readYAML(path string, out any) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	return nil
}

func envString(key string, dst *string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func envInt(key string, dst *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s=%s: %w", key, value, err)
	}

	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid %s=%s: %w", key, value, err)
	}

	*dst = d
	return nil
}
