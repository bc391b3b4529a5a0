package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"

	"github.com/charliek/poolwatch/internal/constants"
	"github.com/charliek/poolwatch/internal/domain"
)

// Environment variables that override configuration values
const (
	EnvAPIURL      = constants.EnvPrefix + "API_URL"
	EnvStreamURL   = constants.EnvPrefix + "STREAM_URL"
	EnvSSEURL      = constants.EnvPrefix + "SSE_URL"
	EnvTransport   = constants.EnvPrefix + "TRANSPORT"
	EnvChartOutput = constants.EnvPrefix + "CHART_OUTPUT"
	EnvLogLevel    = constants.EnvPrefix + "LOG_LEVEL"
)

// LoadEnvFile reads a .env file and returns the variables as a map
func LoadEnvFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("env file not found: %s", path)
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	return env, nil
}

// MergeEnv merges multiple environment maps in order, with later maps taking precedence
func MergeEnv(envMaps ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, env := range envMaps {
		for k, v := range env {
			result[k] = v
		}
	}
	return result
}

// ProcessEnv returns the current process environment as a map, keeping
// only poolwatch variables
func ProcessEnv() map[string]string {
	result := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, constants.EnvPrefix) {
			result[k] = v
		}
	}
	return result
}

// ApplyEnv overrides configuration values from env and validates the
// result
func (c *Config) ApplyEnv(env map[string]string) error {
	set := func(key string, dst *string) {
		if v, ok := env[key]; ok && v != "" {
			*dst = v
		}
	}
	set(EnvAPIURL, &c.API.BaseURL)
	set(EnvStreamURL, &c.Stream.URL)
	set(EnvSSEURL, &c.Stream.SSEURL)
	set(EnvTransport, &c.Stream.Transport)
	set(EnvChartOutput, &c.Chart.Output)
	set(EnvLogLevel, &c.Log.Level)
	return Validate(c)
}

// Resolve loads the configuration for a command. An explicit path must
// exist; otherwise the standard locations are searched and defaults are
// used when nothing is found. The env_file (relative to the config file)
// and then the process environment are applied on top.
func Resolve(path string, explicit bool) (*Config, error) {
	var (
		cfg *Config
		err error
	)

	if !explicit {
		if found, findErr := FindConfigFile(); findErr == nil {
			path = found
		} else {
			path = ""
		}
	}

	if path == "" {
		cfg = Default()
	} else {
		cfg, err = Load(path)
		if err != nil {
			return nil, err
		}
	}

	var fileEnv map[string]string
	if cfg.EnvFile != "" {
		fileEnv, err = LoadEnvFile(resolvePath(cfg.EnvFile, filepath.Dir(path)))
		if err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(MergeEnv(fileEnv, ProcessEnv())); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolvePath resolves a potentially relative path against a base directory
func resolvePath(path, baseDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, error) {
	candidates := []string{
		constants.DefaultConfigFile,
		"poolwatch.yml",
		".poolwatch.yaml",
		".poolwatch.yml",
	}

	for _, name := range candidates {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w (tried: %v)", domain.ErrConfigNotFound, candidates)
}

// CheckFilePermissions checks if a file has secure permissions.
// On Unix-like systems, it verifies the file is not world-writable.
func CheckFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking file permissions: %w", err)
	}

	if info.Mode().Perm()&0002 != 0 {
		return fmt.Errorf("config file %s has insecure permissions: world-writable files can be modified by any user. Please run: chmod o-w %s", path, path)
	}

	return nil
}

// IsNotFound reports whether err means no configuration file exists
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrConfigNotFound)
}
