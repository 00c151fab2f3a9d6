// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads smrweb.yaml from the user, system and working
// directories, overlays SMRWEB_* environment variables and command flags,
// and writes the defaults back on first run.
package config // import "github.com/smr-web/smrweb/internal/config"

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appDir    = "smrweb"
	fileName  = "smrweb"
	envPrefix = "smrweb"
)

// Config is the resolved application configuration.
type Config struct {
	Database struct {
		Type string `mapstructure:"type" yaml:"type"`
		Dsn  string `mapstructure:"dsn" yaml:"dsn"`
	} `mapstructure:"database" yaml:"database"`
	Language string `mapstructure:"language" yaml:"language"`
	Log      struct {
		Level string `mapstructure:"level" yaml:"level"`
		File  string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"log" yaml:"log"`
	Biometric struct {
		Provider       string `mapstructure:"provider" yaml:"provider"`
		KeyFingerprint string `mapstructure:"key_fingerprint" yaml:"key_fingerprint"`
	} `mapstructure:"biometric" yaml:"biometric"`
}

// GetConfigDir returns the user or system configuration directory.
func GetConfigDir(system bool) (string, error) {
	if system {
		switch runtime.GOOS {
		case "windows":
			return filepath.Join(os.Getenv("ProgramData"), "SMRWeb"), nil
		default:
			return "/etc/smrweb", nil
		}
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, appDir), nil
}

// GetConfigPath returns the full path of smrweb.yaml.
func GetConfigPath(system bool) (string, error) {
	dir, err := GetConfigDir(system)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName+".yaml"), nil
}

// Defaults returns the built-in configuration values keyed by viper path.
func Defaults() map[string]any {
	dsn := "./smrweb.db"
	logFile := ""
	if dir, err := GetConfigDir(false); err == nil {
		dsn = filepath.Join(dir, "smrweb.db")
		logFile = filepath.Join(dir, "smrweb.log")
	}
	return map[string]any{
		"database.type":             "sqlite",
		"database.dsn":              dsn,
		"language":                  "en",
		"log.level":                 "info",
		"log.file":                  logFile,
		"biometric.provider":        "agent",
		"biometric.key_fingerprint": "",
	}
}

// SearchPaths lists the directories searched for smrweb.yaml, in order.
func SearchPaths() []string {
	var paths []string
	if dir, err := GetConfigDir(false); err == nil {
		paths = append(paths, dir)
	}
	if dir, err := GetConfigDir(true); err == nil {
		paths = append(paths, dir)
	}
	return append(paths, ".")
}

// LoadConfig resolves T from defaults, the config file, the environment
// and the command's flags (flag names equal config keys, e.g.
// "database.type"). An explicit path bypasses the search. A missing file is
// reported as viper.ConfigFileNotFoundError alongside the resolved value so
// callers can write defaults.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, path string) (T, string, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	for _, p := range SearchPaths() {
		v.AddConfigPath(p)
	}

	var notFound error
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return c, "", err
		}
		notFound = err
	}

	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, "", err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, "", err
	}
	return c, v.ConfigFileUsed(), notFound
}

// WriteConfigFile writes c to the user (or system) smrweb.yaml with 0600
// permissions, creating the directory as needed.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := GetConfigPath(system)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
