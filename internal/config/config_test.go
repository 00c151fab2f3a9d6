// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smr-web/smrweb/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	// os.Chdir + Cleanup instead of t.Chdir (Go 1.24+) for the Go 1.21 toolchain.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(tmp); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return tmp
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	isolate(t)
	c, used, err := config.LoadConfig[config.Config](&cobra.Command{}, config.Defaults(), "")
	if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
		t.Fatalf("expected ConfigFileNotFoundError, got %v", err)
	}
	if used != "" {
		t.Fatalf("no file should be used, got %q", used)
	}
	if c.Database.Type != "sqlite" || c.Language != "en" || c.Biometric.Provider != "agent" {
		t.Fatalf("defaults not applied: %+v", c)
	}
	if !strings.HasSuffix(c.Database.Dsn, "smrweb.db") {
		t.Fatalf("unexpected default dsn %q", c.Database.Dsn)
	}
}

func TestLoadConfig_ReadsExplicitFile(t *testing.T) {
	tmp := isolate(t)
	yml := "database:\n  type: postgres\n  dsn: postgres://u@localhost/smr\nlanguage: ru\nbiometric:\n  key_fingerprint: SHA256:abc\n"
	file := filepath.Join(tmp, "custom.yaml")
	if err := os.WriteFile(file, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, used, err := config.LoadConfig[config.Config](&cobra.Command{}, config.Defaults(), file)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if used != file {
		t.Fatalf("used = %q, want %q", used, file)
	}
	if c.Database.Type != "postgres" || c.Language != "ru" || c.Biometric.KeyFingerprint != "SHA256:abc" {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.Log.Level != "info" {
		t.Fatalf("default log level lost: %q", c.Log.Level)
	}
}

func TestLoadConfig_EnvAndFlagPrecedence(t *testing.T) {
	isolate(t)
	t.Setenv("SMRWEB_LANGUAGE", "ru")
	t.Setenv("SMRWEB_DATABASE_TYPE", "mysql")

	cmd := &cobra.Command{}
	cmd.Flags().String("database.type", "sqlite", "")
	if err := cmd.Flags().Set("database.type", "memory"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	c, _, _ := config.LoadConfig[config.Config](cmd, config.Defaults(), "")
	if c.Language != "ru" {
		t.Fatalf("env language not applied: %q", c.Language)
	}
	if c.Database.Type != "memory" {
		t.Fatalf("flag should override env, got %q", c.Database.Type)
	}
}

func TestLoadConfig_BrokenFile(t *testing.T) {
	tmp := isolate(t)
	file := filepath.Join(tmp, "broken.yaml")
	if err := os.WriteFile(file, []byte("database: [unterminated\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := config.LoadConfig[config.Config](&cobra.Command{}, config.Defaults(), file); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestWriteConfigFile_RoundTrip(t *testing.T) {
	isolate(t)
	var c config.Config
	c.Database.Type = "sqlite"
	c.Database.Dsn = "/tmp/x.db"
	c.Language = "ru"
	c.Biometric.Provider = "none"

	path, err := config.WriteConfigFile(&c, false)
	if err != nil {
		t.Fatalf("WriteConfigFile: %v", err)
	}
	want, _ := config.GetConfigPath(false)
	if path != want {
		t.Fatalf("written to %q, want %q", path, want)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("perm = %v, want 0600", info.Mode().Perm())
	}

	got, used, err := config.LoadConfig[config.Config](&cobra.Command{}, config.Defaults(), "")
	if err != nil {
		t.Fatalf("LoadConfig after write: %v", err)
	}
	if used != path || got.Language != "ru" || got.Biometric.Provider != "none" || got.Database.Dsn != "/tmp/x.db" {
		t.Fatalf("round trip mismatch (used %q): %+v", used, got)
	}
}
