// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/smr-web/smrweb/buildvars"
	"github.com/smr-web/smrweb/internal/biometric"
	"github.com/smr-web/smrweb/internal/config"
	"github.com/smr-web/smrweb/internal/credentials"
	"github.com/smr-web/smrweb/internal/i18n"
	"github.com/smr-web/smrweb/internal/logging"
	"github.com/smr-web/smrweb/internal/prefs"
	"github.com/smr-web/smrweb/internal/tui"
)

var version = "dev"   // set by the linker
var gitCommit = "dev" // short commit SHA, set at build time
var buildDate = ""    // RFC3339, set at build time

// app holds what one command invocation runs on. It is filled by
// setupServices and released by teardown.
type app struct {
	cfgFile string
	verbose bool

	cfg        config.Config
	configUsed string
	backend    prefs.Store
	store      *credentials.Store
	gate       biometric.Gate
}

// setupServices loads configuration and opens the preference store and the
// biometric gate.
func (a *app) setupServices(cmd *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		if _, err := os.Stat(a.cfgFile); err != nil {
			return fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
		}
	}

	defaults := config.Defaults()
	cfg, used, err := config.LoadConfig[config.Config](cmd, defaults, a.cfgFile)
	switch {
	case errors.As(err, &viper.ConfigFileNotFoundError{}):
		// First run: persist the defaults so the user has a file to edit.
		if path, werr := config.WriteConfigFile(&cfg, false); werr != nil {
			logging.Warnf("could not write default config file: %v", werr)
		} else {
			logging.Infof("wrote default config to %s", path)
		}
	case err != nil:
		return fmt.Errorf("error loading config: %w", err)
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = defaults["database.type"].(string)
	}
	if cfg.Database.Dsn == "" {
		cfg.Database.Dsn = defaults["database.dsn"].(string)
	}
	if cfg.Language == "" {
		cfg.Language = defaults["language"].(string)
	}
	a.cfg, a.configUsed = cfg, used

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	if err := logging.SetLevel(level); err != nil {
		logging.Warnf("%v", err)
	}

	i18n.Init(cfg.Language)

	if cfg.Database.Type == "sqlite" {
		if err := ensureSQLiteDir(cfg.Database.Dsn); err != nil {
			return err
		}
	}
	backend, err := prefs.NewStoreFromDSN(cfg.Database.Type, cfg.Database.Dsn)
	if err != nil {
		return fmt.Errorf("failed to open preference store: %w", err)
	}
	a.backend = backend
	a.store = credentials.New(backend)

	gate, err := biometric.New(cfg.Biometric.Provider, cfg.Biometric.KeyFingerprint)
	if err != nil {
		return err
	}
	a.gate = gate
	return nil
}

// ensureSQLiteDir creates the parent directory of a file DSN.
func ensureSQLiteDir(dsn string) error {
	if dsn == "" || strings.Contains(dsn, ":memory:") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("could not create database directory %s: %w", dir, err)
	}
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend = nil
	return err
}

// runTUI is the root command: the lock flow and main screen.
func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	if a.cfg.Log.File != "" {
		closer, err := logging.ToFile(a.cfg.Log.File)
		if err != nil {
			logging.Warnf("could not open log file: %v", err)
		} else {
			defer func() {
				logging.SetOutput(os.Stderr)
				_ = closer.Close()
			}()
		}
	}
	return tui.Run(cmd.Context(), tui.Deps{
		Store: a.store,
		Gate:  a.gate,
		SaveLanguage: func(lang string) error {
			a.cfg.Language = lang
			_, err := config.WriteConfigFile(&a.cfg, false)
			return err
		},
	})
}

// Execute runs the CLI entrypoint.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds a fresh command tree. Tests call it once per case.
func NewRootCmd() *cobra.Command {
	a := &app{}
	defaults := config.Defaults()

	cmd := &cobra.Command{
		Use:   "smrweb",
		Short: "SMR Web QR login client with a local PIN lock.",
		Long: `smrweb is the client side of the SMR Web QR login.
Access to the app is guarded by a four digit PIN and, optionally, a
security key held by your SSH agent.

Running without a subcommand launches the interactive TUI.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setupServices,
		PersistentPostRunE: a.teardown,
		RunE:               a.runTUI,
	}

	v, c, d := resolveBuildVersion(nil)
	compositeVersion := v
	if c != "" && c != "dev" {
		compositeVersion = compositeVersion + " (" + c + ")"
	}
	if d != "" {
		compositeVersion = compositeVersion + " built: " + d
	}
	cmd.Version = compositeVersion

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	pf.String("database.type", defaults["database.type"].(string), "Preference store backend (sqlite, postgres, mysql, memory)")
	pf.String("database.dsn", defaults["database.dsn"].(string), "Preference store connection string (DSN)")
	pf.String("language", defaults["language"].(string), `UI language ("en", "ru")`)
	pf.String("log.level", defaults["log.level"].(string), "Log level (debug, info, warn, error)")
	pf.String("biometric.provider", defaults["biometric.provider"].(string), `Strong authenticator ("agent", "none")`)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		// No services needed.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := resolveBuildVersion(nil)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "version: %s\n", v)
			fmt.Fprintf(out, "commit: %s\n", c)
			if d != "" {
				fmt.Fprintf(out, "built: %s\n", d)
			}
		},
	}

	cmd.AddCommand(
		newAuthCmd(a),
		newBiometricCmd(a),
		newPrefsCmd(a),
		newDebugCmd(a),
		versionCmd,
	)
	return cmd
}

// resolveBuildVersion computes the best-available version, commit and
// build date. A nil info reads build info from the runtime.
func resolveBuildVersion(info *debug.BuildInfo) (versionOut, commitOut, dateOut string) {
	resolvedVersion := buildvars.VersionOrDefault(version)
	resolvedCommit := gitCommit
	resolvedDate := buildDate

	if info == nil {
		if local, ok := debug.ReadBuildInfo(); ok {
			info = local
		}
	}
	if info != nil {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			resolvedVersion = info.Main.Version
		}
		if resolvedVersion == "dev" || resolvedVersion == "(devel)" {
			for _, dep := range info.Deps {
				if dep.Path == "github.com/smr-web/smrweb" && dep.Version != "" {
					resolvedVersion = dep.Version
					break
				}
			}
		}
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				if s.Value != "" {
					resolvedCommit = s.Value
				}
			case "vcs.time":
				if s.Value != "" {
					resolvedDate = s.Value
				}
			}
		}
	}

	// Fall back to the linker-provided commit so support can identify the build.
	if resolvedVersion == "dev" && gitCommit != "dev" && gitCommit != "" {
		resolvedVersion = gitCommit
	}
	return resolvedVersion, resolvedCommit, resolvedDate
}

// out is a shorthand for the command's stdout.
func out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
