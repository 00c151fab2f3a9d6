// Copyright (c) 2026 SMR Web Team
// smrweb - QR login client with local PIN lock
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smr-web/smrweb/internal/config"
	"github.com/smr-web/smrweb/internal/logging"
	"github.com/smr-web/smrweb/internal/prefs"
)

func newDebugCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Dump debug information about config, env and flags",
		Run: func(cmd *cobra.Command, args []string) {
			w := out(cmd)
			fmt.Fprintln(w, "--- SMRWEB DEBUG ---")
			used := a.configUsed
			if used == "" {
				used = "(none, defaults)"
			}
			fmt.Fprintf(w, "Config file used: %s\n", used)

			fmt.Fprintln(w, "-- search paths --")
			for _, p := range config.SearchPaths() {
				fmt.Fprintln(w, p)
			}

			fmt.Fprintln(w, "-- resolved config --")
			b, err := yaml.Marshal(a.cfg)
			if err != nil {
				logging.Errorf("could not marshal config: %v", err)
			} else {
				fmt.Fprint(w, string(b))
			}

			switch st := a.backend.(type) {
			case *prefs.BunStore:
				fmt.Fprintf(w, "Store backend: %s\n", st.DBType())
			case *prefs.MemoryStore:
				fmt.Fprintln(w, "Store backend: memory")
			}

			fmt.Fprintln(w, "-- flags --")
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				fmt.Fprintf(w, "%s = %s\n", f.Name, f.Value.String())
			})

			fmt.Fprintln(w, "-- environment (SMRWEB_*) --")
			for _, e := range os.Environ() {
				if strings.HasPrefix(e, "SMRWEB_") {
					fmt.Fprintln(w, e)
				}
			}
			fmt.Fprintln(w, "--- END DEBUG ---")
		},
	}
}
