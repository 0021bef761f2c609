/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/valpere/texdiff/internal/config"
	"github.com/valpere/texdiff/internal/logging"
)

var version = "0.1.0"

var (
	configFile string
	logLevel   string

	appConfig config.Config
	logger    = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "texdiff",
	Short: "Colour-annotated differences between two LaTeX documents",
	Long: `texdiff compares two versions of a LaTeX document word by word and writes
the body of the document with insertions coloured and deletions struck through.

Both versions are first flattened to one line per paragraph so that
re-wrapping a paragraph does not show up as a change.

Use "texdiff diff --help" for comparison options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v, err := config.New(configFile)
		if err != nil {
			return err
		}

		var bindErr error
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Name == "config" {
				return
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return fmt.Errorf("failed to bind flags: %w", bindErr)
		}

		appConfig, err = config.Load(v)
		if err != nil {
			return err
		}

		level, err := logging.ParseLevel(appConfig.LogLevel)
		if err != nil {
			return err
		}
		logger = logging.NewWithWriter(cmd.ErrOrStderr(), level)
		slog.SetDefault(logger)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./texdiff.yaml or <user config dir>/texdiff/texdiff.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
}
