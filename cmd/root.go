// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ariagecheney/ish/cfg"
)

var (
	bindErr error

	// MountConfig is populated by initConfig before rootCmd.RunE runs.
	MountConfig cfg.Config
)

var rootCmd = &cobra.Command{
	Use:   "fakefs [flags] data_dir",
	Short: "Run a fakefs metadata-overlay filesystem core over a host directory",
	Long: `fakefs layers POSIX ownership, permissions and device/symlink
identity on top of an ordinary host directory tree, tracking the
overlay in a sidecar SQLite database so the host filesystem itself
never needs those semantics.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		dataDir, err := resolveDataDir(args[0])
		if err != nil {
			return err
		}
		MountConfig.DataDir = cfg.ResolvedPath(dataDir)
		if err := cfg.Validate(&MountConfig); err != nil {
			return err
		}
		return runMount(cmd.Context(), MountConfig)
	},
}

func resolveDataDir(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("canonicalizing data directory: %w", err)
	}
	return filepath.Clean(abs), nil
}

// Execute is the CLI entry point called from cmd/fakefs/main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	bindErr = cfg.BindFlags(rootCmd.Flags())
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	def := cfg.Default()
	if err := viper.Unmarshal(&MountConfig, cfg.DecoderConfigOption); err != nil {
		bindErr = fmt.Errorf("unmarshalling config: %w", err)
		return
	}
	if MountConfig.Logging.Severity == "" {
		MountConfig.Logging.Severity = def.Logging.Severity
	}
}
