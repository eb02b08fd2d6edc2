// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// dcmdump prints the attributes of DICOM files as they are parsed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Anti1447/go-dicom-parser/dicom"
)

// app holds what the subcommands share once the config is loaded
type app struct {
	cfg     Config
	fs      afero.Fs
	logger  log.Logger
	reg     *prometheus.Registry
	metrics *dicom.Metrics
}

func main() {
	cmd := newRootCmd(afero.NewOsFs(), os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the dcmdump command. Files are opened from fsys and logs are written to logw.
func newRootCmd(fsys afero.Fs, logw io.Writer) *cobra.Command {
	a := &app{fs: fsys}
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "dcmdump",
		Short:        "Print the attributes of DICOM files",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := loadConfig(fsys, configFile, &a.cfg, cmd.Flags()); err != nil {
					return err
				}
			}
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			a.logger = newLogger(a.cfg.LogLevel, logw)
			a.reg = prometheus.NewRegistry()
			a.metrics = dicom.NewMetrics(a.reg)
			return nil
		},
	}

	fs := flag.NewFlagSet("dcmdump", flag.ContinueOnError)
	a.cfg.RegisterFlags(fs)
	rootCmd.PersistentFlags().AddGoFlagSet(fs)
	rootCmd.PersistentFlags().StringVar(&configFile, "config.file", "", "YAML file to load the configuration from. Flags given on the command line take precedence.")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "dump FILE...",
			Short: "Print one line per attribute with a preview of its value",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd.Context(), cmd.OutOrStdout(), args, a.dump)
			},
		},
		&cobra.Command{
			Use:   "digest FILE...",
			Short: "Print an xxhash digest of the value of every attribute",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.run(cmd.Context(), cmd.OutOrStdout(), args, a.digest)
			},
		},
	)
	return rootCmd
}

func newLogger(lvl string, w io.Writer) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	switch lvl {
	case "debug":
		logger = level.NewFilter(logger, level.AllowDebug())
	case "warn":
		logger = level.NewFilter(logger, level.AllowWarn())
	case "error":
		logger = level.NewFilter(logger, level.AllowError())
	default:
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
}
