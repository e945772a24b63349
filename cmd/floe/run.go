//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of Floe.
//
// Floe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Floe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Floe. If not, see https://www.gnu.org/licenses/.

package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aaronlmathis/floe/internal/config"
	"github.com/aaronlmathis/floe/internal/logging"
	"github.com/aaronlmathis/floe/internal/run"
)

var (
	entityFilter []string
	runID        string
	verbose      bool
)

// newRunCmd runs every selected entity's contract and exits with the
// run's computed exit code: 0 for success (with or without warnings)
// or a plain reject, 1 for a failure, 2 for an abort. SIGINT and
// SIGTERM cancel the context passed down through the driver; the
// runner checks it at file boundaries and stops cleanly rather than
// leaving a half-written output.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			id := runID
			if id == "" {
				id = run.AllocateRunID()
			}
			logger := logging.NewStderr(id, verbose)
			defer logger.Sync()

			opts := run.Options{
				ConfigPath: configPath,
				ConfigDir:  filepath.Dir(configPath),
				RunID:      id,
				Entities:   entityFilter,
				Logger:     logger,
			}

			exitCode, err := run.NewDriver().Run(ctx, cfg, opts)
			if err != nil {
				return err
			}
			os.Exit(int(exitCode))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&entityFilter, "entities", nil, "restrict the run to these entity names (comma-separated)")
	cmd.Flags().StringVar(&runID, "run-id", "", "override the allocated run_id")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "emit debug-level log lines")
	return cmd
}
