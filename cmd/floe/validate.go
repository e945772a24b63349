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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aaronlmathis/floe/internal/config"
)

// newValidateCmd parses and validates the contract at --config without
// touching storage or running any entity, the cheapest way to catch a
// malformed YAML contract before a run.
func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Parse and validate the ingestion contract without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid, %d entities declared\n", configPath, len(cfg.Entities))
			return nil
		},
	}
}
