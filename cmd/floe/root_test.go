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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmdRegistersValidateAndRunSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["validate"])
	assert.True(t, names["run"])

	flag := root.PersistentFlags().Lookup("config")
	assert.NotNil(t, flag)
	assert.Equal(t, "floe.yaml", flag.DefValue)
}

func TestValidateCmdRejectsMissingConfigFile(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"validate", "-c", "/nonexistent/floe.yaml"})
	err := root.Execute()
	assert.Error(t, err)
}
