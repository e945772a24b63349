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

package check

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/floe/internal/config"
)

func TestNormalizeNameStrategies(t *testing.T) {
	assert.Equal(t, "customer_id", NormalizeName("CustomerID", "snake_case"))
	assert.Equal(t, "customer id", NormalizeName("Customer Id", "lower"))
	assert.Equal(t, "customerId", NormalizeName("customer_id", "camel_case"))
	assert.Equal(t, "Customer-ID", NormalizeName("Customer-ID", "none"))
}

func TestDetectCollisionsFlagsDuplicateNormalizedNames(t *testing.T) {
	columns := []config.ColumnConfig{{Name: "CustomerID"}, {Name: "customerid"}}
	err := DetectCollisions(columns, "lower")
	require.Error(t, err)
}

func TestDetectCollisionsPassesDistinctNames(t *testing.T) {
	columns := []config.ColumnConfig{{Name: "customer_id"}, {Name: "order_id"}}
	err := DetectCollisions(columns, "snake_case")
	require.NoError(t, err)
}
