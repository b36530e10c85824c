/*
 * Copyright (c) 2024. Anton Starikov -- All Rights Reserved
 *
 * This file is part of MZTVC project.
 *
 * MZTVC is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as the Free Software Foundation,
 * either version 3 of the License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package regulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyAccumulation(t *testing.T) {
	e := NewEnergyAccumulator()
	assert.Nil(t, e.Total())

	e.Tick(ModeHeat, f64(1000), 10)
	require.NotNil(t, e.Total())
	assert.InDelta(t, 166.67, *e.Total(), 0.01)

	e.Tick(ModeHeat, f64(1000), 10)
	assert.InDelta(t, 333.33, *e.Total(), 0.01)
}

func TestEnergyOffModeIsNoOp(t *testing.T) {
	e := NewEnergyAccumulator()
	e.Tick(ModeOff, f64(1000), 10)
	assert.Nil(t, e.Total())

	e.Tick(ModeHeat, f64(600), 10)
	require.NotNil(t, e.Total())
	before := *e.Total()
	e.Tick(ModeOff, f64(600), 10)
	assert.Equal(t, before, *e.Total())
}

func TestEnergyUnknownPowerDegradesToZero(t *testing.T) {
	e := NewEnergyAccumulator()
	e.Tick(ModeHeat, nil, 10)
	require.NotNil(t, e.Total())
	assert.Equal(t, 0.0, *e.Total())

	e.Tick(ModeHeat, f64(1000), 6)
	assert.InDelta(t, 100.0, *e.Total(), 1e-9)
}

func TestEnergyRestoreBeforeFirstTick(t *testing.T) {
	e := NewEnergyAccumulator()
	e.Restore(500)

	e.Tick(ModeHeat, f64(1000), 10)
	require.NotNil(t, e.Total())
	assert.InDelta(t, 666.67, *e.Total(), 0.01)
}
