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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var gateNow = time.Date(2024, 11, 12, 8, 0, 0, 0, time.UTC)

func TestPolicyValidation(t *testing.T) {
	require.NoError(t, AutoRegulationPolicy{}.Validate())
	require.NoError(t, AutoRegulationPolicy{MinDeltaPercent: 100, MinPeriodMin: 30}.Validate())
	require.ErrorIs(t, AutoRegulationPolicy{MinDeltaPercent: 101}.Validate(), ErrInvalidDeadBand)
	require.ErrorIs(t, AutoRegulationPolicy{MinDeltaPercent: -1}.Validate(), ErrInvalidDeadBand)
	require.ErrorIs(t, AutoRegulationPolicy{MinPeriodMin: -1}.Validate(), ErrInvalidPeriod)
}

func TestGateFirstCalculationAlwaysAccepted(t *testing.T) {
	gate, err := NewRegulationGate(AutoRegulationPolicy{MinDeltaPercent: 50, MinPeriodMin: 60})
	require.NoError(t, err)

	dec := gate.Decide(42, 0, gateNow, nil)
	assert.True(t, dec.Accept)
	assert.Equal(t, 42, dec.Percent)
	assert.Equal(t, AcceptedFirst, dec.Reason)
}

func TestGateTemporalDamping(t *testing.T) {
	gate, err := NewRegulationGate(AutoRegulationPolicy{MinPeriodMin: 10})
	require.NoError(t, err)

	last := gateNow.Add(-5 * time.Minute)
	dec := gate.Decide(90, 10, gateNow, &last)
	assert.False(t, dec.Accept)
	assert.Equal(t, RejectedPeriod, dec.Reason)
	assert.Equal(t, uint64(1), gate.Rejections(RejectedPeriod))

	last = gateNow.Add(-10 * time.Minute)
	dec = gate.Decide(90, 10, gateNow, &last)
	assert.True(t, dec.Accept)
}

func TestGateDeadBand(t *testing.T) {
	gate, err := NewRegulationGate(AutoRegulationPolicy{MinDeltaPercent: 5})
	require.NoError(t, err)
	last := gateNow.Add(-time.Hour)

	for candidate := 36; candidate <= 44; candidate++ {
		dec := gate.Decide(candidate, 40, gateNow, &last)
		assert.False(t, dec.Accept, "candidate %d", candidate)
		assert.Equal(t, RejectedDelta, dec.Reason)
	}

	dec := gate.Decide(46, 40, gateNow, &last)
	assert.True(t, dec.Accept)
	assert.Equal(t, 46, dec.Percent)

	dec = gate.Decide(34, 40, gateNow, &last)
	assert.True(t, dec.Accept)
	assert.Equal(t, 34, dec.Percent)
}

func TestGateForcesSmallCandidatesClosed(t *testing.T) {
	gate, err := NewRegulationGate(AutoRegulationPolicy{MinDeltaPercent: 5})
	require.NoError(t, err)
	last := gateNow.Add(-time.Hour)

	// A candidate below the threshold closes the valve fully instead of
	// being swallowed by the dead-band and lingering slightly open.
	dec := gate.Decide(3, 40, gateNow, &last)
	assert.True(t, dec.Accept)
	assert.Equal(t, 0, dec.Percent)

	// Already closed: forcing to zero makes it a no-op.
	dec = gate.Decide(3, 0, gateNow, &last)
	assert.False(t, dec.Accept)
	assert.Equal(t, RejectedNoOp, dec.Reason)
}

func TestGateNoOpRejected(t *testing.T) {
	gate, err := NewRegulationGate(AutoRegulationPolicy{})
	require.NoError(t, err)
	last := gateNow.Add(-time.Minute)

	dec := gate.Decide(40, 40, gateNow, &last)
	assert.False(t, dec.Accept)
	assert.Equal(t, RejectedNoOp, dec.Reason)
	assert.Equal(t, uint64(1), gate.Rejections(RejectedNoOp))
}

func TestGateDisabledPolicyOnlyFiltersNoOps(t *testing.T) {
	gate, err := NewRegulationGate(AutoRegulationPolicy{})
	require.NoError(t, err)
	last := gateNow.Add(-time.Second)

	dec := gate.Decide(41, 40, gateNow, &last)
	assert.True(t, dec.Accept)
	assert.Equal(t, 41, dec.Percent)

	dec = gate.Decide(1, 40, gateNow, &last)
	assert.True(t, dec.Accept)
	assert.Equal(t, 1, dec.Percent)
}
