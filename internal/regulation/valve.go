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
	"math"
	"time"
)

// ValveController runs one regulation pass per call and owns the committed
// valve state of a single thermostat instance. It is not safe for concurrent
// use: a host embedding it in several goroutines must serialize access.
// Time is always injected through Recalculate, never read internally.
type ValveController struct {
	name string
	algo *ProportionalAlgorithm
	gate *RegulationGate

	mode    Mode
	target  float64
	inTemp  *float64
	extTemp *float64

	committedOpenPercent int
	lastCalculation      *time.Time
	lastOutput           Output
}

func NewValveController(name string, coef Coefficients, policy AutoRegulationPolicy) (*ValveController, error) {
	algo, err := NewProportionalAlgorithm(coef)
	if err != nil {
		return nil, err
	}
	gate, err := NewRegulationGate(policy)
	if err != nil {
		return nil, err
	}
	return &ValveController{
		name: name,
		algo: algo,
		gate: gate,
		mode: ModeOff,
		lastOutput: Output{
			OffTimeSec: algo.CycleSec(),
		},
	}, nil
}

func (v *ValveController) Name() string { return v.name }
func (v *ValveController) Mode() Mode   { return v.mode }

func (v *ValveController) SetMode(mode Mode)   { v.mode = mode }
func (v *ValveController) SetTarget(t float64) { v.target = t }
func (v *ValveController) Target() float64     { return v.target }

// SetInteriorTemperature records the current indoor reading; nil means no
// reading is known.
func (v *ValveController) SetInteriorTemperature(t *float64) { v.inTemp = t }

// SetExteriorTemperature records the current outdoor reading; nil means no
// reading is known.
func (v *ValveController) SetExteriorTemperature(t *float64) { v.extTemp = t }

// Recalculate computes a candidate duty cycle from the current inputs and
// commits it if the gate accepts. On rejection the committed state is left
// untouched and the call is a no-op.
func (v *ValveController) Recalculate(now time.Time) Decision {
	out := v.algo.Calculate(v.target, v.inTemp, v.extTemp, v.mode)
	candidate := int(math.Round(clampF(out.OnPercent, 0, 1) * 100))

	dec := v.gate.Decide(candidate, v.committedOpenPercent, now, v.lastCalculation)
	if !dec.Accept {
		return dec
	}

	v.committedOpenPercent = dec.Percent
	ts := now
	v.lastCalculation = &ts
	v.lastOutput = out
	return dec
}

// OpenPercent is the authoritative duty-cycle percentage exposed to actuator
// drivers. It reads as 0 while the mode is off; the committed value is kept
// internally so leaving off recalls the previous duty cycle.
func (v *ValveController) OpenPercent() int {
	if v.mode.IsOff() {
		return 0
	}
	return v.committedOpenPercent
}

func (v *ValveController) OnTimeSec() int  { return v.lastOutput.OnTimeSec }
func (v *ValveController) OffTimeSec() int { return v.lastOutput.OffTimeSec }

// CalculatedOnPercent is the last accepted pre-cap duty fraction, kept for
// diagnostics.
func (v *ValveController) CalculatedOnPercent() float64 { return v.lastOutput.CalculatedOnPercent }

// LastCalculation returns the timestamp of the last accepted calculation,
// nil before the first acceptance.
func (v *ValveController) LastCalculation() *time.Time { return v.lastCalculation }

func (v *ValveController) Gate() *RegulationGate { return v.gate }
func (v *ValveController) CycleSec() int         { return v.algo.CycleSec() }

// SetCoefficients swaps in a new proportional strategy after validating it.
// Committed state and the acceptance timestamp are preserved.
func (v *ValveController) SetCoefficients(coef Coefficients) error {
	algo, err := NewProportionalAlgorithm(coef)
	if err != nil {
		return err
	}
	v.algo = algo
	return nil
}

// SetAutoRegulation swaps in a new damping policy after validating it.
// Rejection counters start over with the new gate.
func (v *ValveController) SetAutoRegulation(policy AutoRegulationPolicy) error {
	gate, err := NewRegulationGate(policy)
	if err != nil {
		return err
	}
	v.gate = gate
	return nil
}

// RestoreCommitted seeds the committed percent from persisted state, e.g.
// after a restart. It does not touch the last calculation timestamp, so the
// next recalculation is treated as the first one.
func (v *ValveController) RestoreCommitted(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	v.committedOpenPercent = percent
}
