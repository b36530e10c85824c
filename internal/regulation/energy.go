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

// EnergyAccumulator folds the energy contribution of each completed cycle
// into a running total. The total stays unset until the first increment.
type EnergyAccumulator struct {
	total *float64
}

func NewEnergyAccumulator() *EnergyAccumulator {
	return &EnergyAccumulator{}
}

// Tick adds one cycle's energy. meanCyclePower is the mean actuator power
// over the cycle in watts, nil when unknown; an unknown power degrades to a
// zero increment, never an error. Nothing is accumulated while off.
func (e *EnergyAccumulator) Tick(mode Mode, meanCyclePower *float64, cycleMin int) {
	if mode.IsOff() {
		return
	}

	var added float64
	if meanCyclePower != nil {
		added = *meanCyclePower * float64(cycleMin) / 60.0
	}

	if e.total == nil {
		e.total = &added
		return
	}
	*e.total += added
}

// Total returns the accumulated energy in Wh, nil until the first tick.
func (e *EnergyAccumulator) Total() *float64 {
	return e.total
}

// Restore seeds the total from persisted state before the first tick.
func (e *EnergyAccumulator) Restore(total float64) {
	e.total = &total
}
