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

	"github.com/pkg/errors"
)

// Function selects the proportional formula variant. The set is closed:
// new variants are added here, not injected at runtime.
type Function string

const (
	// FunctionTPI combines the interior and exterior temperature errors
	// with their gain coefficients.
	FunctionTPI Function = "tpi"
	// FunctionLinear uses the interior error only.
	FunctionLinear Function = "linear"
)

var (
	ErrInvalidCycle        = errors.New("cycle duration must be positive")
	ErrInvalidMaxOnPercent = errors.New("max_on_percent must be within [0,1]")
	ErrInvalidDelay        = errors.New("minimal activation/deactivation delays must be non-negative")
	ErrUnknownFunction     = errors.New("unknown proportional function")
)

// Coefficients is the immutable configuration of a ProportionalAlgorithm.
type Coefficients struct {
	CoefInt                  float64
	CoefExt                  float64
	CycleMin                 int
	MinimalActivationDelay   int // seconds
	MinimalDeactivationDelay int // seconds
	MaxOnPercent             float64
	Function                 Function
}

func (c Coefficients) validate() error {
	if c.CycleMin <= 0 {
		return ErrInvalidCycle
	}
	if c.MaxOnPercent < 0 || c.MaxOnPercent > 1 {
		return ErrInvalidMaxOnPercent
	}
	if c.MinimalActivationDelay < 0 || c.MinimalDeactivationDelay < 0 {
		return ErrInvalidDelay
	}
	switch c.Function {
	case FunctionTPI, FunctionLinear:
	default:
		return errors.Wrapf(ErrUnknownFunction, "`%s`", c.Function)
	}
	return nil
}

// Output is the result of one Calculate call. OnTimeSec+OffTimeSec always
// equals the full cycle length in seconds.
type Output struct {
	// OnPercent is the duty fraction after clamping to [0,1] and to the
	// configured max_on_percent cap.
	OnPercent float64
	// CalculatedOnPercent is the duty fraction before the cap was applied,
	// kept for diagnostics.
	CalculatedOnPercent float64
	OnTimeSec           int
	OffTimeSec          int
}

// ProportionalAlgorithm converts a temperature deviation into a duty cycle.
// It is stateless per call: the only state is the immutable coefficients.
type ProportionalAlgorithm struct {
	coef Coefficients
}

func NewProportionalAlgorithm(coef Coefficients) (*ProportionalAlgorithm, error) {
	if err := coef.validate(); err != nil {
		return nil, errors.WithMessage(err, "proportional algorithm")
	}
	return &ProportionalAlgorithm{coef: coef}, nil
}

func (a *ProportionalAlgorithm) CycleSec() int {
	return a.coef.CycleMin * 60
}

// Calculate computes the duty cycle for one control cycle. Interior and
// exterior temperatures may be nil when no reading is known: a missing
// interior reading yields zero demand (fail safe to closed), a missing
// exterior reading drops the exterior term from the formula.
func (a *ProportionalAlgorithm) Calculate(target float64, inTemp, extTemp *float64, mode Mode) Output {
	raw := a.rawDemand(target, inTemp, extTemp, mode)

	calculated := clampF(raw, 0, 1)
	onPercent := math.Min(calculated, a.coef.MaxOnPercent)

	cycleSec := a.CycleSec()
	onTime := int(math.Round(onPercent * float64(cycleSec)))

	// Never command a pulse shorter than the actuator can physically
	// switch: round to zero or up to the minimal delay.
	if onTime > 0 && onTime < a.coef.MinimalActivationDelay {
		if 2*onTime < a.coef.MinimalActivationDelay {
			onTime = 0
		} else {
			onTime = a.coef.MinimalActivationDelay
		}
	}

	offTime := cycleSec - onTime
	if offTime > 0 && offTime < a.coef.MinimalDeactivationDelay {
		if 2*offTime < a.coef.MinimalDeactivationDelay {
			offTime = 0
		} else {
			offTime = a.coef.MinimalDeactivationDelay
		}
		onTime = cycleSec - offTime
	}

	return Output{
		OnPercent:           onPercent,
		CalculatedOnPercent: calculated,
		OnTimeSec:           onTime,
		OffTimeSec:          offTime,
	}
}

func (a *ProportionalAlgorithm) rawDemand(target float64, inTemp, extTemp *float64, mode Mode) float64 {
	switch mode {
	case ModeOff, ModeFanOnly, ModeDry:
		return 0
	}
	if inTemp == nil {
		return 0
	}

	errIn := target - *inTemp
	var errExt float64
	if extTemp != nil {
		errExt = target - *extTemp
	}
	if mode == ModeCool {
		errIn, errExt = -errIn, -errExt
	}

	switch a.coef.Function {
	case FunctionLinear:
		return a.coef.CoefInt * errIn
	default: // FunctionTPI
		if extTemp == nil {
			return a.coef.CoefInt * errIn
		}
		return a.coef.CoefInt*errIn + a.coef.CoefExt*errExt
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
