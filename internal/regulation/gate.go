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
	"time"

	"github.com/pkg/errors"
)

var (
	ErrInvalidDeadBand = errors.New("dpercent must be within [0,100]")
	ErrInvalidPeriod   = errors.New("period_min must be non-negative")
)

// AutoRegulationPolicy damps how often and by how much the committed duty
// cycle may change. Zero values disable the corresponding damping.
type AutoRegulationPolicy struct {
	// MinDeltaPercent is the dead-band: a candidate must differ from the
	// committed percent by at least this much to be applied.
	MinDeltaPercent float64
	// MinPeriodMin is the minimal spacing between two accepted
	// calculations, in minutes.
	MinPeriodMin int
}

func (p AutoRegulationPolicy) Validate() error {
	if p.MinDeltaPercent < 0 || p.MinDeltaPercent > 100 {
		return ErrInvalidDeadBand
	}
	if p.MinPeriodMin < 0 {
		return ErrInvalidPeriod
	}
	return nil
}

// Reason tells why a candidate was accepted or suppressed.
type Reason string

const (
	AcceptedFirst   Reason = "first calculation"
	AcceptedChanged Reason = "changed"
	RejectedPeriod  Reason = "period not exceeded"
	RejectedDelta   Reason = "dpercent not exceeded"
	RejectedNoOp    Reason = "no change"
)

// Decision is the outcome of one gate evaluation. Percent carries the
// possibly adjusted candidate (small positive candidates are forced to zero
// so a valve closes fully instead of lingering slightly open).
type Decision struct {
	Accept  bool
	Percent int
	Reason  Reason
}

// RegulationGate filters freshly computed duty cycles against an
// AutoRegulationPolicy. Rejections are informational, never errors; a
// counter keeps them observable.
type RegulationGate struct {
	policy    AutoRegulationPolicy
	rejection map[Reason]uint64
}

func NewRegulationGate(policy AutoRegulationPolicy) (*RegulationGate, error) {
	if err := policy.Validate(); err != nil {
		return nil, errors.WithMessage(err, "auto-regulation policy")
	}
	return &RegulationGate{
		policy:    policy,
		rejection: make(map[Reason]uint64),
	}, nil
}

func (g *RegulationGate) Policy() AutoRegulationPolicy {
	return g.policy
}

// Rejections returns how many candidates were suppressed for the given
// reason since construction.
func (g *RegulationGate) Rejections(reason Reason) uint64 {
	return g.rejection[reason]
}

// Decide evaluates a candidate against the committed percent. last is the
// timestamp of the previous accepted calculation, nil before the first one.
func (g *RegulationGate) Decide(candidate, committed int, now time.Time, last *time.Time) Decision {
	if last == nil {
		return Decision{Accept: true, Percent: candidate, Reason: AcceptedFirst}
	}

	if elapsed := now.Sub(*last).Minutes(); elapsed < float64(g.policy.MinPeriodMin) {
		return g.reject(RejectedPeriod)
	}

	// A candidate below the dead-band closes the valve fully rather than
	// holding a physically meaningless small opening.
	if float64(candidate) < g.policy.MinDeltaPercent {
		candidate = 0
	}

	if candidate > 0 {
		delta := float64(candidate - committed)
		if delta >= -g.policy.MinDeltaPercent && delta < g.policy.MinDeltaPercent {
			return g.reject(RejectedDelta)
		}
	}

	if candidate == committed {
		return g.reject(RejectedNoOp)
	}

	return Decision{Accept: true, Percent: candidate, Reason: AcceptedChanged}
}

func (g *RegulationGate) reject(reason Reason) Decision {
	g.rejection[reason]++
	return Decision{Accept: false, Reason: reason}
}
