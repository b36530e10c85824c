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

package config

import "github.com/antst/mztvc/internal/regulation"

const (
	regulationDefaultCoefInt  = 0.6
	regulationDefaultCoefExt  = 0.01
	regulationDefaultCycleMin = 10
	regulationDefaultDelaySec = 10
)

// RegulationConfig holds the TPI engine parameters of one zone.
type RegulationConfig struct {
	Function                    string   `yaml:"function"`
	CoefInt                     *float64 `yaml:"coef_int"`
	CoefExt                     *float64 `yaml:"coef_ext"`
	CycleMin                    *int     `yaml:"cycle_min"`
	MinimalActivationDelaySec   *int     `yaml:"minimal_activation_delay_sec"`
	MinimalDeactivationDelaySec *int     `yaml:"minimal_deactivation_delay_sec"`
	MaxOnPercent                *float64 `yaml:"max_on_percent"`
}

func NewRegulationConfig() *RegulationConfig {
	cfg := &RegulationConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *RegulationConfig) FillDefaults() {
	if c.Function == "" {
		c.Function = string(regulation.FunctionTPI)
	}
	if c.CoefInt == nil {
		c.CoefInt = GetPTR(regulationDefaultCoefInt)
	}
	if c.CoefExt == nil {
		c.CoefExt = GetPTR(regulationDefaultCoefExt)
	}
	if c.CycleMin == nil {
		c.CycleMin = GetPTR(regulationDefaultCycleMin)
	}
	if c.MinimalActivationDelaySec == nil {
		c.MinimalActivationDelaySec = GetPTR(regulationDefaultDelaySec)
	}
	if c.MinimalDeactivationDelaySec == nil {
		c.MinimalDeactivationDelaySec = GetPTR(regulationDefaultDelaySec)
	}
	if c.MaxOnPercent == nil {
		c.MaxOnPercent = GetPTR(1.0)
	}
}

// Coefficients maps the yaml view onto the engine's immutable configuration.
func (c *RegulationConfig) Coefficients() regulation.Coefficients {
	return regulation.Coefficients{
		CoefInt:                  *c.CoefInt,
		CoefExt:                  *c.CoefExt,
		CycleMin:                 *c.CycleMin,
		MinimalActivationDelay:   *c.MinimalActivationDelaySec,
		MinimalDeactivationDelay: *c.MinimalDeactivationDelaySec,
		MaxOnPercent:             *c.MaxOnPercent,
		Function:                 regulation.Function(c.Function),
	}
}

// AutoRegulationConfig damps valve chatter; zero values disable it.
type AutoRegulationConfig struct {
	DPercent  *float64 `yaml:"dpercent"`
	PeriodMin *int     `yaml:"period_min"`
}

func NewAutoRegulationConfig() *AutoRegulationConfig {
	cfg := &AutoRegulationConfig{}
	cfg.FillDefaults()
	return cfg
}

func (c *AutoRegulationConfig) FillDefaults() {
	if c.DPercent == nil {
		c.DPercent = GetPTR(0.0)
	}
	if c.PeriodMin == nil {
		c.PeriodMin = GetPTR(0)
	}
}

func (c *AutoRegulationConfig) Policy() regulation.AutoRegulationPolicy {
	return regulation.AutoRegulationPolicy{
		MinDeltaPercent: *c.DPercent,
		MinPeriodMin:    *c.PeriodMin,
	}
}

// PowerConfig describes the heating device behind a zone, used for energy
// accounting. A zone without it accumulates zero increments.
type PowerConfig struct {
	// DevicePower is the actuator power draw when fully open, in watts.
	DevicePower *float64 `yaml:"device_power"`
}

// ValveConfig points at one underlying valve actuator command topic.
type ValveConfig struct {
	Name  string `yaml:"name,omitempty"`
	Topic string `yaml:"topic"`
}
