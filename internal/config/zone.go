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

import (
	"github.com/pkg/errors"

	"github.com/antst/mztvc/internal/regulation"
)

type ZoneConfig struct {
	Mode               string                `yaml:"mode,omitempty"`
	SensorsAverageType string                `yaml:"sensors_average_type"`
	Setpoint           *SetpointConfig       `yaml:"setpoint"`
	Sensors            []*SensorConfig       `yaml:"sensors"`
	Valves             []*ValveConfig        `yaml:"valves"`
	Regulation         *RegulationConfig     `yaml:"regulation"`
	AutoRegulation     *AutoRegulationConfig `yaml:"auto_regulation"`
	Power              *PowerConfig          `yaml:"power,omitempty"`
}

func NewZoneConfig() *ZoneConfig {
	return &ZoneConfig{
		Sensors:    make([]*SensorConfig, 0),
		Setpoint:   NewSetpointConfig(),
		Regulation: NewRegulationConfig(),
	}
}

func (z *ZoneConfig) FillDefaults() {
	if z.Mode == "" {
		z.Mode = string(regulation.ModeOff)
	}
	if z.SensorsAverageType == "" {
		z.SensorsAverageType = DefaultAverageType
	}
	if z.Setpoint == nil {
		z.Setpoint = NewSetpointConfig()
	}
	z.Setpoint.FillDefaults()
	if z.Regulation == nil {
		z.Regulation = NewRegulationConfig()
	}
	z.Regulation.FillDefaults()
	if z.AutoRegulation == nil {
		z.AutoRegulation = NewAutoRegulationConfig()
	}
	z.AutoRegulation.FillDefaults()
	for _, s := range z.Sensors {
		s.FillDefaults()
	}
}

func (z *ZoneConfig) Validate() error {
	if _, err := regulation.ParseMode(z.Mode); err != nil {
		return err
	}
	if z.Setpoint == nil || z.Setpoint.Topic == "" {
		return errors.New("setpoint topic is required")
	}
	if len(z.Sensors) == 0 {
		return errors.New("at least one temperature sensor is required")
	}
	for _, v := range z.Valves {
		if v.Topic == "" {
			return errors.New("valve topic is required")
		}
	}
	if _, err := regulation.NewProportionalAlgorithm(z.Regulation.Coefficients()); err != nil {
		return err
	}
	return z.AutoRegulation.Policy().Validate()
}
