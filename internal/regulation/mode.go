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

import "github.com/pkg/errors"

// Mode is the operating mode of a thermostat instance.
type Mode string

const (
	ModeOff     Mode = "off"
	ModeHeat    Mode = "heat"
	ModeCool    Mode = "cool"
	ModeAuto    Mode = "auto"
	ModeFanOnly Mode = "fan_only"
	ModeDry     Mode = "dry"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOff, ModeHeat, ModeCool, ModeAuto, ModeFanOnly, ModeDry:
		return Mode(s), nil
	}
	return ModeOff, errors.Errorf("unknown mode: `%s`", s)
}

func (m Mode) IsOff() bool {
	return m == ModeOff
}
