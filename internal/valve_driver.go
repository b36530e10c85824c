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

package internal

import (
	"strconv"

	"github.com/antst/mztvc/internal/config"
	"github.com/antst/mztvc/internal/logger"
	"github.com/antst/mztvc/internal/safe_mqtt"
)

// ValveDriver commands one underlying valve actuator with the committed
// open percentage. How the actuator realizes the duty cycle is its own
// business.
type ValveDriver struct {
	cfg  *config.ValveConfig
	mqtt safe_mqtt.MqttClient
}

func NewValveDriver(_cfg *config.ValveConfig, _mqtt safe_mqtt.MqttClient) *ValveDriver {
	return &ValveDriver{cfg: _cfg, mqtt: _mqtt}
}

func (d *ValveDriver) Update(openPercent int) {
	if token := d.mqtt.SafePublish(
		d.cfg.Topic, mqttQoS, true, strconv.Itoa(openPercent),
	); token.Wait() && token.Error() != nil {
		logger.L().Error(token.Error())
	}
}
