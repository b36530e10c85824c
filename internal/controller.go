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
	"context"
	"strconv"
	"strings"

	"github.com/antst/mztvc/internal/config"
	"github.com/antst/mztvc/internal/db"
	"github.com/antst/mztvc/internal/logger"
	"github.com/antst/mztvc/internal/safe_mqtt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

// ValveRegulationController is the daemon root: it owns the shared outside
// signal and one ZoneController per configured zone.
type ValveRegulationController struct {
	cfg         *config.Config
	queries     *db.Queries
	mqtt        safe_mqtt.MqttClient
	zones       map[string]*ZoneController
	outside     *OutsideController
	outsideChan chan float64
	enabled     bool
}

func NewValveRegulationController() *ValveRegulationController {
	c := &ValveRegulationController{
		cfg:         config.Get(),
		outsideChan: make(chan float64, 3),
		zones:       make(map[string]*ZoneController),
	}

	c.mqtt = safe_mqtt.InitMQTTClient(c.cfg.MQTTConfig.URL, "mztvc-"+uuid.New().String())
	c.setupMQTTSubscriptions()
	c.queries = db.OpenDatabase(c.cfg.DBFile)
	c.outside = NewOutsideController(c.cfg.Outside, c.cfg.MQTTConfig, c.queries, c.outsideChan)
	c.initializeZones()
	c.setEnabled(c.readValueWithDefault("enabled", "true"))
	return c
}

func (c *ValveRegulationController) setupMQTTSubscriptions() {
	controlTopic := c.cfg.MQTTConfig.ControlTopic
	c.mqtt.SafeSubscribe(controlTopic+"/log_level", mqttQoS, c.controlUpdateHandler)
	c.mqtt.SafeSubscribe(controlTopic+"/enable", mqttQoS, c.controlUpdateHandler)
}

func (c *ValveRegulationController) initializeZones() {
	for name, cfg := range c.cfg.Zones {
		zone, err := newZoneController(name, cfg, c.cfg.MQTTConfig, c.queries)
		if err != nil {
			logger.L().Panicf("Zone `%v`: %v", name, err)
		}
		c.zones[name] = zone
	}
}

// Run forwards the shared outside temperature to every zone. Zones run
// their own cycle loops.
func (c *ValveRegulationController) Run() {
	for newOT := range c.outsideChan {
		logger.L().Debugf("New outside temperature: %.2f", newOT)
		for _, zone := range c.zones {
			zone.SetExteriorTemperature(newOT)
		}
	}
}

func (c *ValveRegulationController) controlUpdateHandler(client mqtt.Client, message mqtt.Message) {
	topic := message.Topic()[strings.LastIndex(message.Topic(), "/")+1:]
	logger.L().Infof("main: Got MQTT control request: %v : %v", topic, string(message.Payload()))
	switch topic {
	case "log_level":
		if err := c.cfg.LogLevel.Set(string(message.Payload())); err != nil {
			logger.L().Errorf("Wrong log level `%v`", string(message.Payload()))
		} else {
			logger.SetLogLevel(c.cfg.LogLevel)
			logger.L().Infof("Updated loglevel to `%v`", c.cfg.LogLevel.String())
		}
	case "enable":
		c.setEnabled(string(message.Payload()))
	}
}

func (c *ValveRegulationController) setEnabled(val string) {
	switch strings.ToLower(val) {
	case "true", "on":
		c.mqtt.SafePublish(c.cfg.MQTTConfig.ControlTopic+"/active", mqttQoS, true, "ON")
		c.enabled = true
	case "false", "off":
		c.mqtt.SafePublish(c.cfg.MQTTConfig.ControlTopic+"/active", mqttQoS, true, "OFF")
		c.enabled = false
	default:
		logger.L().Warnf("Invalid value for enabled: %v", val)
		return
	}
	c.writeValue("enabled", strconv.FormatBool(c.enabled))
	for _, zone := range c.zones {
		zone.SetSuspended(!c.enabled)
	}
}

func (c *ValveRegulationController) writeValue(name, value string) error {
	return c.queries.UpsertControllerValue(
		context.Background(),
		db.UpsertControllerValueParams{Name: name, Value: value},
	)
}

func (c *ValveRegulationController) readValueWithDefault(name string, defValue string) string {
	val, err := c.queries.GetControllerValue(context.Background(), name)
	if err != nil {
		val = defValue
	}
	return val
}
