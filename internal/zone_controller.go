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
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/antst/mztvc/internal/config"
	"github.com/antst/mztvc/internal/db"
	"github.com/antst/mztvc/internal/logger"
	"github.com/antst/mztvc/internal/regulation"
	"github.com/antst/mztvc/internal/safe_mqtt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const recalcCoalesceDelay = 50 * time.Millisecond

// ZoneController hosts one thermostat instance: it feeds setpoint and
// temperature readings into the regulation engine, runs the cycle ticker,
// and publishes the committed valve state. All engine access is serialized
// under mu; the engine itself never reads the clock.
type ZoneController struct {
	name        string
	mu          sync.Mutex
	cfg         *config.ZoneConfig
	mqtt        safe_mqtt.MqttClient
	sensors     []*SensorController
	queries     *db.Queries
	valve       *regulation.ValveController
	energy      *regulation.EnergyAccumulator
	drivers     []*ValveDriver
	averageFunc func([]*SensorController) (float64, time.Time)

	extTemp   *float64
	suspended bool

	childChan chan bool
	topicBase string
}

func newZoneController(
	_name string, _cfg *config.ZoneConfig, _mqttCfg *config.MQTTConfig, _q *db.Queries,
) (*ZoneController, error) {
	valve, err := regulation.NewValveController(_name, _cfg.Regulation.Coefficients(), _cfg.AutoRegulation.Policy())
	if err != nil {
		return nil, err
	}

	z := &ZoneController{
		name:      _name,
		cfg:       _cfg,
		queries:   _q,
		valve:     valve,
		energy:    regulation.NewEnergyAccumulator(),
		childChan: make(chan bool, childChanBuffer),
		topicBase: _mqttCfg.ControlTopic + "/zone/" + _name + "/",
	}

	z.LinkAverageFun()
	z.restoreState()

	z.mqtt = safe_mqtt.InitMQTTClient(_mqttCfg.URL, "mztvc-zone-"+z.name+"-"+uuid.New().String())
	z.mqtt.SafeSubscribe(_cfg.Setpoint.Topic, mqttQoS, z.setpointUpdateHandler)
	z.mqtt.SafeSubscribe(z.topicBase+"mode", mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(z.topicBase+"target", mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(z.topicBase+"dpercent", mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(z.topicBase+"period_min", mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(z.topicBase+"coef_int", mqttQoS, z.controlUpdateHandler)
	z.mqtt.SafeSubscribe(z.topicBase+"coef_ext", mqttQoS, z.controlUpdateHandler)

	z.sensors = make([]*SensorController, len(z.cfg.Sensors))
	for i, sensor := range z.cfg.Sensors {
		sName := "zone-" + z.name + "-"
		if sensor.Name == "" {
			sName += strconv.Itoa(i + 1)
		} else {
			sName += sensor.Name
		}
		z.sensors[i] = NewSensorController(sName, sensor, _mqttCfg, z.queries, z.childChan)
	}

	z.drivers = make([]*ValveDriver, len(z.cfg.Valves))
	for i, v := range z.cfg.Valves {
		z.drivers[i] = NewValveDriver(v, z.mqtt)
	}

	go z.run()
	return z, nil
}

func (z *ZoneController) LinkAverageFun() {
	if z.cfg.SensorsAverageType == config.DefaultAverageType {
		z.averageFunc = sensorsMean
	} else {
		logger.L().Errorf("Unknown average function type: %v", z.cfg.SensorsAverageType)
		logger.L().Error("Reverting to the `mean`")
		z.cfg.SensorsAverageType = config.DefaultAverageType
		z.averageFunc = sensorsMean
	}
}

func (z *ZoneController) restoreState() {
	ctx := context.Background()

	if sp, err := z.queries.GetZoneSetpoint(ctx, z.name); err == nil {
		z.valve.SetTarget(sp)
		logger.L().Debugf("Loaded previous setpoint from DB for zone %v: %v", z.name, sp)
	}
	mode, _ := regulation.ParseMode(z.cfg.Mode)
	if m, err := z.queries.GetZoneMode(ctx, z.name); err == nil {
		if stored, perr := regulation.ParseMode(m); perr == nil {
			mode = stored
		} else {
			logger.L().Warnf("Ignoring invalid stored mode `%v` for zone %v", m, z.name)
		}
	}
	z.valve.SetMode(mode)
	if pct, err := z.queries.GetZoneValve(ctx, z.name); err == nil {
		z.valve.RestoreCommitted(pct)
		logger.L().Debugf("Loaded previous valve percent from DB for zone %v: %v", z.name, pct)
	}
	if total, err := z.queries.GetZoneEnergy(ctx, z.name); err == nil {
		z.energy.Restore(total)
		logger.L().Debugf("Loaded previous energy total from DB for zone %v: %v", z.name, total)
	}
}

// run is the single owner of the regulation engine. Input changes are
// coalesced through a short timer so a burst of sensor updates triggers one
// recalculation; the ticker closes each cycle.
func (z *ZoneController) run() {
	timer := time.NewTimer(recalcCoalesceDelay)
	ticker := time.NewTicker(time.Duration(*z.cfg.Regulation.CycleMin) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-z.childChan:
			resetTimer(timer)
		case <-timer.C:
			z.recalculate(time.Now())
		case <-ticker.C:
			z.recalculate(time.Now())
			z.tickEnergy()
		}
	}
}

func resetTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(recalcCoalesceDelay)
}

func (z *ZoneController) recalculate(now time.Time) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.suspended {
		return
	}

	if avg, ts := z.averageFunc(z.sensors); ts.After(zeroTS) {
		z.valve.SetInteriorTemperature(&avg)
	} else {
		z.valve.SetInteriorTemperature(nil)
	}
	z.valve.SetExteriorTemperature(z.extTemp)

	dec := z.valve.Recalculate(now)
	if !dec.Accept {
		logger.L().Debugf(
			"Zone %s: calculation suppressed (%s, %d so far)",
			z.name, dec.Reason, z.valve.Gate().Rejections(dec.Reason),
		)
		return
	}

	logger.L().Infof(
		"Zone %s: valve -> %d%% (on=%ds off=%ds)",
		z.name, z.valve.OpenPercent(), z.valve.OnTimeSec(), z.valve.OffTimeSec(),
	)

	if err := z.queries.UpsertZoneValve(
		context.Background(), db.UpsertZoneValveParams{ZoneName: z.name, OpenPercent: dec.Percent},
	); err != nil {
		logger.L().Error(err)
	}

	z.publishStateLocked()
}

func (z *ZoneController) tickEnergy() {
	z.mu.Lock()
	defer z.mu.Unlock()

	// The drivers are commanded to 0% while suspended, so no energy is
	// being drawn regardless of the retained committed percent.
	if z.suspended {
		return
	}

	var meanCyclePower *float64
	if z.cfg.Power != nil && z.cfg.Power.DevicePower != nil {
		p := *z.cfg.Power.DevicePower * float64(z.valve.OpenPercent()) / 100.0
		meanCyclePower = &p
	}

	z.energy.Tick(z.valve.Mode(), meanCyclePower, *z.cfg.Regulation.CycleMin)

	total := z.energy.Total()
	if total == nil {
		return
	}
	if err := z.queries.UpsertZoneEnergy(
		context.Background(), db.UpsertZoneEnergyParams{ZoneName: z.name, TotalEnergy: *total},
	); err != nil {
		logger.L().Error(err)
	}
	z.mqtt.SafePublish(z.topicBase+"total_energy", mqttQoS, true, fmt.Sprintf("%.3f", *total))
}

// publishStateLocked pushes the authoritative valve state to the underlying
// drivers and the telemetry topics. Callers hold mu.
func (z *ZoneController) publishStateLocked() {
	percent := z.valve.OpenPercent()
	if z.suspended {
		percent = 0
	}

	for _, d := range z.drivers {
		d.Update(percent)
	}

	z.mqtt.SafePublish(z.topicBase+"open_percent", mqttQoS, true, strconv.Itoa(percent))
	z.mqtt.SafePublish(z.topicBase+"on_time_sec", mqttQoS, true, strconv.Itoa(z.valve.OnTimeSec()))
	z.mqtt.SafePublish(z.topicBase+"off_time_sec", mqttQoS, true, strconv.Itoa(z.valve.OffTimeSec()))
	z.mqtt.SafePublish(
		z.topicBase+"calculated_on_percent", mqttQoS, true,
		fmt.Sprintf("%.3f", z.valve.CalculatedOnPercent()),
	)
	if ts := z.valve.LastCalculation(); ts != nil {
		z.mqtt.SafePublish(z.topicBase+"last_calculation_timestamp", mqttQoS, true, ts.Format(time.RFC3339))
	}
}

func (z *ZoneController) setpointUpdateHandler(client mqtt.Client, message mqtt.Message) {
	t0, err := extractF64PlainOrJson(message, z.cfg.Setpoint.JSONEntry)
	if err != nil {
		logger.L().Error(err)
		return
	}

	target := t0*(*z.cfg.Setpoint.Scale) + (*z.cfg.Setpoint.Offset)

	z.mu.Lock()
	old := z.valve.Target()
	z.valve.SetTarget(target)
	z.mu.Unlock()
	logger.L().Debugf("Got setpoint for zone %s : %f", z.name, target)

	if err := z.queries.UpsertZoneSetpoint(
		context.Background(), db.UpsertZoneSetpointParams{ZoneName: z.name, Setpoint: target},
	); err != nil {
		logger.L().Error(err)
	}
	if target != old {
		z.childChan <- true
	}
}

func (z *ZoneController) controlUpdateHandler(client mqtt.Client, message mqtt.Message) {
	topic := message.Topic()[strings.LastIndex(message.Topic(), "/")+1:]
	logger.L().Infof("Zone %v got MQTT control request: %v : %v", z.name, topic, string(message.Payload()))

	switch topic {
	case "mode":
		mode, err := regulation.ParseMode(string(message.Payload()))
		if err != nil {
			logger.L().Error(err)
			return
		}
		z.setMode(mode)
	case "target":
		value, err := strconv.ParseFloat(string(message.Payload()), 64)
		if err != nil {
			logger.L().Error(err)
			return
		}
		z.mu.Lock()
		z.valve.SetTarget(value)
		z.mu.Unlock()
		z.childChan <- true
	case "dpercent", "period_min", "coef_int", "coef_ext":
		value, err := strconv.ParseFloat(string(message.Payload()), 64)
		if err != nil {
			logger.L().Error(err)
			return
		}
		switch topic {
		case "dpercent":
			err = z.applyAutoRegulation(func(c *config.AutoRegulationConfig) { c.DPercent = &value })
		case "period_min":
			err = z.applyAutoRegulation(func(c *config.AutoRegulationConfig) { c.PeriodMin = config.GetPTR(int(value)) })
		case "coef_int":
			err = z.applyRegulation(func(c *config.RegulationConfig) { c.CoefInt = &value })
		case "coef_ext":
			err = z.applyRegulation(func(c *config.RegulationConfig) { c.CoefExt = &value })
		}
		if err != nil {
			logger.L().Error(err)
			return
		}
		logger.L().Infof("Updated %s for zone `%v` to %v", topic, z.name, value)
		z.childChan <- true
	default:
		logger.L().Errorf("Unknown control topic: %s", topic)
	}
}

// applyAutoRegulation mutates the damping config and rebuilds the gate,
// rolling the config back when the new policy does not validate.
func (z *ZoneController) applyAutoRegulation(mutate func(*config.AutoRegulationConfig)) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	saved := *z.cfg.AutoRegulation
	mutate(z.cfg.AutoRegulation)
	if err := z.valve.SetAutoRegulation(z.cfg.AutoRegulation.Policy()); err != nil {
		*z.cfg.AutoRegulation = saved
		return err
	}
	return nil
}

// applyRegulation mutates the TPI config and rebuilds the strategy, rolling
// the config back when the new coefficients do not validate.
func (z *ZoneController) applyRegulation(mutate func(*config.RegulationConfig)) error {
	z.mu.Lock()
	defer z.mu.Unlock()
	saved := *z.cfg.Regulation
	mutate(z.cfg.Regulation)
	if err := z.valve.SetCoefficients(z.cfg.Regulation.Coefficients()); err != nil {
		*z.cfg.Regulation = saved
		return err
	}
	return nil
}

func (z *ZoneController) setMode(mode regulation.Mode) {
	z.mu.Lock()
	z.valve.SetMode(mode)
	// Off must read as closed immediately, not on the next cycle tick.
	z.publishStateLocked()
	z.mu.Unlock()

	if err := z.queries.UpsertZoneMode(
		context.Background(), db.UpsertZoneModeParams{ZoneName: z.name, Mode: string(mode)},
	); err != nil {
		logger.L().Error(err)
	}
	logger.L().Infof("Updated mode for zone `%v` to %v", z.name, mode)

	if !mode.IsOff() {
		z.childChan <- true
	}
}

// SetExteriorTemperature feeds the shared outside reading into this zone.
func (z *ZoneController) SetExteriorTemperature(t float64) {
	z.mu.Lock()
	z.extTemp = &t
	z.mu.Unlock()
	z.childChan <- true
}

// SetSuspended pauses regulation and closes the valves while the whole
// controller is disabled; resuming recalls the committed duty cycle.
func (z *ZoneController) SetSuspended(suspended bool) {
	z.mu.Lock()
	z.suspended = suspended
	z.publishStateLocked()
	z.mu.Unlock()

	if !suspended {
		z.childChan <- true
	}
}
