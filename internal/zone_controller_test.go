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
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antst/mztvc/internal/config"
	"github.com/antst/mztvc/internal/db"
	"github.com/antst/mztvc/internal/regulation"
)

type fakeMQTT struct {
	published map[string]string
}

func (f *fakeMQTT) SafePublish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if f.published == nil {
		f.published = make(map[string]string)
	}
	f.published[topic] = fmt.Sprint(payload)
	return &mqtt.DummyToken{}
}

func (f *fakeMQTT) SafeSubscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return &mqtt.DummyToken{}
}

func (f *fakeMQTT) SafeUnsubscribe(topics ...string) mqtt.Token {
	return &mqtt.DummyToken{}
}

func (f *fakeMQTT) Disconnect() {}

// newTestZone builds a ZoneController around the in-memory DB and a fake
// MQTT client, without starting the run loop.
func newTestZone(t *testing.T, cfg *config.ZoneConfig) (*ZoneController, *fakeMQTT) {
	t.Helper()
	cfg.FillDefaults()

	valve, err := regulation.NewValveController("office", cfg.Regulation.Coefficients(), cfg.AutoRegulation.Policy())
	require.NoError(t, err)

	broker := &fakeMQTT{}
	z := &ZoneController{
		name:      "office",
		cfg:       cfg,
		queries:   db.OpenDatabase(":memory:"),
		valve:     valve,
		energy:    regulation.NewEnergyAccumulator(),
		mqtt:      broker,
		childChan: make(chan bool, childChanBuffer),
		topicBase: "mztvc/control/zone/office/",
	}
	z.LinkAverageFun()
	return z, broker
}

func TestZoneTickEnergyWhileSuspended(t *testing.T) {
	cfg := config.NewZoneConfig()
	cfg.Power = &config.PowerConfig{DevicePower: config.GetPTR(1200.0)}
	z, broker := newTestZone(t, cfg)

	z.valve.SetMode(regulation.ModeHeat)
	z.valve.RestoreCommitted(50)

	// 1200 W at 50% over a 10 min cycle.
	z.tickEnergy()
	require.NotNil(t, z.energy.Total())
	assert.InDelta(t, 100.0, *z.energy.Total(), 1e-9)

	// Suspension closes the valves, so cycles must not keep charging the
	// retained committed percent.
	z.SetSuspended(true)
	assert.Equal(t, "0", broker.published[z.topicBase+"open_percent"])
	z.tickEnergy()
	assert.InDelta(t, 100.0, *z.energy.Total(), 1e-9)

	// Recalculation is paused as well: with no sensor readings a live zone
	// would commit 0%, a suspended one keeps the retained duty cycle.
	z.recalculate(time.Now())
	assert.Equal(t, 50, z.valve.OpenPercent())

	z.SetSuspended(false)
	z.tickEnergy()
	assert.InDelta(t, 200.0, *z.energy.Total(), 1e-9)
	assert.Equal(t, "200.000", broker.published[z.topicBase+"total_energy"])
}

func TestZoneRestoreModeFallsBackToConfig(t *testing.T) {
	cfg := config.NewZoneConfig()
	cfg.Mode = string(regulation.ModeHeat)
	z, _ := newTestZone(t, cfg)
	ctx := context.Background()

	// A stored mode that no longer parses must not shadow the config mode.
	require.NoError(t, z.queries.UpsertZoneMode(ctx, db.UpsertZoneModeParams{ZoneName: z.name, Mode: "defrost"}))
	require.NoError(t, z.queries.UpsertZoneValve(ctx, db.UpsertZoneValveParams{ZoneName: z.name, OpenPercent: 40}))
	z.restoreState()
	assert.Equal(t, regulation.ModeHeat, z.valve.Mode())
	assert.Equal(t, 40, z.valve.OpenPercent())

	// A valid stored mode wins over the config one.
	require.NoError(t, z.queries.UpsertZoneMode(ctx, db.UpsertZoneModeParams{ZoneName: z.name, Mode: "cool"}))
	z.restoreState()
	assert.Equal(t, regulation.ModeCool, z.valve.Mode())
}

func TestZoneRuntimeControlUpdates(t *testing.T) {
	cfg := config.NewZoneConfig()
	z, broker := newTestZone(t, cfg)

	z.controlUpdateHandler(nil, &fakeMessage{topic: z.topicBase + "dpercent", payload: []byte("7.5")})
	assert.Equal(t, 7.5, z.valve.Gate().Policy().MinDeltaPercent)

	z.controlUpdateHandler(nil, &fakeMessage{topic: z.topicBase + "period_min", payload: []byte("15")})
	assert.Equal(t, 15, z.valve.Gate().Policy().MinPeriodMin)

	// New gain takes effect on the next calculation.
	z.controlUpdateHandler(nil, &fakeMessage{topic: z.topicBase + "coef_int", payload: []byte("1.5")})
	assert.Equal(t, 1.5, *z.cfg.Regulation.CoefInt)
	z.valve.SetMode(regulation.ModeHeat)
	z.valve.SetTarget(21)
	z.valve.SetInteriorTemperature(config.GetPTR(20.5))
	require.True(t, z.valve.Recalculate(time.Now()).Accept)
	assert.Equal(t, 75, z.valve.OpenPercent())

	// Out-of-range and unparsable payloads leave config and gate alone.
	z.controlUpdateHandler(nil, &fakeMessage{topic: z.topicBase + "dpercent", payload: []byte("150")})
	assert.Equal(t, 7.5, *z.cfg.AutoRegulation.DPercent)
	assert.Equal(t, 7.5, z.valve.Gate().Policy().MinDeltaPercent)
	z.controlUpdateHandler(nil, &fakeMessage{topic: z.topicBase + "coef_ext", payload: []byte("warm")})
	assert.Equal(t, 0.01, *z.cfg.Regulation.CoefExt)

	// Mode off reads as closed immediately and is published right away.
	z.controlUpdateHandler(nil, &fakeMessage{topic: z.topicBase + "mode", payload: []byte("off")})
	assert.Equal(t, regulation.ModeOff, z.valve.Mode())
	assert.Equal(t, "0", broker.published[z.topicBase+"open_percent"])
}
