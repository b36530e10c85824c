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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antst/mztvc/internal/config"
)

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestExtractF64PlainOrJson(t *testing.T) {
	v, err := extractF64PlainOrJson(&fakeMessage{topic: "t", payload: []byte("19.5")}, nil)
	require.NoError(t, err)
	assert.Equal(t, 19.5, v)

	entry := "temperature"
	v, err = extractF64PlainOrJson(
		&fakeMessage{topic: "t", payload: []byte(`{"temperature": 20.25, "humidity": 40}`)}, &entry,
	)
	require.NoError(t, err)
	assert.Equal(t, 20.25, v)

	_, err = extractF64PlainOrJson(&fakeMessage{topic: "t", payload: []byte(`{"humidity": 40}`)}, &entry)
	require.Error(t, err)

	_, err = extractF64PlainOrJson(&fakeMessage{topic: "t", payload: []byte(`{"temperature": "hot"}`)}, &entry)
	require.Error(t, err)

	_, err = extractF64PlainOrJson(&fakeMessage{topic: "t", payload: []byte("not-a-number")}, nil)
	require.Error(t, err)
}

func testSensor(value, weight float64, seen bool) *SensorController {
	ts := zeroTS
	if seen {
		ts = time.Now()
	}
	return &SensorController{
		cfg:       &config.SensorConfig{Weight: &weight},
		value:     value,
		timestamp: ts,
	}
}

func TestSensorsMean(t *testing.T) {
	v, ts := sensorsMean([]*SensorController{
		testSensor(20, 1, true),
		testSensor(22, 3, true),
	})
	require.True(t, ts.After(zeroTS))
	assert.InDelta(t, 21.5, v, 1e-9)

	// Sensors that never reported are left out of the average.
	v, ts = sensorsMean([]*SensorController{
		testSensor(20, 1, true),
		testSensor(100, 10, false),
	})
	require.True(t, ts.After(zeroTS))
	assert.InDelta(t, 20, v, 1e-9)

	// No reading at all: no average, zero timestamp.
	_, ts = sensorsMean([]*SensorController{testSensor(20, 1, false)})
	assert.False(t, ts.After(zeroTS))
}
