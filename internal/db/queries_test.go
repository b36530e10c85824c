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

package db

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antst/mztvc/sql/schema"
)

func newTestQueries(t *testing.T) *Queries {
	t.Helper()
	sqlDB, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	_, err = sqlDB.Exec(schema.Schema)
	require.NoError(t, err)
	return New(sqlDB)
}

func TestZoneStateRoundTrip(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	// Nothing committed yet: every column reads as no prior state.
	_, err := q.GetZoneSetpoint(ctx, "living")
	require.Error(t, err)
	_, err = q.GetZoneValve(ctx, "living")
	require.Error(t, err)

	require.NoError(t, q.UpsertZoneSetpoint(ctx, UpsertZoneSetpointParams{ZoneName: "living", Setpoint: 21.5}))
	require.NoError(t, q.UpsertZoneValve(ctx, UpsertZoneValveParams{ZoneName: "living", OpenPercent: 40}))
	require.NoError(t, q.UpsertZoneMode(ctx, UpsertZoneModeParams{ZoneName: "living", Mode: "heat"}))
	require.NoError(t, q.UpsertZoneEnergy(ctx, UpsertZoneEnergyParams{ZoneName: "living", TotalEnergy: 166.67}))

	sp, err := q.GetZoneSetpoint(ctx, "living")
	require.NoError(t, err)
	assert.Equal(t, 21.5, sp)

	pct, err := q.GetZoneValve(ctx, "living")
	require.NoError(t, err)
	assert.Equal(t, 40, pct)

	mode, err := q.GetZoneMode(ctx, "living")
	require.NoError(t, err)
	assert.Equal(t, "heat", mode)

	total, err := q.GetZoneEnergy(ctx, "living")
	require.NoError(t, err)
	assert.Equal(t, 166.67, total)

	// Updating one column leaves the others alone.
	require.NoError(t, q.UpsertZoneValve(ctx, UpsertZoneValveParams{ZoneName: "living", OpenPercent: 55}))
	pct, err = q.GetZoneValve(ctx, "living")
	require.NoError(t, err)
	assert.Equal(t, 55, pct)
	sp, err = q.GetZoneSetpoint(ctx, "living")
	require.NoError(t, err)
	assert.Equal(t, 21.5, sp)

	// Other zones stay independent.
	_, err = q.GetZoneValve(ctx, "bedroom")
	require.Error(t, err)
}

func TestSensorAndControllerValues(t *testing.T) {
	q := newTestQueries(t)
	ctx := context.Background()

	require.NoError(t, q.UpsertSensorValue(ctx, UpsertSensorValueParams{SensorName: "zone-living-1", Value: 19.2}))
	require.NoError(t, q.UpsertSensorValue(ctx, UpsertSensorValueParams{SensorName: "zone-living-1", Value: 19.7}))
	v, err := q.GetSensorValue(ctx, "zone-living-1")
	require.NoError(t, err)
	assert.Equal(t, 19.7, v)

	require.NoError(t, q.UpsertControllerValue(ctx, UpsertControllerValueParams{Name: "enabled", Value: "false"}))
	s, err := q.GetControllerValue(ctx, "enabled")
	require.NoError(t, err)
	assert.Equal(t, "false", s)
}
