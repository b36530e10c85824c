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

	"github.com/jmoiron/sqlx"
)

// Queries is the persistence surface for controller state. Zone columns are
// nullable on purpose: a value that was never committed reads back as
// sql.ErrNoRows, which callers treat as "no prior state".
type Queries struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Queries {
	return &Queries{db: db}
}

type UpsertZoneSetpointParams struct {
	ZoneName string
	Setpoint float64
}

func (q *Queries) UpsertZoneSetpoint(ctx context.Context, arg UpsertZoneSetpointParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO zone_state (zone_name, setpoint) VALUES (?, ?)
		 ON CONFLICT(zone_name) DO UPDATE SET setpoint = excluded.setpoint`,
		arg.ZoneName, arg.Setpoint,
	)
	return err
}

func (q *Queries) GetZoneSetpoint(ctx context.Context, zoneName string) (float64, error) {
	var v float64
	err := q.db.GetContext(ctx, &v,
		`SELECT setpoint FROM zone_state WHERE zone_name = ? AND setpoint IS NOT NULL`, zoneName)
	return v, err
}

type UpsertZoneModeParams struct {
	ZoneName string
	Mode     string
}

func (q *Queries) UpsertZoneMode(ctx context.Context, arg UpsertZoneModeParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO zone_state (zone_name, mode) VALUES (?, ?)
		 ON CONFLICT(zone_name) DO UPDATE SET mode = excluded.mode`,
		arg.ZoneName, arg.Mode,
	)
	return err
}

func (q *Queries) GetZoneMode(ctx context.Context, zoneName string) (string, error) {
	var v string
	err := q.db.GetContext(ctx, &v,
		`SELECT mode FROM zone_state WHERE zone_name = ? AND mode IS NOT NULL`, zoneName)
	return v, err
}

type UpsertZoneValveParams struct {
	ZoneName    string
	OpenPercent int
}

func (q *Queries) UpsertZoneValve(ctx context.Context, arg UpsertZoneValveParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO zone_state (zone_name, open_percent) VALUES (?, ?)
		 ON CONFLICT(zone_name) DO UPDATE SET open_percent = excluded.open_percent`,
		arg.ZoneName, arg.OpenPercent,
	)
	return err
}

func (q *Queries) GetZoneValve(ctx context.Context, zoneName string) (int, error) {
	var v int
	err := q.db.GetContext(ctx, &v,
		`SELECT open_percent FROM zone_state WHERE zone_name = ? AND open_percent IS NOT NULL`, zoneName)
	return v, err
}

type UpsertZoneEnergyParams struct {
	ZoneName    string
	TotalEnergy float64
}

func (q *Queries) UpsertZoneEnergy(ctx context.Context, arg UpsertZoneEnergyParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO zone_state (zone_name, total_energy) VALUES (?, ?)
		 ON CONFLICT(zone_name) DO UPDATE SET total_energy = excluded.total_energy`,
		arg.ZoneName, arg.TotalEnergy,
	)
	return err
}

func (q *Queries) GetZoneEnergy(ctx context.Context, zoneName string) (float64, error) {
	var v float64
	err := q.db.GetContext(ctx, &v,
		`SELECT total_energy FROM zone_state WHERE zone_name = ? AND total_energy IS NOT NULL`, zoneName)
	return v, err
}

type UpsertSensorValueParams struct {
	SensorName string
	Value      float64
}

func (q *Queries) UpsertSensorValue(ctx context.Context, arg UpsertSensorValueParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO sensor_values (sensor_name, value) VALUES (?, ?)
		 ON CONFLICT(sensor_name) DO UPDATE SET value = excluded.value`,
		arg.SensorName, arg.Value,
	)
	return err
}

func (q *Queries) GetSensorValue(ctx context.Context, sensorName string) (float64, error) {
	var v float64
	err := q.db.GetContext(ctx, &v,
		`SELECT value FROM sensor_values WHERE sensor_name = ?`, sensorName)
	return v, err
}

type UpsertControllerValueParams struct {
	Name  string
	Value string
}

func (q *Queries) UpsertControllerValue(ctx context.Context, arg UpsertControllerValueParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO controller_values (name, value) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		arg.Name, arg.Value,
	)
	return err
}

func (q *Queries) GetControllerValue(ctx context.Context, name string) (string, error) {
	var v string
	err := q.db.GetContext(ctx, &v,
		`SELECT value FROM controller_values WHERE name = ?`, name)
	return v, err
}
