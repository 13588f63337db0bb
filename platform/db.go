// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package platform

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var (
	drvName = "mysql"
)

// DB retrieves amplifier configurations from the calibration database.
type DB struct {
	db *sql.DB
}

// Open opens a connection to the database described by dsn,
// e.g. "user:s3cr3t@tcp(localhost)/amp".
func Open(dsn string) (*DB, error) {
	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("platform: could not open db: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("platform: could not ping db: %w", err)
	}

	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Config retrieves the latest configuration of the named amplifier.
// GPIO assignments are board wiring and are not stored in the database:
// the returned configuration has no pins.
func (db *DB) Config(ctx context.Context, name string) (Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cfg := Config{Name: name}
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT master_vol, input_mux, drc_enable, drc1, drc1_tko, drc2, drc2_tko, eq_enable, eq_default "+
			"FROM amplifiers WHERE name=? ORDER BY datetime DESC LIMIT 1",
		name,
	)
	if err != nil {
		return cfg, fmt.Errorf("platform: could not query amplifier %q: %w", name, err)
	}
	defer rows.Close()

	var (
		found bool
		mux   sql.NullString
		drc   [4]sql.NullString
	)
	for rows.Next() {
		found = true
		err = rows.Scan(
			&cfg.MasterVol, &mux,
			&cfg.DRC.Enable, &drc[0], &drc[1], &drc[2], &drc[3],
			&cfg.EQ.Enable, &cfg.EQ.Default,
		)
		if err != nil {
			return cfg, fmt.Errorf("platform: could not get amplifier %q: %w", name, err)
		}
	}

	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("platform: could not scan db for amplifier %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return cfg, fmt.Errorf("platform: context error while retrieving amplifier %q: %w", name, err)
	}

	if !found {
		return cfg, fmt.Errorf("platform: no amplifier %q in db", name)
	}

	for _, v := range []struct {
		src sql.NullString
		dst *Hex
	}{
		{mux, &cfg.InitRegs},
		{drc[0], &cfg.DRC.Ch1.Main},
		{drc[1], &cfg.DRC.Ch1.TKO},
		{drc[2], &cfg.DRC.Ch2.Main},
		{drc[3], &cfg.DRC.Ch2.TKO},
	} {
		if !v.src.Valid {
			continue
		}
		p, err := ParseHex(v.src.String)
		if err != nil {
			return cfg, fmt.Errorf("platform: could not decode table of amplifier %q: %w", name, err)
		}
		*v.dst = p
	}

	cfg.EQ.Presets, err = db.presets(ctx, name)
	if err != nil {
		return cfg, err
	}

	return cfg, nil
}

func (db *DB) presets(ctx context.Context, name string) ([]Preset, error) {
	rows, err := db.db.QueryContext(
		ctx,
		"SELECT preset, regs FROM eq_presets WHERE amplifier=? ORDER BY idx",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("platform: could not query EQ presets of %q: %w", name, err)
	}
	defer rows.Close()

	var presets []Preset
	for rows.Next() {
		var (
			preset Preset
			regs   string
		)
		err = rows.Scan(&preset.Name, &regs)
		if err != nil {
			return nil, fmt.Errorf("platform: could not get EQ preset of %q: %w", name, err)
		}
		preset.Regs, err = ParseHex(regs)
		if err != nil {
			return nil, fmt.Errorf("platform: could not decode EQ preset %q of %q: %w", preset.Name, name, err)
		}
		presets = append(presets, preset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("platform: could not scan db for EQ presets of %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("platform: context error while retrieving EQ presets of %q: %w", name, err)
	}

	return presets, nil
}
