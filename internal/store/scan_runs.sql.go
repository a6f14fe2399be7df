// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const scanRunColumns = `id, trigger_source, pages_scanned, connections, orphans, cleaned, orphans_json, error, started_at, finished_at`

func scanScanRun(row interface{ Scan(...any) error }) (ScanRun, error) {
	var i ScanRun
	err := row.Scan(
		&i.ID,
		&i.Trigger,
		&i.PagesScanned,
		&i.Connections,
		&i.Orphans,
		&i.Cleaned,
		&i.OrphansJson,
		&i.Error,
		&i.StartedAt,
		&i.FinishedAt,
	)
	return i, err
}

const createScanRun = `
INSERT INTO scan_runs (id, trigger_source, pages_scanned, connections, orphans, cleaned, orphans_json, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateScanRunParams struct {
	ID           string    `json:"id"`
	Trigger      string    `json:"trigger"`
	PagesScanned int64     `json:"pages_scanned"`
	Connections  int64     `json:"connections"`
	Orphans      int64     `json:"orphans"`
	Cleaned      int64     `json:"cleaned"`
	OrphansJson  string    `json:"orphans_json"`
	Error        string    `json:"error"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

func (q *Queries) CreateScanRun(ctx context.Context, arg CreateScanRunParams) error {
	_, err := q.db.ExecContext(ctx, createScanRun,
		arg.ID,
		arg.Trigger,
		arg.PagesScanned,
		arg.Connections,
		arg.Orphans,
		arg.Cleaned,
		arg.OrphansJson,
		arg.Error,
		arg.StartedAt,
		arg.FinishedAt,
	)
	return err
}

const getLatestScanRun = `SELECT ` + scanRunColumns + ` FROM scan_runs ORDER BY started_at DESC LIMIT 1`

func (q *Queries) GetLatestScanRun(ctx context.Context) (ScanRun, error) {
	return scanScanRun(q.db.QueryRowContext(ctx, getLatestScanRun))
}

const listScanRuns = `SELECT ` + scanRunColumns + ` FROM scan_runs ORDER BY started_at DESC LIMIT ?`

func (q *Queries) ListScanRuns(ctx context.Context, limit int64) ([]ScanRun, error) {
	rows, err := q.db.QueryContext(ctx, listScanRuns, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []ScanRun
	for rows.Next() {
		i, err := scanScanRun(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteScanRunsBefore = `DELETE FROM scan_runs WHERE started_at < ?`

func (q *Queries) DeleteScanRunsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteScanRunsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
