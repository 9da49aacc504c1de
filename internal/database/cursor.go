package database

import (
	"database/sql"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"healthboard-sync/internal/metrics"
)

// CursorKey is the singleton row key for the push sync cursor.
const CursorKey = "last_sync"

// GetSyncCursor returns the timestamp of the last successfully ingested
// push payload, or the empty string if no payload was ever ingested.
func (db *DB) GetSyncCursor() (string, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpGetCursor))
	defer timer.ObserveDuration()

	var value string
	err := db.conn.QueryRow(
		`SELECT value FROM sync_cursor WHERE key = ?`, CursorKey,
	).Scan(&value)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpGetCursor).Inc()
		return "", fmt.Errorf("failed to read sync cursor: %w", err)
	}
	return value, nil
}

// TableCount returns the row count of one table. Table names come from
// the static Tables list, never from user input.
func (db *DB) TableCount(table string) (int64, error) {
	timer := prometheus.NewTimer(metrics.DBOperationDuration.WithLabelValues(metrics.DBOpTableCount))
	defer timer.ObserveDuration()

	var n int64
	err := db.conn.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	if err != nil {
		metrics.DBOperationErrorsTotal.WithLabelValues(metrics.DBOpTableCount).Inc()
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
