package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"healthboard-sync/internal/metrics"
	"healthboard-sync/internal/records"
)

const (
	// MaxStatementsPerBatch is the host store's ceiling on statements per
	// atomic batch. Exceeding it is a hard backend error, so the executor
	// splits before submitting.
	MaxStatementsPerBatch = 100

	// BatchTimeout bounds one batch submission's wall clock. A timeout is
	// a batch failure, not a retry.
	BatchTimeout = 2 * time.Minute
)

// BatchError reports a failed batch along with how many batches had
// already committed. Committed batches stay durable; every statement is
// idempotent, so rerunning the whole input is the recovery procedure.
type BatchError struct {
	Batch     int // zero-based index of the failed batch
	Committed int // batches durable before the failure
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d failed after %d committed: %v", e.Batch, e.Committed, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// SplitBatches groups statements into fixed-size batches not exceeding
// MaxStatementsPerBatch, preserving order.
func SplitBatches(stmts []records.Statement) [][]records.Statement {
	if len(stmts) == 0 {
		return nil
	}
	batches := make([][]records.Statement, 0, (len(stmts)+MaxStatementsPerBatch-1)/MaxStatementsPerBatch)
	for start := 0; start < len(stmts); start += MaxStatementsPerBatch {
		end := start + MaxStatementsPerBatch
		if end > len(stmts) {
			end = len(stmts)
		}
		batches = append(batches, stmts[start:end])
	}
	return batches
}

// ExecBatch submits the statements in fixed-size atomic batches, in order,
// never concurrently. Natural-key collisions on insert-or-ignore statements
// are swallowed as expected no-ops; any other failure aborts the remaining
// batches and returns a BatchError carrying the committed count.
func (db *DB) ExecBatch(ctx context.Context, stmts []records.Statement) (int, error) {
	batches := SplitBatches(stmts)
	committed := 0

	for i, batch := range batches {
		if err := db.execOne(ctx, batch); err != nil {
			metrics.BatchesExecutedTotal.WithLabelValues(metrics.ResultFailure).Inc()
			return committed, &BatchError{Batch: i, Committed: committed, Err: err}
		}
		committed++
		metrics.BatchesExecutedTotal.WithLabelValues(metrics.ResultSuccess).Inc()
		metrics.StatementsExecutedTotal.Add(float64(len(batch)))
	}

	return committed, nil
}

// execOne runs one batch inside a single transaction with a bounded timeout.
func (db *DB) execOne(ctx context.Context, batch []records.Statement) error {
	timer := prometheus.NewTimer(metrics.BatchDuration)
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(ctx, BatchTimeout)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range batch {
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			// The ignore-type SQL already says DO NOTHING, so a surfaced
			// collision here means the driver raised it anyway. Treat it
			// as "already ingested" and keep going.
			if stmt.Ignorable && isConstraintErr(err) {
				slog.Debug("Swallowed duplicate-key collision",
					"table", stmt.Table, "error", err)
				metrics.DuplicatesSwallowedTotal.WithLabelValues(stmt.Table).Inc()
				continue
			}
			return fmt.Errorf("statement on %s failed: %w", stmt.Table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// isConstraintErr reports whether an error is a SQLite constraint violation.
// The pure-Go driver surfaces these by message, not by typed error.
func isConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "constraint failed") ||
		strings.Contains(msg, "UNIQUE constraint") ||
		strings.Contains(msg, "PRIMARY KEY constraint")
}
