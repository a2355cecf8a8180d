package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"musiccrate/internal/logging"
)

// WithTx runs fn inside a transaction and commits when fn returns nil.
// On error or panic the transaction is rolled back; a failing rollback is
// logged and the original error is returned. Either way the connection goes
// back to the pool in auto-commit mode.
func WithTx(ctx context.Context, db *sql.DB, logger *logging.Logger, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txLog := logger.With("tx", uuid.NewString())
	start := time.Now()
	finished := false
	defer func() {
		if finished {
			return
		}
		p := recover()
		rollback(tx, txLog, op)
		if p != nil {
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	finished = true
	if err := tx.Commit(); err != nil {
		txLog.DBQuery(op, time.Since(start), err)
		return fmt.Errorf("commit tx: %w", err)
	}
	txLog.DBQuery(op, time.Since(start), nil)
	return nil
}

func rollback(tx *sql.Tx, logger *logging.Logger, op string) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error(err, "rollback "+op)
		return
	}
	logger.Debug("rolled back " + op)
}

// expectRows converts a write that matched nothing into ErrNoRowsAffected.
func expectRows(res sql.Result, err error, what string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNoRowsAffected)
	}
	return nil
}

// execBatch executes query once per argument set on a single prepared
// statement. Any execution that affects zero rows fails the whole batch.
func execBatch(ctx context.Context, tx *sql.Tx, query string, argSets [][]any) error {
	if len(argSets) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for i, args := range argSets {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return fmt.Errorf("batch entry %d: %w", i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("batch entry %d: rows affected: %w", i, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: entry %d matched no rows", ErrPartialBatch, i)
		}
	}
	return nil
}
