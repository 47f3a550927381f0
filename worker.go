package sqlitemulti

import (
	"database/sql"
	"fmt"

	"github.com/eggpool/sqlitemulti/internal/log"
)

// request holds everything the worker needs to process one command.
type request struct {
	command    command
	sql        string
	params     []any
	script     []Statement
	many       [][]any
	commit     bool
	resultChan chan result
	errorChan  chan error
}

// result carries the answer of a processed command back to the caller.
type result struct {
	exec  ExecResult
	row   []any
	rows  [][]any
	count int
}

// worker processes all queued commands one at a time. It is the only
// goroutine that ever touches the connection.
func (db *DB) worker(autoCommit bool) {
	defer close(db.done)

	var tx *sql.Tx

	setTx := func(t *sql.Tx) {
		tx = t
		db.inTx.Store(t != nil)
	}

	// ensureTx opens the pending transaction on first use. In
	// autocommit mode writes go straight to the connection, except for
	// scripts and executemany which always need one.
	ensureTx := func(force bool) (*sql.Tx, error) {
		if tx != nil {
			return tx, nil
		}
		if autoCommit && !force {
			return nil, nil
		}
		t, err := db.conn.Begin()
		if err != nil {
			return nil, fmt.Errorf("failed to begin transaction: %w", err)
		}
		setTx(t)
		return t, nil
	}

	commitTx := func() error {
		if tx == nil {
			return nil
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		setTx(nil)
		return nil
	}

	rollbackTx := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		setTx(nil)
	}

	for req := range db.requests {
		if req.command == commandStop {
			rollbackTx()
			if err := db.conn.Close(); err != nil {
				db.logger.ErrorNs(log.NsWorker, "failed to close connection", log.KV{
					"error": err.Error(),
				})
			}
			db.logger.InfoNs(log.NsWorker, "worker stopped")
			req.resultChan <- result{}
			db.failQueued()
			return
		}

		res, err := db.handle(req, ensureTx, commitTx, rollbackTx)
		if err != nil {
			req.errorChan <- err
			continue
		}
		req.resultChan <- res
	}
}

// failQueued answers ErrStopped to commands that slipped into the
// queue while the stop command was in flight.
func (db *DB) failQueued() {
	for {
		select {
		case req := <-db.requests:
			req.errorChan <- ErrStopped
		default:
			return
		}
	}
}

// handle executes a single non-stop command.
func (db *DB) handle(
	req request,
	ensureTx func(force bool) (*sql.Tx, error),
	commitTx func() error,
	rollbackTx func(),
) (result, error) {
	switch req.command {
	case commandExecute, commandInsert, commandDelete:
		return db.handleExec(req, ensureTx, commitTx)
	case commandExecuteMany:
		return db.handleExecuteMany(req, ensureTx, commitTx, rollbackTx)
	case commandScript:
		return db.handleScript(req, ensureTx, commitTx, rollbackTx)
	case commandFetchOne, commandFetchAll:
		return db.handleFetch(req, ensureTx)
	case commandCommit:
		if err := commitTx(); err != nil {
			return result{}, err
		}
		return result{}, nil
	}
	return result{}, fmt.Errorf("unknown command: %s", req.command.Value)
}

// handleExec runs a single write statement, committing when requested.
func (db *DB) handleExec(
	req request,
	ensureTx func(force bool) (*sql.Tx, error),
	commitTx func() error,
) (result, error) {
	tx, err := ensureTx(false)
	if err != nil {
		return result{}, err
	}

	var sqlRes sql.Result
	if tx != nil {
		sqlRes, err = tx.Exec(req.sql, req.params...)
	} else {
		sqlRes, err = db.conn.Exec(req.sql, req.params...)
	}
	if err != nil {
		return result{}, fmt.Errorf("failed to execute statement: %w", err)
	}

	execRes, err := newExecResult(sqlRes)
	if err != nil {
		return result{}, err
	}

	if req.commit {
		if err := commitTx(); err != nil {
			return result{}, err
		}
	}
	return result{exec: execRes}, nil
}

// handleExecuteMany runs one statement once per parameter tuple inside
// a transaction and commits it.
func (db *DB) handleExecuteMany(
	req request,
	ensureTx func(force bool) (*sql.Tx, error),
	commitTx func() error,
	rollbackTx func(),
) (result, error) {
	tx, err := ensureTx(true)
	if err != nil {
		return result{}, err
	}

	stmt, err := tx.Prepare(req.sql)
	if err != nil {
		return result{}, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	execRes := ExecResult{}
	for _, params := range req.many {
		sqlRes, err := stmt.Exec(params...)
		if err != nil {
			rollbackTx()
			return result{}, fmt.Errorf("failed to execute statement: %w", err)
		}
		partial, err := newExecResult(sqlRes)
		if err != nil {
			rollbackTx()
			return result{}, err
		}
		execRes.LastInsertID = partial.LastInsertID
		execRes.RowsAffected += partial.RowsAffected
	}

	if err := commitTx(); err != nil {
		return result{}, err
	}
	return result{exec: execRes}, nil
}

// handleScript runs all statements of the script inside a transaction.
// A single failure rolls everything back.
func (db *DB) handleScript(
	req request,
	ensureTx func(force bool) (*sql.Tx, error),
	commitTx func() error,
	rollbackTx func(),
) (result, error) {
	tx, err := ensureTx(true)
	if err != nil {
		return result{}, err
	}

	for i, stmt := range req.script {
		if _, err := tx.Exec(stmt.SQL, stmt.Params...); err != nil {
			rollbackTx()
			return result{}, fmt.Errorf("script statement %d failed: %w", i, err)
		}
	}

	if err := commitTx(); err != nil {
		return result{}, err
	}
	return result{count: len(req.script)}, nil
}

// handleFetch runs a read query. Reads go through the pending
// transaction when one is open so callers see their own writes.
func (db *DB) handleFetch(
	req request,
	ensureTx func(force bool) (*sql.Tx, error),
) (result, error) {
	tx, err := ensureTx(false)
	if err != nil {
		return result{}, err
	}

	var rows *sql.Rows
	if tx != nil {
		rows, err = tx.Query(req.sql, req.params...)
	} else {
		rows, err = db.conn.Query(req.sql, req.params...)
	}
	if err != nil {
		return result{}, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	limit := -1
	if req.command == commandFetchOne {
		limit = 1
	}

	values, err := scanRows(rows, limit)
	if err != nil {
		return result{}, err
	}

	if req.command == commandFetchOne {
		if len(values) == 0 {
			return result{}, nil
		}
		return result{row: values[0]}, nil
	}
	return result{rows: values}, nil
}

// scanRows scans up to limit rows into generic value slices. A
// negative limit scans everything.
func scanRows(rows *sql.Rows, limit int) ([][]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	values := [][]any{}
	for rows.Next() {
		if limit >= 0 && len(values) >= limit {
			break
		}

		row := make([]any, len(columns))
		scans := make([]any, len(columns))
		for i := range scans {
			scans[i] = &row[i]
		}
		if err := rows.Scan(scans...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		values = append(values, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return values, nil
}

func newExecResult(sqlRes sql.Result) (ExecResult, error) {
	lastInsertId, err := sqlRes.LastInsertId()
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	rowsAffected, err := sqlRes.RowsAffected()
	if err != nil {
		return ExecResult{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ExecResult{
		LastInsertID: lastInsertId,
		RowsAffected: rowsAffected,
	}, nil
}
