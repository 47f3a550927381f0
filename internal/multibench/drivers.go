package multibench

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path"

	"github.com/eggpool/sqlitemulti"
	_ "github.com/mattn/go-sqlite3"
)

// benchDriver abstracts the two execution paths under test so every
// benchmark runs unchanged against both.
type benchDriver interface {
	Exec(ctx context.Context, query string, params ...any) (int64, error)
	ExecMany(ctx context.Context, query string, paramsList [][]any) (int64, error)
	FetchAll(ctx context.Context, query string, params ...any) ([][]any, error)
	Close() error
}

// rawDriver executes directly against a mattn/go-sqlite3 connection
// pool, the baseline every Go program gets out of the box.
type rawDriver struct {
	db *sql.DB
}

func createRawDriver(dir string) (*rawDriver, error) {
	dbPath := path.Join(dir, "raw", "bench.db")

	if err := os.MkdirAll(path.Dir(dbPath), 0755); err != nil {
		return nil, err
	}
	fmt.Println("raw mattn/go-sqlite3 db path:", dbPath)

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &rawDriver{db: db}, nil
}

func (d *rawDriver) Exec(ctx context.Context, query string, params ...any) (int64, error) {
	res, err := d.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (d *rawDriver) ExecMany(ctx context.Context, query string, paramsList [][]any) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var total int64
	for _, params := range paramsList {
		res, err := stmt.ExecContext(ctx, params...)
		if err != nil {
			return 0, err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		total += affected
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}

func (d *rawDriver) FetchAll(ctx context.Context, query string, params ...any) ([][]any, error) {
	rows, err := d.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	values := [][]any{}
	for rows.Next() {
		row := make([]any, len(columns))
		scans := make([]any, len(columns))
		for i := range scans {
			scans[i] = &row[i]
		}
		if err := rows.Scan(scans...); err != nil {
			return nil, err
		}
		values = append(values, row)
	}
	return values, rows.Err()
}

func (d *rawDriver) Close() error {
	return d.db.Close()
}

// queuedDriver executes through the sqlitemulti command queue, where a
// single worker goroutine owns the connection.
type queuedDriver struct {
	db *sqlitemulti.DB
}

func createQueuedDriver(dir string) (*queuedDriver, error) {
	dbPath := path.Join(dir, "queued", "bench.db")

	if err := os.MkdirAll(path.Dir(dbPath), 0755); err != nil {
		return nil, err
	}
	fmt.Println("sqlitemulti db path:", dbPath)

	db, err := sqlitemulti.Connect(dbPath, sqlitemulti.WithAutoCommit())
	if err != nil {
		return nil, err
	}

	return &queuedDriver{db: db}, nil
}

func (d *queuedDriver) Exec(ctx context.Context, query string, params ...any) (int64, error) {
	res, err := d.db.Execute(ctx, query, params...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func (d *queuedDriver) ExecMany(ctx context.Context, query string, paramsList [][]any) (int64, error) {
	res, err := d.db.ExecuteMany(ctx, query, paramsList)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func (d *queuedDriver) FetchAll(ctx context.Context, query string, params ...any) ([][]any, error) {
	return d.db.FetchAll(ctx, query, params...)
}

func (d *queuedDriver) Close() error {
	if err := d.db.Stop(); err != nil {
		return err
	}
	return d.db.Join()
}
