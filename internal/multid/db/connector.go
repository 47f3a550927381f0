package db

import (
	"context"
	"database/sql/driver"

	"github.com/mattn/go-sqlite3"
)

// connector opens SQLite connections with the sqlitemultid startup
// pragmas already applied.
type connector struct {
	driver               driver.Driver
	dbPath               string
	isReadOnly           bool
	disableOptimizations bool
}

func newConnector(dbPath string, readOnly bool, disableOptimizations bool) driver.Connector {
	return &connector{
		driver:               &sqlite3.SQLiteDriver{},
		dbPath:               dbPath,
		isReadOnly:           readOnly,
		disableOptimizations: disableOptimizations,
	}
}

// Connect creates a new database connection and applies the pragmas.
func (c *connector) Connect(context.Context) (driver.Conn, error) {
	pragmas := []string{
		"PRAGMA FOREIGN_KEYS = true;",
		"PRAGMA BUSY_TIMEOUT = 5000;",
	}

	if !c.disableOptimizations {
		pragmas = append(pragmas,
			"PRAGMA JOURNAL_MODE = WAL;",
			"PRAGMA SYNCHRONOUS = NORMAL;",
			"PRAGMA CACHE_SIZE = 10000;",
			"PRAGMA TEMP_STORE = MEMORY;",
			"PRAGMA MMAP_SIZE = 536870912;", // 512MB
		)
	}

	if c.isReadOnly {
		pragmas = append(pragmas, "PRAGMA QUERY_ONLY = true;")
	}

	conn, err := c.driver.Open("file:" + c.dbPath)
	if err != nil {
		return nil, err
	}

	for _, pragma := range pragmas {
		if err := exec(conn, pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

func (c *connector) Driver() driver.Driver {
	return c.driver
}

func exec(conn driver.Conn, query string) error {
	stmt, err := conn.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(nil)
	return err
}
