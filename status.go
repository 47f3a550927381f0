package sqlitemulti

import (
	"fmt"
	"sync/atomic"
)

// Status is a snapshot of the current queue occupation.
type Status struct {
	// QueuedCommands is the number of commands waiting for, or being
	// processed by, the worker.
	QueuedCommands int64
	// InTransaction reports whether a transaction is pending commit.
	InTransaction bool
	// Stopping reports whether Stop has been called.
	Stopping bool
}

// Status returns a snapshot of the current queue occupation.
func (db *DB) Status() Status {
	return Status{
		QueuedCommands: atomic.LoadInt64(&db.queued),
		InTransaction:  db.inTx.Load(),
		Stopping:       db.stopping.Load(),
	}
}

func (s Status) String() string {
	return fmt.Sprintf(
		"%d commands queued, in transaction: %t, stopping: %t",
		s.QueuedCommands, s.InTransaction, s.Stopping,
	)
}
