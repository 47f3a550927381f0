// Package stats collects per-minute and total usage counters for the
// sqlitemultid server.
package stats

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eggpool/sqlitemulti/internal/util/syncutil"
)

// minuteData holds the counters of a single minute.
type minuteData struct {
	reads        atomic.Int64
	writes       atomic.Int64
	begins       atomic.Int64
	commits      atomic.Int64
	rollbacks    atomic.Int64
	httpRequests atomic.Int64
}

// DBStats manages per-minute and total stats, plus queued operations.
// A background cleanup removes stats older than 24h at a fixed interval.
type DBStats struct {
	minutes sync.Map // minute in RFC3339 (UTC) -> *minuteData

	baseMu sync.Mutex
	base   Totals // totals restored from a previous run

	queuedWrites       atomic.Int64
	queuedTransactions atomic.Int64
	queuedHTTPRequests atomic.Int64

	startedAt       *syncutil.AtomicTime
	stopCleanupChan chan struct{}
}

// NewDBStats creates a DBStats instance and starts a background cleanup.
// The cleanup runs every 10s to remove data older than 24 hours.
func NewDBStats() *DBStats {
	db := &DBStats{
		startedAt:       syncutil.NewAtomicTime(time.Now()),
		stopCleanupChan: make(chan struct{}),
	}
	go db.runCleanupWorker()
	return db
}

// Close stops the background cleanup worker.
func (db *DBStats) Close() {
	close(db.stopCleanupChan)
}

// runCleanupWorker periodically removes stats older than 24 hours.
func (db *DBStats) runCleanupWorker() {
	ticker := time.NewTicker(time.Second * 10)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			db.cleanupOldStats()
		case <-db.stopCleanupChan:
			return
		}
	}
}

// cleanupOldStats removes entries older than 24 hours. The counts of
// every removed minute are folded into the base totals first, so the
// all-time totals stay monotonic across retention and restarts.
func (db *DBStats) cleanupOldStats() {
	cutoff := time.Now().UTC().Add(-24 * time.Hour)

	db.minutes.Range(func(key, value any) bool {
		parsed, err := time.Parse(time.RFC3339, key.(string))
		if err != nil || parsed.Before(cutoff) {
			md := value.(*minuteData)

			db.baseMu.Lock()
			db.base.Reads += md.reads.Load()
			db.base.Writes += md.writes.Load()
			db.base.Begins += md.begins.Load()
			db.base.Commits += md.commits.Load()
			db.base.Rollbacks += md.rollbacks.Load()
			db.base.HTTPRequests += md.httpRequests.Load()
			db.baseMu.Unlock()

			db.minutes.Delete(key)
		}
		return true
	})
}

// currentMinute returns the *minuteData of the current minute,
// creating it when needed.
func (db *DBStats) currentMinute() *minuteData {
	key := time.Now().UTC().Truncate(time.Minute).Format(time.RFC3339)

	if md, found := db.minutes.Load(key); found {
		return md.(*minuteData)
	}

	md, _ := db.minutes.LoadOrStore(key, &minuteData{})
	return md.(*minuteData)
}

// IncReads increments the count for read queries.
func (db *DBStats) IncReads() {
	db.currentMinute().reads.Add(1)
}

// IncWrites increments the count for write queries.
func (db *DBStats) IncWrites() {
	db.currentMinute().writes.Add(1)
}

// IncBegins increments the count for begin queries.
func (db *DBStats) IncBegins() {
	db.currentMinute().begins.Add(1)
}

// IncCommits increments the count for commit queries.
func (db *DBStats) IncCommits() {
	db.currentMinute().commits.Add(1)
}

// IncRollbacks increments the count for rollback queries.
func (db *DBStats) IncRollbacks() {
	db.currentMinute().rollbacks.Add(1)
}

// IncHTTPRequests increments the count for handled HTTP requests.
func (db *DBStats) IncHTTPRequests() {
	db.currentMinute().httpRequests.Add(1)
}

// IncQueuedWrites increments the number of queued write queries.
func (db *DBStats) IncQueuedWrites() {
	db.queuedWrites.Add(1)
}

// DecQueuedWrites decrements the number of queued write queries.
func (db *DBStats) DecQueuedWrites() {
	db.queuedWrites.Add(-1)
}

// IncQueuedTransactions increments the number of in-flight transactions.
func (db *DBStats) IncQueuedTransactions() {
	db.queuedTransactions.Add(1)
}

// DecQueuedTransactions decrements the number of in-flight transactions.
func (db *DBStats) DecQueuedTransactions() {
	db.queuedTransactions.Add(-1)
}

// IncQueuedHTTPRequests increments the number of in-flight HTTP requests.
func (db *DBStats) IncQueuedHTTPRequests() {
	db.queuedHTTPRequests.Add(1)
}

// DecQueuedHTTPRequests decrements the number of in-flight HTTP requests.
func (db *DBStats) DecQueuedHTTPRequests() {
	db.queuedHTTPRequests.Add(-1)
}

// persistedStats is the on-disk representation of the counters that
// survive a restart.
type persistedStats struct {
	StartedAt string `json:"startedAt"`
	Totals    Totals `json:"totals"`
}

// LoadFromFile restores persisted totals from the given JSON file.
// Missing or corrupt files are ignored.
func (db *DBStats) LoadFromFile(path string) {
	b, err := os.ReadFile(path)
	if err != nil {
		return
	}

	persisted := persistedStats{}
	if err := json.Unmarshal(b, &persisted); err != nil {
		return
	}

	db.baseMu.Lock()
	db.base = persisted.Totals
	db.baseMu.Unlock()

	// Uptime spans restarts when the previous start time is known.
	if startedAt, err := time.Parse(time.RFC3339, persisted.StartedAt); err == nil {
		db.startedAt.Store(startedAt)
	}
}

// SaveToFile stores the current totals into the given JSON file.
func (db *DBStats) SaveToFile(path string) error {
	loaded := db.LoadStats()

	b, err := json.Marshal(persistedStats{
		StartedAt: loaded.StartedAt,
		Totals:    loaded.Totals,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(path, b, 0644)
}
