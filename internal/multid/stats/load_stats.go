package stats

import (
	"sort"
	"time"
)

// LoadedStats is a complete snapshot of the collected stats, ready to
// be marshaled for the /stats endpoint.
type LoadedStats struct {
	StartedAt          string `json:"startedAt"`
	Uptime             string `json:"uptime"`
	QueuedWrites       int64  `json:"queuedWrites"`
	QueuedTransactions int64  `json:"queuedTransactions"`
	QueuedHTTPRequests int64  `json:"queuedHttpRequests"`
	Totals             Totals `json:"totals"`
	Stats              []Stat `json:"stats"`
}

// Totals holds the all-time counters, including those restored from a
// previous run.
type Totals struct {
	Reads        int64 `json:"reads"`
	Writes       int64 `json:"writes"`
	Begins       int64 `json:"begins"`
	Commits      int64 `json:"commits"`
	Rollbacks    int64 `json:"rollbacks"`
	HTTPRequests int64 `json:"httpRequests"`
}

// Stat holds the counters of one minute.
type Stat struct {
	Minute       string `json:"minute"`
	Reads        int64  `json:"reads"`
	Writes       int64  `json:"writes"`
	Begins       int64  `json:"begins"`
	Commits      int64  `json:"commits"`
	Rollbacks    int64  `json:"rollbacks"`
	HTTPRequests int64  `json:"httpRequests"`
}

// LoadStats loads all internal stats into a LoadedStats struct, with
// per-minute entries sorted newest first.
func (db *DBStats) LoadStats() LoadedStats {
	allStats := []Stat{}

	db.baseMu.Lock()
	totals := db.base
	db.baseMu.Unlock()

	db.minutes.Range(func(key, value any) bool {
		minuteKey := key.(string)
		md := value.(*minuteData)

		stat := Stat{
			Minute:       minuteKey,
			Reads:        md.reads.Load(),
			Writes:       md.writes.Load(),
			Begins:       md.begins.Load(),
			Commits:      md.commits.Load(),
			Rollbacks:    md.rollbacks.Load(),
			HTTPRequests: md.httpRequests.Load(),
		}

		totals.Reads += stat.Reads
		totals.Writes += stat.Writes
		totals.Begins += stat.Begins
		totals.Commits += stat.Commits
		totals.Rollbacks += stat.Rollbacks
		totals.HTTPRequests += stat.HTTPRequests

		allStats = append(allStats, stat)
		return true
	})

	sort.Slice(allStats, func(i, j int) bool {
		ti, _ := time.Parse(time.RFC3339, allStats[i].Minute)
		tj, _ := time.Parse(time.RFC3339, allStats[j].Minute)
		return tj.Before(ti)
	})

	startedAt := db.startedAt.Load()
	return LoadedStats{
		Totals:             totals,
		Stats:              allStats,
		QueuedWrites:       db.queuedWrites.Load(),
		QueuedTransactions: db.queuedTransactions.Load(),
		QueuedHTTPRequests: db.queuedHTTPRequests.Load(),
		StartedAt:          startedAt.Format(time.RFC3339),
		Uptime:             time.Since(startedAt).Round(time.Second).String(),
	}
}
