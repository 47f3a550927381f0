package multibench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eggpool/sqlitemulti/internal/multibench/benchbar"
)

type benchmarkManyConfig struct {
	insertXUsers     int
	queryUsersYTimes int
	insertGoroutines int
	queryGoroutines  int
}

// runBenchmarkMany inserts X users in a single bulk operation and then
// queries all users Y times. This simulates a read-heavy workload.
func runBenchmarkMany(
	ctx context.Context, db benchDriver, fullConfig benchmarksConfig,
) (benchmarkResult, error) {
	conf := fullConfig.benchmarkManyConfig
	start := time.Now()
	var totalReads, totalWrites uint64

	bar := benchbar.NewBar(
		fmt.Sprintf("Inserting %d users", conf.insertXUsers), 1,
	)

	paramsList := make([][]any, 0, conf.insertXUsers)
	for idx := range conf.insertXUsers {
		paramsList = append(paramsList, []any{
			time.Now().Unix(), fmt.Sprintf("user%d@example.com", idx), 1,
		})
	}

	affected, err := db.ExecMany(ctx,
		"INSERT INTO users (created, email, active) VALUES (?, ?, ?)",
		paramsList,
	)
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when inserting: %w", err)
	}
	totalWrites += uint64(affected)
	bar.Finish()

	wgQuery := sync.WaitGroup{}
	chQuery := make(chan bool, conf.queryGoroutines)
	errQuery := make(chan error, conf.queryUsersYTimes)
	bar = benchbar.NewBar(
		fmt.Sprintf("Querying all users %d times", conf.queryUsersYTimes),
		conf.queryUsersYTimes,
	)

	for i := 0; i < conf.queryUsersYTimes; i++ {
		wgQuery.Add(1)
		chQuery <- true
		go func() {
			defer func() {
				wgQuery.Done()
				<-chQuery
			}()
			rows, err := db.FetchAll(ctx,
				"SELECT id, created, email, active FROM users ORDER BY id",
			)
			if err != nil {
				errQuery <- err
				return
			}
			atomic.AddUint64(&totalReads, uint64(len(rows)))

			bar.Inc()
		}()
	}

	wgQuery.Wait()
	close(chQuery)
	close(errQuery)

	for e := range errQuery {
		if e != nil {
			return benchmarkResult{}, e
		}
	}
	bar.Finish()

	return benchmarkResult{
		Name:        "Many",
		Duration:    time.Since(start),
		TotalReads:  totalReads,
		TotalWrites: totalWrites,
	}, nil
}
