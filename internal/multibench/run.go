// Package multibench benchmarks raw SQLite access against the
// sqlitemulti serialized queue.
package multibench

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/eggpool/sqlitemulti/internal/version"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// benchmarkResult stores the outcome of a benchmark.
type benchmarkResult struct {
	Name        string
	Duration    time.Duration
	TotalReads  uint64
	TotalWrites uint64
}

// Run executes all benchmarks against both drivers and prints the
// results.
func Run(ctx context.Context) error {
	fmt.Println(version.BenchVersion())

	tmpDir, err := os.MkdirTemp("", "sqlitemultibench_*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	rawDb, err := createRawDriver(tmpDir)
	if err != nil {
		return fmt.Errorf("error opening raw mattn/go-sqlite3 db: %w", err)
	}
	defer rawDb.Close()

	queuedDb, err := createQueuedDriver(tmpDir)
	if err != nil {
		return fmt.Errorf("error opening sqlitemulti db: %w", err)
	}
	defer queuedDb.Close()

	fmt.Println("\n--- Benchmarks for raw mattn/go-sqlite3 ---")
	rawResults, err := runBenchmark(ctx, rawDb, getRawConfig())
	if err != nil {
		return fmt.Errorf("error benchmarking raw mattn/go-sqlite3: %w", err)
	}
	printResults(rawResults)

	fmt.Println("\n--- Benchmarks for sqlitemulti ---")
	queuedResults, err := runBenchmark(ctx, queuedDb, getQueuedConfig())
	if err != nil {
		return fmt.Errorf("error benchmarking sqlitemulti: %w", err)
	}
	printResults(queuedResults)

	return nil
}

func printResults(results []benchmarkResult) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	tw.AppendHeader(table.Row{"Name", "Reads", "Writes", "Duration"})

	for _, r := range results {
		tw.AppendRow(table.Row{r.Name, r.TotalReads, r.TotalWrites, r.Duration})
	}

	fmt.Println(tw.Render())
}

// runBenchmark executes all benchmarks, and returns results.
//
// It recreates the schema before each benchmark.
func runBenchmark(
	ctx context.Context, db benchDriver, cfg benchmarksConfig,
) ([]benchmarkResult, error) {
	benchs := []func(context.Context, benchDriver, benchmarksConfig) (benchmarkResult, error){
		runBenchmarkSimple,
		runBenchmarkComplex,
		runBenchmarkMany,
		runBenchmarkLarge,
	}

	var results []benchmarkResult

	for _, bench := range benchs {
		if err := recreateSchema(ctx, db); err != nil {
			return nil, err
		}

		res, err := bench(ctx, db, cfg)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}
