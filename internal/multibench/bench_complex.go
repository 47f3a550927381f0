package multibench

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eggpool/sqlitemulti/internal/multibench/benchbar"
)

type benchmarkComplexConfig struct {
	insertXUsers              int
	insertYArticlesPerUser    int
	insertZCommentsPerArticle int
	insertGoroutines          int
}

// runBenchmarkComplex inserts X users, each with Y articles, and each
// article with Z comments. Then it queries all users, articles, and
// comments with a JOIN query.
func runBenchmarkComplex(
	ctx context.Context, db benchDriver, fullConfig benchmarksConfig,
) (benchmarkResult, error) {
	conf := fullConfig.benchmarkComplexConfig
	start := time.Now()
	var totalReads, totalWrites uint64

	insertStage := func(
		description string, total int, insert func(idx int) (int64, error),
	) error {
		wg := sync.WaitGroup{}
		wgch := make(chan bool, conf.insertGoroutines)
		errChan := make(chan error, total)
		bar := benchbar.NewBar(description, total)

		for idx := range total {
			wg.Add(1)
			wgch <- true
			go func() {
				defer func() {
					wg.Done()
					<-wgch
				}()
				affected, err := insert(idx)
				if err != nil {
					errChan <- err
					return
				}

				bar.Inc()
				atomic.AddUint64(&totalWrites, uint64(affected))
			}()
		}

		wg.Wait()
		close(wgch)
		close(errChan)

		for e := range errChan {
			if e != nil {
				return e
			}
		}
		bar.Finish()
		return nil
	}

	err := insertStage(
		fmt.Sprintf("Inserting %d users", conf.insertXUsers), conf.insertXUsers,
		func(idx int) (int64, error) {
			return db.Exec(ctx,
				"INSERT INTO users (created, email, active) VALUES (?, ?, ?)",
				time.Now().Unix(), fmt.Sprintf("user%d@example.com", idx), 1,
			)
		},
	)
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error inserting users: %w", err)
	}

	totalArticles := conf.insertXUsers * conf.insertYArticlesPerUser
	err = insertStage(
		fmt.Sprintf("Inserting %d articles", totalArticles), totalArticles,
		func(idx int) (int64, error) {
			userID := (idx % conf.insertXUsers) + 1
			return db.Exec(ctx,
				"INSERT INTO articles (created, userId, text) VALUES (?, ?, ?)",
				time.Now().Unix(), userID, fmt.Sprintf("article for user %d", userID),
			)
		},
	)
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error inserting articles: %w", err)
	}

	totalComments := totalArticles * conf.insertZCommentsPerArticle
	err = insertStage(
		fmt.Sprintf("Inserting %d comments", totalComments), totalComments,
		func(idx int) (int64, error) {
			articleID := (idx % totalArticles) + 1
			return db.Exec(ctx,
				"INSERT INTO comments (created, articleId, text) VALUES (?, ?, ?)",
				time.Now().Unix(), articleID, "comment",
			)
		},
	)
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error inserting comments: %w", err)
	}

	bar := benchbar.NewBar("Reading users, articles, and comments", 1)
	rows, err := db.FetchAll(ctx, `
		SELECT
		users.id, users.created, users.email, users.active,
		articles.id, articles.created, articles.userId, articles.text,
		comments.id, comments.created, comments.articleId, comments.text
		FROM users
		LEFT JOIN articles ON articles.userId = users.id
		LEFT JOIN comments ON comments.articleId = articles.id
		ORDER BY users.created, articles.created, comments.created
	`)
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error querying: %w", err)
	}
	totalReads += uint64(len(rows))

	bar.Finish()
	return benchmarkResult{
		Name:        "Complex",
		Duration:    time.Since(start),
		TotalReads:  totalReads,
		TotalWrites: totalWrites,
	}, nil
}
