package multibench

// benchmarksConfig holds all parameters for each benchmark.
type benchmarksConfig struct {
	benchmarkSimpleConfig
	benchmarkComplexConfig
	benchmarkManyConfig
	benchmarkLargeConfig
}

func getRawConfig() benchmarksConfig {
	return benchmarksConfig{
		benchmarkSimpleConfig: benchmarkSimpleConfig{
			insertXUsers:     100_000,
			insertGoroutines: 1,
		},

		benchmarkComplexConfig: benchmarkComplexConfig{
			insertXUsers:              200,
			insertYArticlesPerUser:    100,
			insertZCommentsPerArticle: 20,
			insertGoroutines:          1,
		},

		benchmarkManyConfig: benchmarkManyConfig{
			insertXUsers:     1_000,
			queryUsersYTimes: 1_000,
			insertGoroutines: 1,
			queryGoroutines:  1,
		},

		benchmarkLargeConfig: benchmarkLargeConfig{
			insertXUsers:     10_000,
			insertYBytes:     10_000,
			insertGoroutines: 1,
		},
	}
}

// getQueuedConfig raises the concurrency so the serialized queue is
// exercised by many producers, the scenario it exists for.
func getQueuedConfig() benchmarksConfig {
	cfg := getRawConfig()
	cfg.benchmarkSimpleConfig.insertGoroutines = 10
	cfg.benchmarkComplexConfig.insertGoroutines = 10
	cfg.benchmarkManyConfig.insertGoroutines = 10
	cfg.benchmarkManyConfig.queryGoroutines = 10
	cfg.benchmarkLargeConfig.insertGoroutines = 10
	return cfg
}
