// Package multid wires together the components of the sqlitemultid
// server.
package multid

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eggpool/sqlitemulti/internal/log"
	"github.com/eggpool/sqlitemulti/internal/multid/config"
	"github.com/eggpool/sqlitemulti/internal/multid/db"
	"github.com/eggpool/sqlitemulti/internal/multid/server"
	"github.com/eggpool/sqlitemulti/internal/multid/stats"
)

// Run runs the sqlitemultid server until it is interrupted.
func Run(ctx context.Context) error {
	conf := config.MustParse(os.Args)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.NewLogger(os.Stdout)
	logger.Info("starting sqlitemultid server")

	dbStats := stats.NewDBStats()
	defer dbStats.Close()

	dbInstance, err := db.NewDB(db.Config{
		Logger:                 logger,
		Stats:                  dbStats,
		Directory:              conf.DataDirectory,
		DisableOptimizations:   conf.DisableOptimizations,
		TransactionIdleTimeout: conf.TransactionTimeout,
		ReadPoolSize:           conf.ReadPoolSize,
	})
	if err != nil {
		return fmt.Errorf("error starting database: %w", err)
	}
	defer func() {
		if err := dbInstance.Close(); err != nil {
			logger.Error("error closing database:", log.KV{"error": err})
		}
	}()

	serv, err := server.NewServer(server.Config{
		Logger:             logger,
		Db:                 dbInstance,
		Stats:              dbStats,
		ListenHost:         conf.ListenHost,
		ListenPort:         conf.ListenPort,
		AuthToken:          conf.AuthToken,
		AuthTokenAlgorithm: conf.AuthTokenAlgorithm,
	})
	if err != nil {
		return fmt.Errorf("error creating server: %w", err)
	}
	defer func() {
		if err := serv.Stop(); err != nil {
			logger.Error("error stopping server:", log.KV{"error": err})
		}
	}()
	go func() {
		if err := serv.Start(); err != nil {
			logger.Error("server stopped with error:", log.KV{"error": err})
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("goodbye! gracefully shutting down sqlitemultid server")
	return nil
}
