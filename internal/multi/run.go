// Package multi implements the sqlitemulti interactive CLI.
package multi

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eggpool/sqlitemulti"
	"github.com/eggpool/sqlitemulti/internal/multi/config"
	"github.com/eggpool/sqlitemulti/internal/multi/repl"
	"github.com/eggpool/sqlitemulti/internal/version"
)

// Run runs the sqlitemulti CLI.
func Run(ctx context.Context) error {
	conf := config.MustParse(os.Args)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(version.CLIVersion())

	client, err := sqlitemulti.ConnectRemote(conf.ConnectionString)
	if err != nil {
		return err
	}

	rp := repl.NewRepl(ctx, stop, conf, client)
	defer rp.Shutdown()
	go func() {
		if err := rp.Start(); err != nil {
			fmt.Println(err)
			stop()
		}
	}()

	<-ctx.Done()
	fmt.Printf("\nGoodbye!\n\n")
	return nil
}
