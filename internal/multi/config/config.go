// Package config parses the command line configuration of the
// sqlitemulti CLI.
package config

import (
	"fmt"
	"log"

	"github.com/alexflint/go-arg"
	"github.com/eggpool/sqlitemulti/connstr"
	"github.com/eggpool/sqlitemulti/internal/version"
)

// Config represents the configuration for the sqlitemulti CLI.
type Config struct {
	ConnectionString string          `arg:"positional" help:"Connection string of the sqlitemultid server in format http(s)://host:port?authToken=value (default to http://localhost:9876)" default:"http://localhost:9876"`
	ParsedConnStr    connstr.ConnStr `arg:"-"`
}

func (Config) Version() string {
	return fmt.Sprintf("%s\n", version.CLIVersion())
}

// MustParse parses and validates the configuration from the command
// line arguments. It returns a Config struct or exits the program
// with an error.
func MustParse(args []string) Config {
	cfg := Config{}

	parser, err := arg.NewParser(
		arg.Config{},
		&cfg,
	)
	if err != nil {
		log.Fatal(err)
	}
	parser.MustParse(args[1:])

	cfg.ParsedConnStr, err = connstr.Parse(cfg.ConnectionString)
	if err != nil {
		log.Fatal(err)
	}

	return cfg
}
