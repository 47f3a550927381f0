// Package config parses the command line configuration of sqlitemultid.
package config

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/eggpool/sqlitemulti/internal/version"
)

// Config represents the configuration for sqlitemultid.
type Config struct {
	DataDirectory        string        `arg:"--data-directory,env:SQLITEMULTI_DATA_DIRECTORY" help:"Directory for the database files" default:"./data"`
	AuthTokenAlgorithm   string        `arg:"--auth-token-algorithm,env:SQLITEMULTI_AUTH_TOKEN_ALGORITHM" help:"Hash algorithm for the auth token (plaintext, argon2, bcrypt)" default:"plaintext"`
	AuthToken            string        `arg:"--auth-token,env:SQLITEMULTI_AUTH_TOKEN" help:"Pre-hashed auth token; leave empty to disable authentication"`
	DisableOptimizations bool          `arg:"--disable-optimizations,env:SQLITEMULTI_DISABLE_OPTIMIZATIONS" help:"Disable performance optimizations at startup for the underlying SQLite database, allowing manual tuning" default:"false"`
	ListenHost           string        `arg:"--listen-host,env:SQLITEMULTI_LISTEN_HOST" help:"Address for the server to listen on" default:"0.0.0.0"`
	ListenPort           string        `arg:"--listen-port,env:SQLITEMULTI_LISTEN_PORT" help:"Port for the server to listen on" default:"9876"`
	TransactionTimeout   time.Duration `arg:"--transaction-timeout,env:SQLITEMULTI_TRANSACTION_TIMEOUT" help:"If a transaction is not active for this duration, it will be rolled back. Valid time units are ns, us (or µs), ms, s, m, h" default:"5m"`
	ReadPoolSize         int           `arg:"--read-pool-size,env:SQLITEMULTI_READ_POOL_SIZE" help:"Number of read-only connections; zero picks a size based on the number of CPUs" default:"0"`
}

func (Config) Version() string {
	return fmt.Sprintf("%s\n", version.ServerVersion())
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

	if err := Validate(cfg); err != nil {
		log.Fatal(err)
	}

	return cfg
}

// Validate checks every field of an already parsed configuration.
func Validate(cfg Config) error {
	if err := validateListenHost(cfg.ListenHost); err != nil {
		return err
	}
	if err := validateListenPort(cfg.ListenPort); err != nil {
		return err
	}
	if err := validateAuthTokenAlgorithm(cfg.AuthTokenAlgorithm); err != nil {
		return err
	}
	if err := validateTransactionTimeout(cfg.TransactionTimeout); err != nil {
		return err
	}
	return nil
}

// validateListenHost validates if addr is a valid ip address.
func validateListenHost(addr string) error {
	re := regexp.MustCompile(`^([0-9]{1,3}\.){3}[0-9]{1,3}($|/[0-9]{2})$`)
	if !re.MatchString(addr) {
		return errors.New("invalid listen host")
	}
	return nil
}

// validateListenPort validates if port is a valid port number.
func validateListenPort(port string) error {
	re := regexp.MustCompile(`^\d{1,5}$`)
	if !re.MatchString(port) {
		return errors.New("invalid listen port, valid values are 1-65535")
	}
	return nil
}

// validateAuthTokenAlgorithm validates if algorithm is a valid auth algorithm.
func validateAuthTokenAlgorithm(algorithm string) error {
	valid := []string{"plaintext", "argon2", "bcrypt"}

	for _, v := range valid {
		if algorithm == v {
			return nil
		}
	}

	return fmt.Errorf(
		"invalid auth algorithm, valid values are: %s",
		strings.Join(valid, ", "),
	)
}

// validateTransactionTimeout validates if timeout is greater than zero.
func validateTransactionTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return errors.New("invalid transaction timeout, must be greater than zero")
	}
	return nil
}
