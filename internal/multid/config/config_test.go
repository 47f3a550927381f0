package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		DataDirectory:      "./data",
		AuthTokenAlgorithm: "plaintext",
		ListenHost:         "0.0.0.0",
		ListenPort:         "9876",
		TransactionTimeout: 5 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, Validate(validConfig()))
	})

	t.Run("InvalidListenHost", func(t *testing.T) {
		cfg := validConfig()
		cfg.ListenHost = "localhost"
		assert.Error(t, Validate(cfg))
	})

	t.Run("InvalidListenPort", func(t *testing.T) {
		cfg := validConfig()
		cfg.ListenPort = "port"
		assert.Error(t, Validate(cfg))
	})

	t.Run("InvalidAuthTokenAlgorithm", func(t *testing.T) {
		cfg := validConfig()
		cfg.AuthTokenAlgorithm = "md5"
		assert.Error(t, Validate(cfg))
	})

	t.Run("InvalidTransactionTimeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.TransactionTimeout = 0
		assert.Error(t, Validate(cfg))
	})
}
