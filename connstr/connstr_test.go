package connstr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		cs, err := Parse("https://example.com:4321?authToken=secret")
		require.NoError(t, err)
		assert.Equal(t, "https", cs.Protocol)
		assert.Equal(t, "example.com", cs.Host)
		assert.Equal(t, "4321", cs.Port)
		assert.Equal(t, "secret", cs.AuthToken)
	})

	t.Run("DefaultPort", func(t *testing.T) {
		cs, err := Parse("http://localhost")
		require.NoError(t, err)
		assert.Equal(t, "9876", cs.Port)
	})

	t.Run("InvalidProtocol", func(t *testing.T) {
		_, err := Parse("ftp://localhost:9876")
		assert.Error(t, err)
	})

	t.Run("MissingHost", func(t *testing.T) {
		_, err := Parse("http://")
		assert.Error(t, err)
	})
}

func TestString(t *testing.T) {
	t.Run("RedactsAuthToken", func(t *testing.T) {
		cs, err := Parse("http://localhost:9876?authToken=secret")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9876?authToken=****", cs.String())
		assert.NotContains(t, cs.String(), "secret")
	})

	t.Run("NoAuthToken", func(t *testing.T) {
		cs, err := Parse("http://localhost:9876")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9876", cs.String())
	})
}

func TestURL(t *testing.T) {
	cs, err := Parse("http://localhost:9876?authToken=secret")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9876", cs.URL())
}
