package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadReqBodyBytes(t *testing.T) {
	t.Run("NilRequest", func(t *testing.T) {
		_, err := ReadReqBodyBytes(nil)
		assert.Error(t, err)
	})

	t.Run("WithBody", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader("hello"))
		body, err := ReadReqBodyBytes(req)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), body)
	})
}

func TestReadUserIP(t *testing.T) {
	t.Run("RemoteAddr", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		assert.Equal(t, "10.0.0.1", ReadUserIP(req))
	})

	t.Run("XRealIp", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Real-Ip", "1.2.3.4")
		assert.Equal(t, "1.2.3.4", ReadUserIP(req))
	})

	t.Run("XForwardedFor", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
		assert.Equal(t, "1.2.3.4", ReadUserIP(req))
	})
}
