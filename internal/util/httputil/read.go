package httputil

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
)

// ReadReqBodyBytes reads the request body and returns it as a byte
// slice. Once read, the body is closed and cannot be read again.
func ReadReqBodyBytes(r *http.Request) ([]byte, error) {
	if r == nil {
		return nil, errors.New("request cannot be nil")
	}

	if r.Body == nil {
		return nil, nil
	}

	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// ReadUserIP returns the best guess of the client IP for the given
// request, honoring the usual proxy headers.
func ReadUserIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-Ip"); ip != "" {
		return ip
	}

	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
