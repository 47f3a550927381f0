// Package connstr parses connection strings for the sqlitemultid
// server, in the format http(s)://host:port?authToken=value.
package connstr

import (
	"errors"
	"net/url"
)

// ConnStr represents a parsed connection string for the sqlitemultid
// server.
type ConnStr struct {
	Protocol  string
	Host      string
	Port      string
	AuthToken string
}

// Parse parses the given connection string and returns a ConnStr.
func Parse(connectionString string) (ConnStr, error) {
	parsedURL, err := url.Parse(connectionString)
	if err != nil {
		return ConnStr{}, err
	}

	protocol := parsedURL.Scheme
	if protocol != "http" && protocol != "https" {
		return ConnStr{}, errors.New("invalid protocol, must be http or https")
	}

	host, port := parsedURL.Hostname(), parsedURL.Port()
	if host == "" {
		return ConnStr{}, errors.New("missing host")
	}
	if port == "" {
		port = "9876"
	}

	return ConnStr{
		Protocol:  protocol,
		Host:      host,
		Port:      port,
		AuthToken: parsedURL.Query().Get("authToken"),
	}, nil
}

// URL returns the base URL of the server, without the auth token.
func (c ConnStr) URL() string {
	return c.Protocol + "://" + c.Host + ":" + c.Port
}

// String returns the string representation of the connection string
// with the auth token redacted.
func (c ConnStr) String() string {
	if c.AuthToken == "" {
		return c.URL()
	}
	return c.URL() + "?authToken=****"
}
