package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eggpool/sqlitemulti/internal/util/cryptoutil"
	"github.com/eggpool/sqlitemulti/internal/util/httputil"
)

// authMiddleware checks the Authorization header of the incoming
// request against the server AuthToken configuration. An empty
// AuthToken disables the check.
func (s *Server) authMiddleware(
	next httputil.HandlerFuncErr,
) httputil.HandlerFuncErr {
	return func(w http.ResponseWriter, r *http.Request) error {
		if s.conf.AuthToken == "" {
			return next(w, r)
		}

		unauthorized := func() error {
			return httputil.NewJSONError(
				http.StatusUnauthorized, errors.New("Unauthorized"), "Unauthorized",
			)
		}

		clientAuthToken := r.Header.Get("Authorization")
		clientAuthToken = strings.TrimPrefix(clientAuthToken, "Bearer ")
		clientAuthToken = strings.TrimPrefix(clientAuthToken, "bearer ")
		if clientAuthToken == "" {
			return unauthorized()
		}

		if s.conf.AuthTokenAlgorithm == "plaintext" {
			if checkPlaintextAuth(clientAuthToken, s.conf.AuthToken) {
				return next(w, r)
			}
		}

		if s.conf.AuthTokenAlgorithm == "argon2" {
			if checkArgon2Auth(clientAuthToken, s.conf.AuthToken) {
				return next(w, r)
			}
		}

		if s.conf.AuthTokenAlgorithm == "bcrypt" {
			if checkBcryptAuth(clientAuthToken, s.conf.AuthToken) {
				return next(w, r)
			}
		}

		return unauthorized()
	}
}

// checkPlaintextAuth checks if the client token matches the server
// token in plaintext.
func checkPlaintextAuth(clientToken string, serverToken string) bool {
	return clientToken == serverToken
}

// checkArgon2Auth checks if the client token matches the server token
// using the Argon2 algorithm.
func checkArgon2Auth(clientToken string, serverToken string) bool {
	return cryptoutil.Argon2CheckHash(clientToken, serverToken)
}

// checkBcryptAuth checks if the client token matches the server token
// using the Bcrypt algorithm.
func checkBcryptAuth(clientToken string, serverToken string) bool {
	return cryptoutil.BcryptCheckHash(clientToken, serverToken)
}
