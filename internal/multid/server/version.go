package server

import (
	"net/http"

	"github.com/eggpool/sqlitemulti/internal/util/httputil"
	"github.com/eggpool/sqlitemulti/internal/version"
)

func (s *Server) versionHandler(w http.ResponseWriter, r *http.Request) error {
	return httputil.WriteString(w, http.StatusOK, version.Version)
}
