package server

import (
	"net/http"

	"github.com/eggpool/sqlitemulti/internal/util/httputil"
)

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) error {
	return httputil.WriteJSON(w, http.StatusOK, s.conf.Stats.LoadStats())
}
