package api

import (
	"net/http"

	"github.com/market-muscles-llc/pulse-kronos/internal/build"
)

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	body := build.Fields()
	body["service"] = "pulse-kronos"
	writeJSON(w, http.StatusOK, body)
}
