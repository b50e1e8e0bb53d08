package api

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/kjannette/tradejournal/internal/models"
)

func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.ModeRequest{Mode: s.mode.Get()})
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var req models.ModeRequest
	if msg, ok := s.decodeAndValidate(w, r, &req); !ok {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}
	prev := s.mode.Get()
	if err := s.mode.Set(req.Mode); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	log.Info().Str("from", string(prev)).Str("to", string(req.Mode)).Msg("data mode switched")
	writeJSON(w, http.StatusOK, models.ModeRequest{Mode: s.mode.Get()})
}
