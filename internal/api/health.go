package api

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	DataMode  string         `json:"data_mode"`
	Services  healthServices `json:"services"`
}

type healthServices struct {
	Database string `json:"database"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, dbStatus := "ok", "connected"
	if err := s.db.PingContext(r.Context()); err != nil {
		status, dbStatus = "degraded", "disconnected"
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DataMode:  string(s.mode.Get()),
		Services:  healthServices{Database: dbStatus},
	})
}
