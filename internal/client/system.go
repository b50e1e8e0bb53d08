package client

import (
	"context"
	"net/http"

	"github.com/kjannette/tradejournal/internal/models"
)

// SystemService reads and switches the server's data mode.
type SystemService struct {
	c *Client
}

func (s *SystemService) Mode(ctx context.Context) (models.DataMode, error) {
	var out models.ModeRequest
	if err := s.c.do(ctx, http.MethodGet, "/system/mode", nil, nil, &out); err != nil {
		return "", err
	}
	return out.Mode, nil
}

func (s *SystemService) SetMode(ctx context.Context, mode models.DataMode) (models.DataMode, error) {
	var out models.ModeRequest
	if err := s.c.do(ctx, http.MethodPost, "/system/mode", nil, models.ModeRequest{Mode: mode}, &out); err != nil {
		return "", err
	}
	return out.Mode, nil
}
