package client

import (
	"context"
	"net/http"

	"github.com/kjannette/tradejournal/internal/models"
)

// AuthService covers login, signup and the current profile.
type AuthService struct {
	c *Client
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	in := models.Credentials{Email: email, Password: password}
	if err := s.c.do(ctx, http.MethodPost, "/auth/login", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.AuthResponse, error) {
	var out models.AuthResponse
	in := models.SignupRequest{Name: name, Email: email, Password: password}
	if err := s.c.do(ctx, http.MethodPost, "/auth/signup", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile returns the user the stored token belongs to.
func (s *AuthService) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := s.c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
