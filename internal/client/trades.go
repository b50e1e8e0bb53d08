package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kjannette/tradejournal/internal/models"
)

// TradeService is the trade CRUD and close API.
type TradeService struct {
	c *Client
}

// List returns the trades matching f. f may be nil. The result is never nil.
func (s *TradeService) List(ctx context.Context, f *models.TradeFilter) ([]models.Trade, error) {
	var out []models.Trade
	if err := s.c.do(ctx, http.MethodGet, "/trades/", filterQuery(f), nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Trade{}
	}
	return out, nil
}

func (s *TradeService) Create(ctx context.Context, in models.TradeInput) (*models.Trade, error) {
	var out models.Trade
	if err := s.c.do(ctx, http.MethodPost, "/trades/", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TradeService) Get(ctx context.Context, id int64) (*models.Trade, error) {
	var out models.Trade
	if err := s.c.do(ctx, http.MethodGet, tradePath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TradeService) Update(ctx context.Context, id int64, in models.TradeInput) (*models.Trade, error) {
	var out models.Trade
	if err := s.c.do(ctx, http.MethodPut, tradePath(id), nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *TradeService) Delete(ctx context.Context, id int64) error {
	return s.c.do(ctx, http.MethodDelete, tradePath(id), nil, nil, nil)
}

// Close marks the trade CLOSED at exitPrice.
func (s *TradeService) Close(ctx context.Context, id int64, exitPrice float64) (*models.Trade, error) {
	q := url.Values{"exit_price": {strconv.FormatFloat(exitPrice, 'f', -1, 64)}}
	var out models.Trade
	if err := s.c.do(ctx, http.MethodPatch, tradePath(id)+"/close", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func tradePath(id int64) string {
	return fmt.Sprintf("/trades/%d", id)
}

// filterQuery passes the filter through as-is; the server validates it.
func filterQuery(f *models.TradeFilter) url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("pair", f.Pair)
	set("status", f.Status)
	set("start_date", f.StartDate)
	set("end_date", f.EndDate)
	if f.Limit != 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset != 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	return q
}
