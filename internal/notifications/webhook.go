package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/kjannette/tradejournal/internal/httputil"
	"github.com/kjannette/tradejournal/internal/models"
)

// Sender posts trade events to a Slack or Discord webhook. Sends run in the
// background behind a circuit breaker so a dead webhook never slows the API.
type Sender struct {
	webhookURL string
	botName    string
	httpClient *http.Client
	retry      httputil.Policy
	breaker    *gobreaker.CircuitBreaker
	wg         sync.WaitGroup
}

type Option func(*Sender)

func WithPolicy(p httputil.Policy) Option {
	return func(s *Sender) { s.retry = p }
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) { s.httpClient = c }
}

func NewSender(webhookURL, botName string, opts ...Option) *Sender {
	if botName == "" {
		botName = "TradeJournal"
	}
	s := &Sender{
		webhookURL: webhookURL,
		botName:    botName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		retry: httputil.Policy{
			MaxAttempts: 3,
			BaseDelay:   1 * time.Second,
			MaxDelay:    5 * time.Second,
		},
	}
	for _, o := range opts {
		o(s)
	}
	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "webhook",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
	return s
}

func (s *Sender) Enabled() bool {
	return s.webhookURL != ""
}

// TradeOpened announces a newly journaled trade.
func (s *Sender) TradeOpened(t *models.Trade) {
	s.Notify(fmt.Sprintf("opened %s %s @ %s, size %s, SL %s TP %s",
		t.Direction, t.Pair, num(t.EntryPrice), num(t.PositionSize), num(t.StopLoss), num(t.TakeProfit)))
}

// TradeClosed announces a closed trade with its realised result.
func (s *Sender) TradeClosed(t *models.Trade) {
	msg := fmt.Sprintf("closed %s %s", t.Direction, t.Pair)
	if t.ExitPrice != nil {
		msg += " @ " + num(*t.ExitPrice)
	}
	if t.ResultPips != nil {
		msg += fmt.Sprintf(", %+.1f pips", *t.ResultPips)
	}
	if t.ResultUSD != nil {
		msg += fmt.Sprintf(", %+.2f USD", *t.ResultUSD)
	}
	s.Notify(msg)
}

// Notify logs msg and, when a webhook is configured, posts it in the background.
func (s *Sender) Notify(msg string) {
	formatted := fmt.Sprintf("[%s] %s", s.botName, msg)
	log.Info().Str("event", msg).Msg("notification")

	if !s.Enabled() {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Send(context.Background(), formatted); err != nil {
			log.Error().Err(err).Msg("webhook notification failed")
		}
	}()
}

// Wait blocks until background sends finish.
func (s *Sender) Wait() {
	s.wg.Wait()
}

// Send posts one formatted message synchronously.
func (s *Sender) Send(ctx context.Context, formatted string) error {
	body, err := json.Marshal(s.formatPayload(formatted))
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err = s.breaker.Execute(func() (any, error) {
		resp, err := httputil.Do(ctx, s.httpClient, s.retry, func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/json")
			return req, nil
		})
		if err != nil {
			return nil, err
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
		}
		return nil, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("webhook circuit open: %w", err)
	}
	return err
}

func (s *Sender) formatPayload(msg string) map[string]string {
	if strings.Contains(s.webhookURL, "discord") {
		return map[string]string{
			"content":  msg,
			"username": s.botName,
		}
	}
	return map[string]string{
		"text":     fmt.Sprintf("`%s`", msg),
		"username": s.botName,
	}
}

func num(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.5f", v), "0"), ".")
}
