package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const DefaultWhatsAppURL = "https://api.whatsapp.example.com/send"

type WhatsAppConfig struct {
	URL     string
	Timeout time.Duration
	// Consecutive failures before the breaker opens; 0 means 5.
	TripAfter uint32
	// How long the breaker stays open.
	Cooldown time.Duration
}

// WhatsApp posts {phone, message} to a REST gateway.
type WhatsApp struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

type whatsAppRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func NewWhatsApp(cfg WhatsAppConfig) *WhatsApp {
	if cfg.URL == "" {
		cfg.URL = DefaultWhatsAppURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TripAfter == 0 {
		cfg.TripAfter = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	trip := cfg.TripAfter
	return &WhatsApp{
		url:    cfg.URL,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "whatsapp",
			Timeout: cfg.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= trip
			},
		}),
	}
}

func (w *WhatsApp) Name() string { return "whatsapp" }

func (w *WhatsApp) Recipient(patient model.Record) (string, error) {
	phone := patient.String("phone")
	if phone == "" {
		return "", ErrNoPhone
	}
	return phone, nil
}

func (w *WhatsApp) Send(ctx context.Context, phone, _, message string, creds Credentials) error {
	_, err := w.breaker.Execute(func() (interface{}, error) {
		return nil, w.post(ctx, phone, message, creds.APIKey)
	})
	return err
}

func (w *WhatsApp) post(ctx context.Context, phone, message, apiKey string) error {
	body, err := json.Marshal(whatsAppRequest{Phone: phone, Message: message})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("whatsapp provider returned %s", resp.Status)
	}
	return nil
}
