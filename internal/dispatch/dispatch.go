// Package dispatch performs the single outbound HTTP call for a triggered
// webhook. One best-effort attempt per trigger: no retries, no backoff.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"hookman/internal/store"
)

const (
	// RequestTimeout bounds the whole outbound call, connect and read included
	RequestTimeout = 30 * time.Second

	// UserAgent is sent on every dispatched request
	UserAgent = "Webhook-Manager/1.0"

	// MaxBodyBytes is how much of the target's response body is relayed back
	MaxBodyBytes = 500

	// sourceName identifies this service in the JSON envelope
	sourceName = "webhook-manager"
)

// ErrTimeout is returned when the outbound call exceeds the dispatch deadline
var ErrTimeout = errors.New("webhook request timed out")

// StatusError is returned when the target answers with status >= 400
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded with status %d", e.Code)
}

// DispatchError is returned for transport failures (DNS, connection refused,
// TLS) and unbuildable requests. The message is safe to show to the caller.
type DispatchError struct {
	Message string
	Err     error
}

func (e *DispatchError) Error() string {
	return e.Message
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// Result carries the outcome of a successful dispatch
type Result struct {
	StatusCode int
	Body       string // first MaxBodyBytes bytes of the response
}

// envelope is the fixed JSON payload for non-GET dispatch
type envelope struct {
	Timestamp   string `json:"timestamp"`
	Source      string `json:"source"`
	WebhookID   int64  `json:"webhook_id"`
	WebhookName string `json:"webhook_name"`
}

// Dispatcher sends webhook requests with a fixed timeout
type Dispatcher struct {
	Client *http.Client
	Logger *slog.Logger
}

// NewDispatcher creates a dispatcher with the default 30-second timeout
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		Client: &http.Client{Timeout: RequestTimeout},
		Logger: logger,
	}
}

// Trigger performs one outbound call for the stored webhook.
// GET requests carry no body; every other method sends the JSON envelope.
// Responses with status >= 400 come back as *StatusError, deadline overruns
// as ErrTimeout, and remaining transport failures as *DispatchError.
func (d *Dispatcher) Trigger(ctx context.Context, webhook *store.Webhook) (*Result, error) {
	req, err := d.buildRequest(ctx, webhook)
	if err != nil {
		return nil, err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		if isTimeout(err) {
			d.Logger.Error("webhook dispatch timed out", "webhook", webhook.Name, "id", webhook.ID)
			return nil, ErrTimeout
		}
		d.Logger.Error("webhook dispatch failed", "webhook", webhook.Name, "id", webhook.ID, "error", err)
		return nil, &DispatchError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		d.Logger.Error("webhook target returned error status", "webhook", webhook.Name, "id", webhook.ID, "status", resp.StatusCode)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		d.Logger.Error("failed to read webhook response body", "webhook", webhook.Name, "id", webhook.ID, "error", err)
		return nil, &DispatchError{Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}

	d.Logger.Info("webhook dispatched", "webhook", webhook.Name, "id", webhook.ID, "status", resp.StatusCode)

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}

// buildRequest constructs the outbound request for the webhook's method
func (d *Dispatcher) buildRequest(ctx context.Context, webhook *store.Webhook) (*http.Request, error) {
	if webhook.Method == http.MethodGet {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, webhook.URL, nil)
		if err != nil {
			return nil, &DispatchError{Message: fmt.Sprintf("invalid request: %v", err), Err: err}
		}
		req.Header.Set("User-Agent", UserAgent)
		return req, nil
	}

	payload, err := json.Marshal(envelope{
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Source:      sourceName,
		WebhookID:   webhook.ID,
		WebhookName: webhook.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, webhook.Method, webhook.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, &DispatchError{Message: fmt.Sprintf("invalid request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	return req, nil
}

// isTimeout reports whether the transport error was a deadline overrun
func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
