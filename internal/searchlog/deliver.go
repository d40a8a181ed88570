package searchlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrDeliveryFailed is returned when every delivery attempt failed.
var ErrDeliveryFailed = errors.New("search log delivery failed")

// EncodeFunc builds the request for one delivery attempt.
type EncodeFunc func(ctx context.Context, endpoint string, e Entry) (*http.Request, error)

// Attempt pairs an encoding with the name reported when it succeeds.
type Attempt struct {
	Name   string
	Encode EncodeFunc
}

// DefaultAttempts is the delivery order used by Apps Script style endpoints:
// query parameters first, then a form body, then JSON.
func DefaultAttempts() []Attempt {
	return []Attempt{
		{Name: "query", Encode: EncodeQuery},
		{Name: "form", Encode: EncodeForm},
		{Name: "json", Encode: EncodeJSON},
	}
}

// EncodeQuery sends the entry as URL query parameters on an empty POST.
func EncodeQuery(ctx context.Context, endpoint string, e Entry) (*http.Request, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	for k, v := range e.fields() {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
}

// EncodeForm sends the entry as an application/x-www-form-urlencoded body.
func EncodeForm(ctx context.Context, endpoint string, e Entry) (*http.Request, error) {
	form := url.Values{}
	for k, v := range e.fields() {
		form.Set(k, v)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// EncodeJSON sends the entry as a JSON object.
func EncodeJSON(ctx context.Context, endpoint string, e Entry) (*http.Request, error) {
	body, err := json.Marshal(e.fields())
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Deliverer posts entries to a remote endpoint.
type Deliverer struct {
	endpoint string
	client   *http.Client
	timeout  time.Duration
	attempts []Attempt
}

// NewDeliverer returns a Deliverer using attempts in order. A nil client
// uses http.DefaultClient; no attempts means DefaultAttempts.
func NewDeliverer(endpoint string, client *http.Client, timeout time.Duration, attempts ...Attempt) *Deliverer {
	if client == nil {
		client = http.DefaultClient
	}
	if len(attempts) == 0 {
		attempts = DefaultAttempts()
	}
	return &Deliverer{endpoint: endpoint, client: client, timeout: timeout, attempts: attempts}
}

// Deliver tries each attempt in order and stops at the first 2xx response.
// It returns the name of the attempt that succeeded. When all fail the error
// wraps ErrDeliveryFailed and every attempt's error.
func (d *Deliverer) Deliver(ctx context.Context, e Entry) (string, error) {
	var errs []error
	for _, a := range d.attempts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := d.try(ctx, a, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
			continue
		}
		return a.Name, nil
	}
	return "", fmt.Errorf("%w: %w", ErrDeliveryFailed, errors.Join(errs...))
}

func (d *Deliverer) try(ctx context.Context, a Attempt, e Entry) error {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := a.Encode(ctx, d.endpoint, e)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
