// Package api is the boundary to the campus backend. The resolver walks
// an ordered list of base-URL/prefix candidates until one answers, and
// the client normalizes the backend's assorted response shapes into the
// core's types so nothing past this package sees the variance.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Candidate is one base-URL/prefix combination to try.
type Candidate struct {
	Base   string
	Prefix string
}

// URL joins the candidate with a request path.
func (c Candidate) URL(path string) string {
	return c.Base + c.Prefix + path
}

// Candidates builds the ordered candidate list: every prefix of the
// first base, then every prefix of the second, and so on. Order is the
// retry order.
func Candidates(bases, prefixes []string) []Candidate {
	var out []Candidate
	for _, b := range bases {
		for _, p := range prefixes {
			out = append(out, Candidate{Base: b, Prefix: p})
		}
	}
	return out
}

// StatusError is a non-success HTTP response from a candidate.
type StatusError struct {
	Code    int
	Message string
	Body    []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("http %d", e.Code)
}

// ExhaustedError means every candidate was tried once and none
// succeeded. Last carries the final observed failure, status or network.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all %d endpoint candidates failed: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Resolver issues one logical operation against the candidate list,
// sequentially, stopping at the first success. It never retries past a
// single pass over the list.
type Resolver struct {
	httpClient *http.Client
	candidates []Candidate
	token      string
	log        *zap.Logger
}

func NewResolver(candidates []Candidate, token string, timeout time.Duration, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		httpClient: &http.Client{Timeout: timeout},
		candidates: candidates,
		token:      token,
		log:        log,
	}
}

// Candidates returns the configured candidate list in retry order.
func (r *Resolver) Candidates() []Candidate { return r.candidates }

// GetJSON fetches path and decodes the response body into out.
func (r *Resolver) GetJSON(ctx context.Context, path string, out any) error {
	return r.do(ctx, http.MethodGet, path, nil, out)
}

// PostJSON posts body as JSON to path and decodes the response into out.
func (r *Resolver) PostJSON(ctx context.Context, path string, body, out any) error {
	return r.do(ctx, http.MethodPost, path, body, out)
}

// do tries the operation against each candidate in order. A 2xx answer
// wins. 401/402/403 are authoritative: the backend understood the
// request and refused it, so later candidates would refuse it too and
// the error returns immediately. Everything else (404 from a wrong path
// convention, 5xx, network failure) moves on to the next candidate.
func (r *Resolver) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	var last error
	for _, cand := range r.candidates {
		err := r.attempt(ctx, method, cand.URL(path), payload, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if se, ok := err.(*StatusError); ok && authoritative(se.Code) {
			return se
		}
		r.log.Debug("endpoint candidate failed",
			zap.String("url", cand.URL(path)),
			zap.Error(err))
		last = err
	}

	return &ExhaustedError{Attempts: len(r.candidates), Last: last}
}

func authoritative(code int) bool {
	return code == http.StatusUnauthorized ||
		code == http.StatusPaymentRequired ||
		code == http.StatusForbidden
}

func (r *Resolver) attempt(ctx context.Context, method, url string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Code:    resp.StatusCode,
			Message: extractMessage(raw),
			Body:    raw,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// extractMessage pulls the human-readable message out of an error body.
func extractMessage(raw []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	return envelope.Error
}
