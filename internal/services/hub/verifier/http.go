package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/louisbranch/rfidhub/internal/platform/errors"
)

const maxResponseBytes = 64 * 1024

// HTTPVerifier asks a remote lookup service with GET <base>?rfid=<tag> and
// expects {"exists": <bool>}.
type HTTPVerifier struct {
	baseURL    *url.URL
	timeout    time.Duration
	httpClient *http.Client
}

type checkResponse struct {
	Exists *bool `json:"exists"`
}

// NewHTTPVerifier builds a verifier for the lookup endpoint at baseURL. A nil
// client gets a dedicated one whose timeout matches the call timeout.
func NewHTTPVerifier(baseURL string, timeout time.Duration, client *http.Client) (*HTTPVerifier, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("verifier url is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse verifier url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("verifier url must be http or https, got %q", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("verifier url has no host: %q", baseURL)
	}

	timeout = timeoutOrDefault(timeout)
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPVerifier{baseURL: parsed, timeout: timeout, httpClient: client}, nil
}

// Exists calls the lookup endpoint once.
func (v *HTTPVerifier) Exists(ctx context.Context, tag string) (bool, error) {
	if v == nil || v.httpClient == nil {
		return false, apperrors.New(apperrors.CodeVerifierUnavailable, "http verifier is not configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	endpoint := *v.baseURL
	query := endpoint.Query()
	query.Set("rfid", tag)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeVerifierUnavailable, "build verifier request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, apperrors.Wrap(apperrors.CodeVerifierUnavailable, "call verifier", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return false, apperrors.New(apperrors.CodeVerifierStatus, fmt.Sprintf("verifier status %d", resp.StatusCode))
	}

	var payload checkResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return false, apperrors.Wrap(apperrors.CodeVerifierMalformedResponse, "decode verifier response", err)
	}
	if payload.Exists == nil {
		return false, apperrors.New(apperrors.CodeVerifierMalformedResponse, "verifier response has no boolean exists field")
	}
	return *payload.Exists, nil
}

var _ Verifier = (*HTTPVerifier)(nil)
