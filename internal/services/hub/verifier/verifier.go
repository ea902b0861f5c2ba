// Package verifier answers whether an RFID tag is already assigned.
//
// Backends are interchangeable: the hub picks one at startup and the scan
// dispatcher only sees the Verifier interface. Every backend makes one
// attempt per call, bounds it with a timeout, and reports anything other
// than a clear yes/no as an error, never as "not assigned".
package verifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/rfidhub/internal/platform/timeouts"
)

// Verifier reports whether tag is already known.
type Verifier interface {
	Exists(ctx context.Context, tag string) (bool, error)
}

// Result is the answer for one tag.
type Result struct {
	Tag    string
	Exists bool
}

// Check runs one lookup and pairs the answer with its tag.
func Check(ctx context.Context, v Verifier, tag string) (Result, error) {
	exists, err := v.Exists(ctx, tag)
	if err != nil {
		return Result{}, err
	}
	return Result{Tag: tag, Exists: exists}, nil
}

// Backend names a verifier implementation.
type Backend string

const (
	BackendHTTP   Backend = "http"
	BackendSQLite Backend = "sqlite"
)

// ParseBackend validates a configured backend name.
func ParseBackend(value string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(value))); b {
	case BackendHTTP, BackendSQLite:
		return b, nil
	default:
		return "", fmt.Errorf("unknown verifier backend %q (want %q or %q)", value, BackendHTTP, BackendSQLite)
	}
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return timeouts.Verifier
	}
	return timeout
}
