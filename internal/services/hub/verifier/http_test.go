package verifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/louisbranch/rfidhub/internal/platform/errors"
)

func newTestHTTPVerifier(t *testing.T, url string, timeout time.Duration) *HTTPVerifier {
	t.Helper()
	v, err := NewHTTPVerifier(url, timeout, nil)
	if err != nil {
		t.Fatalf("new http verifier: %v", err)
	}
	return v
}

func assertCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error", want)
	}
	if !errors.Is(err, apperrors.New(want, "")) {
		t.Fatalf("error code = %q, want %q (err=%v)", apperrors.GetCode(err), want, err)
	}
}

func TestHTTPVerifierExists(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{name: "assigned", body: `{"exists": true}`, want: true},
		{name: "free", body: `{"exists": false}`, want: false},
		{name: "extra fields", body: `{"exists": true, "student": "Ana"}`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			got, err := newTestHTTPVerifier(t, srv.URL, time.Second).Exists(context.Background(), "ABC123")
			if err != nil {
				t.Fatalf("exists: %v", err)
			}
			if got != tt.want {
				t.Fatalf("exists = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPVerifierSendsTagAsQueryParam(t *testing.T) {
	var gotMethod, gotTag, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotTag = r.URL.Query().Get("rfid")
		gotKey = r.URL.Query().Get("key")
		_, _ = w.Write([]byte(`{"exists":false}`))
	}))
	t.Cleanup(srv.Close)

	v := newTestHTTPVerifier(t, srv.URL+"/api/check_rfid.php?key=kiosk", time.Second)
	if _, err := v.Exists(context.Background(), "A B&C"); err != nil {
		t.Fatalf("exists: %v", err)
	}
	if gotMethod != http.MethodGet {
		t.Fatalf("method = %q, want GET", gotMethod)
	}
	if gotTag != "A B&C" {
		t.Fatalf("rfid param = %q, want %q", gotTag, "A B&C")
	}
	if gotKey != "kiosk" {
		t.Fatalf("existing query param = %q, want %q", gotKey, "kiosk")
	}
}

func TestHTTPVerifierNon2xxIsError(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"exists": false}`))
		}))
		_, err := newTestHTTPVerifier(t, srv.URL, time.Second).Exists(context.Background(), "A1")
		srv.Close()
		assertCode(t, err, apperrors.CodeVerifierStatus)
	}
}

func TestHTTPVerifierMalformedBodyIsError(t *testing.T) {
	for _, body := range []string{``, `not json`, `{}`, `{"exists": null}`, `{"exists": "true"}`, `{"exists": 1}`, `[true]`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		_, err := newTestHTTPVerifier(t, srv.URL, time.Second).Exists(context.Background(), "A1")
		srv.Close()
		assertCode(t, err, apperrors.CodeVerifierMalformedResponse)
	}
}

func TestHTTPVerifierTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	start := time.Now()
	_, err := newTestHTTPVerifier(t, srv.URL, 50*time.Millisecond).Exists(context.Background(), "A1")
	assertCode(t, err, apperrors.CodeVerifierUnavailable)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took %s", elapsed)
	}
}

func TestHTTPVerifierTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestHTTPVerifier(t, url, time.Second).Exists(context.Background(), "A1")
	assertCode(t, err, apperrors.CodeVerifierUnavailable)
}

func TestHTTPVerifierMakesOneAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	_, _ = newTestHTTPVerifier(t, srv.URL, time.Second).Exists(context.Background(), "A1")
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestNewHTTPVerifierValidatesURL(t *testing.T) {
	for _, raw := range []string{"", "   ", "ftp://example.com", "http://", "://bad"} {
		if _, err := NewHTTPVerifier(raw, time.Second, nil); err == nil {
			t.Fatalf("NewHTTPVerifier(%q): expected error", raw)
		}
	}
}

func TestNewHTTPVerifierDefaultsTimeout(t *testing.T) {
	v, err := NewHTTPVerifier("https://example.com/check", 0, nil)
	if err != nil {
		t.Fatalf("new http verifier: %v", err)
	}
	if v.timeout != 5*time.Second {
		t.Fatalf("timeout = %s, want 5s", v.timeout)
	}
	if v.httpClient.Timeout != 5*time.Second {
		t.Fatalf("client timeout = %s, want 5s", v.httpClient.Timeout)
	}
}
