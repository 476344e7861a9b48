package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:8228/", "test-key")

		if c.baseURL != "http://127.0.0.1:8228" {
			t.Errorf("baseURL = %q, want trailing slash trimmed", c.baseURL)
		}
		if c.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", c.apiKey, "test-key")
		}
		if c.httpClient.Timeout != 10*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 10*time.Second)
		}
		if c.maxRetries != 2 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 2)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
		if !strings.HasPrefix(c.userAgent, "mt-bridge/") {
			t.Errorf("userAgent = %q, want mt-bridge/ prefix", c.userAgent)
		}
	})

	t.Run("with multiple options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("http://gw", "key",
			WithTimeout(3*time.Second),
			WithRetries(5, 20*time.Millisecond),
			WithLogger(logger),
			WithSessionID("run-1"),
			WithAccount(5001234, "pw", "Broker-Demo"),
		)
		if c.httpClient.Timeout != 3*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 3*time.Second)
		}
		if c.maxRetries != 5 || c.retryBackoff != 20*time.Millisecond {
			t.Errorf("retries = %d/%v, want 5/20ms", c.maxRetries, c.retryBackoff)
		}
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
		if c.sessionID != "run-1" {
			t.Errorf("sessionID = %q, want %q", c.sessionID, "run-1")
		}
		if c.account.Login != 5001234 || c.account.Server != "Broker-Demo" {
			t.Errorf("account = %+v, want login 5001234 on Broker-Demo", c.account)
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 7 * time.Second}
		c := NewClient("http://gw", "", WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})
}

func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "unknown symbol"}
	if err.Error() != "terminal gateway error 404: unknown symbol" {
		t.Errorf("Error() = %q", err.Error())
	}

	tests := []struct {
		code     int
		expected bool
	}{
		{500, true},
		{502, true},
		{503, true},
		{429, true},
		{400, false},
		{401, false},
		{404, false},
		{499, false},
	}
	for _, tt := range tests {
		err := &APIError{StatusCode: tt.code}
		if got := err.IsRetryable(); got != tt.expected {
			t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
		}
	}

	wrapped := errors.Join(errors.New("context"), &APIError{StatusCode: 404})
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
	if IsNotFound(&APIError{StatusCode: 500}) {
		t.Error("IsNotFound(500) = true, want false")
	}
}

type fakeSigner struct {
	calls atomic.Int32
	err   error
}

func (s *fakeSigner) SignRequest(method, path string) (map[string]string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return map[string]string{"MT-ACCESS-SIGNATURE": method + " " + path}, nil
}

func TestDoRequest(t *testing.T) {
	t.Run("sets headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept header = %q, want %q", r.Header.Get("Accept"), "application/json")
			}
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("Authorization header = %q, want %q", r.Header.Get("Authorization"), "Bearer test-key")
			}
			if r.Header.Get("X-Session-Id") != "run-42" {
				t.Errorf("X-Session-Id = %q, want %q", r.Header.Get("X-Session-Id"), "run-42")
			}
			if !strings.HasPrefix(r.Header.Get("User-Agent"), "mt-bridge/") {
				t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
			}
			w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "test-key", WithSessionID("run-42"))
		body, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"status": "ok"}` {
			t.Errorf("body = %q, want %q", string(body), `{"status": "ok"}`)
		}
	})

	t.Run("signer replaces bearer token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Errorf("Authorization header should be empty, got %q", r.Header.Get("Authorization"))
			}
			if got := r.Header.Get("MT-ACCESS-SIGNATURE"); got != "POST /initialize" {
				t.Errorf("signature header = %q, want %q", got, "POST /initialize")
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		signer := &fakeSigner{}
		c := NewClient(server.URL, "key-id", WithSigner(signer))
		if _, err := c.doRequest(context.Background(), http.MethodPost, "/initialize", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if signer.calls.Load() != 1 {
			t.Errorf("signer calls = %d, want 1", signer.calls.Load())
		}
	})

	t.Run("signer error aborts request", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithSigner(&fakeSigner{err: errors.New("no key")}))
		if _, err := c.doRequest(context.Background(), http.MethodGet, "/x", nil); err == nil {
			t.Fatal("expected error, got nil")
		}
		if hits.Load() != 0 {
			t.Errorf("server hits = %d, want 0", hits.Load())
		}
	})

	t.Run("json body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
			}
			var req selectRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode body: %v", err)
			}
			if !req.Enable {
				t.Error("enable = false, want true")
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		if _, err := c.doRequest(context.Background(), http.MethodPost, "/s", selectRequest{Enable: true}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("error envelope becomes message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": "invalid params", "code": -2}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		_, err := c.doRequest(context.Background(), http.MethodGet, "/test", nil)

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 400 || apiErr.Message != "invalid params" {
			t.Errorf("APIError = %d %q, want 400 %q", apiErr.StatusCode, apiErr.Message, "invalid params")
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := c.doRequest(ctx, http.MethodGet, "/test", nil); err == nil {
			t.Fatal("expected error for cancelled context")
		}
	})
}

func TestDoWithRetry(t *testing.T) {
	t.Run("retries on 5xx and succeeds", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.Write([]byte(`{"ok": true}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithRetries(3, time.Millisecond))
		if _, err := c.doWithRetry(context.Background(), http.MethodGet, "/test"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if attempts.Load() != 3 {
			t.Errorf("attempts = %d, want 3", attempts.Load())
		}
	})

	t.Run("does not retry on 404", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithRetries(3, time.Millisecond))
		if _, err := c.doWithRetry(context.Background(), http.MethodGet, "/test"); err == nil {
			t.Fatal("expected error, got nil")
		}
		if attempts.Load() != 1 {
			t.Errorf("attempts = %d, want 1", attempts.Load())
		}
	})

	t.Run("max retries exceeded", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithRetries(2, time.Millisecond))
		_, err := c.doWithRetry(context.Background(), http.MethodGet, "/test")
		if err == nil || !strings.Contains(err.Error(), "max retries exceeded") {
			t.Fatalf("err = %v, want max retries exceeded", err)
		}
		if attempts.Load() != 3 {
			t.Errorf("attempts = %d, want 3", attempts.Load())
		}
	})

	t.Run("context cancellation during retry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithRetries(5, time.Second))
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := c.doWithRetry(ctx, http.MethodGet, "/test")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("err = %v, want context.DeadlineExceeded", err)
		}
	})
}

func TestInitialize(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/initialize" {
				t.Errorf("request = %s %s, want POST /initialize", r.Method, r.URL.Path)
			}
			var req InitializeRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Login != 5001234 || req.Server != "Broker-Demo" {
				t.Errorf("initialize body = %+v", req)
			}
			w.Write([]byte(`{"connected": true, "terminal": {"name": "MetaTrader 5", "company": "Broker Ltd", "build": 4410}}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithAccount(5001234, "pw", "Broker-Demo"))
		if err := c.Initialize(context.Background()); err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		if c.Info().Build != 4410 || c.Info().Name != "MetaTrader 5" {
			t.Errorf("Info() = %+v", c.Info())
		}
	})

	t.Run("not connected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"connected": false, "error": "IPC timeout"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, "")
		err := c.Initialize(context.Background())
		if !errors.Is(err, ErrNotConnected) {
			t.Fatalf("err = %v, want ErrNotConnected", err)
		}
		if !strings.Contains(err.Error(), "IPC timeout") {
			t.Errorf("err = %q, want gateway reason included", err.Error())
		}
	})

	t.Run("post is not retried", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		c := NewClient(server.URL, "", WithRetries(3, time.Millisecond))
		if err := c.Initialize(context.Background()); err == nil {
			t.Fatal("expected error, got nil")
		}
		if attempts.Load() != 1 {
			t.Errorf("attempts = %d, want 1", attempts.Load())
		}
	})
}

func TestSymbolInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/symbols/XAUUSD":
			w.Write([]byte(`{"symbol": {"name": "XAUUSD", "visible": false, "spread": 35, "digits": 2, "point": 0.01}}`))
		case "/symbols/EMPTY":
			w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "symbol not found"}`))
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "")

	info, err := c.SymbolInfo(context.Background(), "XAUUSD")
	if err != nil {
		t.Fatalf("SymbolInfo failed: %v", err)
	}
	if info.Name != "XAUUSD" || info.Visible || info.Spread != 35 || info.Digits != 2 {
		t.Errorf("SymbolInfo = %+v", info)
	}

	for _, sym := range []string{"NOPE", "EMPTY"} {
		if _, err := c.SymbolInfo(context.Background(), sym); !errors.Is(err, ErrSymbolNotFound) {
			t.Errorf("SymbolInfo(%s) err = %v, want ErrSymbolNotFound", sym, err)
		}
	}
}

func TestSelectSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		switch r.URL.Path {
		case "/symbols/XAUUSD/select":
			w.Write([]byte(`{"selected": true}`))
		default:
			w.Write([]byte(`{"selected": false}`))
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "")

	if err := c.SelectSymbol(context.Background(), "XAUUSD", true); err != nil {
		t.Errorf("SelectSymbol failed: %v", err)
	}
	if err := c.SelectSymbol(context.Background(), "XAGUSD", true); !errors.Is(err, ErrSelectFailed) {
		t.Errorf("err = %v, want ErrSelectFailed", err)
	}
}

func TestSymbolTick(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/symbols/XAUUSD/tick":
			w.Write([]byte(`{"tick": {"bid": 1900.00, "ask": 1900.35, "last": 0, "time": 1705312800, "time_msc": 1705312800250}}`))
		case "/symbols/STALE/tick":
			w.Write([]byte(`{"tick": {"bid": 0, "ask": 0, "time": 0}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := NewClient(server.URL, "")

	tick, err := c.SymbolTick(context.Background(), "XAUUSD")
	if err != nil {
		t.Fatalf("SymbolTick failed: %v", err)
	}
	if tick.Bid != 1900.00 || tick.Ask != 1900.35 || tick.Time != 1705312800 {
		t.Errorf("tick = %+v", tick)
	}
	if got := tick.Timestamp().UnixMilli(); got != 1705312800250 {
		t.Errorf("Timestamp() = %d ms, want %d", got, int64(1705312800250))
	}

	for _, sym := range []string{"STALE", "GONE"} {
		if _, err := c.SymbolTick(context.Background(), sym); !errors.Is(err, ErrTickUnavailable) {
			t.Errorf("SymbolTick(%s) err = %v, want ErrTickUnavailable", sym, err)
		}
	}
}

func TestSymbolPathEscaping(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte(`{"symbol": {"name": "US 30", "visible": true}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	if _, err := c.SymbolInfo(context.Background(), "US 30"); err != nil {
		t.Fatalf("SymbolInfo failed: %v", err)
	}
	if gotPath != "/symbols/US%2030" {
		t.Errorf("path = %q, want %q", gotPath, "/symbols/US%2030")
	}
}

func TestShutdown(t *testing.T) {
	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/shutdown" {
			called.Store(true)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	if err := c.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	if !called.Load() {
		t.Error("gateway /shutdown was not called")
	}
}
