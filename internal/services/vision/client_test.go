package vision

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"igreport/internal/services"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\nrest")

type recordingScheduler struct {
	mu       sync.Mutex
	awaits   int
	backoffs []time.Duration
}

func (s *recordingScheduler) Await(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.awaits++
	return nil
}

func (s *recordingScheduler) RecordBackoff(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backoffs = append(s.backoffs, d)
}

func completionBody(t *testing.T, content string) []byte {
	t.Helper()
	payload := map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encode response: %v", err)
	}
	return data
}

func newTestClient(url string, sched Scheduler, sleeps *[]time.Duration, opts ...Option) *Client {
	base := []Option{WithSleeper(func(d time.Duration) { *sleeps = append(*sleeps, d) })}
	return NewClient(Config{APIKey: "test", BaseURL: url, Model: "demo-model"}, sched, append(base, opts...)...)
}

func TestExtractSuccessWithCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
			ResponseFormat map[string]string `json:"response_format"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "demo-model" || len(req.Messages) != 2 || req.ResponseFormat["type"] != "json_object" {
			t.Errorf("unexpected request %s", body)
		}
		if !strings.Contains(string(req.Messages[1].Content), "data:image/png;base64,") {
			t.Errorf("expected png data url in user message, got %s", req.Messages[1].Content)
		}
		_, _ = w.Write(completionBody(t, "```json\n{\"username\":\"sakura9neko\",\"followers\":\"80.2k\",\"confidence\":0.9}\n```"))
	}))
	defer server.Close()

	sched := &recordingScheduler{}
	var sleeps []time.Duration
	result := newTestClient(server.URL, sched, &sleeps).Extract(context.Background(), pngHeader)

	if result.Err != nil {
		t.Fatalf("unexpected error %v", result.Err)
	}
	if result.Identity != "sakura9neko" || result.FollowersRaw != "80.2k" || result.ConfidenceValue() != 0.9 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Source != "remote" {
		t.Fatalf("unexpected source %s", result.Source)
	}
	if sched.awaits != 1 || len(sleeps) != 0 {
		t.Fatalf("expected one await and no sleeps, got %d %v", sched.awaits, sleeps)
	}
}

func TestExtractRetriesRateLimitUsingMessageHint(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached for requests. Please try again in 1m30s."}}`))
			return
		}
		_, _ = w.Write(completionBody(t, `{"username":"otheruser","followers":"1,914"}`))
	}))
	defer server.Close()

	sched := &recordingScheduler{}
	var sleeps []time.Duration
	result := newTestClient(server.URL, sched, &sleeps).Extract(context.Background(), pngHeader)

	if result.Identity != "otheruser" || result.FollowersRaw != "1,914" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Confidence != nil {
		t.Fatalf("expected no confidence, got %v", *result.Confidence)
	}
	if sched.awaits != 2 {
		t.Fatalf("expected await before each attempt, got %d", sched.awaits)
	}
	if len(sched.backoffs) != 1 || sched.backoffs[0] != 90*time.Second {
		t.Fatalf("unexpected backoffs %v", sched.backoffs)
	}
	if len(sleeps) != 1 || sleeps[0] != 90*time.Second {
		t.Fatalf("unexpected sleeps %v", sleeps)
	}
}

func TestExtractUsesRetryAfterAndResetHeaders(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.Header().Set("Retry-After", "5")
			w.Header().Set("x-ratelimit-reset-tokens", strconv.FormatInt(now.Add(30*time.Second).Unix(), 10))
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = w.Write(completionBody(t, `{"username":"a","followers":"1","confidence":"0.4"}`))
		}
	}))
	defer server.Close()

	sched := &recordingScheduler{}
	var sleeps []time.Duration
	client := newTestClient(server.URL, sched, &sleeps, WithClock(func() time.Time { return now }))
	result := client.Extract(context.Background(), pngHeader)

	if result.Err != nil || result.ConfidenceValue() != 0.4 {
		t.Fatalf("unexpected result %+v", result)
	}
	want := []time.Duration{7 * time.Second, 30 * time.Second}
	if len(sleeps) != 2 || sleeps[0] != want[0] || sleeps[1] != want[1] {
		t.Fatalf("unexpected sleeps %v, want %v", sleeps, want)
	}
}

func TestExtractExhaustsAttemptsWithExponentialBackoff(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	sched := &recordingScheduler{}
	var sleeps []time.Duration
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, MaxAttempts: 3}, sched,
		WithSleeper(func(d time.Duration) { sleeps = append(sleeps, d) }))
	result := client.Extract(context.Background(), pngHeader)

	if !result.Empty() || result.Confidence != nil {
		t.Fatalf("expected empty result, got %+v", result)
	}
	if !errors.Is(result.Err, services.ErrRateLimited) {
		t.Fatalf("expected rate limited failure, got %v", result.Err)
	}
	if calls.Load() != 3 || sched.awaits != 3 {
		t.Fatalf("expected 3 attempts, got calls=%d awaits=%d", calls.Load(), sched.awaits)
	}
	wantBackoffs := []time.Duration{20 * time.Second, 40 * time.Second, 80 * time.Second}
	for i, want := range wantBackoffs {
		if sched.backoffs[i] != want {
			t.Fatalf("backoff %d = %s, want %s", i, sched.backoffs[i], want)
		}
	}
	if len(sleeps) != 2 {
		t.Fatalf("expected no sleep after the final attempt, got %v", sleeps)
	}
}

func TestExtractDoesNotRetryOtherFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
		marker  error
	}{
		{"server error", http.StatusInternalServerError, "", services.ErrRemoteFatal},
		{"unauthorized", http.StatusUnauthorized, "", services.ErrRemoteFatal},
		{"not json", http.StatusOK, "I could not read the image", services.ErrRemoteParse},
		{"json array", http.StatusOK, "[1,2]", services.ErrRemoteParse},
		{"empty content", http.StatusOK, "", services.ErrRemoteParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				if tt.status != http.StatusOK {
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
					return
				}
				_, _ = w.Write(completionBody(t, tt.content))
			}))
			defer server.Close()

			sched := &recordingScheduler{}
			var sleeps []time.Duration
			result := newTestClient(server.URL, sched, &sleeps).Extract(context.Background(), pngHeader)
			if !result.Empty() || result.Confidence != nil {
				t.Fatalf("expected empty result, got %+v", result)
			}
			if !errors.Is(result.Err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, result.Err)
			}
			if calls.Load() != 1 || len(sleeps) != 0 || len(sched.backoffs) != 0 {
				t.Fatalf("expected a single attempt, got calls=%d sleeps=%v backoffs=%v", calls.Load(), sleeps, sched.backoffs)
			}
		})
	}
}

func TestExtractWithoutCredential(t *testing.T) {
	client := NewClient(Config{}, &recordingScheduler{})
	if client.Available() {
		t.Fatal("expected client without api key to be unavailable")
	}
	result := client.Extract(context.Background(), pngHeader)
	if !errors.Is(result.Err, services.ErrRemoteUnavailable) {
		t.Fatalf("expected unavailable failure, got %v", result.Err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(completionBody(t, `{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, nil)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestParseRetryText(t *testing.T) {
	tests := []struct {
		msg  string
		want time.Duration
		ok   bool
	}{
		{"Please try again in 1h2m3s.", time.Hour + 2*time.Minute + 3*time.Second, true},
		{"try again in 2h5m", 2*time.Hour + 5*time.Minute, true},
		{"Try again in 6m20s", 6*time.Minute + 20*time.Second, true},
		{"try again in 3m.", 3 * time.Minute, true},
		{"try again in 20s", 20 * time.Second, true},
		{"try again in 1.5s", 1500 * time.Millisecond, true},
		{"try again in 20ms", 0, false},
		{"slow down", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseRetryText(tt.msg)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("parseRetryText(%q) = %s %v, want %s %v", tt.msg, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseResetHeader(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	if got, ok := parseResetHeader("1700000045", now); !ok || got != 45*time.Second {
		t.Fatalf("epoch reset = %s %v", got, ok)
	}
	if got, ok := parseResetHeader("6m0s", now); !ok || got != 6*time.Minute {
		t.Fatalf("duration reset = %s %v", got, ok)
	}
	if _, ok := parseResetHeader("1699999990", now); ok {
		t.Fatal("expected past epoch to be ignored")
	}
}

func TestIsRateLimited(t *testing.T) {
	if !isRateLimited(&httpStatusError{StatusCode: http.StatusTooManyRequests}) {
		t.Fatal("expected 429 to be rate limited")
	}
	if !isRateLimited(errors.New("Too Many Requests")) {
		t.Fatal("expected message match")
	}
	if isRateLimited(&httpStatusError{StatusCode: http.StatusBadRequest, Body: "bad image"}) {
		t.Fatal("expected 400 not to be rate limited")
	}
}

func TestParseResult(t *testing.T) {
	result, err := ParseResult(`{"username":"@x","followers":1914,"confidence":1.7}`)
	if err != nil {
		t.Fatalf("ParseResult returned error: %v", err)
	}
	if result.Identity != "@x" || result.FollowersRaw != "1914" || result.ConfidenceValue() != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if _, err := ParseResult("null"); err == nil {
		t.Fatal("expected null payload to fail")
	}
}

func TestDataURLDefaultsToJPEG(t *testing.T) {
	if got := DataURL([]byte{0xff, 0xd8, 0xff, 0x00}); !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Fatalf("unexpected data url %q", got)
	}
	if got := DataURL(pngHeader); !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Fatalf("unexpected data url %q", got)
	}
}
