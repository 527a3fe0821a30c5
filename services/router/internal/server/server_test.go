package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"knockknock/pkg/domain"
	"knockknock/pkg/store"
	"knockknock/services/router/internal/app"
)

type stubGenerator struct {
	reply string
	err   error
}

func (g stubGenerator) GenerateText(context.Context, string, string) (string, error) {
	return g.reply, g.err
}

type panickingStore struct {
	store.PhraseStore
}

func (panickingStore) PutPhrase(context.Context, domain.Phrase) error {
	panic("boom")
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func newTestServer(t *testing.T, gen stubGenerator, s store.PhraseStore, limiter Limiter) *httptest.Server {
	t.Helper()
	a := app.New(app.Config{Store: s, Generator: gen})
	srv := httptest.NewServer(New(Config{App: a, Limiter: limiter}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestPreflight(t *testing.T) {
	srv := newTestServer(t, stubGenerator{}, store.NewMemoryStore(), nil)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); got != "OPTIONS,POST" {
		t.Fatalf("allow methods = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); got != "Content-Type,X-Amz-Date" {
		t.Fatalf("allow headers = %q", got)
	}
}

func TestTranslateRoute(t *testing.T) {
	gen := stubGenerator{reply: `{"japaneseTranslation":"ありがとう","koreanPronunciation":"아리가토"}`}
	srv := newTestServer(t, gen, store.NewMemoryStore(), nil)

	resp, body := post(t, srv.URL+"/", `{"koreanText":"고마워요"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d body=%v", resp.StatusCode, body)
	}
	if body["japaneseTranslation"] != "ありがとう" || body["koreanPronunciation"] != "아리가토" {
		t.Fatalf("unexpected body %v", body)
	}
	if _, ok := body["japaneseReading"]; ok {
		t.Fatalf("reading must be omitted without a reader")
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing CORS origin header")
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestStoreRoute(t *testing.T) {
	mem := store.NewMemoryStore()
	srv := newTestServer(t, stubGenerator{}, mem, nil)

	resp, body := post(t, srv.URL+"/phrases", `{"expression":{"jp":"こんにちは","kr":"안녕하세요"},"pronunciation":"곤니치와"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d body=%v", resp.StatusCode, body)
	}
	if body["message"] != app.SavedMessage {
		t.Fatalf("message = %v", body["message"])
	}
	item, ok := body["item"].(map[string]any)
	if !ok {
		t.Fatalf("missing item in %v", body)
	}
	if item["count"] != float64(0) || item["language"] != "jp" || item["id"] == "" {
		t.Fatalf("unexpected item %v", item)
	}
	all, _ := mem.ScanPhrases(context.Background())
	if len(all) != 1 {
		t.Fatalf("expected one stored record, got %d", len(all))
	}
}

func TestFailuresAreClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		gen     stubGenerator
		body    string
		message string
	}{
		{name: "empty body", body: ``, message: app.ErrMalformedRequest.Error()},
		{name: "garbage body", body: `{{{`, message: app.ErrMalformedRequest.Error()},
		{name: "unknown shape", body: `{"text":"hi"}`, message: app.ErrMalformedRequest.Error()},
		{name: "empty korean text", body: `{"koreanText":""}`, message: "generator call failed: ValidationError"},
		{name: "upstream failure", gen: stubGenerator{err: errors.New("503")}, body: `{"koreanText":"네"}`, message: "generator call failed: UpstreamError"},
		{name: "malformed output", gen: stubGenerator{reply: "no json here"}, body: `{"koreanText":"네"}`, message: "generator call failed: MalformedOutputError"},
		{name: "invalid phrase", body: `{"expression":{"jp":"はい"},"pronunciation":"하이"}`, message: app.ErrInvalidPhrase.Error()},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, tc.gen, store.NewMemoryStore(), nil)
			resp, body := post(t, srv.URL+"/", tc.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			if body["message"] != tc.message {
				t.Fatalf("message = %v, want %q", body["message"], tc.message)
			}
			if resp.Header.Get("Content-Type") != "application/json" {
				t.Fatalf("content type = %q", resp.Header.Get("Content-Type"))
			}
			if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
				t.Fatalf("missing CORS origin header on error")
			}
		})
	}
}

func TestPanicIsRecovered(t *testing.T) {
	srv := newTestServer(t, stubGenerator{}, panickingStore{}, nil)
	resp, body := post(t, srv.URL+"/", `{"expression":{"jp":"はい","kr":"네"},"pronunciation":"하이"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["message"] == nil {
		t.Fatalf("expected message body, got %v", body)
	}
}

func TestTranslateRateLimit(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	srv := newTestServer(t, stubGenerator{reply: `{}`}, store.NewMemoryStore(), limiter)

	resp, body := post(t, srv.URL+"/", `{"koreanText":"네"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["message"] != app.ErrRateLimited.Error() {
		t.Fatalf("message = %v", body["message"])
	}
	if len(limiter.keys) != 1 || !strings.HasPrefix(limiter.keys[0], "ip:127.0.0.1") {
		t.Fatalf("unexpected limiter keys %v", limiter.keys)
	}

	resp, _ = post(t, srv.URL+"/", `{"expression":{"jp":"はい","kr":"네"},"pronunciation":"하이"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("store path must bypass the limiter, status = %d", resp.StatusCode)
	}
	if len(limiter.keys) != 1 {
		t.Fatalf("limiter consulted for store path")
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, stubGenerator{}, store.NewMemoryStore(), nil)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestUnroutedRequestsAnswerJSON(t *testing.T) {
	srv := newTestServer(t, stubGenerator{}, store.NewMemoryStore(), nil)
	tests := []struct {
		name   string
		method string
		path   string
		status int
		allow  string
	}{
		{name: "get root", method: http.MethodGet, path: "/", status: http.StatusMethodNotAllowed, allow: "OPTIONS, POST"},
		{name: "put phrases", method: http.MethodPut, path: "/phrases", status: http.StatusMethodNotAllowed, allow: "OPTIONS, POST"},
		{name: "post healthz", method: http.MethodPost, path: "/healthz", status: http.StatusMethodNotAllowed, allow: "GET, HEAD"},
		{name: "unknown path", method: http.MethodPost, path: "/nope", status: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, _ := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(`{}`))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
			if got := resp.Header.Get("Content-Type"); got != "application/json" {
				t.Fatalf("content type = %q", got)
			}
			if got := resp.Header.Get("Allow"); got != tc.allow {
				t.Fatalf("allow = %q, want %q", got, tc.allow)
			}
			var out map[string]string
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out["message"] == "" {
				t.Fatalf("body = %v (%v)", out, err)
			}
		})
	}
}
