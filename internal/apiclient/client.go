package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"knockknock/pkg/domain"
)

// APIError represents a non-2xx router or notifier reply.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client calls the router and notifier HTTP APIs.
type Client struct {
	routerURL   string
	notifierURL string
	httpClient  *http.Client
}

// New constructs a client. Either URL may be empty when the matching
// commands are not used.
func New(routerURL, notifierURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		routerURL:   strings.TrimRight(strings.TrimSpace(routerURL), "/"),
		notifierURL: strings.TrimRight(strings.TrimSpace(notifierURL), "/"),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// Translation mirrors the router's translate reply.
type Translation struct {
	JapaneseTranslation string `json:"japaneseTranslation"`
	KoreanPronunciation string `json:"koreanPronunciation"`
	JapaneseReading     string `json:"japaneseReading,omitempty"`
}

// Stored mirrors the router's store reply.
type Stored struct {
	Message string        `json:"message"`
	Item    domain.Phrase `json:"item"`
}

// RunResult mirrors the notifier's run reply.
type RunResult struct {
	Skipped   bool          `json:"skipped"`
	Reason    string        `json:"reason,omitempty"`
	Delivered bool          `json:"delivered"`
	Phrase    domain.Phrase `json:"phrase"`
	Count     int64         `json:"count"`
}

// Translate asks the router to translate Korean text.
func (c *Client) Translate(ctx context.Context, koreanText string) (Translation, error) {
	var out Translation
	err := c.post(ctx, c.routerURL+"/phrases", map[string]string{"koreanText": koreanText}, &out)
	return out, err
}

// AddPhrase stores a new phrase through the router.
func (c *Client) AddPhrase(ctx context.Context, expr domain.Expression, pronunciation string) (Stored, error) {
	body := map[string]any{"expression": expr, "pronunciation": pronunciation}
	var out Stored
	err := c.post(ctx, c.routerURL+"/phrases", body, &out)
	return out, err
}

// TriggerRun asks the notifier to run the job once.
func (c *Client) TriggerRun(ctx context.Context) (RunResult, error) {
	var out RunResult
	err := c.post(ctx, c.notifierURL+"/run", struct{}{}, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	if strings.HasPrefix(url, "/") {
		return fmt.Errorf("service url is not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Message
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
