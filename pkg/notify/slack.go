package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"knockknock/pkg/domain"
)

const (
	defaultTimeout = 10 * time.Second
	bodySnippetMax = 2048

	headerText = "똑똑! 오늘의 표현이 도착했어요"
)

// Notifier delivers one phrase to a chat channel.
type Notifier interface {
	SendPhrase(ctx context.Context, p domain.Phrase) error
}

// StatusError reports a non-2xx webhook reply.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("slack webhook: %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("slack webhook: %s", e.Status)
}

// SlackWebhook posts Block Kit messages to a Slack incoming webhook.
type SlackWebhook struct {
	url    string
	client *http.Client
}

// NewSlackWebhook builds a webhook client. A non-positive timeout selects the
// default of ten seconds.
func NewSlackWebhook(url string, timeout time.Duration) (*SlackWebhook, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("slack webhook url is required")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &SlackWebhook{url: url, client: &http.Client{Timeout: timeout}}, nil
}

// SendPhrase posts the phrase card. Any non-2xx reply is a *StatusError.
func (s *SlackWebhook) SendPhrase(ctx context.Context, p domain.Phrase) error {
	payload, err := json.Marshal(PhraseMessage(p))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetMax))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Message is a Slack Block Kit message body.
type Message struct {
	Blocks []Block `json:"blocks"`
}

type Block struct {
	Type   string  `json:"type"`
	Text   *Text   `json:"text,omitempty"`
	Fields []*Text `json:"fields,omitempty"`
}

type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// PhraseMessage lays out a phrase as header, divider, a two-column
// Japanese/Korean section and a pronunciation section.
func PhraseMessage(p domain.Phrase) Message {
	return Message{Blocks: []Block{
		{Type: "header", Text: &Text{Type: "plain_text", Text: headerText, Emoji: true}},
		{Type: "divider"},
		{Type: "section", Fields: []*Text{
			mrkdwn("*🇯🇵 일본어*\n" + p.Expression.JP),
			mrkdwn("*🇰🇷 한국어*\n" + p.Expression.KR),
		}},
		{Type: "section", Fields: []*Text{
			mrkdwn("*🗣️ 발음*\n" + p.Pronunciation),
		}},
	}}
}

func mrkdwn(s string) *Text {
	return &Text{Type: "mrkdwn", Text: s}
}
