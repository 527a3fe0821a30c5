package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestErrorName(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "api error", err: fmt.Errorf("ollama chat: %w", &APIError{Provider: "ollama", StatusCode: 429}), want: "APIError 429"},
		{name: "deadline", err: fmt.Errorf("gemini generate: %w", context.DeadlineExceeded), want: "DeadlineExceeded"},
		{name: "canceled", err: context.Canceled, want: "Canceled"},
		{name: "typed cause", err: fmt.Errorf("request: %w", &net.DNSError{Err: "no such host", Name: "x"}), want: "net.DNSError"},
		{name: "plain", err: errors.New("boom"), want: ""},
		{name: "wrapped plain", err: fmt.Errorf("gemini generate: %w", errors.New("boom")), want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorName(tc.err); got != tc.want {
				t.Fatalf("ErrorName = %q, want %q", got, tc.want)
			}
		})
	}
}
