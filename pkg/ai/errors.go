package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorName gives a short, client-safe name for a provider failure, such as
// "APIError 429", "DeadlineExceeded" or "genai.APIError". It returns "" when
// the error carries no useful type.
func ErrorName(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "DeadlineExceeded"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("APIError %d", apiErr.StatusCode)
	}

	inner := err
	for {
		next := errors.Unwrap(inner)
		if next == nil {
			break
		}
		inner = next
	}
	name := strings.TrimPrefix(fmt.Sprintf("%T", inner), "*")
	switch name {
	case "errors.errorString", "fmt.wrapError", "fmt.wrapErrors":
		return ""
	}
	return name
}
