package app

import (
	"encoding/json"
	"strings"

	"knockknock/pkg/domain"
)

// Request is the classified form of a router body. It is either a
// TranslateRequest or a StoreRequest.
type Request interface {
	isRequest()
}

// TranslateRequest asks for a Japanese translation of Korean text.
type TranslateRequest struct {
	KoreanText string
}

// StoreRequest carries a new phrase to persist.
type StoreRequest struct {
	Expression    domain.Expression
	Pronunciation string
}

func (TranslateRequest) isRequest() {}
func (StoreRequest) isRequest()     {}

// ParseRequest classifies a raw body by the keys it carries. A body that is
// empty or not a JSON object is treated as {}. Presence of koreanText wins
// over the store keys.
func ParseRequest(body []byte) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		fields = map[string]json.RawMessage{}
	}

	if raw, ok := fields["koreanText"]; ok {
		return TranslateRequest{KoreanText: rawString(raw)}, nil
	}

	rawExpr, hasExpr := fields["expression"]
	rawPron, hasPron := fields["pronunciation"]
	if hasExpr && hasPron {
		var expr domain.Expression
		// non-object expressions fall through to validation as empty
		_ = json.Unmarshal(rawExpr, &expr)
		return StoreRequest{Expression: expr, Pronunciation: rawString(rawPron)}, nil
	}
	return nil, ErrMalformedRequest
}

// rawString returns the JSON string value, or "" for any other JSON type.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
