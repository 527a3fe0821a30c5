package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"knockknock/internal/util"
	"knockknock/pkg/ai"
)

const translateSystemPrompt = `당신은 한국어를 일본어로 옮기는 번역가입니다.
사용자가 보낸 한국어 문장을 자연스러운 일본어로 번역하고, 번역한 일본어 문장을 한국어 사용자가 읽을 수 있도록 한글 발음으로 적어 주세요.
반드시 아래 두 필드만 가진 JSON 객체 하나로만 응답하고, 다른 설명은 덧붙이지 마세요.
{"japaneseTranslation": "일본어 번역", "koreanPronunciation": "일본어 문장의 한글 발음"}`

// Classification names carried by TranslateError.
const (
	ErrNameValidation      = "ValidationError"
	ErrNameUpstream        = "UpstreamError"
	ErrNameMalformedOutput = "MalformedOutputError"
	ErrNameMissingField    = "MissingFieldError"
)

// TranslateError reports a failed translate request. Name classifies the
// failure. Cause names the upstream error type when one is known, e.g.
// "APIError 429". Only these two are exposed to clients.
type TranslateError struct {
	Name  string
	Cause string
	Err   error
}

func (e *TranslateError) Error() string {
	if e.Cause != "" {
		return "generator call failed: " + e.Name + "(" + e.Cause + ")"
	}
	return "generator call failed: " + e.Name
}

func (e *TranslateError) Unwrap() error { return e.Err }

// Translation is the translate response body.
type Translation struct {
	JapaneseTranslation string `json:"japaneseTranslation"`
	KoreanPronunciation string `json:"koreanPronunciation"`
	JapaneseReading     string `json:"japaneseReading,omitempty"`
}

// Translate asks the generator for a Japanese translation of req.KoreanText
// and a hangul pronunciation of that translation.
func (a *App) Translate(ctx context.Context, req TranslateRequest) (Translation, error) {
	logger := util.LoggerFromContext(ctx)
	text := strings.TrimSpace(req.KoreanText)
	if text == "" {
		return Translation{}, &TranslateError{Name: ErrNameValidation, Err: errors.New("koreanText is empty")}
	}

	gen, err := a.generator()
	if err != nil {
		logger.Error("generator unavailable", "err", err)
		return Translation{}, &TranslateError{Name: ErrNameUpstream, Cause: ai.ErrorName(err), Err: err}
	}
	raw, err := gen.GenerateText(ctx, translateSystemPrompt, "한국어 문장: "+text)
	if err != nil {
		logger.Error("generator call failed", "err", err)
		return Translation{}, &TranslateError{Name: ErrNameUpstream, Cause: ai.ErrorName(err), Err: err}
	}

	var out Translation
	if err := ai.DecodeJSON(raw, &out); err != nil {
		logger.Warn("generator returned unparseable output", "err", err)
		return Translation{}, &TranslateError{Name: ErrNameMalformedOutput, Err: err}
	}
	out.JapaneseTranslation = strings.TrimSpace(out.JapaneseTranslation)
	out.KoreanPronunciation = strings.TrimSpace(out.KoreanPronunciation)
	if out.JapaneseTranslation == "" || out.KoreanPronunciation == "" {
		return Translation{}, &TranslateError{
			Name: ErrNameMissingField,
			Err:  fmt.Errorf("generator output missing fields: %s", raw),
		}
	}
	// the model supplies its own reading field sometimes; only ours is trusted
	out.JapaneseReading = ""
	if a.reader != nil {
		out.JapaneseReading = a.reader.Hiragana(out.JapaneseTranslation)
	}
	return out, nil
}
