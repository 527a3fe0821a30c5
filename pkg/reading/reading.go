// Package reading derives a hiragana reading for Japanese text using a local
// morphological analyzer, so stored phrases get a pronunciation aid that does
// not depend on the generator.
package reading

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// IPA feature index holding the katakana reading.
const readingFeature = 7

// Reader converts Japanese text to hiragana.
type Reader struct {
	t *tokenizer.Tokenizer
}

// New loads the IPA dictionary. Loading takes a noticeable moment, so callers
// build one Reader per process.
func New() (*Reader, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &Reader{t: t}, nil
}

// Hiragana returns the hiragana reading of text. Tokens without a dictionary
// reading (unknown words, latin text, punctuation) are kept as written.
func (r *Reader) Hiragana(text string) string {
	var b strings.Builder
	for _, token := range r.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY {
			continue
		}
		features := token.Features()
		if len(features) > readingFeature && features[readingFeature] != "*" {
			b.WriteString(ToHiragana(features[readingFeature]))
			continue
		}
		b.WriteString(token.Surface)
	}
	return b.String()
}

// ToHiragana maps katakana runes to hiragana and leaves everything else alone.
func ToHiragana(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'ァ' && r <= 'ヶ' {
			return r - 0x60
		}
		return r
	}, s)
}
