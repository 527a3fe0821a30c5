package domain

import "strings"

// LanguageJapanese is the only language discriminator in use today.
const LanguageJapanese = "jp"

// Expression pairs the foreign phrase with its native-language gloss.
type Expression struct {
	JP string `json:"jp"`
	KR string `json:"kr"`
}

// Phrase is one stored learning phrase.
type Phrase struct {
	ID            string     `json:"id"`
	Language      string     `json:"language"`
	Expression    Expression `json:"expression"`
	Pronunciation string     `json:"pronunciation"`
	Count         int64      `json:"count"`
	CreatedAt     int64      `json:"created_at"`
}

// Key addresses a phrase record.
type Key struct {
	ID       string
	Language string
}

// Key returns the composite key of p.
func (p Phrase) Key() Key {
	return Key{ID: p.ID, Language: p.Language}
}

// Valid reports whether the user-supplied fields are present.
func (p Phrase) Valid() bool {
	return strings.TrimSpace(p.Expression.JP) != "" &&
		strings.TrimSpace(p.Expression.KR) != "" &&
		strings.TrimSpace(p.Pronunciation) != ""
}
