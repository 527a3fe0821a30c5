package app

import (
	"context"
	"fmt"
	"strings"

	"knockknock/internal/util"
	"knockknock/pkg/domain"
)

// SavedMessage is the message returned with a stored phrase.
const SavedMessage = "성공적으로 저장되었습니다."

// Store validates req, builds a fresh phrase record and persists it.
func (a *App) Store(ctx context.Context, req StoreRequest) (domain.Phrase, error) {
	phrase := domain.Phrase{
		ID:       a.newID(),
		Language: domain.LanguageJapanese,
		Expression: domain.Expression{
			JP: strings.TrimSpace(req.Expression.JP),
			KR: strings.TrimSpace(req.Expression.KR),
		},
		Pronunciation: strings.TrimSpace(req.Pronunciation),
		Count:         0,
		CreatedAt:     a.now().Unix(),
	}
	if !phrase.Valid() {
		return domain.Phrase{}, ErrInvalidPhrase
	}

	phrases, err := a.phraseStore()
	if err != nil {
		return domain.Phrase{}, fmt.Errorf("open store: %w", err)
	}
	if err := phrases.PutPhrase(ctx, phrase); err != nil {
		return domain.Phrase{}, fmt.Errorf("save phrase: %w", err)
	}
	util.LoggerFromContext(ctx).Info("phrase stored", "phrase_id", phrase.ID)
	return phrase, nil
}
