package store

import "knockknock/pkg/domain"

// PhraseModel is the GORM row for a phrase.
type PhraseModel struct {
	ID            string `gorm:"primaryKey"`
	Language      string `gorm:"primaryKey"`
	ExpressionJP  string `gorm:"not null"`
	ExpressionKR  string `gorm:"not null"`
	Pronunciation string `gorm:"not null"`
	DeliveryCount int64  `gorm:"not null;default:0"`
	CreatedAt     int64  `gorm:"autoCreateTime:false;not null"`
}

func phraseToModel(p domain.Phrase) PhraseModel {
	return PhraseModel{
		ID:            p.ID,
		Language:      p.Language,
		ExpressionJP:  p.Expression.JP,
		ExpressionKR:  p.Expression.KR,
		Pronunciation: p.Pronunciation,
		DeliveryCount: p.Count,
		CreatedAt:     p.CreatedAt,
	}
}

func phraseFromModel(m PhraseModel) domain.Phrase {
	return domain.Phrase{
		ID:       m.ID,
		Language: m.Language,
		Expression: domain.Expression{
			JP: m.ExpressionJP,
			KR: m.ExpressionKR,
		},
		Pronunciation: m.Pronunciation,
		Count:         m.DeliveryCount,
		CreatedAt:     m.CreatedAt,
	}
}
