package app

import (
	"context"
	"net/http"

	"knockknock/pkg/domain"
)

// Response is a successful router reply.
type Response struct {
	Status int
	Body   any
}

// StoredBody is the body returned after a phrase is saved.
type StoredBody struct {
	Message string        `json:"message"`
	Item    domain.Phrase `json:"item"`
}

// Dispatch runs the path matching the request variant.
func (a *App) Dispatch(ctx context.Context, req Request) (Response, error) {
	switch r := req.(type) {
	case TranslateRequest:
		out, err := a.Translate(ctx, r)
		if err != nil {
			return Response{}, err
		}
		return Response{Status: http.StatusOK, Body: out}, nil
	case StoreRequest:
		phrase, err := a.Store(ctx, r)
		if err != nil {
			return Response{}, err
		}
		return Response{Status: http.StatusCreated, Body: StoredBody{Message: SavedMessage, Item: phrase}}, nil
	default:
		return Response{}, ErrMalformedRequest
	}
}
