package app

import "errors"

var (
	// ErrMalformedRequest is returned when a body matches neither the
	// translate nor the store shape.
	ErrMalformedRequest = errors.New("malformed request: expected koreanText, or expression and pronunciation")
	ErrInvalidPhrase    = errors.New("expression.jp, expression.kr and pronunciation are required")
	ErrRateLimited      = errors.New("too many translate requests, try again later")
)
