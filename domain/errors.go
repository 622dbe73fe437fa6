package domain

import "errors"

var (
	ErrArticleFetch    = errors.New("article fetch failed")
	ErrPersonaNotFound = errors.New("persona not found")
	ErrLLM             = errors.New("llm generation failed")
	ErrInvalidRequest  = errors.New("invalid request")
	ErrMessageHandling = errors.New("message handling failed")
)
