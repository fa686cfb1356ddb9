package llm

import "errors"

var errEmptyResponse = errors.New("completion returned no choices")
