package app

import "errors"

// GenericFallback is the answer body sent whenever the proxy cannot produce a
// real one, so clients always have something to render.
const GenericFallback = "I'm having trouble processing your request right now. Please try again."

// ErrMissingAPIKey means the upstream credential was absent when a question
// needed the live model.
var ErrMissingAPIKey = errors.New("PERPLEXITY_API_KEY is not configured")

// ErrEmptyQuestion marks a request with no question to answer.
var ErrEmptyQuestion = errors.New("question is required")
