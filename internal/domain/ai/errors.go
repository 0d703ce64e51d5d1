package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrBadResponse indicates the provider answered but the response carried
// no parseable JSON payload, or the payload did not match the expected
// schema. Stages treat it exactly like a transport failure.
var ErrBadResponse = errors.New("ai response not parseable")
