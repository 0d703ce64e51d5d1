// Package respjson pulls structured JSON out of free-text model output.
//
// Providers are asked to return bare JSON but routinely wrap it in prose
// or markdown fences. The span heuristic is first-opening to last-closing
// bracket; anything that then fails to decode into the target schema is
// reported as ai.ErrBadResponse so callers can ride their normal
// stage-fallback path instead of surfacing a type error downstream.
package respjson

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aibcdev/brandscan/internal/domain/ai"
)

// UnmarshalObject decodes the first {...} span of text into v.
func UnmarshalObject(text string, v any) error {
	return unmarshalSpan(text, '{', '}', v)
}

// UnmarshalArray decodes the first [...] span of text into v.
func UnmarshalArray(text string, v any) error {
	return unmarshalSpan(text, '[', ']', v)
}

func unmarshalSpan(text string, open, close byte, v any) error {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return fmt.Errorf("%w: no %c...%c span in response", ai.ErrBadResponse, open, close)
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrBadResponse, err)
	}
	return nil
}
