package ai

import "context"

// Generator is the external generation collaborator. It takes a natural
// language prompt and returns free text that is expected, but not
// guaranteed, to contain a JSON payload. Callers must treat it as a
// failure-prone black box.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
