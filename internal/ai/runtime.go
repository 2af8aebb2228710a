package ai

import "context"

// Runtime is the minimal interface implemented by language model backends
// such as OpenRouter and a local Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// Provider identifiers accepted by the provider config key.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)
