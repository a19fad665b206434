package factory

import (
	"fmt"

	"ai-sitechat-be/pkg/llm"
	"ai-sitechat-be/pkg/llm/ollama"
)

// NewLLMProvider constructs the configured LLM backend.
func NewLLMProvider(provider, model, ollamaBaseURL string) (llm.LLMProvider, error) {
	switch provider {
	case "ollama", "":
		return ollama.NewOllamaProvider(ollamaBaseURL, model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q (supported: ollama)", provider)
	}
}
