package embedding

import (
	"fmt"

	"DocTalk/internal/config"
)

// NewClient 是一个工厂函数，根据配置创建并返回一个实现了 Embedding 接口的客户端。
func NewClient(cfg config.EmbeddingConfig) (Embedding, error) {
	switch ModelType(cfg.Provider) {
	case Google:
		return NewGoogleModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	case OpenAI:
		return NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case Ollama:
		return NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
