package config

import (
	"context"
	"fmt"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/model"
	"github.com/hupe1980/agentoffice/model/anthropic"
	"github.com/hupe1980/agentoffice/model/gemini"
	"github.com/hupe1980/agentoffice/model/openai"
	"github.com/hupe1980/agentoffice/tool"
)

// NewModel builds the model binding selected by cfg.Provider.
func NewModel(ctx context.Context, cfg *Config) (model.Model, error) {
	switch cfg.Provider {
	case ProviderOllama:
		name := cfg.Model
		if name == "" {
			name = DefaultOllamaModel
		}
		return openai.NewOllamaModel(cfg.OllamaHost, func(o *openai.Options) {
			o.Model = name
		}), nil
	case ProviderOpenAI:
		return openai.NewModel([]option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}, func(o *openai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		}), nil
	case ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		}), nil
	case ProviderGemini:
		m, err := gemini.NewModel(ctx, cfg.GeminiAPIKey, func(o *gemini.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
		})
		if err != nil {
			return nil, err
		}
		return m, nil
	case ProviderMock:
		name := cfg.Model
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name).SetResponder(EchoResponder), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// EchoResponder drives the mock provider: an agent answers messages
// addressed to it directly and declines everything else. It lets the
// binaries run without a model server.
func EchoResponder(req model.Request) (core.Content, error) {
	var last string
	for i := len(req.Contents) - 1; i >= 0; i-- {
		if req.Contents[i].Role == core.RoleUser {
			last = req.Contents[i].Text()
			break
		}
	}

	if strings.Contains(last, "directly to you") {
		return core.NewTextContent(core.RoleAssistant, "Noted. I will look into it."), nil
	}

	return model.ToolCallContent(tool.NoResponseToolName, `{"reason":"not addressed to me"}`), nil
}
