// Package gemini provides a model wrapper for the Google Gemini API using the
// google.golang.org/genai SDK.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/hupe1980/agentoffice/core"
	"github.com/hupe1980/agentoffice/model"
	"google.golang.org/genai"
)

// Options configures the Gemini model adapter.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int32
}

// Model wraps the Gemini generate content API behind model.Model.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a Gemini Developer API client authenticated with apiKey.
func NewModel(ctx context.Context, apiKey string, optFns ...func(o *Options)) (*Model, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return NewModelFromClient(client, optFns...), nil
}

// NewModelFromClient creates a Gemini model from an existing client.
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       "gemini-2.0-flash",
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		contents := buildContents(req.Contents)
		cfg := m.buildConfig(req)

		if !req.Stream {
			resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, cfg)
			if err != nil {
				errCh <- fmt.Errorf("gemini generate content: %w", err)
				return
			}
			out <- toResponse(resp)
			return
		}

		var (
			text   strings.Builder
			calls  []core.Part
			finish = "stop"
			usage  *model.TokenUsage
		)

		for chunk, err := range m.client.Models.GenerateContentStream(ctx, m.opts.Model, contents, cfg) {
			if err != nil {
				errCh <- fmt.Errorf("gemini streaming error: %w", err)
				return
			}

			partial := toResponse(chunk)
			if t := partial.Content.Text(); t != "" {
				text.WriteString(t)
				out <- model.Response{Partial: true, Content: core.NewTextContent(core.RoleAssistant, t)}
			}
			for _, p := range partial.Content.Parts {
				if _, ok := p.(core.FunctionCallPart); ok {
					calls = append(calls, p)
				}
			}
			if partial.FinishReason != "" {
				finish = partial.FinishReason
			}
			if partial.Usage != nil {
				usage = partial.Usage
			}
		}

		parts := make([]core.Part, 0, len(calls)+1)
		if text.Len() > 0 {
			parts = append(parts, core.TextPart{Text: text.String()})
		}
		parts = append(parts, calls...)

		out <- model.Response{
			Content:      core.Content{Role: core.RoleAssistant, Parts: parts},
			FinishReason: finish,
			Usage:        usage,
		}
	}()

	return out, errCh
}

// Check verifies the API key works and the configured model exists.
func (m *Model) Check(ctx context.Context) error {
	if _, err := m.client.Models.Get(ctx, m.opts.Model, nil); err != nil {
		return fmt.Errorf("gemini model %q unavailable: %w", m.opts.Model, err)
	}
	return nil
}

// ListModels returns the model names available to the API key.
func (m *Model) ListModels(ctx context.Context) ([]string, error) {
	var ids []string
	for mdl, err := range m.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("gemini list models: %w", err)
		}
		ids = append(ids, strings.TrimPrefix(mdl.Name, "models/"))
	}
	slices.Sort(ids)
	return ids, nil
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "gemini",
		SupportsTools: true,
	}
}

func (m *Model) buildConfig(req model.Request) *genai.GenerateContentConfig {
	temp := m.opts.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: m.opts.MaxTokens,
	}

	system := req.Instructions
	for _, c := range req.Contents {
		if c.Role == core.RoleSystem {
			system = strings.TrimSpace(system + "\n\n" + c.Text())
		}
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, t := range req.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:                 t.Function.Name,
				Description:          t.Function.Description,
				ParametersJsonSchema: t.Function.Parameters,
			}
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	return cfg
}

// buildContents converts contents into genai contents. Tool responses become
// user turns carrying FunctionResponse parts.
func buildContents(contents []core.Content) []*genai.Content {
	var out []*genai.Content

	for _, c := range contents {
		switch c.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			gc := &genai.Content{Role: genai.RoleModel}
			for _, p := range c.Parts {
				switch part := p.(type) {
				case core.TextPart:
					if part.Text != "" {
						gc.Parts = append(gc.Parts, &genai.Part{Text: part.Text})
					}
				case core.FunctionCallPart:
					args := map[string]any{}
					_ = json.Unmarshal([]byte(part.FunctionCall.Arguments), &args)
					gc.Parts = append(gc.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
						ID:   part.FunctionCall.ID,
						Name: part.FunctionCall.Name,
						Args: args,
					}})
				}
			}
			if len(gc.Parts) > 0 {
				out = append(out, gc)
			}
		case core.RoleTool:
			gc := &genai.Content{Role: genai.RoleUser}
			for _, p := range c.Parts {
				fr, ok := p.(core.FunctionResponsePart)
				if !ok {
					continue
				}
				gc.Parts = append(gc.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       fr.FunctionResponse.ID,
					Name:     fr.FunctionResponse.Name,
					Response: responseMap(fr.FunctionResponse),
				}})
			}
			if len(gc.Parts) > 0 {
				out = append(out, gc)
			}
		default:
			if text := c.Text(); text != "" {
				out = append(out, genai.NewContentFromText(text, genai.RoleUser))
			}
		}
	}

	return out
}

// responseMap shapes a function response the way Gemini expects: an object
// with "output" on success or "error" on failure.
func responseMap(fr core.FunctionResponse) map[string]any {
	if fr.Error != "" {
		return map[string]any{"error": fr.Error}
	}
	if m, ok := fr.Response.(map[string]any); ok {
		return map[string]any{"output": m}
	}
	return map[string]any{"output": fr.Response}
}

func toResponse(resp *genai.GenerateContentResponse) model.Response {
	r := model.Response{Content: core.Content{Role: core.RoleAssistant}}
	if resp == nil {
		return r
	}

	r.ID = resp.ResponseID

	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		cand := resp.Candidates[0]
		if cand.FinishReason != "" {
			r.FinishReason = strings.ToLower(string(cand.FinishReason))
		}
		if cand.Content != nil {
			for _, p := range cand.Content.Parts {
				switch {
				case p == nil:
				case p.FunctionCall != nil:
					args, _ := json.Marshal(p.FunctionCall.Args)
					id := p.FunctionCall.ID
					if id == "" {
						id = "call_" + uuid.NewString()
					}
					r.Content.Parts = append(r.Content.Parts, core.FunctionCallPart{FunctionCall: core.FunctionCall{
						ID:        id,
						Name:      p.FunctionCall.Name,
						Arguments: string(args),
					}})
				case p.Text != "" && !p.Thought:
					r.Content.Parts = append(r.Content.Parts, core.TextPart{Text: p.Text})
				}
			}
		}
	}

	if u := resp.UsageMetadata; u != nil {
		r.Usage = &model.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	return r
}
