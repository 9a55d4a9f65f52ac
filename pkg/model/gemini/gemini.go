// Package gemini implements model.LLM on Google Gemini via the official
// google.golang.org/genai SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/haikumesh/haikumesh/pkg/model"
	"github.com/haikumesh/haikumesh/pkg/observability"
)

// Config contains configuration for the Gemini model.
type Config struct {
	// APIKey is the Google AI API key.
	APIKey string

	// Model is the model name, e.g. "gemini-2.5-flash".
	Model string

	// Temperature controls randomness (0-2).
	Temperature float64

	// MaxTokens limits the response length.
	MaxTokens int
}

type geminiModel struct {
	client *genai.Client
	name   string
	config Config
}

// New creates a Gemini model instance.
func New(cfg Config) (model.LLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	// Constructors don't take a context; initialization is local.
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &geminiModel{
		client: client,
		name:   cfg.Model,
		config: cfg,
	}, nil
}

func (m *geminiModel) Name() string {
	return m.name
}

func (m *geminiModel) Close() error {
	return nil
}

// Generate performs one non-streaming generation.
func (m *geminiModel) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	contents, systemInstruction := m.buildContents(req)
	config := m.buildConfig(req, systemInstruction)

	start := time.Now()
	genResp, err := m.client.Models.GenerateContent(ctx, m.name, contents, config)
	if err != nil {
		observability.GetGlobalMetrics().RecordLLMCall(ctx, m.name, time.Since(start), 0, 0, err)
		return nil, fmt.Errorf("Gemini generation failed: %w", err)
	}

	resp, err := parseResponse(genResp)

	in, out := 0, 0
	if resp != nil && resp.Usage != nil {
		in, out = resp.Usage.PromptTokens, resp.Usage.CompletionTokens
	}
	observability.GetGlobalMetrics().RecordLLMCall(ctx, m.name, time.Since(start), in, out, err)

	return resp, err
}

// buildContents converts the request's messages to genai contents.
func (m *geminiModel) buildContents(req *model.Request) ([]*genai.Content, *genai.Content) {
	var systemInstruction *genai.Content
	if req.SystemInstruction != "" {
		systemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
			Role:  "user",
		}
	}

	var contents []*genai.Content
	for _, msg := range req.Messages {
		if content := messageToContent(msg); content != nil {
			contents = append(contents, content)
		}
	}
	return contents, systemInstruction
}

func messageToContent(msg model.Message) *genai.Content {
	var parts []*genai.Part

	if msg.Text != "" {
		parts = append(parts, &genai.Part{Text: msg.Text})
	}

	for _, tc := range msg.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Args,
			},
		})
	}

	for _, tr := range msg.ToolResults {
		parts = append(parts, &genai.Part{
			FunctionResponse: &genai.FunctionResponse{
				ID:       tr.CallID,
				Name:     tr.Name,
				Response: map[string]any{"result": tr.Content},
			},
		})
	}

	if len(parts) == 0 {
		return nil
	}

	role := "user"
	if msg.Role == model.RoleModel {
		role = "model"
	}

	return &genai.Content{Parts: parts, Role: role}
}

// buildConfig creates the generation config, falling back to the model
// defaults where the request is silent.
func (m *geminiModel) buildConfig(req *model.Request, systemInstruction *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
	}

	if req.Temperature != nil {
		config.Temperature = genai.Ptr(float32(*req.Temperature))
	} else if m.config.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(m.config.Temperature))
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	} else if m.config.MaxTokens > 0 {
		config.MaxOutputTokens = int32(m.config.MaxTokens)
	}

	if req.ResponseMIMEType != "" {
		config.ResponseMIMEType = req.ResponseMIMEType
	}

	if len(req.Tools) > 0 {
		config.Tools = buildTools(req.Tools)
	}

	return config
}

func buildTools(tools []model.ToolDefinition) []*genai.Tool {
	var genaiTools []*genai.Tool
	for _, t := range tools {
		genaiTools = append(genaiTools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  toGenaiSchema(t.Parameters),
				},
			},
		})
	}
	return genaiTools
}

// toGenaiSchema converts a JSON schema object to a genai schema.
func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	s := &genai.Schema{}

	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schema["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(propMap)
			}
		}
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, e := range enum {
			if es, ok := e.(string); ok {
				s.Enum = append(s.Enum, es)
			}
		}
	}

	return s
}

// parseResponse converts a genai response to a model response.
func parseResponse(genResp *genai.GenerateContentResponse) (*model.Response, error) {
	if len(genResp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	candidate := genResp.Candidates[0]
	resp := &model.Response{
		FinishReason: string(candidate.FinishReason),
	}

	if candidate.Content != nil {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
			if part.FunctionCall != nil {
				resp.ToolCalls = append(resp.ToolCalls, model.ToolCall{
					ID:   part.FunctionCall.ID,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
			}
		}
		resp.Text = text.String()
	}

	if genResp.UsageMetadata != nil {
		resp.Usage = &model.Usage{
			PromptTokens:     int(genResp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(genResp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(genResp.UsageMetadata.TotalTokenCount),
		}
	}

	return resp, nil
}

var _ model.LLM = (*geminiModel)(nil)
