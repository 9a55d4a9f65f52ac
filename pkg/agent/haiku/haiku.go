// Package haiku builds the root haiku generator agent. It composes a
// local transformation tool, a validation tool that runs either
// in-process or against a remote validator agent, and the haiku store's
// MCP tools.
package haiku

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haikumesh/haikumesh/pkg/a2a"
	"github.com/haikumesh/haikumesh/pkg/agent"
	"github.com/haikumesh/haikumesh/pkg/agent/validator"
	"github.com/haikumesh/haikumesh/pkg/model"
	"github.com/haikumesh/haikumesh/pkg/tool"
	"github.com/haikumesh/haikumesh/pkg/tool/mcptoolset"
	"github.com/haikumesh/haikumesh/pkg/transform"
)

// AgentName is the name published on the root agent's card.
const AgentName = "haiku_agent"

const instruction = `You are a haiku generator.
Ask the user for a topic or an idea to create a haiku.
Do your best to follow the 5-7-5 syllable structure.
If the user asks you to say or repeat the haiku in a louder voice, use the louder_haiku tool.

If the user asks you to validate the haiku, use the validate_haiku tool.
If the user asks you to save, list, search, or delete haikus, use the haiku store tools.`

// Config describes the root agent's wiring.
type Config struct {
	// Model generates haikus and drives tool selection. Required.
	Model model.LLM

	// RemoteValidation switches haiku validation from the embedded
	// validator to an external agent reached over the wire.
	RemoteValidation bool

	// ValidatorURL is the base URL of the external validator agent.
	// Required when RemoteValidation is set.
	ValidatorURL string

	// Client calls the external validator. A default client is built
	// when nil.
	Client *a2a.Client

	// StoreURL is the haiku store's MCP endpoint. Empty disables the
	// store tools.
	StoreURL string
}

// New builds the root haiku agent.
func New(cfg Config) (*agent.Agent, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("haiku agent requires a model")
	}

	validate, err := validationTool(cfg)
	if err != nil {
		return nil, err
	}

	local := tool.NewStaticToolset("haiku_tools", louderTool(), validate)
	toolsets := []tool.Toolset{local}

	if cfg.StoreURL != "" {
		store, err := mcptoolset.New(mcptoolset.Config{
			Name: "haiku_store",
			URL:  cfg.StoreURL,
			Filter: []string{
				"create_haiku",
				"read_haikus",
				"search_haikus",
				"read_haiku",
				"delete_haiku",
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure haiku store tools: %w", err)
		}
		toolsets = append(toolsets, store)
	}

	return agent.New(agent.Config{
		Name:        AgentName,
		Description: "Generates haikus and can transform, validate, and store them.",
		Instruction: instruction,
		Model:       cfg.Model,
		Toolsets:    toolsets,
		Skills: []a2a.AgentSkill{
			{
				ID:          "generate_haiku",
				Name:        "Generate haiku",
				Description: "Writes a haiku for a given topic in the 5-7-5 structure.",
				Tags:        []string{"haiku", "generation"},
			},
		},
	})
}

func louderTool() tool.Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "The haiku text to repeat in a louder voice.",
			},
		},
		"required": []string{"text"},
	}
	return tool.NewFunc("louder_haiku", "Converts the entire text block to uppercase.", schema,
		func(_ context.Context, args map[string]any) (string, error) {
			text, err := tool.StringArg(args, "text")
			if err != nil {
				return "", err
			}
			return transform.Louder(text), nil
		})
}

// validationTool builds the validate_haiku tool. With remote validation
// the haiku is sent to the external validator agent and its normalized
// result is decoded; otherwise a validator agent runs in-process on the
// same model.
func validationTool(cfg Config) (tool.Tool, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"haiku": map[string]any{
				"type":        "string",
				"description": "The haiku to validate.",
			},
		},
		"required": []string{"haiku"},
	}

	var validate func(ctx context.Context, haiku string) map[string]any

	if cfg.RemoteValidation {
		if cfg.ValidatorURL == "" {
			return nil, fmt.Errorf("remote validation requires a validator URL")
		}
		client := cfg.Client
		if client == nil {
			client = a2a.NewClient(nil)
		}
		validate = func(ctx context.Context, haiku string) map[string]any {
			return remoteValidation(ctx, client, cfg.ValidatorURL, haiku)
		}
	} else {
		embedded, err := validator.New(cfg.Model)
		if err != nil {
			return nil, err
		}
		validate = func(ctx context.Context, haiku string) map[string]any {
			return embeddedValidation(ctx, embedded, haiku)
		}
	}

	return tool.NewFunc("validate_haiku", "Validates a haiku's structure and scores its quality.", schema,
		func(ctx context.Context, args map[string]any) (string, error) {
			haiku, err := tool.StringArg(args, "haiku")
			if err != nil {
				return "", err
			}
			out, err := json.Marshal(validate(ctx, haiku))
			if err != nil {
				return "", fmt.Errorf("failed to encode validation result: %w", err)
			}
			return string(out), nil
		}), nil
}

func remoteValidation(ctx context.Context, client *a2a.Client, url, haiku string) map[string]any {
	result := client.Call(ctx, url, haiku)
	if result.Status != a2a.StatusSuccess {
		out := map[string]any{"status": "error", "message": result.Message}
		if result.RawResponse != "" {
			out["raw_response"] = result.RawResponse
		}
		return out
	}
	verdict, err := validator.ParseVerdict(result.Content)
	if err != nil {
		return map[string]any{
			"status":       "error",
			"message":      "Failed to parse JSON from validator agent's response.",
			"raw_response": result.Content,
		}
	}
	return map[string]any{"status": "success", "validation_result": verdict}
}

func embeddedValidation(ctx context.Context, embedded *agent.Agent, haiku string) map[string]any {
	text, err := embedded.Execute(ctx, haiku)
	if err != nil {
		return map[string]any{"status": "error", "message": fmt.Sprintf("Validator agent failed: %v", err)}
	}
	verdict, err := validator.ParseVerdict(text)
	if err != nil {
		return map[string]any{
			"status":       "error",
			"message":      "Failed to parse JSON from validator agent's response.",
			"raw_response": text,
		}
	}
	return map[string]any{"status": "success", "validation_result": verdict}
}
