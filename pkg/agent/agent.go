// Package agent implements an LLM-driven agent with tool calling.
//
// An agent owns a model, an instruction, and a set of toolsets. Execute
// runs a bounded generate/act loop: the model is called with the
// conversation so far, any tool calls it emits are executed, and their
// results are fed back until the model produces a plain text answer or
// the iteration budget runs out.
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/haikumesh/haikumesh/pkg/a2a"
	"github.com/haikumesh/haikumesh/pkg/logger"
	"github.com/haikumesh/haikumesh/pkg/model"
	"github.com/haikumesh/haikumesh/pkg/tool"
)

// DefaultMaxIterations bounds the tool-call loop when the config does
// not set its own limit.
const DefaultMaxIterations = 8

// Config describes an agent.
type Config struct {
	// Name identifies the agent on its card and in logs.
	Name string

	// Description is published on the agent card.
	Description string

	// Version is published on the agent card.
	Version string

	// Instruction is the system prompt given to the model.
	Instruction string

	// Model generates responses. Required.
	Model model.LLM

	// Toolsets provide the tools the model may call.
	Toolsets []tool.Toolset

	// MaxIterations bounds the tool-call loop. Zero means
	// DefaultMaxIterations.
	MaxIterations int

	// ResponseMIMEType constrains the model output format, e.g.
	// "application/json" for agents that must answer with JSON.
	ResponseMIMEType string

	// Skills are advertised on the agent card.
	Skills []a2a.AgentSkill
}

// Agent executes prompts against an LLM with optional tool access.
type Agent struct {
	cfg    Config
	card   *a2a.AgentCard
	logger *slog.Logger
}

// New validates the config and builds an agent.
func New(cfg Config) (*Agent, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if cfg.Model == nil {
		return nil, fmt.Errorf("agent %q requires a model", cfg.Name)
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	version := cfg.Version
	if version == "" {
		version = "1.0.0"
	}
	return &Agent{
		cfg: cfg,
		card: &a2a.AgentCard{
			Name:               cfg.Name,
			Description:        cfg.Description,
			Version:            version,
			DefaultInputModes:  []string{"text"},
			DefaultOutputModes: []string{"text"},
			Skills:             cfg.Skills,
		},
		logger: logger.GetLogger().With("agent", cfg.Name),
	}, nil
}

// Card returns the agent's card. The URL field is filled in by the
// serving layer, which knows the address the agent is reachable at.
func (a *Agent) Card() *a2a.AgentCard {
	return a.card
}

// Execute runs the generate/act loop for a single user input and
// returns the model's final text answer.
func (a *Agent) Execute(ctx context.Context, input string) (string, error) {
	tools, defs, err := a.collectTools(ctx)
	if err != nil {
		return "", err
	}

	messages := []model.Message{model.UserMessage(input)}

	for iteration := 0; iteration < a.cfg.MaxIterations; iteration++ {
		resp, err := a.cfg.Model.Generate(ctx, &model.Request{
			SystemInstruction: a.cfg.Instruction,
			Messages:          messages,
			Tools:             defs,
			ResponseMIMEType:  a.cfg.ResponseMIMEType,
		})
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		messages = append(messages, model.Message{
			Role:      model.RoleModel,
			Text:      resp.Text,
			ToolCalls: resp.ToolCalls,
		})

		results := make([]model.ToolResult, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			results = append(results, a.executeTool(ctx, tools, call))
		}
		messages = append(messages, model.Message{
			Role:        model.RoleTool,
			ToolResults: results,
		})
	}

	return "", fmt.Errorf("agent %q exceeded %d tool iterations without a final answer", a.cfg.Name, a.cfg.MaxIterations)
}

// collectTools gathers tools from all toolsets, keyed by name, along
// with their definitions for the model request.
func (a *Agent) collectTools(ctx context.Context) (map[string]tool.Tool, []model.ToolDefinition, error) {
	tools := make(map[string]tool.Tool)
	var defs []model.ToolDefinition
	for _, ts := range a.cfg.Toolsets {
		list, err := ts.Tools(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load tools from %q: %w", ts.Name(), err)
		}
		for _, t := range list {
			if _, exists := tools[t.Name()]; exists {
				return nil, nil, fmt.Errorf("duplicate tool name %q", t.Name())
			}
			tools[t.Name()] = t
			defs = append(defs, model.ToolDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Schema(),
			})
		}
	}
	return tools, defs, nil
}

// executeTool runs a single tool call. Failures are reported back to
// the model as results rather than aborting the loop, so the model can
// recover or explain the problem.
func (a *Agent) executeTool(ctx context.Context, tools map[string]tool.Tool, call model.ToolCall) model.ToolResult {
	t, ok := tools[call.Name]
	if !ok {
		a.logger.Warn("Model requested unknown tool", "tool", call.Name)
		return model.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("Error: unknown tool %q", call.Name),
		}
	}
	a.logger.Debug("Executing tool", "tool", call.Name)
	out, err := t.Call(ctx, call.Args)
	if err != nil {
		a.logger.Warn("Tool execution failed", "tool", call.Name, "error", err)
		return model.ToolResult{
			CallID:  call.ID,
			Name:    call.Name,
			Content: fmt.Sprintf("Error: %v", err),
		}
	}
	return model.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: out,
	}
}
