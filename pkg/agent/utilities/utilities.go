// Package utilities builds the haiku utilities agent, which applies
// text transformations to haikus via function tools.
package utilities

import (
	"context"

	"github.com/haikumesh/haikumesh/pkg/a2a"
	"github.com/haikumesh/haikumesh/pkg/agent"
	"github.com/haikumesh/haikumesh/pkg/model"
	"github.com/haikumesh/haikumesh/pkg/tool"
	"github.com/haikumesh/haikumesh/pkg/transform"
)

// AgentName is the name published on the utilities agent's card.
const AgentName = "haiku_utilities_agent"

const instruction = `You are a haiku utilities agent.
You can perform a variety of text transformations on haikus, including:
- Louder: Convert the entire haiku to uppercase.
- Quieter: Convert the entire haiku to lowercase.
- Spooky Case: Alternate the case of all letters in the haiku.
- Make Choppy: Add a period after each word in the haiku.

You will be given a command and a haiku, and you must perform the requested transformation.`

// New builds the utilities agent on the given model.
func New(llm model.LLM) (*agent.Agent, error) {
	return agent.New(agent.Config{
		Name:        AgentName,
		Description: "Performs text transformations on haikus.",
		Instruction: instruction,
		Model:       llm,
		Toolsets:    []tool.Toolset{Toolset()},
		Skills: []a2a.AgentSkill{
			{
				ID:          "transform_haiku",
				Name:        "Transform haiku",
				Description: "Applies louder, quieter, spooky case, or choppy transformations to a haiku.",
				Tags:        []string{"haiku", "text"},
			},
		},
	})
}

// Toolset returns the transformation tools backing the agent.
func Toolset() *tool.StaticToolset {
	return tool.NewStaticToolset("haiku_utilities",
		transformTool("louder_haiku", "Converts the entire text block to uppercase.", transform.Louder),
		transformTool("quieter_haiku", "Converts the entire text block to lowercase.", transform.Quieter),
		transformTool("spooky_case", "Alternates the case of all letters in the text, preserving newlines.", transform.SpookyCase),
		transformTool("make_choppy", "Adds a period after each word in the text, preserving newlines.", transform.MakeChoppy),
	)
}

func transformTool(name, description string, fn func(string) string) tool.Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "The haiku text to transform.",
			},
		},
		"required": []string{"text"},
	}
	return tool.NewFunc(name, description, schema, func(_ context.Context, args map[string]any) (string, error) {
		text, err := tool.StringArg(args, "text")
		if err != nil {
			return "", err
		}
		return fn(text), nil
	})
}
