// Package validator builds the haiku validator agent. The agent judges
// a haiku's structure and literary quality and answers with a JSON
// verdict.
package validator

import (
	"encoding/json"
	"fmt"

	"github.com/haikumesh/haikumesh/pkg/a2a"
	"github.com/haikumesh/haikumesh/pkg/agent"
	"github.com/haikumesh/haikumesh/pkg/extract"
	"github.com/haikumesh/haikumesh/pkg/model"
)

// AgentName is the name published on the validator's card.
const AgentName = "haiku_validator_agent"

const instruction = `You are a haiku validator.
You will be given an input and must determine if it:
1. Has three lines
2. Follows the 5-7-5 syllable structure.

You will also judge the haiku on its literary excellence, and give it a score from 0 to 100, with 100 being the best.
Invalid haikus should receive a score of 0.

Return your response in the following format:
{
    "is_valid": true,
    "score": 85,
    "feedback": "This haiku is well-structured and follows the 5-7-5 syllable pattern."
}`

// Verdict is the structured judgement the validator returns.
type Verdict struct {
	IsValid  bool   `json:"is_valid"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// New builds the validator agent on the given model.
func New(llm model.LLM) (*agent.Agent, error) {
	return agent.New(agent.Config{
		Name:             AgentName,
		Description:      "Validates haiku structure and scores literary quality.",
		Instruction:      instruction,
		Model:            llm,
		ResponseMIMEType: "application/json",
		Skills: []a2a.AgentSkill{
			{
				ID:          "validate_haiku",
				Name:        "Validate haiku",
				Description: "Checks the 5-7-5 structure and scores the haiku from 0 to 100.",
				Tags:        []string{"haiku", "validation"},
			},
		},
	})
}

// ParseVerdict decodes the validator's answer. Models often wrap JSON
// in a markdown fence, so the fence is stripped before decoding.
func ParseVerdict(text string) (*Verdict, error) {
	clean := extract.JSONFromMarkdown(text)
	var v Verdict
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return nil, fmt.Errorf("failed to parse validator verdict: %w", err)
	}
	return &v, nil
}
