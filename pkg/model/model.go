// Package model defines the provider-neutral LLM abstraction used by
// agents: a conversation of typed messages in, text or tool calls out.
package model

import "context"

// LLM is a hosted language model.
type LLM interface {
	// Name returns the model identifier.
	Name() string

	// Generate produces one response for the request.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Close releases resources.
	Close() error
}

// Request is a single generation request.
type Request struct {
	// SystemInstruction steers the model for the whole conversation.
	SystemInstruction string

	// Messages is the conversation so far, oldest first.
	Messages []Message

	// Tools the model may call.
	Tools []ToolDefinition

	// ResponseMIMEType forces an output format, e.g. "application/json".
	ResponseMIMEType string

	// Temperature overrides the model default when non-nil.
	Temperature *float64

	// MaxTokens overrides the model default when positive.
	MaxTokens int
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
	RoleTool  Role = "tool"
)

// Message is one conversation turn. Text and ToolCalls belong to user
// and model turns; ToolResults belong to tool turns.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolDefinition declares a callable tool to the model. Parameters is a
// JSON schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is the model asking for a tool invocation.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of a tool invocation, fed back to the model.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
}

// Response is the model's answer to a Request.
type Response struct {
	// Text is the generated text, empty when the model only calls tools.
	Text string

	// ToolCalls the model wants executed before it can continue.
	ToolCalls []ToolCall

	// Usage is token accounting when the provider reports it.
	Usage *Usage

	// FinishReason is the provider's stop reason.
	FinishReason string
}

// Usage is token accounting for one generation.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// UserMessage builds a user text turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// ModelMessage builds a model turn echoing text and any tool calls.
func ModelMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleModel, Text: text, ToolCalls: calls}
}

// ToolMessage builds a tool turn carrying results.
func ToolMessage(results []ToolResult) Message {
	return Message{Role: RoleTool, ToolResults: results}
}
