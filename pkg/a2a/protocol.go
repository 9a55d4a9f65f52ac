// Package a2a implements the Agent-to-Agent (A2A) Protocol over
// JSON-RPC 2.0: https://a2a-protocol.org/latest/specification/
// It covers agent card discovery, message/send, and the defensive
// unwrapping of agent responses into a normalized result.
package a2a

import (
	"context"
	"encoding/json"
	"fmt"
)

// ============================================================================
// PROTOCOL CONSTANTS
// ============================================================================

const (
	// JSONRPCVersion is the JSON-RPC protocol version used on the wire.
	JSONRPCVersion = "2.0"

	// AgentCardPath is the well-known discovery path for public agent cards.
	AgentCardPath = "/.well-known/agent-card.json"

	// ExtendedCardPath serves the authenticated extended card.
	ExtendedCardPath = "/agent/authenticatedExtendedCard"

	// MethodMessageSend is the RPC method for sending a message to an agent.
	MethodMessageSend = "message/send"
)

// ============================================================================
// CORE AGENT INTERFACE
// ============================================================================

// Agent is anything the server can expose over A2A: it advertises a card
// and turns an input text into an output text.
type Agent interface {
	// Card returns the agent's capability card for discovery.
	Card() *AgentCard

	// Execute processes a single user message and returns the response text.
	Execute(ctx context.Context, input string) (string, error)
}

// ============================================================================
// AGENT CARD - Discovery & Capability Advertisement
// ============================================================================

// AgentCard describes an agent's identity and capabilities.
type AgentCard struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Version     string `json:"version"`

	Capabilities AgentCapabilities `json:"capabilities"`

	DefaultInputModes  []string `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string `json:"defaultOutputModes,omitempty"`

	Skills []AgentSkill `json:"skills,omitempty"`

	// SupportsAuthenticatedExtendedCard signals that a richer card is
	// available behind the authenticated extended card endpoint.
	SupportsAuthenticatedExtendedCard bool `json:"supportsAuthenticatedExtendedCard,omitempty"`
}

// AgentCapabilities describes optional protocol features.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming"`
	PushNotifications      bool `json:"pushNotifications"`
	StateTransitionHistory bool `json:"stateTransitionHistory"`
}

// AgentSkill describes one capability the agent advertises.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// ============================================================================
// MESSAGE & PART
// ============================================================================

// Message is a single conversation turn.
type Message struct {
	Role      MessageRole `json:"role"`
	Parts     []Part      `json:"parts"`
	MessageID string      `json:"messageId,omitempty"`
	Kind      string      `json:"kind,omitempty"`
}

// MessageRole identifies the sender of a message.
type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleAgent MessageRole = "agent"
)

// Part is one piece of message or artifact content (union type).
type Part struct {
	Type PartType `json:"type"`
	Text string   `json:"text,omitempty"`

	Data     any    `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// PartType discriminates the Part union.
type PartType string

const (
	PartTypeText PartType = "text"
	PartTypeData PartType = "data"
)

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// ============================================================================
// TASK - Unit of Work
// ============================================================================

// ResultKind discriminates the message/send result union.
const (
	KindTask    = "task"
	KindMessage = "message"
)

// Task is the unit of work an agent returns for a message.
type Task struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId,omitempty"`
	Kind      string     `json:"kind"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts,omitempty"`
	History   []Message  `json:"history,omitempty"`
}

// TaskStatus carries the task state and an optional status message.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// TaskState enumerates the task lifecycle.
type TaskState string

const (
	TaskStateSubmitted TaskState = "submitted"
	TaskStateWorking   TaskState = "working"
	TaskStateCompleted TaskState = "completed"
	TaskStateFailed    TaskState = "failed"
	TaskStateCanceled  TaskState = "canceled"
)

// Artifact is an output produced by a task.
type Artifact struct {
	ArtifactID  string `json:"artifactId"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Parts       []Part `json:"parts"`
}

// ============================================================================
// JSON-RPC ENVELOPES
// ============================================================================

// SendMessageRequest is the JSON-RPC request envelope for message/send.
type SendMessageRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	Params  MessageSendParams `json:"params"`
}

// MessageSendParams carries the message and its execution configuration.
type MessageSendParams struct {
	Message       Message            `json:"message"`
	Configuration *SendConfiguration `json:"configuration,omitempty"`
}

// SendConfiguration constrains how the remote agent answers.
type SendConfiguration struct {
	AcceptedOutputModes []string `json:"accepted_output_modes,omitempty"`
	HistoryLength       int      `json:"history_length"`
}

// SendMessageResponse is the JSON-RPC response envelope. Exactly one of
// Result and Error is set on a well-formed response; malformed peers may
// violate that, so consumers must not assume it.
type SendMessageResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Result  *SendResult   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError is a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// ============================================================================
// RESULT UNION
// ============================================================================

// SendResult is the message/send result union, discriminated by "kind".
// Task is populated only when the payload declares itself a task; Raw
// always preserves the original bytes for diagnostics.
type SendResult struct {
	Kind string
	Task *Task
	Raw  json.RawMessage
}

// UnmarshalJSON decodes the union. An unknown or missing kind is not an
// error here: the caller decides how to treat a non-task result.
func (r *SendResult) UnmarshalJSON(data []byte) error {
	r.Raw = append(json.RawMessage(nil), data...)

	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	r.Kind = probe.Kind

	if probe.Kind == KindTask {
		var task Task
		if err := json.Unmarshal(data, &task); err != nil {
			return fmt.Errorf("failed to decode task: %w", err)
		}
		r.Task = &task
	}
	return nil
}

// MarshalJSON writes the task when present, otherwise the preserved raw
// payload. An empty result marshals as null.
func (r SendResult) MarshalJSON() ([]byte, error) {
	if r.Task != nil {
		return json.Marshal(r.Task)
	}
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return []byte("null"), nil
}
