package a2a

import "fmt"

// Call statuses for the normalized result.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// CallResult is the normalized outcome of an agent call. Success carries
// Content; error carries Message and, when a response existed but could
// not be interpreted, the raw payload for diagnostics.
type CallResult struct {
	Status      string `json:"status"`
	Content     string `json:"content,omitempty"`
	Message     string `json:"message,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}

// SuccessResult builds a success-status result.
func SuccessResult(content string) *CallResult {
	return &CallResult{Status: StatusSuccess, Content: content}
}

// ErrorResult builds an error-status result.
func ErrorResult(message string) *CallResult {
	return &CallResult{Status: StatusError, Message: message}
}

// Unwrap digs the text content out of a message/send response envelope.
// Peers are assumed hostile to assumptions: every level of the
// envelope-task-artifact-part nesting may be absent, and each absence
// maps to a distinct error message naming the agent.
//
// Only the first part of the first artifact is read. Agents that return
// multiple artifacts or parts lose everything past the first; so far no
// agent in the mesh produces more than one.
func Unwrap(resp *SendMessageResponse, agentName string) *CallResult {
	if resp == nil {
		return ErrorResult(fmt.Sprintf("%s agent returned no response", agentName))
	}

	if resp.Error != nil {
		result := ErrorResult(fmt.Sprintf("%s agent returned an error: %s", agentName, resp.Error.Message))
		if resp.Error.Data != nil {
			result.RawResponse = fmt.Sprintf("%v", resp.Error.Data)
		}
		return result
	}

	if resp.Result == nil || resp.Result.Task == nil {
		result := ErrorResult(fmt.Sprintf("%s agent response did not contain a valid Task object", agentName))
		if resp.Result != nil {
			result.RawResponse = string(resp.Result.Raw)
		}
		return result
	}

	task := resp.Result.Task
	if len(task.Artifacts) == 0 || len(task.Artifacts[0].Parts) == 0 {
		result := ErrorResult(fmt.Sprintf("%s agent response did not contain any artifacts or parts", agentName))
		result.RawResponse = string(resp.Result.Raw)
		return result
	}

	text := task.Artifacts[0].Parts[0].Text
	if text == "" {
		return ErrorResult(fmt.Sprintf("%s agent returned an empty response", agentName))
	}

	return SuccessResult(text)
}
