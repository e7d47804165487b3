package openaicompat

// Chat Completions request types. Responses are decoded straight into the
// lenient provider.CompletionResult and provider.Chunk types instead, since
// the backends in use do not agree on a single response schema.

// ChatCompletionRequest is the request body for the chat completions endpoint.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

// ChatMessage represents a message in the Chat Completions format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatErrorResponse is the error format returned by Chat Completions backends.
type ChatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// DatabricksErrorResponse is the flat error format used by model serving
// endpoints (e.g., {"error_code":"BAD_REQUEST","message":"..."}).
type DatabricksErrorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}
