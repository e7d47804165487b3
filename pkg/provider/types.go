package provider

import (
	"encoding/json"
)

// Request is the backend-facing completion request.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// Message is one entry of the conversation sent upstream.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResult is a non-streaming upstream result. Two shapes are
// known: the OpenAI-compatible one with choices[].message.content and the
// agent one with a top-level messages[] list. Either, both or neither may
// be populated.
//
// Decoding is lenient. A field whose JSON type is unexpected is treated as
// absent instead of failing the whole result.
type CompletionResult struct {
	Model    string
	Choices  []Choice
	Messages []ResultMessage

	// Raw is the undecoded body, kept for diagnostics.
	Raw json.RawMessage
}

// Choice is one OpenAI-compatible completion choice.
type Choice struct {
	Index        int
	Message      ResultMessage
	FinishReason string
}

// ResultMessage is a role/content pair inside a result.
type ResultMessage struct {
	Role    string
	Content string

	// IsObject is false when the entry was not a JSON object at all.
	IsObject bool
}

// Chunk is one decoded streaming chunk.
type Chunk struct {
	Model   string
	Choices []ChunkChoice

	// Raw is the undecoded chunk payload.
	Raw json.RawMessage
}

// ChunkChoice is the delta carried by one streaming choice.
type ChunkChoice struct {
	Index        int
	Delta        ResultMessage
	FinishReason string
}

// StreamEvent is what a provider stream channel yields: either a chunk or
// a terminal error. The channel closing without an error means the stream
// completed.
type StreamEvent struct {
	Chunk *Chunk
	Err   error
}

// UnmarshalJSON decodes a completion result without rejecting unexpected
// field types. It fails only when data is neither a JSON object nor null.
func (r *CompletionResult) UnmarshalJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}

	*r = CompletionResult{Raw: append(json.RawMessage(nil), data...)}
	r.Model = lenientString(top["model"])

	for i, raw := range lenientArray(top["choices"]) {
		fields := lenientObject(raw)
		r.Choices = append(r.Choices, Choice{
			Index:        lenientIndex(fields["index"], i),
			Message:      decodeMessage(fields["message"]),
			FinishReason: lenientString(fields["finish_reason"]),
		})
	}

	for _, raw := range lenientArray(top["messages"]) {
		r.Messages = append(r.Messages, decodeMessage(raw))
	}

	return nil
}

// UnmarshalJSON decodes a streaming chunk with the same leniency as
// CompletionResult.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return err
	}

	*c = Chunk{Raw: append(json.RawMessage(nil), data...)}
	c.Model = lenientString(top["model"])

	for i, raw := range lenientArray(top["choices"]) {
		fields := lenientObject(raw)
		c.Choices = append(c.Choices, ChunkChoice{
			Index:        lenientIndex(fields["index"], i),
			Delta:        decodeMessage(fields["delta"]),
			FinishReason: lenientString(fields["finish_reason"]),
		})
	}

	return nil
}

func decodeMessage(raw json.RawMessage) ResultMessage {
	fields := lenientObject(raw)
	if fields == nil {
		return ResultMessage{}
	}
	return ResultMessage{
		Role:     lenientString(fields["role"]),
		Content:  lenientString(fields["content"]),
		IsObject: true,
	}
}

func lenientObject(raw json.RawMessage) map[string]json.RawMessage {
	var m map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return nil
	}
	return m
}

func lenientArray(raw json.RawMessage) []json.RawMessage {
	var a []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &a) != nil {
		return nil
	}
	return a
}

func lenientString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func lenientIndex(raw json.RawMessage, fallback int) int {
	var n int
	if len(raw) == 0 || json.Unmarshal(raw, &n) != nil {
		return fallback
	}
	return n
}
