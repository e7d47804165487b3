// Package normalize extracts reply text from the upstream result shapes.
package normalize

import "github.com/rhuss/omotenashi/pkg/provider"

// extractor pulls text out of one known result shape.
type extractor func(*provider.CompletionResult) (string, bool)

// extractors are tried in order; the first hit wins.
var extractors = []extractor{
	fromChoices,
	fromMessages,
}

// Reply returns the reply text of a completion result. It reports false
// when no extractor finds a non-empty string. A nil or partial result is
// a miss, never a panic.
func Reply(res *provider.CompletionResult) (string, bool) {
	if res == nil {
		return "", false
	}
	for _, fn := range extractors {
		if text, ok := fn(res); ok {
			return text, true
		}
	}
	return "", false
}

// fromChoices reads choices[0].message.content.
func fromChoices(res *provider.CompletionResult) (string, bool) {
	if len(res.Choices) == 0 {
		return "", false
	}
	content := res.Choices[0].Message.Content
	return content, content != ""
}

// fromMessages returns the newest assistant message with content.
func fromMessages(res *provider.CompletionResult) (string, bool) {
	for i := len(res.Messages) - 1; i >= 0; i-- {
		m := res.Messages[i]
		if !m.IsObject || m.Role != "assistant" {
			continue
		}
		if m.Content != "" {
			return m.Content, true
		}
	}
	return "", false
}

// Delta returns the text increment carried by a streaming chunk. Wire
// chunks go through the lenient provider.Chunk decoder, which already turns
// every unexpected delta shape into empty content, so the typed field is
// the only place text can be.
func Delta(chunk *provider.Chunk) (string, bool) {
	if chunk == nil || len(chunk.Choices) == 0 {
		return "", false
	}
	content := chunk.Choices[0].Delta.Content
	return content, content != ""
}
