package openaicompat

import (
	"github.com/rhuss/omotenashi/pkg/provider"
)

// TranslateToChat converts a provider.Request into a ChatCompletionRequest.
func TranslateToChat(req *provider.Request) ChatCompletionRequest {
	cr := ChatCompletionRequest{
		Model:       req.Model,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	}

	for _, m := range req.Messages {
		cr.Messages = append(cr.Messages, ChatMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	return cr
}
