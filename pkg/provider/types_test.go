package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionResultChoices(t *testing.T) {
	body := `{"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"こんにちは"},"finish_reason":"stop"}]}`

	var res CompletionResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))

	assert.Equal(t, "m", res.Model)
	require.Len(t, res.Choices, 1)
	assert.Equal(t, "こんにちは", res.Choices[0].Message.Content)
	assert.Equal(t, "stop", res.Choices[0].FinishReason)
	assert.Equal(t, body, string(res.Raw), "Raw should hold the original body")
}

func TestCompletionResultMessages(t *testing.T) {
	body := `{"messages":[{"role":"user","content":"q"},"not an object",42,{"role":"assistant","content":"a"}]}`

	var res CompletionResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	require.Len(t, res.Messages, 4)

	wantObject := []bool{true, false, false, true}
	for i, want := range wantObject {
		assert.Equal(t, want, res.Messages[i].IsObject, "Messages[%d].IsObject", i)
	}
	assert.Equal(t, "assistant", res.Messages[3].Role)
	assert.Equal(t, "a", res.Messages[3].Content)
}

func TestCompletionResultLenient(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"choices is a string", `{"choices":"oops"}`},
		{"content is a list", `{"choices":[{"message":{"role":"assistant","content":[{"type":"text"}]}}]}`},
		{"message is null", `{"choices":[{"message":null}]}`},
		{"messages is an object", `{"messages":{"role":"assistant"}}`},
		{"null document", `null`},
		{"empty object", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res CompletionResult
			require.NoError(t, json.Unmarshal([]byte(tt.body), &res), "Unmarshal should be lenient")
			for _, c := range res.Choices {
				assert.Empty(t, c.Message.Content)
			}
		})
	}
}

func TestCompletionResultRejectsNonObject(t *testing.T) {
	var res CompletionResult
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &res), "expected error for array document")
}

func TestChunkDelta(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		choices int
	}{
		{"content", `{"choices":[{"index":0,"delta":{"content":"こん"}}]}`, "こん", 1},
		{"role only", `{"choices":[{"index":0,"delta":{"role":"assistant"}}]}`, "", 1},
		{"null content", `{"choices":[{"delta":{"content":null},"finish_reason":"stop"}]}`, "", 1},
		{"usage only", `{"choices":[],"usage":{"total_tokens":3}}`, "", 0},
		{"content is a list", `{"choices":[{"delta":{"content":[{"type":"text","text":"x"}]}}]}`, "", 1},
		{"delta is a string", `{"choices":[{"delta":"oops"}]}`, "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Chunk
			require.NoError(t, json.Unmarshal([]byte(tt.body), &c))
			require.Len(t, c.Choices, tt.choices)
			if tt.choices > 0 {
				assert.Equal(t, tt.want, c.Choices[0].Delta.Content)
			}
		})
	}
}
