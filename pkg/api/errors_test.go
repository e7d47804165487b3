package api

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorInterface(t *testing.T) {
	var _ error = &APIError{}
}

func TestAPIErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			"with code",
			NewUpstreamStatusError(503, "backend unavailable"),
			"upstream_transport: backend unavailable (code: http_503)",
		},
		{
			"without code",
			&APIError{Type: ErrorTypeServerError, Message: "internal failure"},
			"server_error: internal failure",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		wantType ErrorType
	}{
		{"configuration", NewConfigurationError("no host"), ErrorTypeConfigurationMissing},
		{"upstream", NewUpstreamError("connection refused"), ErrorTypeUpstreamTransport},
		{"upstream status", NewUpstreamStatusError(502, "bad gateway"), ErrorTypeUpstreamTransport},
		{"extraction", NewExtractionError("no content"), ErrorTypeContentExtraction},
		{"invalid request", NewInvalidRequestError("bad json"), ErrorTypeInvalidRequest},
		{"server error", NewServerError("internal failure"), ErrorTypeServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
		})
	}
}

func TestAsAPIError(t *testing.T) {
	assert.Nil(t, AsAPIError(nil))

	wrapped := fmt.Errorf("calling gateway: %w", NewUpstreamError("timeout"))
	assert.Equal(t, ErrorTypeUpstreamTransport, AsAPIError(wrapped).Type)

	plain := AsAPIError(fmt.Errorf("boom"))
	assert.Equal(t, ErrorTypeServerError, plain.Type)
	assert.Equal(t, "boom", plain.Message)
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrEmptyInput)
	assert.True(t, IsType(err, ErrorTypeEmptyInput), "wrapped ErrEmptyInput should match empty_input")
	assert.False(t, IsType(err, ErrorTypeServerError))
	assert.False(t, IsType(fmt.Errorf("plain"), ErrorTypeServerError), "unclassified error should not match any type")
}

func TestAPIErrorOmitEmpty(t *testing.T) {
	data, err := json.Marshal(&APIError{Type: ErrorTypeServerError, Message: "fail"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.NotContains(t, m, "code", "empty code should be omitted from JSON")
}
