package transport

import (
	"encoding/json"
	"net/http"

	"github.com/rhuss/omotenashi/pkg/api"
)

// HTTPStatusFromError maps an APIError type to the corresponding HTTP status
// code. Empty input is not a failure and answers 200.
func HTTPStatusFromError(err *api.APIError) int {
	switch err.Type {
	case api.ErrorTypeConfigurationMissing:
		return http.StatusServiceUnavailable
	case api.ErrorTypeUpstreamTransport, api.ErrorTypeContentExtraction:
		return http.StatusBadGateway
	case api.ErrorTypeEmptyInput:
		return http.StatusOK
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ReplyFromError maps an APIError type to the user-facing reply text.
func ReplyFromError(err *api.APIError) string {
	switch err.Type {
	case api.ErrorTypeConfigurationMissing:
		return api.ReplyNotConfigured
	case api.ErrorTypeContentExtraction:
		return api.ReplyGenerationFailed
	case api.ErrorTypeEmptyInput:
		return api.ReplyEmptyInput
	default:
		return api.ReplyConnectionUnstable
	}
}

// WriteReply writes a JSON reply body with the given status code.
func WriteReply(w http.ResponseWriter, reply *api.ChatReply, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(reply)
}

// WriteAPIError writes the canned reply for an APIError, deriving the HTTP
// status code from the error type.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteReply(w, &api.ChatReply{Reply: ReplyFromError(apiErr)}, HTTPStatusFromError(apiErr))
}
