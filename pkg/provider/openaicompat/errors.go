package openaicompat

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rhuss/omotenashi/pkg/api"
)

// MapHTTPError converts an HTTP response with a non-2xx status code into
// an upstream APIError carrying the status as its code. It attempts to
// parse the body for a descriptive message.
func MapHTTPError(resp *http.Response) *api.APIError {
	message := ExtractErrorMessage(resp.Body)

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		if message == "" {
			message = "invalid request to backend"
		}

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if message == "" {
			message = "backend authentication failed"
		}

	case resp.StatusCode == http.StatusNotFound:
		if message == "" {
			message = "serving endpoint not found"
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		if message == "" {
			message = "backend rate limit exceeded"
		}

	case resp.StatusCode >= http.StatusInternalServerError:
		if message == "" {
			message = fmt.Sprintf("backend server error (HTTP %d)", resp.StatusCode)
		}

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected backend error (HTTP %d)", resp.StatusCode)
		}
	}

	return api.NewUpstreamStatusError(resp.StatusCode, message)
}

// MapNetworkError converts a network-level error (connection refused, timeout,
// DNS resolution failure) into an APIError with a descriptive message.
func MapNetworkError(err error) *api.APIError {
	return api.NewUpstreamError(fmt.Sprintf("backend connection error: %s", err.Error()))
}

// ExtractErrorMessage tries to parse the response body as a ChatErrorResponse
// or a DatabricksErrorResponse and returns the error message if found.
func ExtractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var errResp ChatErrorResponse
	if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}

	var dbResp DatabricksErrorResponse
	if err := json.Unmarshal(data, &dbResp); err == nil && dbResp.Message != "" {
		if dbResp.ErrorCode != "" {
			return dbResp.ErrorCode + ": " + dbResp.Message
		}
		return dbResp.Message
	}

	return ""
}
