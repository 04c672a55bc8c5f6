package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultResponseMapper is the default implementation of ResponseMapper.
type DefaultResponseMapper struct{}

// NewResponseMapper creates a new instance of DefaultResponseMapper.
func NewResponseMapper() ResponseMapper {
	return &DefaultResponseMapper{}
}

// MapToToolResponse wraps a successful API response in a success envelope.
// Raw JSON bodies are re-indented without decoding so the remote payload
// passes through verbatim; any other value is marshaled as-is.
func (m *DefaultResponseMapper) MapToToolResponse(apiResponse interface{}) (*ToolResponse, error) {
	if apiResponse == nil {
		return &ToolResponse{
			Content: []ContentBlock{{Type: "text", Text: "{}"}},
		}, nil
	}

	var text string
	switch v := apiResponse.(type) {
	case json.RawMessage:
		var buf bytes.Buffer
		if err := json.Indent(&buf, v, "", "  "); err != nil {
			return nil, fmt.Errorf("failed to format API response: %w", err)
		}
		text = buf.String()
	case string:
		text = v
	default:
		jsonBytes, err := json.MarshalIndent(apiResponse, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal API response: %w", err)
		}
		text = string(jsonBytes)
	}

	return &ToolResponse{
		Content: []ContentBlock{{Type: "text", Text: text}},
	}, nil
}

// MapErrorToToolResponse wraps a tool execution failure in a failure
// envelope. The envelope is the only error surface for tool calls; the
// error itself never crosses the dispatch boundary.
func (m *DefaultResponseMapper) MapErrorToToolResponse(err error) *ToolResponse {
	if err == nil {
		return &ToolResponse{
			Content: []ContentBlock{{Type: "text", Text: "Error: unknown failure"}},
			IsError: true,
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		text := fmt.Sprintf("Error: %s\nStatus: %d", httpErr.Message, httpErr.StatusCode)
		if httpErr.Body != "" {
			text += "\nDetails: " + httpErr.Body
		}
		return &ToolResponse{
			Content: []ContentBlock{{Type: "text", Text: text}},
			IsError: true,
		}
	}

	return &ToolResponse{
		Content: []ContentBlock{{Type: "text", Text: "Error: " + err.Error()}},
		IsError: true,
	}
}

// HTTPError represents a remote API failure with status code and
// response body. Clients construct one for every non-success status and
// propagate it unchanged; no retries, no masking of the remote detail.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface for HTTPError.
func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Message, e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(statusCode int, message string, body string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Body:       body,
	}
}
