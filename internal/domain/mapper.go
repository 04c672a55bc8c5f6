package domain

// ResponseMapper converts remote API responses and failures into the
// uniform tool response envelope.
type ResponseMapper interface {
	// MapToToolResponse wraps a successful API response in a success
	// envelope. The apiResponse is either a raw JSON body or a
	// marshalable value; either way the envelope carries its
	// pretty-printed JSON form.
	MapToToolResponse(apiResponse interface{}) (*ToolResponse, error)

	// MapErrorToToolResponse wraps any tool execution failure in a
	// failure envelope. Remote HTTP failures keep their status code and
	// response body; local validation failures keep their message.
	MapErrorToToolResponse(err error) *ToolResponse
}
