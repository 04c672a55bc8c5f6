package domain

// ToolDefinition describes a tool advertised to MCP clients.
// The definition set is built once at startup and never mutated.
type ToolDefinition struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	InputSchema JSONSchema `json:"inputSchema"`
}

// ToolRequest represents an MCP tool call request.
// Arguments arrive untyped; each handler validates and defaults its own.
type ToolRequest struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// ToolResponse is the uniform envelope returned for every tool call,
// success or failure, so callers need a single decoding path.
type ToolResponse struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a piece of content in the response.
type ContentBlock struct {
	Type string `json:"type"` // currently always "text"
	Text string `json:"text,omitempty"`
}

// JSONSchema describes the expected structure of tool arguments.
// Property entries may carry "type", "description", "default", "enum",
// and "items" keys; the schema is advertised metadata and is compiled
// for validity at router construction, but argument enforcement stays
// inside each handler.
type JSONSchema struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Required   []string               `json:"required,omitempty"`
}
