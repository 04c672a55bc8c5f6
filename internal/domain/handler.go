package domain

import (
	"context"
)

// ToolHandler processes requests for one group of related tools
// (Jira issues, Jira boards, Notion pages, and so on).
type ToolHandler interface {
	// Handle processes an MCP tool call request.
	// Returns the tool response or an error if processing fails; the
	// router converts any error into a failure envelope.
	Handle(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

	// ListTools returns the tool definitions this handler serves.
	ListTools() []ToolDefinition

	// GroupName returns the identifier for this handler group.
	// Used for logging and registry diagnostics only; dispatch is by
	// exact tool name.
	GroupName() string
}
