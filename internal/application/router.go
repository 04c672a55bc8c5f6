package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"jira-notion-mcp-server/internal/domain"
)

// RequestRouter dispatches MCP tool requests to the appropriate
// ToolHandler. The registry is a flat map from exact tool name to the
// handler that serves it, built once at construction from each
// handler's ListTools(). Construction fails on duplicate tool names and
// on advertised input schemas that do not compile as JSON Schema.
type RequestRouter struct {
	handlers map[string]domain.ToolHandler
	tools    []domain.ToolDefinition
	mapper   domain.ResponseMapper
}

// NewRequestRouter creates a new RequestRouter with the provided
// handlers. Tool order in ListAllTools follows handler registration
// order, then each handler's own ListTools order.
func NewRequestRouter(mapper domain.ResponseMapper, handlers ...domain.ToolHandler) (*RequestRouter, error) {
	router := &RequestRouter{
		handlers: make(map[string]domain.ToolHandler),
		mapper:   mapper,
	}

	for _, handler := range handlers {
		for _, tool := range handler.ListTools() {
			if existing, exists := router.handlers[tool.Name]; exists {
				return nil, fmt.Errorf("duplicate tool name %q registered by both %s and %s",
					tool.Name, existing.GroupName(), handler.GroupName())
			}
			if err := compileToolSchema(tool); err != nil {
				return nil, fmt.Errorf("invalid input schema for tool %q (%s): %w",
					tool.Name, handler.GroupName(), err)
			}
			router.handlers[tool.Name] = handler
			router.tools = append(router.tools, tool)
		}
	}

	return router, nil
}

// compileToolSchema checks that a tool's advertised input schema is
// valid JSON Schema. Argument enforcement stays inside the handlers;
// this catches malformed definitions at startup instead of at the
// first client that tries to validate against them.
func compileToolSchema(tool domain.ToolDefinition) error {
	data, err := json.Marshal(tool.InputSchema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	if _, err := jsonschema.CompileString(tool.Name+".schema.json", string(data)); err != nil {
		return fmt.Errorf("schema does not compile: %w", err)
	}

	return nil
}

// Route dispatches a tool request to the handler registered for its
// exact name. It always returns a well-formed tool response: unknown
// tools and handler failures become failure envelopes, never Go errors,
// so that tool-level problems stay out of the JSON-RPC error channel.
func (r *RequestRouter) Route(ctx context.Context, req *domain.ToolRequest) *domain.ToolResponse {
	handler, exists := r.handlers[req.Name]
	if !exists {
		return r.mapper.MapErrorToToolResponse(&domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown tool: %s", req.Name),
		})
	}

	resp, err := handler.Handle(ctx, req)
	if err != nil {
		return r.mapper.MapErrorToToolResponse(err)
	}

	return resp
}

// ListAllTools returns the aggregated tool definitions from all
// registered handlers. This backs MCP tool discovery (tools/list).
func (r *RequestRouter) ListAllTools() []domain.ToolDefinition {
	return r.tools
}

// GetHandler returns the handler registered for a tool name.
// This is useful for testing and debugging.
func (r *RequestRouter) GetHandler(toolName string) (domain.ToolHandler, bool) {
	handler, exists := r.handlers[toolName]
	return handler, exists
}
