package application

import (
	"context"
	"fmt"
	"strings"

	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

// NotionBlockHandler implements ToolHandler for Notion block
// operations, including the rich-content builder that turns plain text
// into typed blocks.
type NotionBlockHandler struct {
	client *infrastructure.NotionClient
	mapper domain.ResponseMapper
}

// NewNotionBlockHandler creates a new NotionBlockHandler instance.
func NewNotionBlockHandler(client *infrastructure.NotionClient, mapper domain.ResponseMapper) *NotionBlockHandler {
	return &NotionBlockHandler{
		client: client,
		mapper: mapper,
	}
}

// Tool name constants for Notion block operations
const (
	ToolNotionGetBlock          = "get_block"
	ToolNotionGetBlockChildren  = "get_block_children"
	ToolNotionAppendBlocks      = "append_blocks"
	ToolNotionAppendRichContent = "append_rich_content"
	ToolNotionUpdateBlock       = "update_block"
	ToolNotionDeleteBlock       = "delete_block"
)

// GroupName returns the identifier for this handler group.
func (h *NotionBlockHandler) GroupName() string {
	return "notion-blocks"
}

// blockIDSchema is the shared blockId property definition.
func blockIDSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "The block ID (a page ID also works for child listing and appends)",
	}
}

// ListTools returns available tools for Notion block operations.
func (h *NotionBlockHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolNotionGetBlock,
			Description: "Retrieve a Notion block by ID",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"blockId": blockIDSchema(),
				},
				Required: []string{"blockId"},
			},
		},
		{
			Name:        ToolNotionGetBlockChildren,
			Description: "List the direct children of a Notion block or page",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"blockId": blockIDSchema(),
					"startCursor": map[string]interface{}{
						"type":        "string",
						"description": "Pagination cursor from a previous response (optional)",
					},
					"pageSize": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of blocks to return",
						"default":     100,
					},
				},
				Required: []string{"blockId"},
			},
		},
		{
			Name:        ToolNotionAppendBlocks,
			Description: "Append raw block objects as children of a Notion block or page",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"blockId": blockIDSchema(),
					"children": map[string]interface{}{
						"type":        "array",
						"description": "Block objects in Notion API form, passed through verbatim",
					},
				},
				Required: []string{"blockId", "children"},
			},
		},
		{
			Name:        ToolNotionAppendRichContent,
			Description: "Append a typed content block built from plain text (paragraph, headings, list items, to_do, code, quote, callout)",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"blockId": blockIDSchema(),
					"contentType": map[string]interface{}{
						"type":        "string",
						"description": "The block type to build",
						"enum":        domain.BlockContentTypes,
					},
					"text": map[string]interface{}{
						"type":        "string",
						"description": "The plain text content",
					},
					"checked": map[string]interface{}{
						"type":        "boolean",
						"description": "Checked state for to_do blocks (optional)",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Language for code blocks (optional, defaults to plain text)",
					},
					"icon": map[string]interface{}{
						"type":        "string",
						"description": "Emoji icon for callout blocks (optional)",
					},
				},
				Required: []string{"blockId", "contentType", "text"},
			},
		},
		{
			Name:        ToolNotionUpdateBlock,
			Description: "Replace the text of a Notion block, keeping its type",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"blockId": blockIDSchema(),
					"blockType": map[string]interface{}{
						"type":        "string",
						"description": "The block's current type",
						"enum":        domain.BlockContentTypes,
					},
					"text": map[string]interface{}{
						"type":        "string",
						"description": "The new plain text content",
					},
				},
				Required: []string{"blockId", "blockType", "text"},
			},
		},
		{
			Name:        ToolNotionDeleteBlock,
			Description: "Delete (archive) a Notion block",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"blockId": blockIDSchema(),
				},
				Required: []string{"blockId"},
			},
		},
	}
}

// Handle processes an MCP tool call request for Notion block operations.
func (h *NotionBlockHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	if req.Arguments == nil {
		req.Arguments = make(map[string]interface{})
	}

	switch req.Name {
	case ToolNotionGetBlock:
		return h.handleGetBlock(ctx, req.Arguments)
	case ToolNotionGetBlockChildren:
		return h.handleGetBlockChildren(ctx, req.Arguments)
	case ToolNotionAppendBlocks:
		return h.handleAppendBlocks(ctx, req.Arguments)
	case ToolNotionAppendRichContent:
		return h.handleAppendRichContent(ctx, req.Arguments)
	case ToolNotionUpdateBlock:
		return h.handleUpdateBlock(ctx, req.Arguments)
	case ToolNotionDeleteBlock:
		return h.handleDeleteBlock(ctx, req.Arguments)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown Notion block tool: %s", req.Name),
		}
	}
}

// handleGetBlock handles the get_block tool call.
func (h *NotionBlockHandler) handleGetBlock(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	blockID, err := getStringParam(args, "blockId", true)
	if err != nil {
		return nil, err
	}

	block, err := h.client.GetBlock(blockID)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(block)
}

// handleGetBlockChildren handles the get_block_children tool call.
func (h *NotionBlockHandler) handleGetBlockChildren(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	blockID, err := getStringParam(args, "blockId", true)
	if err != nil {
		return nil, err
	}
	startCursor, err := getStringParam(args, "startCursor", false)
	if err != nil {
		return nil, err
	}
	pageSize, err := getIntParam(args, "pageSize", false)
	if err != nil {
		return nil, err
	}

	children, err := h.client.GetBlockChildren(blockID, startCursor, pageSize)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(children)
}

// handleAppendBlocks handles the append_blocks tool call.
func (h *NotionBlockHandler) handleAppendBlocks(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	blockID, err := getStringParam(args, "blockId", true)
	if err != nil {
		return nil, err
	}
	children, err := getSliceParam(args, "children", true)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "children must not be empty",
		}
	}

	result, err := h.client.AppendBlocks(blockID, children)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(result)
}

// handleAppendRichContent handles the append_rich_content tool call.
func (h *NotionBlockHandler) handleAppendRichContent(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	blockID, err := getStringParam(args, "blockId", true)
	if err != nil {
		return nil, err
	}
	contentType, err := getStringParam(args, "contentType", true)
	if err != nil {
		return nil, err
	}
	text, err := getStringParam(args, "text", true)
	if err != nil {
		return nil, err
	}

	options := make(map[string]interface{})
	if checked, exists := args["checked"]; exists {
		options["checked"] = checked
	}
	if language, exists := args["language"]; exists {
		options["language"] = language
	}
	if icon, err := getStringParam(args, "icon", false); err != nil {
		return nil, err
	} else if icon != "" {
		options["icon"] = map[string]interface{}{"type": "emoji", "emoji": icon}
	}

	block, err := domain.BuildBlock(contentType, text, options)
	if err != nil {
		return nil, err
	}

	result, err := h.client.AppendBlocks(blockID, []interface{}{block})
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(result)
}

// handleUpdateBlock handles the update_block tool call.
func (h *NotionBlockHandler) handleUpdateBlock(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	blockID, err := getStringParam(args, "blockId", true)
	if err != nil {
		return nil, err
	}
	blockType, err := getStringParam(args, "blockType", true)
	if err != nil {
		return nil, err
	}
	text, err := getStringParam(args, "text", true)
	if err != nil {
		return nil, err
	}

	supported := false
	for _, t := range domain.BlockContentTypes {
		if t == blockType {
			supported = true
			break
		}
	}
	if !supported {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("unsupported block type: %s (supported: %s)", blockType, strings.Join(domain.BlockContentTypes, ", ")),
		}
	}

	result, err := h.client.UpdateBlock(blockID, map[string]interface{}{
		blockType: map[string]interface{}{
			"rich_text": domain.BuildRichText(text),
		},
	})
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(result)
}

// handleDeleteBlock handles the delete_block tool call.
func (h *NotionBlockHandler) handleDeleteBlock(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	blockID, err := getStringParam(args, "blockId", true)
	if err != nil {
		return nil, err
	}

	result, err := h.client.DeleteBlock(blockID)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(result)
}
