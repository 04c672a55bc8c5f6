package application

import (
	"context"
	"fmt"

	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

// NotionUserHandler implements ToolHandler for Notion comment and user
// operations.
type NotionUserHandler struct {
	client *infrastructure.NotionClient
	mapper domain.ResponseMapper
}

// NewNotionUserHandler creates a new NotionUserHandler instance.
func NewNotionUserHandler(client *infrastructure.NotionClient, mapper domain.ResponseMapper) *NotionUserHandler {
	return &NotionUserHandler{
		client: client,
		mapper: mapper,
	}
}

// Tool name constants for Notion comment and user operations
const (
	ToolNotionCreateComment = "create_comment"
	ToolNotionGetComments   = "get_comments"
	ToolNotionListUsers     = "list_users"
	ToolNotionGetUser       = "get_user"
	ToolNotionGetSelf       = "get_self"
)

// GroupName returns the identifier for this handler group.
func (h *NotionUserHandler) GroupName() string {
	return "notion-users"
}

// ListTools returns available tools for Notion comment and user operations.
func (h *NotionUserHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolNotionCreateComment,
			Description: "Add a comment to a Notion page",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"pageId": map[string]interface{}{
						"type":        "string",
						"description": "The page ID",
					},
					"text": map[string]interface{}{
						"type":        "string",
						"description": "The comment text (plain text)",
					},
				},
				Required: []string{"pageId", "text"},
			},
		},
		{
			Name:        ToolNotionGetComments,
			Description: "List the unresolved comments on a Notion page or block",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"blockId": map[string]interface{}{
						"type":        "string",
						"description": "The page or block ID",
					},
					"startCursor": map[string]interface{}{
						"type":        "string",
						"description": "Pagination cursor from a previous response (optional)",
					},
					"pageSize": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of comments to return",
						"default":     100,
					},
				},
				Required: []string{"blockId"},
			},
		},
		{
			Name:        ToolNotionListUsers,
			Description: "List the users in the Notion workspace",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"startCursor": map[string]interface{}{
						"type":        "string",
						"description": "Pagination cursor from a previous response (optional)",
					},
					"pageSize": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of users to return",
						"default":     100,
					},
				},
			},
		},
		{
			Name:        ToolNotionGetUser,
			Description: "Retrieve a Notion user by ID",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"userId": map[string]interface{}{
						"type":        "string",
						"description": "The user ID",
					},
				},
				Required: []string{"userId"},
			},
		},
		{
			Name:        ToolNotionGetSelf,
			Description: "Retrieve the bot user belonging to the integration token",
			InputSchema: domain.JSONSchema{
				Type:       "object",
				Properties: map[string]interface{}{},
			},
		},
	}
}

// Handle processes an MCP tool call request for Notion comment and user
// operations.
func (h *NotionUserHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	if req.Arguments == nil {
		req.Arguments = make(map[string]interface{})
	}

	switch req.Name {
	case ToolNotionCreateComment:
		return h.handleCreateComment(ctx, req.Arguments)
	case ToolNotionGetComments:
		return h.handleGetComments(ctx, req.Arguments)
	case ToolNotionListUsers:
		return h.handleListUsers(ctx, req.Arguments)
	case ToolNotionGetUser:
		return h.handleGetUser(ctx, req.Arguments)
	case ToolNotionGetSelf:
		return h.handleGetSelf(ctx, req.Arguments)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown Notion user tool: %s", req.Name),
		}
	}
}

// handleCreateComment handles the create_comment tool call.
func (h *NotionUserHandler) handleCreateComment(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	pageID, err := getStringParam(args, "pageId", true)
	if err != nil {
		return nil, err
	}
	text, err := getStringParam(args, "text", true)
	if err != nil {
		return nil, err
	}

	comment, err := h.client.CreateComment(pageID, domain.BuildRichText(text))
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(comment)
}

// handleGetComments handles the get_comments tool call.
func (h *NotionUserHandler) handleGetComments(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
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

	comments, err := h.client.ListComments(blockID, startCursor, pageSize)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(comments)
}

// handleListUsers handles the list_users tool call.
func (h *NotionUserHandler) handleListUsers(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	startCursor, err := getStringParam(args, "startCursor", false)
	if err != nil {
		return nil, err
	}
	pageSize, err := getIntParam(args, "pageSize", false)
	if err != nil {
		return nil, err
	}

	users, err := h.client.ListUsers(startCursor, pageSize)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(users)
}

// handleGetUser handles the get_user tool call.
func (h *NotionUserHandler) handleGetUser(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	userID, err := getStringParam(args, "userId", true)
	if err != nil {
		return nil, err
	}

	user, err := h.client.GetUser(userID)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(user)
}

// handleGetSelf handles the get_self tool call.
func (h *NotionUserHandler) handleGetSelf(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	self, err := h.client.GetSelf()
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(self)
}
