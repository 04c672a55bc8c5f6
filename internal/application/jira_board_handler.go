package application

import (
	"context"
	"fmt"

	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

// JiraBoardHandler implements ToolHandler for Jira Agile board
// operations.
type JiraBoardHandler struct {
	agile  *infrastructure.AgileClient
	mapper domain.ResponseMapper
}

// NewJiraBoardHandler creates a new JiraBoardHandler instance.
func NewJiraBoardHandler(agile *infrastructure.AgileClient, mapper domain.ResponseMapper) *JiraBoardHandler {
	return &JiraBoardHandler{
		agile:  agile,
		mapper: mapper,
	}
}

// Tool name constants for Jira board operations
const (
	ToolJiraGetBoards       = "jira_get_boards"
	ToolJiraGetBoard        = "jira_get_board"
	ToolJiraGetBoardConfig  = "jira_get_board_configuration"
	ToolJiraGetBoardIssues  = "jira_get_board_issues"
	ToolJiraGetBoardBacklog = "jira_get_board_backlog"
)

// GroupName returns the identifier for this handler group.
func (h *JiraBoardHandler) GroupName() string {
	return "jira-boards"
}

// boardIDSchema is the shared boardId property definition.
func boardIDSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "The board ID",
	}
}

// ListTools returns available tools for Jira board operations.
func (h *JiraBoardHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolJiraGetBoards,
			Description: "List Jira boards, optionally filtered by project and board type",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"projectKeyOrId": map[string]interface{}{
						"type":        "string",
						"description": "Filter boards to one project (optional)",
					},
					"type": map[string]interface{}{
						"type":        "string",
						"description": "Filter by board type (optional)",
						"enum":        []string{"scrum", "kanban"},
					},
					"startAt": map[string]interface{}{
						"type":        "integer",
						"description": "The index of the first board to return (optional)",
					},
					"maxResults": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of boards to return",
						"default":     50,
					},
				},
			},
		},
		{
			Name:        ToolJiraGetBoard,
			Description: "Retrieve a Jira board by ID",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"boardId": boardIDSchema(),
				},
				Required: []string{"boardId"},
			},
		},
		{
			Name:        ToolJiraGetBoardConfig,
			Description: "Retrieve a Jira board's configuration (columns, estimation, filter)",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"boardId": boardIDSchema(),
				},
				Required: []string{"boardId"},
			},
		},
		{
			Name:        ToolJiraGetBoardIssues,
			Description: "List the issues on a Jira board, optionally narrowed by JQL",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"boardId": boardIDSchema(),
					"jql": map[string]interface{}{
						"type":        "string",
						"description": "JQL filter applied on top of the board filter (optional)",
					},
					"startAt": map[string]interface{}{
						"type":        "integer",
						"description": "The index of the first issue to return (optional)",
					},
					"maxResults": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of issues to return",
						"default":     50,
					},
				},
				Required: []string{"boardId"},
			},
		},
		{
			Name:        ToolJiraGetBoardBacklog,
			Description: "List the backlog issues of a Jira board, optionally narrowed by JQL",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"boardId": boardIDSchema(),
					"jql": map[string]interface{}{
						"type":        "string",
						"description": "JQL filter applied to the backlog (optional)",
					},
					"startAt": map[string]interface{}{
						"type":        "integer",
						"description": "The index of the first issue to return (optional)",
					},
					"maxResults": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of issues to return",
						"default":     50,
					},
				},
				Required: []string{"boardId"},
			},
		},
	}
}

// Handle processes an MCP tool call request for Jira board operations.
func (h *JiraBoardHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	if req.Arguments == nil {
		req.Arguments = make(map[string]interface{})
	}

	switch req.Name {
	case ToolJiraGetBoards:
		return h.handleGetBoards(ctx, req.Arguments)
	case ToolJiraGetBoard:
		return h.handleGetBoard(ctx, req.Arguments)
	case ToolJiraGetBoardConfig:
		return h.handleGetBoardConfiguration(ctx, req.Arguments)
	case ToolJiraGetBoardIssues:
		return h.handleGetBoardIssues(ctx, req.Arguments)
	case ToolJiraGetBoardBacklog:
		return h.handleGetBoardBacklog(ctx, req.Arguments)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown Jira board tool: %s", req.Name),
		}
	}
}

// handleGetBoards handles the jira_get_boards tool call.
func (h *JiraBoardHandler) handleGetBoards(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	projectKeyOrID, err := getStringParam(args, "projectKeyOrId", false)
	if err != nil {
		return nil, err
	}
	boardType, err := getStringParam(args, "type", false)
	if err != nil {
		return nil, err
	}
	if boardType != "" && boardType != "scrum" && boardType != "kanban" {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("invalid board type: %s (must be scrum or kanban)", boardType),
		}
	}
	startAt, err := getIntParam(args, "startAt", false)
	if err != nil {
		return nil, err
	}
	maxResults, err := getIntParam(args, "maxResults", false)
	if err != nil {
		return nil, err
	}
	if maxResults == 0 {
		maxResults = 50
	}

	boards, err := h.agile.GetBoards(projectKeyOrID, boardType, startAt, maxResults)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(boards)
}

// handleGetBoard handles the jira_get_board tool call.
func (h *JiraBoardHandler) handleGetBoard(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	boardID, err := getIntParam(args, "boardId", true)
	if err != nil {
		return nil, err
	}

	board, err := h.agile.GetBoard(boardID)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(board)
}

// handleGetBoardConfiguration handles the jira_get_board_configuration tool call.
func (h *JiraBoardHandler) handleGetBoardConfiguration(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	boardID, err := getIntParam(args, "boardId", true)
	if err != nil {
		return nil, err
	}

	config, err := h.agile.GetBoardConfiguration(boardID)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(config)
}

// handleGetBoardIssues handles the jira_get_board_issues tool call.
func (h *JiraBoardHandler) handleGetBoardIssues(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	boardID, err := getIntParam(args, "boardId", true)
	if err != nil {
		return nil, err
	}
	jql, err := getStringParam(args, "jql", false)
	if err != nil {
		return nil, err
	}
	startAt, err := getIntParam(args, "startAt", false)
	if err != nil {
		return nil, err
	}
	maxResults, err := getIntParam(args, "maxResults", false)
	if err != nil {
		return nil, err
	}
	if maxResults == 0 {
		maxResults = 50
	}

	issues, err := h.agile.GetBoardIssues(boardID, jql, startAt, maxResults)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(issues)
}

// handleGetBoardBacklog handles the jira_get_board_backlog tool call.
func (h *JiraBoardHandler) handleGetBoardBacklog(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	boardID, err := getIntParam(args, "boardId", true)
	if err != nil {
		return nil, err
	}
	jql, err := getStringParam(args, "jql", false)
	if err != nil {
		return nil, err
	}
	startAt, err := getIntParam(args, "startAt", false)
	if err != nil {
		return nil, err
	}
	maxResults, err := getIntParam(args, "maxResults", false)
	if err != nil {
		return nil, err
	}
	if maxResults == 0 {
		maxResults = 50
	}

	backlog, err := h.agile.GetBoardBacklog(boardID, jql, startAt, maxResults)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(backlog)
}
