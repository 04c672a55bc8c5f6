package application

import (
	"context"
	"encoding/json"
	"fmt"

	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

// JiraSprintHandler implements ToolHandler for Jira Agile sprint
// operations, including the composite close-sprint flow that migrates
// incomplete issues.
type JiraSprintHandler struct {
	agile  *infrastructure.AgileClient
	mapper domain.ResponseMapper
}

// NewJiraSprintHandler creates a new JiraSprintHandler instance.
func NewJiraSprintHandler(agile *infrastructure.AgileClient, mapper domain.ResponseMapper) *JiraSprintHandler {
	return &JiraSprintHandler{
		agile:  agile,
		mapper: mapper,
	}
}

// Tool name constants for Jira sprint operations
const (
	ToolJiraGetBoardSprints   = "jira_get_board_sprints"
	ToolJiraGetSprint         = "jira_get_sprint"
	ToolJiraCreateSprint      = "jira_create_sprint"
	ToolJiraUpdateSprint      = "jira_update_sprint"
	ToolJiraStartSprint       = "jira_start_sprint"
	ToolJiraCloseSprint       = "jira_close_sprint"
	ToolJiraGetSprintIssues   = "jira_get_sprint_issues"
	ToolJiraAddIssuesToSprint = "jira_add_issues_to_sprint"
	ToolJiraMoveToBacklog     = "jira_move_issues_to_backlog"
	ToolJiraRemoveFromSprint  = "jira_remove_issues_from_sprint"
)

// doneStatusName is the status that marks an issue complete when
// closing a sprint; anything else counts as incomplete.
const doneStatusName = "Done"

// GroupName returns the identifier for this handler group.
func (h *JiraSprintHandler) GroupName() string {
	return "jira-sprints"
}

// sprintIDSchema is the shared sprintId property definition.
func sprintIDSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": "The sprint ID",
	}
}

// issueKeysSchema is the shared issueKeys property definition.
func issueKeysSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Issue keys to move (e.g., [\"PROD-1\", \"PROD-2\"])",
		"items":       map[string]interface{}{"type": "string"},
	}
}

// ListTools returns available tools for Jira sprint operations.
func (h *JiraSprintHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolJiraGetBoardSprints,
			Description: "List the sprints of a Jira board, optionally filtered by state",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"boardId": map[string]interface{}{
						"type":        "integer",
						"description": "The board ID",
					},
					"state": map[string]interface{}{
						"type":        "string",
						"description": "Filter by sprint state (optional)",
						"enum":        []string{"active", "future", "closed"},
					},
					"startAt": map[string]interface{}{
						"type":        "integer",
						"description": "The index of the first sprint to return (optional)",
					},
					"maxResults": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of sprints to return",
						"default":     50,
					},
				},
				Required: []string{"boardId"},
			},
		},
		{
			Name:        ToolJiraGetSprint,
			Description: "Retrieve a sprint by ID",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"sprintId": sprintIDSchema(),
				},
				Required: []string{"sprintId"},
			},
		},
		{
			Name:        ToolJiraCreateSprint,
			Description: "Create a new sprint on a board",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "The sprint name",
					},
					"boardId": map[string]interface{}{
						"type":        "integer",
						"description": "The board the sprint belongs to",
					},
					"startDate": map[string]interface{}{
						"type":        "string",
						"description": "Planned start date, ISO 8601 (optional)",
					},
					"endDate": map[string]interface{}{
						"type":        "string",
						"description": "Planned end date, ISO 8601 (optional)",
					},
					"goal": map[string]interface{}{
						"type":        "string",
						"description": "The sprint goal (optional)",
					},
				},
				Required: []string{"name", "boardId"},
			},
		},
		{
			Name:        ToolJiraUpdateSprint,
			Description: "Update a sprint's name, dates, or goal",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"sprintId": sprintIDSchema(),
					"name": map[string]interface{}{
						"type":        "string",
						"description": "The new sprint name (optional)",
					},
					"startDate": map[string]interface{}{
						"type":        "string",
						"description": "New start date, ISO 8601 (optional)",
					},
					"endDate": map[string]interface{}{
						"type":        "string",
						"description": "New end date, ISO 8601 (optional)",
					},
					"goal": map[string]interface{}{
						"type":        "string",
						"description": "The new sprint goal (optional)",
					},
				},
				Required: []string{"sprintId"},
			},
		},
		{
			Name:        ToolJiraStartSprint,
			Description: "Start a sprint (set its state to active)",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"sprintId": sprintIDSchema(),
					"startDate": map[string]interface{}{
						"type":        "string",
						"description": "Start date, ISO 8601 (optional)",
					},
					"endDate": map[string]interface{}{
						"type":        "string",
						"description": "End date, ISO 8601 (optional)",
					},
				},
				Required: []string{"sprintId"},
			},
		},
		{
			Name:        ToolJiraCloseSprint,
			Description: "Close a sprint and migrate its incomplete issues to a target sprint or the backlog",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"sprintId": sprintIDSchema(),
					"targetSprintId": map[string]interface{}{
						"type":        "integer",
						"description": "Sprint to move incomplete issues into (optional)",
					},
					"moveToBacklog": map[string]interface{}{
						"type":        "boolean",
						"description": "Move incomplete issues to the backlog when no target sprint is given",
						"default":     true,
					},
				},
				Required: []string{"sprintId"},
			},
		},
		{
			Name:        ToolJiraGetSprintIssues,
			Description: "List the issues in a sprint, optionally narrowed by JQL",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"sprintId": sprintIDSchema(),
					"jql": map[string]interface{}{
						"type":        "string",
						"description": "JQL filter (optional)",
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
				Required: []string{"sprintId"},
			},
		},
		{
			Name:        ToolJiraAddIssuesToSprint,
			Description: "Move issues into a sprint by key",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"sprintId":  sprintIDSchema(),
					"issueKeys": issueKeysSchema(),
				},
				Required: []string{"sprintId", "issueKeys"},
			},
		},
		{
			Name:        ToolJiraMoveToBacklog,
			Description: "Move issues out of their sprint into the backlog",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"issueKeys": issueKeysSchema(),
				},
				Required: []string{"issueKeys"},
			},
		},
		{
			Name:        ToolJiraRemoveFromSprint,
			Description: "Remove issues from their sprint (moves them to the backlog)",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"issueKeys": issueKeysSchema(),
				},
				Required: []string{"issueKeys"},
			},
		},
	}
}

// Handle processes an MCP tool call request for Jira sprint operations.
func (h *JiraSprintHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	if req.Arguments == nil {
		req.Arguments = make(map[string]interface{})
	}

	switch req.Name {
	case ToolJiraGetBoardSprints:
		return h.handleGetBoardSprints(ctx, req.Arguments)
	case ToolJiraGetSprint:
		return h.handleGetSprint(ctx, req.Arguments)
	case ToolJiraCreateSprint:
		return h.handleCreateSprint(ctx, req.Arguments)
	case ToolJiraUpdateSprint:
		return h.handleUpdateSprint(ctx, req.Arguments)
	case ToolJiraStartSprint:
		return h.handleStartSprint(ctx, req.Arguments)
	case ToolJiraCloseSprint:
		return h.handleCloseSprint(ctx, req.Arguments)
	case ToolJiraGetSprintIssues:
		return h.handleGetSprintIssues(ctx, req.Arguments)
	case ToolJiraAddIssuesToSprint:
		return h.handleAddIssuesToSprint(ctx, req.Arguments)
	case ToolJiraMoveToBacklog, ToolJiraRemoveFromSprint:
		return h.handleMoveIssuesToBacklog(ctx, req.Arguments)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown Jira sprint tool: %s", req.Name),
		}
	}
}

// handleGetBoardSprints handles the jira_get_board_sprints tool call.
func (h *JiraSprintHandler) handleGetBoardSprints(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	boardID, err := getIntParam(args, "boardId", true)
	if err != nil {
		return nil, err
	}
	state, err := getStringParam(args, "state", false)
	if err != nil {
		return nil, err
	}
	if state != "" && state != "active" && state != "future" && state != "closed" {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("invalid sprint state: %s (must be active, future, or closed)", state),
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

	sprints, err := h.agile.GetBoardSprints(boardID, state, startAt, maxResults)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(sprints)
}

// handleGetSprint handles the jira_get_sprint tool call.
func (h *JiraSprintHandler) handleGetSprint(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	sprintID, err := getIntParam(args, "sprintId", true)
	if err != nil {
		return nil, err
	}

	sprint, err := h.agile.GetSprint(sprintID)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(sprint)
}

// handleCreateSprint handles the jira_create_sprint tool call.
func (h *JiraSprintHandler) handleCreateSprint(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	name, err := getStringParam(args, "name", true)
	if err != nil {
		return nil, err
	}
	boardID, err := getIntParam(args, "boardId", true)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"name":          name,
		"originBoardId": boardID,
	}
	for _, key := range []string{"startDate", "endDate", "goal"} {
		value, err := getStringParam(args, key, false)
		if err != nil {
			return nil, err
		}
		if value != "" {
			payload[key] = value
		}
	}

	sprint, err := h.agile.CreateSprint(payload)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(sprint)
}

// handleUpdateSprint handles the jira_update_sprint tool call.
func (h *JiraSprintHandler) handleUpdateSprint(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	sprintID, err := getIntParam(args, "sprintId", true)
	if err != nil {
		return nil, err
	}

	payload := make(map[string]interface{})
	for _, key := range []string{"name", "startDate", "endDate", "goal"} {
		value, err := getStringParam(args, key, false)
		if err != nil {
			return nil, err
		}
		if value != "" {
			payload[key] = value
		}
	}

	if len(payload) == 0 {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "at least one of name, startDate, endDate, or goal must be provided",
		}
	}

	sprint, err := h.agile.UpdateSprint(sprintID, payload)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(sprint)
}

// handleStartSprint handles the jira_start_sprint tool call.
func (h *JiraSprintHandler) handleStartSprint(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	sprintID, err := getIntParam(args, "sprintId", true)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{"state": "active"}
	for _, key := range []string{"startDate", "endDate"} {
		value, err := getStringParam(args, key, false)
		if err != nil {
			return nil, err
		}
		if value != "" {
			payload[key] = value
		}
	}

	sprint, err := h.agile.UpdateSprint(sprintID, payload)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(sprint)
}

// handleCloseSprint handles the jira_close_sprint tool call. The flow
// is sequential: list the sprint's issues, partition on the Done
// status, close the sprint, then migrate the incomplete issues. A
// migration failure after a successful close is not rolled back; the
// close stands and the failure surfaces as-is.
func (h *JiraSprintHandler) handleCloseSprint(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	sprintID, err := getIntParam(args, "sprintId", true)
	if err != nil {
		return nil, err
	}
	targetSprintID, err := getIntParam(args, "targetSprintId", false)
	if err != nil {
		return nil, err
	}
	moveToBacklog, err := getBoolParam(args, "moveToBacklog", true)
	if err != nil {
		return nil, err
	}

	raw, err := h.agile.GetSprintIssues(sprintID, "", 0, 0)
	if err != nil {
		return nil, err
	}

	var listing domain.SprintIssueList
	if err := json.Unmarshal(raw, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode sprint issues: %w", err)
	}

	var incomplete []string
	for _, issue := range listing.Issues {
		if issue.Fields.Status.Name != doneStatusName {
			incomplete = append(incomplete, issue.Key)
		}
	}

	closeRaw, err := h.agile.UpdateSprint(sprintID, map[string]interface{}{"state": "closed"})
	if err != nil {
		return nil, err
	}

	movedTo := "none"
	if len(incomplete) > 0 {
		switch {
		case targetSprintID > 0:
			if err := h.agile.AddIssuesToSprint(targetSprintID, incomplete); err != nil {
				return nil, err
			}
			movedTo = "sprint"
		case moveToBacklog:
			if err := h.agile.MoveIssuesToBacklog(incomplete); err != nil {
				return nil, err
			}
			movedTo = "backlog"
		}
	}

	result := make(map[string]interface{})
	if len(closeRaw) > 0 {
		if err := json.Unmarshal(closeRaw, &result); err != nil {
			return nil, fmt.Errorf("failed to decode close response: %w", err)
		}
	}
	result["incompleteIssues"] = len(incomplete)
	result["movedTo"] = movedTo

	return h.mapper.MapToToolResponse(result)
}

// handleGetSprintIssues handles the jira_get_sprint_issues tool call.
func (h *JiraSprintHandler) handleGetSprintIssues(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	sprintID, err := getIntParam(args, "sprintId", true)
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

	issues, err := h.agile.GetSprintIssues(sprintID, jql, startAt, maxResults)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(issues)
}

// handleAddIssuesToSprint handles the jira_add_issues_to_sprint tool call.
func (h *JiraSprintHandler) handleAddIssuesToSprint(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	sprintID, err := getIntParam(args, "sprintId", true)
	if err != nil {
		return nil, err
	}
	issueKeys, err := getStringSliceParam(args, "issueKeys", true)
	if err != nil {
		return nil, err
	}
	if len(issueKeys) == 0 {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "issueKeys must not be empty",
		}
	}

	if err := h.agile.AddIssuesToSprint(sprintID, issueKeys); err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("%d issue(s) added to sprint %d", len(issueKeys), sprintID),
	})
}

// handleMoveIssuesToBacklog handles jira_move_issues_to_backlog and its
// alias jira_remove_issues_from_sprint.
func (h *JiraSprintHandler) handleMoveIssuesToBacklog(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	issueKeys, err := getStringSliceParam(args, "issueKeys", true)
	if err != nil {
		return nil, err
	}
	if len(issueKeys) == 0 {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "issueKeys must not be empty",
		}
	}

	if err := h.agile.MoveIssuesToBacklog(issueKeys); err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("%d issue(s) moved to the backlog", len(issueKeys)),
	})
}
