package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

// JiraIssueHandler implements ToolHandler for core Jira issue
// operations. It routes MCP tool calls to the JiraClient and, for the
// composite create flow, the AgileClient, then transforms responses
// using the ResponseMapper.
type JiraIssueHandler struct {
	client *infrastructure.JiraClient
	agile  *infrastructure.AgileClient
	mapper domain.ResponseMapper
	jira   *domain.JiraConfig
}

// NewJiraIssueHandler creates a new JiraIssueHandler instance.
func NewJiraIssueHandler(client *infrastructure.JiraClient, agile *infrastructure.AgileClient, mapper domain.ResponseMapper, jira *domain.JiraConfig) *JiraIssueHandler {
	return &JiraIssueHandler{
		client: client,
		agile:  agile,
		mapper: mapper,
		jira:   jira,
	}
}

// Tool name constants for Jira issue operations
const (
	ToolJiraSearchIssues   = "jira_search_issues"
	ToolJiraGetIssue       = "jira_get_issue"
	ToolJiraCreateIssue    = "jira_create_issue"
	ToolJiraUpdateIssue    = "jira_update_issue"
	ToolJiraTransition     = "jira_transition_issue"
	ToolJiraAddComment     = "jira_add_comment"
	ToolJiraGetProjects    = "jira_get_projects"
	ToolJiraGetTransitions = "jira_get_transitions"
	ToolJiraGetCurrentUser = "jira_get_current_user"
)

// GroupName returns the identifier for this handler group.
func (h *JiraIssueHandler) GroupName() string {
	return "jira-issues"
}

// ListTools returns available tools for Jira issue operations.
func (h *JiraIssueHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolJiraSearchIssues,
			Description: "Search for Jira issues using JQL (Jira Query Language)",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"jql": map[string]interface{}{
						"type":        "string",
						"description": "The JQL query string",
					},
					"startAt": map[string]interface{}{
						"type":        "integer",
						"description": "The index of the first issue to return (0-based, optional)",
					},
					"maxResults": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of issues to return",
						"default":     50,
					},
				},
				Required: []string{"jql"},
			},
		},
		{
			Name:        ToolJiraGetIssue,
			Description: "Retrieve a Jira issue by its key (e.g., PROD-123)",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"issueKey": map[string]interface{}{
						"type":        "string",
						"description": "The issue key (e.g., PROD-123)",
					},
				},
				Required: []string{"issueKey"},
			},
		},
		{
			Name:        ToolJiraCreateIssue,
			Description: "Create a new Jira issue, optionally assigning it to a sprint (directly by sprintId, or to the active sprint of boardId)",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"projectKey": map[string]interface{}{
						"type":        "string",
						"description": "The project key; must be in the configured project allow-list",
					},
					"summary": map[string]interface{}{
						"type":        "string",
						"description": "The issue summary/title",
					},
					"issueType": map[string]interface{}{
						"type":        "string",
						"description": "The issue type name (e.g., Bug, Story, Task)",
						"default":     "Task",
					},
					"description": map[string]interface{}{
						"type":        "string",
						"description": "The issue description (optional, plain text)",
					},
					"assignee": map[string]interface{}{
						"type":        "string",
						"description": "The assignee email address (optional)",
					},
					"priority": map[string]interface{}{
						"type":        "string",
						"description": "The priority name (optional, e.g., High)",
					},
					"labels": map[string]interface{}{
						"type":        "array",
						"description": "Labels to set on the issue (optional)",
						"items":       map[string]interface{}{"type": "string"},
					},
					"components": map[string]interface{}{
						"type":        "array",
						"description": "Component names to set on the issue (optional)",
						"items":       map[string]interface{}{"type": "string"},
					},
					"epicKey": map[string]interface{}{
						"type":        "string",
						"description": "Key of the epic to link the new issue under (optional)",
					},
					"sprintId": map[string]interface{}{
						"type":        "integer",
						"description": "Sprint ID to add the new issue to directly (optional)",
					},
					"boardId": map[string]interface{}{
						"type":        "integer",
						"description": "Board ID whose active sprint the new issue is added to (optional, ignored when sprintId is set)",
					},
				},
				Required: []string{"projectKey", "summary"},
			},
		},
		{
			Name:        ToolJiraUpdateIssue,
			Description: "Update an existing Jira issue",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"issueKey": map[string]interface{}{
						"type":        "string",
						"description": "The issue key (e.g., PROD-123)",
					},
					"summary": map[string]interface{}{
						"type":        "string",
						"description": "The new summary/title (optional)",
					},
					"description": map[string]interface{}{
						"type":        "string",
						"description": "The new description (optional, plain text)",
					},
					"assignee": map[string]interface{}{
						"type":        "string",
						"description": "The new assignee email address (optional)",
					},
				},
				Required: []string{"issueKey"},
			},
		},
		{
			Name:        ToolJiraTransition,
			Description: "Transition a Jira issue to a new status by transition name (case-insensitive) or ID",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"issueKey": map[string]interface{}{
						"type":        "string",
						"description": "The issue key (e.g., PROD-123)",
					},
					"transitionName": map[string]interface{}{
						"type":        "string",
						"description": "The transition name, matched case-insensitively (optional if transitionId is provided)",
					},
					"transitionId": map[string]interface{}{
						"type":        "string",
						"description": "The transition ID (optional if transitionName is provided)",
					},
				},
				Required: []string{"issueKey"},
			},
		},
		{
			Name:        ToolJiraAddComment,
			Description: "Add a comment to a Jira issue",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"issueKey": map[string]interface{}{
						"type":        "string",
						"description": "The issue key (e.g., PROD-123)",
					},
					"body": map[string]interface{}{
						"type":        "string",
						"description": "The comment text (plain text)",
					},
				},
				Required: []string{"issueKey", "body"},
			},
		},
		{
			Name:        ToolJiraGetProjects,
			Description: "List the Jira projects visible to the authenticated user",
			InputSchema: domain.JSONSchema{
				Type:       "object",
				Properties: map[string]interface{}{},
			},
		},
		{
			Name:        ToolJiraGetTransitions,
			Description: "List the workflow transitions currently available on a Jira issue",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"issueKey": map[string]interface{}{
						"type":        "string",
						"description": "The issue key (e.g., PROD-123)",
					},
				},
				Required: []string{"issueKey"},
			},
		},
		{
			Name:        ToolJiraGetCurrentUser,
			Description: "Retrieve the authenticated Jira user",
			InputSchema: domain.JSONSchema{
				Type:       "object",
				Properties: map[string]interface{}{},
			},
		},
	}
}

// Handle processes an MCP tool call request for Jira issue operations.
func (h *JiraIssueHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	if req.Arguments == nil {
		req.Arguments = make(map[string]interface{})
	}

	switch req.Name {
	case ToolJiraSearchIssues:
		return h.handleSearchIssues(ctx, req.Arguments)
	case ToolJiraGetIssue:
		return h.handleGetIssue(ctx, req.Arguments)
	case ToolJiraCreateIssue:
		return h.handleCreateIssue(ctx, req.Arguments)
	case ToolJiraUpdateIssue:
		return h.handleUpdateIssue(ctx, req.Arguments)
	case ToolJiraTransition:
		return h.handleTransition(ctx, req.Arguments)
	case ToolJiraAddComment:
		return h.handleAddComment(ctx, req.Arguments)
	case ToolJiraGetProjects:
		return h.handleGetProjects(ctx, req.Arguments)
	case ToolJiraGetTransitions:
		return h.handleGetTransitions(ctx, req.Arguments)
	case ToolJiraGetCurrentUser:
		return h.handleGetCurrentUser(ctx, req.Arguments)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown Jira issue tool: %s", req.Name),
		}
	}
}

// handleSearchIssues handles the jira_search_issues tool call.
func (h *JiraIssueHandler) handleSearchIssues(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	jql, err := getStringParam(args, "jql", true)
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

	results, err := h.client.SearchIssues(jql, startAt, maxResults)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(results)
}

// handleGetIssue handles the jira_get_issue tool call.
func (h *JiraIssueHandler) handleGetIssue(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	issueKey, err := getStringParam(args, "issueKey", true)
	if err != nil {
		return nil, err
	}

	issue, err := h.client.GetIssue(issueKey)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(issue)
}

// handleCreateIssue handles the jira_create_issue tool call. The flow
// is sequential: validate the project key against the allow-list, build
// the fields (wrapping the description in ADF), create the issue, then
// assign it to a sprint when requested. A failed sprint assignment
// after a successful create is not rolled back.
func (h *JiraIssueHandler) handleCreateIssue(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	projectKey, err := getStringParam(args, "projectKey", true)
	if err != nil {
		return nil, err
	}
	summary, err := getStringParam(args, "summary", true)
	if err != nil {
		return nil, err
	}

	if !h.jira.HasProject(projectKey) {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("invalid project: %s (allowed: %s)", projectKey, strings.Join(h.jira.Projects, ", ")),
		}
	}

	issueType, err := getStringParam(args, "issueType", false)
	if err != nil {
		return nil, err
	}
	if issueType == "" {
		issueType = "Task"
	}
	description, err := getStringParam(args, "description", false)
	if err != nil {
		return nil, err
	}
	assignee, err := getStringParam(args, "assignee", false)
	if err != nil {
		return nil, err
	}
	priority, err := getStringParam(args, "priority", false)
	if err != nil {
		return nil, err
	}
	epicKey, err := getStringParam(args, "epicKey", false)
	if err != nil {
		return nil, err
	}
	labels, err := getStringSliceParam(args, "labels", false)
	if err != nil {
		return nil, err
	}
	components, err := getStringSliceParam(args, "components", false)
	if err != nil {
		return nil, err
	}
	sprintID, err := getIntParam(args, "sprintId", false)
	if err != nil {
		return nil, err
	}
	boardID, err := getIntParam(args, "boardId", false)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"project":   domain.ProjectRef{Key: projectKey},
		"summary":   summary,
		"issuetype": domain.NameRef{Name: issueType},
	}
	if description != "" {
		fields["description"] = domain.NewADFDocument(description)
	}
	if assignee != "" {
		fields["assignee"] = domain.AssigneeRef{EmailAddress: assignee}
	}
	if priority != "" {
		fields["priority"] = domain.NameRef{Name: priority}
	}
	if epicKey != "" {
		fields["parent"] = domain.ProjectRef{Key: epicKey}
	}
	if len(labels) > 0 {
		fields["labels"] = labels
	}
	if len(components) > 0 {
		refs := make([]domain.NameRef, 0, len(components))
		for _, c := range components {
			refs = append(refs, domain.NameRef{Name: c})
		}
		fields["components"] = refs
	}

	raw, err := h.client.CreateIssue(fields)
	if err != nil {
		return nil, err
	}

	var created domain.CreatedIssue
	if err := json.Unmarshal(raw, &created); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}

	assignment, err := h.assignToSprint(created.Key, sprintID, boardID)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	result["sprint"] = assignment

	return h.mapper.MapToToolResponse(result)
}

// assignToSprint performs the post-create sprint assignment and reports
// which of {direct, auto-active, no-active-sprint, none} occurred.
// With a boardId and no active sprint, the absence is reported without
// failing the overall create.
func (h *JiraIssueHandler) assignToSprint(issueKey string, sprintID, boardID int) (map[string]interface{}, error) {
	if sprintID > 0 {
		if err := h.agile.AddIssuesToSprint(sprintID, []string{issueKey}); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"method":   "direct",
			"sprintId": sprintID,
		}, nil
	}

	if boardID > 0 {
		raw, err := h.agile.GetBoardSprints(boardID, "active", 0, 0)
		if err != nil {
			return nil, err
		}

		var sprints domain.SprintList
		if err := json.Unmarshal(raw, &sprints); err != nil {
			return nil, fmt.Errorf("failed to decode sprint list: %w", err)
		}

		if len(sprints.Values) == 0 {
			return map[string]interface{}{
				"method":  "no-active-sprint",
				"boardId": boardID,
			}, nil
		}

		// First active sprint wins; boards are expected to have at most one.
		active := sprints.Values[0]
		if err := h.agile.AddIssuesToSprint(active.ID, []string{issueKey}); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"method":     "auto-active",
			"sprintId":   active.ID,
			"sprintName": active.Name,
		}, nil
	}

	return map[string]interface{}{"method": "none"}, nil
}

// handleUpdateIssue handles the jira_update_issue tool call.
func (h *JiraIssueHandler) handleUpdateIssue(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	issueKey, err := getStringParam(args, "issueKey", true)
	if err != nil {
		return nil, err
	}

	summary, err := getStringParam(args, "summary", false)
	if err != nil {
		return nil, err
	}
	description, err := getStringParam(args, "description", false)
	if err != nil {
		return nil, err
	}
	assignee, err := getStringParam(args, "assignee", false)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	if summary != "" {
		fields["summary"] = summary
	}
	if description != "" {
		fields["description"] = domain.NewADFDocument(description)
	}
	if assignee != "" {
		fields["assignee"] = domain.AssigneeRef{EmailAddress: assignee}
	}

	if len(fields) == 0 {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "at least one of summary, description, or assignee must be provided",
		}
	}

	if err := h.client.EditIssue(issueKey, fields); err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Issue %s updated successfully", issueKey),
	})
}

// handleTransition handles the jira_transition_issue tool call. Names
// are matched case-insensitively against the server's transition list;
// an unmatched name fails listing the available names.
func (h *JiraIssueHandler) handleTransition(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	issueKey, err := getStringParam(args, "issueKey", true)
	if err != nil {
		return nil, err
	}

	transitionID, err := getStringParam(args, "transitionId", false)
	if err != nil {
		return nil, err
	}
	transitionName, err := getStringParam(args, "transitionName", false)
	if err != nil {
		return nil, err
	}

	if transitionID == "" && transitionName == "" {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "either transitionId or transitionName must be provided",
		}
	}

	if transitionID == "" {
		raw, err := h.client.GetTransitions(issueKey)
		if err != nil {
			return nil, err
		}

		var list domain.TransitionList
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("failed to decode transitions: %w", err)
		}

		names := make([]string, 0, len(list.Transitions))
		for _, t := range list.Transitions {
			if strings.EqualFold(t.Name, transitionName) {
				transitionID = t.ID
				break
			}
			names = append(names, t.Name)
		}

		if transitionID == "" {
			return nil, &domain.Error{
				Code:    domain.InvalidParams,
				Message: fmt.Sprintf("transition not found: %s (available: %s)", transitionName, strings.Join(names, ", ")),
			}
		}
	}

	if err := h.client.DoTransition(issueKey, transitionID); err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Issue %s transitioned successfully", issueKey),
	})
}

// handleAddComment handles the jira_add_comment tool call.
func (h *JiraIssueHandler) handleAddComment(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	issueKey, err := getStringParam(args, "issueKey", true)
	if err != nil {
		return nil, err
	}
	body, err := getStringParam(args, "body", true)
	if err != nil {
		return nil, err
	}

	comment, err := h.client.AddComment(issueKey, domain.NewADFDocument(body))
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(comment)
}

// handleGetProjects handles the jira_get_projects tool call.
func (h *JiraIssueHandler) handleGetProjects(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	projects, err := h.client.ListProjects()
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(projects)
}

// handleGetTransitions handles the jira_get_transitions tool call.
func (h *JiraIssueHandler) handleGetTransitions(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	issueKey, err := getStringParam(args, "issueKey", true)
	if err != nil {
		return nil, err
	}

	transitions, err := h.client.GetTransitions(issueKey)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(transitions)
}

// handleGetCurrentUser handles the jira_get_current_user tool call.
func (h *JiraIssueHandler) handleGetCurrentUser(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	user, err := h.client.GetCurrentUser()
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(user)
}
