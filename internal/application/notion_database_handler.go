package application

import (
	"context"
	"encoding/json"
	"fmt"

	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

// NotionDatabaseHandler implements ToolHandler for Notion database
// operations.
type NotionDatabaseHandler struct {
	client *infrastructure.NotionClient
	mapper domain.ResponseMapper
}

// NewNotionDatabaseHandler creates a new NotionDatabaseHandler instance.
func NewNotionDatabaseHandler(client *infrastructure.NotionClient, mapper domain.ResponseMapper) *NotionDatabaseHandler {
	return &NotionDatabaseHandler{
		client: client,
		mapper: mapper,
	}
}

// Tool name constants for Notion database operations
const (
	ToolNotionListDatabases  = "list_databases"
	ToolNotionGetDatabase    = "get_database"
	ToolNotionQueryDatabase  = "query_database"
	ToolNotionCreateDatabase = "create_database"
	ToolNotionUpdateDatabase = "update_database"
)

// GroupName returns the identifier for this handler group.
func (h *NotionDatabaseHandler) GroupName() string {
	return "notion-databases"
}

// ListTools returns available tools for Notion database operations.
func (h *NotionDatabaseHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolNotionListDatabases,
			Description: "List the databases shared with the integration (a filtered search; the remote API has no dedicated listing endpoint)",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Narrow the listing by title (optional)",
					},
					"startCursor": map[string]interface{}{
						"type":        "string",
						"description": "Pagination cursor from a previous response (optional)",
					},
					"pageSize": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of results to return",
						"default":     100,
					},
				},
			},
		},
		{
			Name:        ToolNotionGetDatabase,
			Description: "Retrieve a Notion database's schema by ID",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"databaseId": map[string]interface{}{
						"type":        "string",
						"description": "The database ID",
					},
				},
				Required: []string{"databaseId"},
			},
		},
		{
			Name:        ToolNotionQueryDatabase,
			Description: "Query a Notion database; rows are returned with a best-effort title alongside their full properties",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"databaseId": map[string]interface{}{
						"type":        "string",
						"description": "The database ID",
					},
					"filter": map[string]interface{}{
						"type":        "object",
						"description": "Notion filter tree, passed through verbatim (optional)",
					},
					"sorts": map[string]interface{}{
						"type":        "array",
						"description": "Notion sort list, passed through verbatim (optional)",
					},
					"startCursor": map[string]interface{}{
						"type":        "string",
						"description": "Pagination cursor from a previous response (optional)",
					},
					"pageSize": map[string]interface{}{
						"type":        "integer",
						"description": "The maximum number of rows to return",
						"default":     100,
					},
				},
				Required: []string{"databaseId"},
			},
		},
		{
			Name:        ToolNotionCreateDatabase,
			Description: "Create a Notion database under a parent page",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"parentPageId": map[string]interface{}{
						"type":        "string",
						"description": "The parent page ID",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "The database title",
					},
					"properties": map[string]interface{}{
						"type":        "object",
						"description": "Schema definition keyed by property name, passed through verbatim (a title property is added when absent)",
					},
					"icon": map[string]interface{}{
						"type":        "string",
						"description": "Emoji icon for the database (optional)",
					},
				},
				Required: []string{"parentPageId", "title"},
			},
		},
		{
			Name:        ToolNotionUpdateDatabase,
			Description: "Update a Notion database's title or schema",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"databaseId": map[string]interface{}{
						"type":        "string",
						"description": "The database ID",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "The new title (optional)",
					},
					"properties": map[string]interface{}{
						"type":        "object",
						"description": "Schema changes keyed by property name, passed through verbatim (optional)",
					},
				},
				Required: []string{"databaseId"},
			},
		},
	}
}

// Handle processes an MCP tool call request for Notion database operations.
func (h *NotionDatabaseHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	if req.Arguments == nil {
		req.Arguments = make(map[string]interface{})
	}

	switch req.Name {
	case ToolNotionListDatabases:
		return h.handleListDatabases(ctx, req.Arguments)
	case ToolNotionGetDatabase:
		return h.handleGetDatabase(ctx, req.Arguments)
	case ToolNotionQueryDatabase:
		return h.handleQueryDatabase(ctx, req.Arguments)
	case ToolNotionCreateDatabase:
		return h.handleCreateDatabase(ctx, req.Arguments)
	case ToolNotionUpdateDatabase:
		return h.handleUpdateDatabase(ctx, req.Arguments)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown Notion database tool: %s", req.Name),
		}
	}
}

// handleListDatabases handles the list_databases tool call.
func (h *NotionDatabaseHandler) handleListDatabases(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	query, err := getStringParam(args, "query", false)
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

	results, err := h.client.Search(buildSearchParams(query, "database", "", startCursor, pageSize))
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(results)
}

// handleGetDatabase handles the get_database tool call.
func (h *NotionDatabaseHandler) handleGetDatabase(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	databaseID, err := getStringParam(args, "databaseId", true)
	if err != nil {
		return nil, err
	}

	database, err := h.client.GetDatabase(databaseID)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(database)
}

// handleQueryDatabase handles the query_database tool call. Filter and
// sorts pass through to the remote API verbatim; the returned rows are
// reshaped so each carries a plain-text title next to its raw
// properties.
func (h *NotionDatabaseHandler) handleQueryDatabase(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	databaseID, err := getStringParam(args, "databaseId", true)
	if err != nil {
		return nil, err
	}
	filter, err := getMapParam(args, "filter", false)
	if err != nil {
		return nil, err
	}
	sorts, err := getSliceParam(args, "sorts", false)
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

	params := make(map[string]interface{})
	if filter != nil {
		params["filter"] = filter
	}
	if sorts != nil {
		params["sorts"] = sorts
	}
	if startCursor != "" {
		params["start_cursor"] = startCursor
	}
	if pageSize > 0 {
		params["page_size"] = pageSize
	}

	raw, err := h.client.QueryDatabase(databaseID, params)
	if err != nil {
		return nil, err
	}

	reshaped, err := reshapeQueryResults(raw)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(reshaped)
}

// reshapeQueryResults annotates each returned row with a best-effort
// plain-text title (Name property, then Title, then "Untitled"). The
// row's full property set is preserved unchanged.
func reshapeQueryResults(raw json.RawMessage) (map[string]interface{}, error) {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	results, ok := body["results"].([]interface{})
	if !ok {
		return body, nil
	}

	for _, item := range results {
		row, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		row["title"] = rowTitle(row)
	}

	return body, nil
}

// rowTitle extracts a row's display title from its properties.
func rowTitle(row map[string]interface{}) string {
	properties, ok := row["properties"].(map[string]interface{})
	if !ok {
		return "Untitled"
	}

	for _, name := range []string{"Name", "Title"} {
		prop, ok := properties[name].(map[string]interface{})
		if !ok {
			continue
		}
		if title := plainText(prop["title"]); title != "" {
			return title
		}
	}

	// Fall back to whichever property is the title type.
	for _, value := range properties {
		prop, ok := value.(map[string]interface{})
		if !ok {
			continue
		}
		if prop["type"] == "title" {
			if title := plainText(prop["title"]); title != "" {
				return title
			}
		}
	}

	return "Untitled"
}

// plainText concatenates the plain_text runs of a rich text array.
func plainText(value interface{}) string {
	runs, ok := value.([]interface{})
	if !ok {
		return ""
	}

	var text string
	for _, run := range runs {
		runMap, ok := run.(map[string]interface{})
		if !ok {
			continue
		}
		if s, ok := runMap["plain_text"].(string); ok {
			text += s
		}
	}
	return text
}

// handleCreateDatabase handles the create_database tool call.
func (h *NotionDatabaseHandler) handleCreateDatabase(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	parentPageID, err := getStringParam(args, "parentPageId", true)
	if err != nil {
		return nil, err
	}
	title, err := getStringParam(args, "title", true)
	if err != nil {
		return nil, err
	}
	properties, err := getMapParam(args, "properties", false)
	if err != nil {
		return nil, err
	}
	icon, err := getStringParam(args, "icon", false)
	if err != nil {
		return nil, err
	}

	if properties == nil {
		properties = make(map[string]interface{})
	}
	// A database schema must contain exactly one title property.
	hasTitle := false
	for _, value := range properties {
		if prop, ok := value.(map[string]interface{}); ok {
			if _, exists := prop["title"]; exists {
				hasTitle = true
				break
			}
		}
	}
	if !hasTitle {
		properties["Name"] = map[string]interface{}{"title": map[string]interface{}{}}
	}

	params := map[string]interface{}{
		"parent":     map[string]interface{}{"type": "page_id", "page_id": parentPageID},
		"title":      domain.BuildRichText(title),
		"properties": properties,
	}
	if icon != "" {
		params["icon"] = map[string]interface{}{"type": "emoji", "emoji": icon}
	}

	database, err := h.client.CreateDatabase(params)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(database)
}

// handleUpdateDatabase handles the update_database tool call.
func (h *NotionDatabaseHandler) handleUpdateDatabase(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	databaseID, err := getStringParam(args, "databaseId", true)
	if err != nil {
		return nil, err
	}
	title, err := getStringParam(args, "title", false)
	if err != nil {
		return nil, err
	}
	properties, err := getMapParam(args, "properties", false)
	if err != nil {
		return nil, err
	}

	params := make(map[string]interface{})
	if title != "" {
		params["title"] = domain.BuildRichText(title)
	}
	if len(properties) > 0 {
		params["properties"] = properties
	}

	if len(params) == 0 {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "at least one of title or properties must be provided",
		}
	}

	database, err := h.client.UpdateDatabase(databaseID, params)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(database)
}
