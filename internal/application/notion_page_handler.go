package application

import (
	"context"
	"fmt"

	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

// NotionPageHandler implements ToolHandler for Notion search and page
// operations.
type NotionPageHandler struct {
	client *infrastructure.NotionClient
	mapper domain.ResponseMapper
}

// NewNotionPageHandler creates a new NotionPageHandler instance.
func NewNotionPageHandler(client *infrastructure.NotionClient, mapper domain.ResponseMapper) *NotionPageHandler {
	return &NotionPageHandler{
		client: client,
		mapper: mapper,
	}
}

// Tool name constants for Notion page operations
const (
	ToolNotionSearch          = "search_notion"
	ToolNotionGetPageContent  = "get_page_content"
	ToolNotionCreatePage      = "create_page"
	ToolNotionUpdatePage      = "update_page"
	ToolNotionDeletePage      = "delete_page"
	ToolNotionGetPageProperty = "get_page_property"
	ToolNotionFetchByURL      = "fetch_by_url"
)

// GroupName returns the identifier for this handler group.
func (h *NotionPageHandler) GroupName() string {
	return "notion-pages"
}

// propertiesSchema describes the typed property map accepted by page
// create and update.
func propertiesSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Property values keyed by property name; each value is {type, value} where type is one of title, rich_text, number, select, multi_select, date, people, checkbox, url, email, phone_number, status",
	}
}

// ListTools returns available tools for Notion page operations.
func (h *NotionPageHandler) ListTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        ToolNotionSearch,
			Description: "Search Notion pages and databases shared with the integration",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The search query (empty returns everything shared with the integration)",
					},
					"filter": map[string]interface{}{
						"type":        "string",
						"description": "Restrict results to one object type (optional)",
						"enum":        []string{"page", "database"},
					},
					"sort": map[string]interface{}{
						"type":        "string",
						"description": "Sort by last edited time (optional)",
						"enum":        []string{"ascending", "descending"},
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
			Name:        ToolNotionGetPageContent,
			Description: "Retrieve a Notion page together with its top-level content blocks",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"pageId": map[string]interface{}{
						"type":        "string",
						"description": "The page ID",
					},
				},
				Required: []string{"pageId"},
			},
		},
		{
			Name:        ToolNotionCreatePage,
			Description: "Create a Notion page under a parent page or database",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"parentPageId": map[string]interface{}{
						"type":        "string",
						"description": "Parent page ID (exactly one of parentPageId and parentDatabaseId is required)",
					},
					"parentDatabaseId": map[string]interface{}{
						"type":        "string",
						"description": "Parent database ID (exactly one of parentPageId and parentDatabaseId is required)",
					},
					"title": map[string]interface{}{
						"type":        "string",
						"description": "The page title",
					},
					"properties": propertiesSchema(),
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Plain text body added as a paragraph block (optional)",
					},
					"icon": map[string]interface{}{
						"type":        "string",
						"description": "Emoji icon for the page (optional)",
					},
				},
				Required: []string{"title"},
			},
		},
		{
			Name:        ToolNotionUpdatePage,
			Description: "Update a Notion page's properties, icon, or archived state",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"pageId": map[string]interface{}{
						"type":        "string",
						"description": "The page ID",
					},
					"properties": propertiesSchema(),
					"archived": map[string]interface{}{
						"type":        "boolean",
						"description": "Archive (true) or restore (false) the page (optional)",
					},
					"icon": map[string]interface{}{
						"type":        "string",
						"description": "New emoji icon (optional)",
					},
				},
				Required: []string{"pageId"},
			},
		},
		{
			Name:        ToolNotionDeletePage,
			Description: "Delete (archive) a Notion page",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"pageId": map[string]interface{}{
						"type":        "string",
						"description": "The page ID",
					},
				},
				Required: []string{"pageId"},
			},
		},
		{
			Name:        ToolNotionGetPageProperty,
			Description: "Retrieve a single property item of a Notion page",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"pageId": map[string]interface{}{
						"type":        "string",
						"description": "The page ID",
					},
					"propertyId": map[string]interface{}{
						"type":        "string",
						"description": "The property ID from the page's property metadata",
					},
				},
				Required: []string{"pageId", "propertyId"},
			},
		},
		{
			Name:        ToolNotionFetchByURL,
			Description: "Fetch a Notion page or database from its URL",
			InputSchema: domain.JSONSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "A Notion URL containing a page or database ID",
					},
				},
				Required: []string{"url"},
			},
		},
	}
}

// Handle processes an MCP tool call request for Notion page operations.
func (h *NotionPageHandler) Handle(ctx context.Context, req *domain.ToolRequest) (*domain.ToolResponse, error) {
	if req.Arguments == nil {
		req.Arguments = make(map[string]interface{})
	}

	switch req.Name {
	case ToolNotionSearch:
		return h.handleSearch(ctx, req.Arguments)
	case ToolNotionGetPageContent:
		return h.handleGetPageContent(ctx, req.Arguments)
	case ToolNotionCreatePage:
		return h.handleCreatePage(ctx, req.Arguments)
	case ToolNotionUpdatePage:
		return h.handleUpdatePage(ctx, req.Arguments)
	case ToolNotionDeletePage:
		return h.handleDeletePage(ctx, req.Arguments)
	case ToolNotionGetPageProperty:
		return h.handleGetPageProperty(ctx, req.Arguments)
	case ToolNotionFetchByURL:
		return h.handleFetchByURL(ctx, req.Arguments)
	default:
		return nil, &domain.Error{
			Code:    domain.MethodNotFound,
			Message: fmt.Sprintf("unknown Notion page tool: %s", req.Name),
		}
	}
}

// buildSearchParams assembles the search request body shared by
// search_notion and list_databases.
func buildSearchParams(query, objectType, sort, startCursor string, pageSize int) map[string]interface{} {
	params := make(map[string]interface{})
	if query != "" {
		params["query"] = query
	}
	if objectType != "" {
		params["filter"] = map[string]interface{}{
			"property": "object",
			"value":    objectType,
		}
	}
	if sort != "" {
		params["sort"] = map[string]interface{}{
			"direction": sort,
			"timestamp": "last_edited_time",
		}
	}
	if startCursor != "" {
		params["start_cursor"] = startCursor
	}
	if pageSize > 0 {
		params["page_size"] = pageSize
	}
	return params
}

// handleSearch handles the search_notion tool call.
func (h *NotionPageHandler) handleSearch(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	query, err := getStringParam(args, "query", false)
	if err != nil {
		return nil, err
	}
	filter, err := getStringParam(args, "filter", false)
	if err != nil {
		return nil, err
	}
	if filter != "" && filter != "page" && filter != "database" {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("invalid filter: %s (must be page or database)", filter),
		}
	}
	sort, err := getStringParam(args, "sort", false)
	if err != nil {
		return nil, err
	}
	if sort != "" && sort != "ascending" && sort != "descending" {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("invalid sort: %s (must be ascending or descending)", sort),
		}
	}
	startCursor, err := getStringParam(args, "startCursor", false)
	if err != nil {
		return nil, err
	}
	pageSize, err := getIntParam(args, "pageSize", false)
	if err != nil {
		return nil, err
	}

	results, err := h.client.Search(buildSearchParams(query, filter, sort, startCursor, pageSize))
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(results)
}

// handleGetPageContent handles the get_page_content tool call. Two
// sequential calls: the page itself, then its top-level children.
func (h *NotionPageHandler) handleGetPageContent(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	pageID, err := getStringParam(args, "pageId", true)
	if err != nil {
		return nil, err
	}

	page, err := h.client.GetPage(pageID)
	if err != nil {
		return nil, err
	}

	blocks, err := h.client.GetBlockChildren(pageID, "", 0)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(map[string]interface{}{
		"page":   page,
		"blocks": blocks,
	})
}

// buildProperties converts the {name: {type, value}} argument map into
// Notion property values.
func buildProperties(raw map[string]interface{}) (map[string]interface{}, error) {
	properties := make(map[string]interface{}, len(raw))
	for name, spec := range raw {
		specMap, ok := spec.(map[string]interface{})
		if !ok {
			return nil, &domain.Error{
				Code:    domain.InvalidParams,
				Message: fmt.Sprintf("property %s must be an object with type and value", name),
			}
		}
		propType, _ := specMap["type"].(string)
		if propType == "" {
			return nil, &domain.Error{
				Code:    domain.InvalidParams,
				Message: fmt.Sprintf("property %s is missing its type tag", name),
			}
		}
		value, err := domain.BuildPropertyValue(propType, specMap["value"])
		if err != nil {
			return nil, err
		}
		properties[name] = value
	}
	return properties, nil
}

// handleCreatePage handles the create_page tool call.
func (h *NotionPageHandler) handleCreatePage(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	title, err := getStringParam(args, "title", true)
	if err != nil {
		return nil, err
	}
	parentPageID, err := getStringParam(args, "parentPageId", false)
	if err != nil {
		return nil, err
	}
	parentDatabaseID, err := getStringParam(args, "parentDatabaseId", false)
	if err != nil {
		return nil, err
	}

	if (parentPageID == "") == (parentDatabaseID == "") {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "exactly one of parentPageId and parentDatabaseId must be provided",
		}
	}

	rawProps, err := getMapParam(args, "properties", false)
	if err != nil {
		return nil, err
	}
	content, err := getStringParam(args, "content", false)
	if err != nil {
		return nil, err
	}
	icon, err := getStringParam(args, "icon", false)
	if err != nil {
		return nil, err
	}

	properties, err := buildProperties(rawProps)
	if err != nil {
		return nil, err
	}
	if properties == nil {
		properties = make(map[string]interface{})
	}
	if _, exists := properties["title"]; !exists {
		properties["title"] = map[string]interface{}{"title": domain.BuildRichText(title)}
	}

	params := map[string]interface{}{
		"properties": properties,
	}
	if parentPageID != "" {
		params["parent"] = map[string]interface{}{"page_id": parentPageID}
	} else {
		params["parent"] = map[string]interface{}{"database_id": parentDatabaseID}
	}
	if content != "" {
		block, err := domain.BuildBlock("paragraph", content, nil)
		if err != nil {
			return nil, err
		}
		params["children"] = []interface{}{block}
	}
	if icon != "" {
		params["icon"] = map[string]interface{}{"type": "emoji", "emoji": icon}
	}

	page, err := h.client.CreatePage(params)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(page)
}

// handleUpdatePage handles the update_page tool call.
func (h *NotionPageHandler) handleUpdatePage(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	pageID, err := getStringParam(args, "pageId", true)
	if err != nil {
		return nil, err
	}
	rawProps, err := getMapParam(args, "properties", false)
	if err != nil {
		return nil, err
	}
	icon, err := getStringParam(args, "icon", false)
	if err != nil {
		return nil, err
	}

	params := make(map[string]interface{})
	if len(rawProps) > 0 {
		properties, err := buildProperties(rawProps)
		if err != nil {
			return nil, err
		}
		params["properties"] = properties
	}
	if archived, exists := args["archived"]; exists {
		flag, ok := archived.(bool)
		if !ok {
			return nil, &domain.Error{
				Code:    domain.InvalidParams,
				Message: "parameter archived must be a boolean",
			}
		}
		params["archived"] = flag
	}
	if icon != "" {
		params["icon"] = map[string]interface{}{"type": "emoji", "emoji": icon}
	}

	if len(params) == 0 {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: "at least one of properties, archived, or icon must be provided",
		}
	}

	page, err := h.client.UpdatePage(pageID, params)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(page)
}

// handleDeletePage handles the delete_page tool call. Notion has no
// hard delete; this archives the page.
func (h *NotionPageHandler) handleDeletePage(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	pageID, err := getStringParam(args, "pageId", true)
	if err != nil {
		return nil, err
	}

	page, err := h.client.UpdatePage(pageID, map[string]interface{}{"archived": true})
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(page)
}

// handleGetPageProperty handles the get_page_property tool call.
func (h *NotionPageHandler) handleGetPageProperty(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	pageID, err := getStringParam(args, "pageId", true)
	if err != nil {
		return nil, err
	}
	propertyID, err := getStringParam(args, "propertyId", true)
	if err != nil {
		return nil, err
	}

	property, err := h.client.GetPageProperty(pageID, propertyID)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(property)
}

// handleFetchByURL handles the fetch_by_url tool call. The embedded ID
// is tried as a page first, then as a database; a database-side failure
// propagates as the final error.
func (h *NotionPageHandler) handleFetchByURL(ctx context.Context, args map[string]interface{}) (*domain.ToolResponse, error) {
	rawURL, err := getStringParam(args, "url", true)
	if err != nil {
		return nil, err
	}

	id, ok := domain.ExtractNotionID(rawURL)
	if !ok {
		return nil, &domain.Error{
			Code:    domain.InvalidParams,
			Message: fmt.Sprintf("no Notion ID found in URL: %s", rawURL),
		}
	}

	page, err := h.client.GetPage(id)
	if err == nil {
		return h.mapper.MapToToolResponse(page)
	}

	database, err := h.client.GetDatabase(id)
	if err != nil {
		return nil, err
	}

	return h.mapper.MapToToolResponse(database)
}
