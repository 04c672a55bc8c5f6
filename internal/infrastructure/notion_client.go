package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"jira-notion-mcp-server/internal/domain"
)

// notionAPIVersion is the Notion-Version header value sent on every
// request. The Notion API requires it and uses it to pin the wire
// format.
const notionAPIVersion = "2022-06-28"

// NotionClient handles Notion API v1 interactions: search, pages,
// databases, blocks, comments, and users.
type NotionClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNotionClient creates a new Notion API client. The httpClient
// should be an authenticated client from the AuthenticationManager
// carrying the integration token.
func NewNotionClient(httpClient *http.Client) *NotionClient {
	return NewNotionClientWithBaseURL("https://api.notion.com/v1", httpClient)
}

// NewNotionClientWithBaseURL creates a Notion client against a custom
// base URL. This is primarily used for testing.
func NewNotionClientWithBaseURL(baseURL string, httpClient *http.Client) *NotionClient {
	return &NotionClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// BaseURL returns the configured base URL for the Notion API.
func (c *NotionClient) BaseURL() string {
	return c.baseURL
}

// Do executes an HTTP request with authentication and the Notion
// version header.
func (c *NotionClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Notion-Version", notionAPIVersion)
	return c.httpClient.Do(req)
}

// doRequest performs one request against the Notion API and returns the
// response body verbatim. Non-2xx statuses become HTTPErrors carrying
// the remote status and body.
func (c *NotionClient) doRequest(method, path string, query url.Values, payload interface{}) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint = endpoint + "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewHTTPError(resp.StatusCode, "Notion API request failed", string(body))
	}

	if len(body) == 0 {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// Search searches pages and databases shared with the integration. The
// params map is sent as the request body (query, filter, sort,
// start_cursor, page_size).
func (c *NotionClient) Search(params map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPost, "/search", nil, params)
}

// GetPage retrieves a page by ID.
func (c *NotionClient) GetPage(pageID string) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/pages/"+pageID, nil, nil)
}

// CreatePage creates a page from an already-built request body (parent,
// properties, optional children and icon).
func (c *NotionClient) CreatePage(params map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPost, "/pages", nil, params)
}

// UpdatePage patches a page's properties or archived flag.
func (c *NotionClient) UpdatePage(pageID string, params map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPatch, "/pages/"+pageID, nil, params)
}

// GetPageProperty retrieves a single property item of a page.
func (c *NotionClient) GetPageProperty(pageID, propertyID string) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/pages/"+pageID+"/properties/"+propertyID, nil, nil)
}

// GetDatabase retrieves a database's schema by ID.
func (c *NotionClient) GetDatabase(databaseID string) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/databases/"+databaseID, nil, nil)
}

// QueryDatabase runs a filtered, sorted query against a database. The
// params map is the query body (filter, sorts, start_cursor, page_size).
func (c *NotionClient) QueryDatabase(databaseID string, params map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPost, "/databases/"+databaseID+"/query", nil, params)
}

// CreateDatabase creates a database under a parent page.
func (c *NotionClient) CreateDatabase(params map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPost, "/databases", nil, params)
}

// UpdateDatabase patches a database's title or schema.
func (c *NotionClient) UpdateDatabase(databaseID string, params map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPatch, "/databases/"+databaseID, nil, params)
}

// GetBlock retrieves a block by ID.
func (c *NotionClient) GetBlock(blockID string) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/blocks/"+blockID, nil, nil)
}

// GetBlockChildren lists a block's (or page's) direct children.
func (c *NotionClient) GetBlockChildren(blockID, startCursor string, pageSize int) (json.RawMessage, error) {
	params := url.Values{}
	if startCursor != "" {
		params.Set("start_cursor", startCursor)
	}
	if pageSize > 0 {
		params.Set("page_size", strconv.Itoa(pageSize))
	}
	return c.doRequest(http.MethodGet, "/blocks/"+blockID+"/children", params, nil)
}

// AppendBlocks appends already-built block objects as children of a
// block or page.
func (c *NotionClient) AppendBlocks(blockID string, children []interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPatch, "/blocks/"+blockID+"/children", nil, map[string]interface{}{
		"children": children,
	})
}

// UpdateBlock patches a block's content. The params map carries the
// block-type keyed body (e.g., {"paragraph": {...}}).
func (c *NotionClient) UpdateBlock(blockID string, params map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPatch, "/blocks/"+blockID, nil, params)
}

// DeleteBlock archives a block (Notion's delete is a soft archive).
func (c *NotionClient) DeleteBlock(blockID string) (json.RawMessage, error) {
	return c.doRequest(http.MethodDelete, "/blocks/"+blockID, nil, nil)
}

// CreateComment adds a comment to a page.
func (c *NotionClient) CreateComment(pageID string, richText []map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPost, "/comments", nil, map[string]interface{}{
		"parent":    map[string]interface{}{"page_id": pageID},
		"rich_text": richText,
	})
}

// ListComments lists the unresolved comments on a block or page.
func (c *NotionClient) ListComments(blockID, startCursor string, pageSize int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("block_id", blockID)
	if startCursor != "" {
		params.Set("start_cursor", startCursor)
	}
	if pageSize > 0 {
		params.Set("page_size", strconv.Itoa(pageSize))
	}
	return c.doRequest(http.MethodGet, "/comments", params, nil)
}

// ListUsers lists the users in the workspace.
func (c *NotionClient) ListUsers(startCursor string, pageSize int) (json.RawMessage, error) {
	params := url.Values{}
	if startCursor != "" {
		params.Set("start_cursor", startCursor)
	}
	if pageSize > 0 {
		params.Set("page_size", strconv.Itoa(pageSize))
	}
	return c.doRequest(http.MethodGet, "/users", params, nil)
}

// GetUser retrieves a user by ID.
func (c *NotionClient) GetUser(userID string) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/users/"+userID, nil, nil)
}

// GetSelf retrieves the bot user belonging to the integration token.
func (c *NotionClient) GetSelf() (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/users/me", nil, nil)
}
