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

// AgileClient handles Jira Agile API 1.0 interactions: boards, sprints,
// and backlog management. It shares the instance base URL and
// authenticated client with JiraClient but targets /rest/agile/1.0.
type AgileClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAgileClient creates a new Agile API client for the given Jira
// Cloud instance.
func NewAgileClient(baseURL string, httpClient *http.Client) *AgileClient {
	return &AgileClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// BaseURL returns the configured base URL for the Jira instance.
func (c *AgileClient) BaseURL() string {
	return c.baseURL
}

// Do executes an HTTP request with authentication.
func (c *AgileClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

// doRequest performs one request against the Agile API. The path is
// relative to /rest/agile/1.0. Non-2xx statuses become HTTPErrors.
func (c *AgileClient) doRequest(method, path string, query url.Values, payload interface{}) (json.RawMessage, error) {
	endpoint := c.baseURL + "/rest/agile/1.0" + path
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
		return nil, domain.NewHTTPError(resp.StatusCode, "Jira Agile API request failed", string(body))
	}

	if len(body) == 0 {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// pageParams builds the standard pagination query values.
func pageParams(startAt, maxResults int) url.Values {
	params := url.Values{}
	if startAt > 0 {
		params.Set("startAt", strconv.Itoa(startAt))
	}
	if maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(maxResults))
	}
	return params
}

// GetBoards lists boards, optionally filtered by project key/ID and
// board type (scrum or kanban).
func (c *AgileClient) GetBoards(projectKeyOrID, boardType string, startAt, maxResults int) (json.RawMessage, error) {
	params := pageParams(startAt, maxResults)
	if projectKeyOrID != "" {
		params.Set("projectKeyOrId", projectKeyOrID)
	}
	if boardType != "" {
		params.Set("type", boardType)
	}
	return c.doRequest(http.MethodGet, "/board", params, nil)
}

// GetBoard retrieves a single board by ID.
func (c *AgileClient) GetBoard(boardID int) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/board/"+strconv.Itoa(boardID), nil, nil)
}

// GetBoardConfiguration retrieves a board's configuration (columns,
// estimation, filter).
func (c *AgileClient) GetBoardConfiguration(boardID int) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/board/"+strconv.Itoa(boardID)+"/configuration", nil, nil)
}

// GetBoardIssues lists issues on a board, optionally narrowed by JQL.
func (c *AgileClient) GetBoardIssues(boardID int, jql string, startAt, maxResults int) (json.RawMessage, error) {
	params := pageParams(startAt, maxResults)
	if jql != "" {
		params.Set("jql", jql)
	}
	return c.doRequest(http.MethodGet, "/board/"+strconv.Itoa(boardID)+"/issue", params, nil)
}

// GetBoardBacklog lists the backlog issues of a board.
func (c *AgileClient) GetBoardBacklog(boardID int, jql string, startAt, maxResults int) (json.RawMessage, error) {
	params := pageParams(startAt, maxResults)
	if jql != "" {
		params.Set("jql", jql)
	}
	return c.doRequest(http.MethodGet, "/board/"+strconv.Itoa(boardID)+"/backlog", params, nil)
}

// GetBoardSprints lists the sprints of a board, optionally filtered by
// state (future, active, closed, or a comma-separated combination).
func (c *AgileClient) GetBoardSprints(boardID int, state string, startAt, maxResults int) (json.RawMessage, error) {
	params := pageParams(startAt, maxResults)
	if state != "" {
		params.Set("state", state)
	}
	return c.doRequest(http.MethodGet, "/board/"+strconv.Itoa(boardID)+"/sprint", params, nil)
}

// GetSprint retrieves a single sprint by ID.
func (c *AgileClient) GetSprint(sprintID int) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/sprint/"+strconv.Itoa(sprintID), nil, nil)
}

// CreateSprint creates a new sprint from an already-built payload
// (name, originBoardId, optional startDate/endDate/goal).
func (c *AgileClient) CreateSprint(payload map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPost, "/sprint", nil, payload)
}

// UpdateSprint partially updates a sprint. The Agile API uses POST for
// partial updates; only the fields present in payload change.
func (c *AgileClient) UpdateSprint(sprintID int, payload map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPost, "/sprint/"+strconv.Itoa(sprintID), nil, payload)
}

// GetSprintIssues lists the issues in a sprint, optionally narrowed by
// JQL.
func (c *AgileClient) GetSprintIssues(sprintID int, jql string, startAt, maxResults int) (json.RawMessage, error) {
	params := pageParams(startAt, maxResults)
	if jql != "" {
		params.Set("jql", jql)
	}
	return c.doRequest(http.MethodGet, "/sprint/"+strconv.Itoa(sprintID)+"/issue", params, nil)
}

// AddIssuesToSprint moves issues into a sprint by key or ID.
func (c *AgileClient) AddIssuesToSprint(sprintID int, issueKeys []string) error {
	_, err := c.doRequest(http.MethodPost, "/sprint/"+strconv.Itoa(sprintID)+"/issue", nil, map[string]interface{}{
		"issues": issueKeys,
	})
	return err
}

// MoveIssuesToBacklog moves issues out of their sprint into the backlog.
func (c *AgileClient) MoveIssuesToBacklog(issueKeys []string) error {
	_, err := c.doRequest(http.MethodPost, "/backlog/issue", nil, map[string]interface{}{
		"issues": issueKeys,
	})
	return err
}
