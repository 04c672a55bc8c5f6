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

// JiraClient handles Jira Cloud REST API v3 interactions. It implements
// the RemoteClient interface and provides the core issue, project, and
// user operations. Board and sprint operations live on AgileClient.
type JiraClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewJiraClient creates a new Jira API client. The baseURL is the root
// URL of the Jira Cloud instance (e.g., "https://company.atlassian.net").
// The httpClient should be an authenticated client from the
// AuthenticationManager.
func NewJiraClient(baseURL string, httpClient *http.Client) *JiraClient {
	return &JiraClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// BaseURL returns the configured base URL for the Jira instance.
func (c *JiraClient) BaseURL() string {
	return c.baseURL
}

// Do executes an HTTP request with authentication.
func (c *JiraClient) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.httpClient.Do(req)
}

// doRequest performs one request-response cycle against the REST API
// and returns the response body verbatim. Any non-2xx status becomes an
// HTTPError carrying the remote status code and body.
func (c *JiraClient) doRequest(method, path string, query url.Values, payload interface{}) (json.RawMessage, error) {
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
		return nil, domain.NewHTTPError(resp.StatusCode, "Jira API request failed", string(body))
	}

	if len(body) == 0 {
		return nil, nil
	}
	return json.RawMessage(body), nil
}

// SearchIssues performs a JQL search. startAt and maxResults paginate
// the result window; maxResults <= 0 leaves the server default.
func (c *JiraClient) SearchIssues(jql string, startAt, maxResults int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("jql", jql)
	if startAt > 0 {
		params.Set("startAt", strconv.Itoa(startAt))
	}
	if maxResults > 0 {
		params.Set("maxResults", strconv.Itoa(maxResults))
	}
	return c.doRequest(http.MethodGet, "/rest/api/3/search", params, nil)
}

// GetIssue retrieves an issue by its key (e.g., "PROD-123").
func (c *JiraClient) GetIssue(issueKey string) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/rest/api/3/issue/"+issueKey, nil, nil)
}

// CreateIssue creates a new issue from an already-built fields map and
// returns the server's create response.
func (c *JiraClient) CreateIssue(fields map[string]interface{}) (json.RawMessage, error) {
	return c.doRequest(http.MethodPost, "/rest/api/3/issue", nil, map[string]interface{}{
		"fields": fields,
	})
}

// EditIssue updates fields on an existing issue.
func (c *JiraClient) EditIssue(issueKey string, fields map[string]interface{}) error {
	_, err := c.doRequest(http.MethodPut, "/rest/api/3/issue/"+issueKey, nil, map[string]interface{}{
		"fields": fields,
	})
	return err
}

// GetTransitions lists the workflow transitions currently available on
// an issue.
func (c *JiraClient) GetTransitions(issueKey string) (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/rest/api/3/issue/"+issueKey+"/transitions", nil, nil)
}

// DoTransition applies a workflow transition by its server-side ID.
func (c *JiraClient) DoTransition(issueKey, transitionID string) error {
	_, err := c.doRequest(http.MethodPost, "/rest/api/3/issue/"+issueKey+"/transitions", nil, map[string]interface{}{
		"transition": map[string]interface{}{"id": transitionID},
	})
	return err
}

// AddComment adds a comment to an issue. The body must already be
// wrapped in the ADF document structure.
func (c *JiraClient) AddComment(issueKey string, body *domain.ADFDocument) (json.RawMessage, error) {
	return c.doRequest(http.MethodPost, "/rest/api/3/issue/"+issueKey+"/comment", nil, map[string]interface{}{
		"body": body,
	})
}

// ListProjects retrieves the projects visible to the authenticated user.
func (c *JiraClient) ListProjects() (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/rest/api/3/project/search", nil, nil)
}

// GetCurrentUser retrieves the authenticated user.
func (c *JiraClient) GetCurrentUser() (json.RawMessage, error) {
	return c.doRequest(http.MethodGet, "/rest/api/3/myself", nil, nil)
}
