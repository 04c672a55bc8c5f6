package application

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

// testJiraConfig is the allow-list configuration shared by the issue
// handler tests.
func testJiraConfig() *domain.JiraConfig {
	return &domain.JiraConfig{
		Host:     "jira.example.com",
		Email:    "dev@example.com",
		APIToken: "token",
		Projects: []string{"PROD", "OPS"},
	}
}

// mockJiraServer serves the core REST and Agile endpoints the issue
// handler touches. The activeSprints flag controls whether board 42
// reports an active sprint.
func mockJiraServer(t *testing.T, activeSprints bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == "GET" && r.URL.Path == "/rest/api/3/issue/PROD-123":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":  "10001",
				"key": "PROD-123",
				"fields": map[string]interface{}{
					"summary": "Test issue",
					"status":  map[string]interface{}{"id": "1", "name": "Open"},
				},
			})

		case r.Method == "POST" && r.URL.Path == "/rest/api/3/issue":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":   "10002",
				"key":  "PROD-124",
				"self": "https://jira.example.com/rest/api/3/issue/10002",
			})

		case r.Method == "GET" && r.URL.Path == "/rest/api/3/issue/PROD-123/transitions":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"transitions": []map[string]interface{}{
					{"id": "11", "name": "To Do"},
					{"id": "21", "name": "In Progress"},
					{"id": "31", "name": "Done"},
				},
			})

		case r.Method == "POST" && r.URL.Path == "/rest/api/3/issue/PROD-123/transitions":
			w.WriteHeader(http.StatusNoContent)

		case r.Method == "GET" && r.URL.Path == "/rest/agile/1.0/board/42/sprint":
			sprints := []map[string]interface{}{}
			if activeSprints {
				sprints = append(sprints, map[string]interface{}{
					"id": 7, "name": "Sprint 7", "state": "active",
				})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"values": sprints})

		case r.Method == "POST" && r.URL.Path == "/rest/agile/1.0/sprint/7/issue":
			w.WriteHeader(http.StatusNoContent)

		case r.Method == "POST" && r.URL.Path == "/rest/agile/1.0/sprint/99/issue":
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"errorMessages": []string{"not found: " + r.URL.Path},
			})
		}
	}))
}

// newIssueHandler wires an issue handler against a mock server.
func newIssueHandler(server *httptest.Server) *JiraIssueHandler {
	client := infrastructure.NewJiraClient(server.URL, server.Client())
	agile := infrastructure.NewAgileClient(server.URL, server.Client())
	return NewJiraIssueHandler(client, agile, domain.NewResponseMapper(), testJiraConfig())
}

func TestJiraIssueHandlerGetIssue(t *testing.T) {
	server := mockJiraServer(t, true)
	defer server.Close()

	handler := newIssueHandler(server)
	resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name:      ToolJiraGetIssue,
		Arguments: map[string]interface{}{"issueKey": "PROD-123"},
	})

	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.False(t, resp.IsError)
	assert.Contains(t, resp.Content[0].Text, "PROD-123")
	assert.Contains(t, resp.Content[0].Text, "Test issue")
}

func TestJiraIssueHandlerCreateIssueProjectAllowList(t *testing.T) {
	server := mockJiraServer(t, true)
	defer server.Close()

	handler := newIssueHandler(server)
	_, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: ToolJiraCreateIssue,
		Arguments: map[string]interface{}{
			"projectKey": "SECRET",
			"summary":    "x",
		},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid project: SECRET")
	assert.Contains(t, err.Error(), "PROD, OPS")
}

func TestJiraIssueHandlerCreateIssueSprintAssignment(t *testing.T) {
	tests := []struct {
		name          string
		args          map[string]interface{}
		activeSprints bool
		wantMethod    string
	}{
		{
			name: "direct sprint id",
			args: map[string]interface{}{
				"projectKey": "PROD", "summary": "x", "sprintId": float64(99),
			},
			activeSprints: true,
			wantMethod:    "direct",
		},
		{
			name: "auto active sprint via board",
			args: map[string]interface{}{
				"projectKey": "PROD", "summary": "x", "boardId": float64(42),
			},
			activeSprints: true,
			wantMethod:    "auto-active",
		},
		{
			name: "board without active sprint",
			args: map[string]interface{}{
				"projectKey": "PROD", "summary": "x", "boardId": float64(42),
			},
			activeSprints: false,
			wantMethod:    "no-active-sprint",
		},
		{
			name: "no sprint requested",
			args: map[string]interface{}{
				"projectKey": "PROD", "summary": "x",
			},
			activeSprints: true,
			wantMethod:    "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockJiraServer(t, tt.activeSprints)
			defer server.Close()

			handler := newIssueHandler(server)
			resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
				Name:      ToolJiraCreateIssue,
				Arguments: tt.args,
			})

			require.NoError(t, err)
			require.Len(t, resp.Content, 1)

			var result map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &result))
			assert.Equal(t, "PROD-124", result["key"])

			sprint, ok := result["sprint"].(map[string]interface{})
			require.True(t, ok, "create response must carry a sprint sub-object")
			assert.Equal(t, tt.wantMethod, sprint["method"])
		})
	}
}

func TestJiraIssueHandlerTransitionCaseInsensitive(t *testing.T) {
	for _, name := range []string{"Done", "done", "DONE"} {
		t.Run(name, func(t *testing.T) {
			server := mockJiraServer(t, true)
			defer server.Close()

			handler := newIssueHandler(server)
			resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
				Name: ToolJiraTransition,
				Arguments: map[string]interface{}{
					"issueKey":       "PROD-123",
					"transitionName": name,
				},
			})

			require.NoError(t, err)
			assert.Contains(t, resp.Content[0].Text, "transitioned successfully")
		})
	}
}

func TestJiraIssueHandlerTransitionUnknownNameListsAvailable(t *testing.T) {
	server := mockJiraServer(t, true)
	defer server.Close()

	handler := newIssueHandler(server)
	_, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: ToolJiraTransition,
		Arguments: map[string]interface{}{
			"issueKey":       "PROD-123",
			"transitionName": "Donee",
		},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transition not found: Donee")
	assert.Contains(t, err.Error(), "To Do")
	assert.Contains(t, err.Error(), "In Progress")
	assert.Contains(t, err.Error(), "Done")
}

func TestJiraIssueHandlerTransitionRequiresNameOrID(t *testing.T) {
	server := mockJiraServer(t, true)
	defer server.Close()

	handler := newIssueHandler(server)
	_, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name:      ToolJiraTransition,
		Arguments: map[string]interface{}{"issueKey": "PROD-123"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "either transitionId or transitionName")
}

func TestJiraIssueHandlerMissingRequiredParam(t *testing.T) {
	server := mockJiraServer(t, true)
	defer server.Close()

	handler := newIssueHandler(server)
	_, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name:      ToolJiraGetIssue,
		Arguments: map[string]interface{}{},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter: issueKey")
}

func TestJiraIssueHandlerUnknownTool(t *testing.T) {
	server := mockJiraServer(t, true)
	defer server.Close()

	handler := newIssueHandler(server)
	_, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: "jira_explode",
	})

	require.Error(t, err)
}

func TestJiraIssueHandlerListTools(t *testing.T) {
	server := mockJiraServer(t, true)
	defer server.Close()

	handler := newIssueHandler(server)
	tools := handler.ListTools()
	assert.Len(t, tools, 9)

	names := make(map[string]bool)
	for _, tool := range tools {
		names[tool.Name] = true
		assert.NotEmpty(t, tool.Description)
		assert.Equal(t, "object", tool.InputSchema.Type)
	}
	assert.True(t, names[ToolJiraSearchIssues])
	assert.True(t, names[ToolJiraCreateIssue])
	assert.True(t, names[ToolJiraGetCurrentUser])
}
