package application

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jira-notion-mcp-server/internal/domain"
	"jira-notion-mcp-server/internal/infrastructure"
)

// sprintServerState records the mutating calls the close-sprint flow
// makes so tests can assert on what actually happened remotely.
type sprintServerState struct {
	mu            sync.Mutex
	closedSprints []int
	backlogMoves  [][]string
	sprintAdds    map[int][]string
}

// mockSprintServer serves a sprint 5 containing three issues, one of
// which is Done.
func mockSprintServer(t *testing.T, state *sprintServerState) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == "GET" && r.URL.Path == "/rest/agile/1.0/sprint/5/issue":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"issues": []map[string]interface{}{
					{"id": "1", "key": "PROD-1", "fields": map[string]interface{}{
						"status": map[string]interface{}{"id": "31", "name": "Done"},
					}},
					{"id": "2", "key": "PROD-2", "fields": map[string]interface{}{
						"status": map[string]interface{}{"id": "21", "name": "In Progress"},
					}},
					{"id": "3", "key": "PROD-3", "fields": map[string]interface{}{
						"status": map[string]interface{}{"id": "11", "name": "To Do"},
					}},
				},
			})

		case r.Method == "POST" && r.URL.Path == "/rest/agile/1.0/sprint/5":
			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			if payload["state"] == "closed" {
				state.mu.Lock()
				state.closedSprints = append(state.closedSprints, 5)
				state.mu.Unlock()
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id": 5, "name": "Sprint 5", "state": "closed",
			})

		case r.Method == "POST" && r.URL.Path == "/rest/agile/1.0/backlog/issue":
			var payload struct {
				Issues []string `json:"issues"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			state.mu.Lock()
			state.backlogMoves = append(state.backlogMoves, payload.Issues)
			state.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)

		case r.Method == "POST" && r.URL.Path == "/rest/agile/1.0/sprint/6/issue":
			var payload struct {
				Issues []string `json:"issues"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			state.mu.Lock()
			if state.sprintAdds == nil {
				state.sprintAdds = make(map[int][]string)
			}
			state.sprintAdds[6] = append(state.sprintAdds[6], payload.Issues...)
			state.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// newSprintHandler wires a sprint handler against a mock server.
func newSprintHandler(server *httptest.Server) *JiraSprintHandler {
	agile := infrastructure.NewAgileClient(server.URL, server.Client())
	return NewJiraSprintHandler(agile, domain.NewResponseMapper())
}

func TestJiraSprintHandlerCloseSprintMovesIncompleteToBacklog(t *testing.T) {
	state := &sprintServerState{}
	server := mockSprintServer(t, state)
	defer server.Close()

	handler := newSprintHandler(server)
	resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name:      ToolJiraCloseSprint,
		Arguments: map[string]interface{}{"sprintId": float64(5)},
	})

	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &result))
	assert.Equal(t, float64(2), result["incompleteIssues"])
	assert.Equal(t, "backlog", result["movedTo"])

	assert.Equal(t, []int{5}, state.closedSprints)
	require.Len(t, state.backlogMoves, 1)
	assert.ElementsMatch(t, []string{"PROD-2", "PROD-3"}, state.backlogMoves[0])
}

func TestJiraSprintHandlerCloseSprintTargetSprint(t *testing.T) {
	state := &sprintServerState{}
	server := mockSprintServer(t, state)
	defer server.Close()

	handler := newSprintHandler(server)
	resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: ToolJiraCloseSprint,
		Arguments: map[string]interface{}{
			"sprintId":       float64(5),
			"targetSprintId": float64(6),
		},
	})

	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &result))
	assert.Equal(t, "sprint", result["movedTo"])

	assert.ElementsMatch(t, []string{"PROD-2", "PROD-3"}, state.sprintAdds[6])
	assert.Empty(t, state.backlogMoves)
}

func TestJiraSprintHandlerCloseSprintLeaveUntouched(t *testing.T) {
	state := &sprintServerState{}
	server := mockSprintServer(t, state)
	defer server.Close()

	handler := newSprintHandler(server)
	resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: ToolJiraCloseSprint,
		Arguments: map[string]interface{}{
			"sprintId":      float64(5),
			"moveToBacklog": false,
		},
	})

	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &result))
	assert.Equal(t, float64(2), result["incompleteIssues"])
	assert.Equal(t, "none", result["movedTo"])

	assert.Equal(t, []int{5}, state.closedSprints)
	assert.Empty(t, state.backlogMoves)
	assert.Empty(t, state.sprintAdds)
}

func TestJiraSprintHandlerRemoveFromSprintAlias(t *testing.T) {
	state := &sprintServerState{}
	server := mockSprintServer(t, state)
	defer server.Close()

	handler := newSprintHandler(server)
	resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: ToolJiraRemoveFromSprint,
		Arguments: map[string]interface{}{
			"issueKeys": []interface{}{"PROD-9"},
		},
	})

	require.NoError(t, err)
	assert.Contains(t, resp.Content[0].Text, "moved to the backlog")
	require.Len(t, state.backlogMoves, 1)
	assert.Equal(t, []string{"PROD-9"}, state.backlogMoves[0])
}

func TestJiraSprintHandlerAddIssuesEmptyKeys(t *testing.T) {
	state := &sprintServerState{}
	server := mockSprintServer(t, state)
	defer server.Close()

	handler := newSprintHandler(server)
	_, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: ToolJiraAddIssuesToSprint,
		Arguments: map[string]interface{}{
			"sprintId":  float64(6),
			"issueKeys": []interface{}{},
		},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "issueKeys must not be empty")
}

func TestJiraSprintHandlerInvalidState(t *testing.T) {
	state := &sprintServerState{}
	server := mockSprintServer(t, state)
	defer server.Close()

	handler := newSprintHandler(server)
	_, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: ToolJiraGetBoardSprints,
		Arguments: map[string]interface{}{
			"boardId": float64(42),
			"state":   "paused",
		},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sprint state: paused")
}

func TestJiraSprintHandlerListTools(t *testing.T) {
	state := &sprintServerState{}
	server := mockSprintServer(t, state)
	defer server.Close()

	handler := newSprintHandler(server)
	tools := handler.ListTools()
	assert.Len(t, tools, 10)
}
