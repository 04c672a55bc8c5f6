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

// mockDatabaseServer serves a database query whose rows exercise every
// title-resolution path: a Name property, a Title property, a title
// property under another name, and no title at all.
func mockDatabaseServer(t *testing.T, captured *map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == "POST" && r.URL.Path == "/v1/databases/db1/query":
			if captured != nil {
				require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"object": "list",
				"results": []map[string]interface{}{
					{
						"id": "row-1",
						"properties": map[string]interface{}{
							"Name": map[string]interface{}{
								"type": "title",
								"title": []map[string]interface{}{
									{"plain_text": "First row"},
								},
							},
						},
					},
					{
						"id": "row-2",
						"properties": map[string]interface{}{
							"Title": map[string]interface{}{
								"type": "title",
								"title": []map[string]interface{}{
									{"plain_text": "Second "},
									{"plain_text": "row"},
								},
							},
						},
					},
					{
						"id": "row-3",
						"properties": map[string]interface{}{
							"Task": map[string]interface{}{
								"type": "title",
								"title": []map[string]interface{}{
									{"plain_text": "Third row"},
								},
							},
						},
					},
					{
						"id": "row-4",
						"properties": map[string]interface{}{
							"Count": map[string]interface{}{"type": "number", "number": 4},
						},
					},
				},
				"has_more": false,
			})

		case r.Method == "POST" && r.URL.Path == "/v1/search":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"object": "list",
				"filter": body["filter"],
				"results": []map[string]interface{}{
					{"object": "database", "id": "db1"},
				},
			})

		case r.Method == "POST" && r.URL.Path == "/v1/databases":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"object":     "database",
				"id":         "created-db",
				"properties": body["properties"],
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// newDatabaseHandler wires a database handler against a mock server.
func newDatabaseHandler(server *httptest.Server) *NotionDatabaseHandler {
	client := infrastructure.NewNotionClientWithBaseURL(server.URL+"/v1", server.Client())
	return NewNotionDatabaseHandler(client, domain.NewResponseMapper())
}

func TestNotionDatabaseHandlerQueryTitleReshaping(t *testing.T) {
	var captured map[string]interface{}
	server := mockDatabaseServer(t, &captured)
	defer server.Close()

	handler := newDatabaseHandler(server)
	resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: ToolNotionQueryDatabase,
		Arguments: map[string]interface{}{
			"databaseId": "db1",
			"filter": map[string]interface{}{
				"property": "Status",
				"select":   map[string]interface{}{"equals": "Open"},
			},
			"sorts": []interface{}{
				map[string]interface{}{"property": "Name", "direction": "ascending"},
			},
		},
	})

	require.NoError(t, err)

	// Filter and sorts must reach the remote API unchanged.
	assert.Equal(t, "Status", captured["filter"].(map[string]interface{})["property"])
	assert.Len(t, captured["sorts"], 1)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &result))
	results := result["results"].([]interface{})
	require.Len(t, results, 4)

	titles := make([]string, 0, 4)
	for _, row := range results {
		titles = append(titles, row.(map[string]interface{})["title"].(string))
	}
	assert.Equal(t, []string{"First row", "Second row", "Third row", "Untitled"}, titles)

	// Reshaping adds the title; the raw properties stay intact.
	first := results[0].(map[string]interface{})
	assert.Contains(t, first, "properties")
}

func TestNotionDatabaseHandlerListDatabasesFiltersSearch(t *testing.T) {
	server := mockDatabaseServer(t, nil)
	defer server.Close()

	handler := newDatabaseHandler(server)
	resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name:      ToolNotionListDatabases,
		Arguments: map[string]interface{}{},
	})

	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &result))
	filter := result["filter"].(map[string]interface{})
	assert.Equal(t, "object", filter["property"])
	assert.Equal(t, "database", filter["value"])
}

func TestNotionDatabaseHandlerCreateDatabaseAddsTitleProperty(t *testing.T) {
	server := mockDatabaseServer(t, nil)
	defer server.Close()

	handler := newDatabaseHandler(server)
	resp, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name: ToolNotionCreateDatabase,
		Arguments: map[string]interface{}{
			"parentPageId": "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4",
			"title":        "Tasks",
			"properties": map[string]interface{}{
				"Status": map[string]interface{}{
					"select": map[string]interface{}{"options": []interface{}{}},
				},
			},
		},
	})

	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Content[0].Text), &result))
	properties := result["properties"].(map[string]interface{})
	assert.Contains(t, properties, "Name")
	assert.Contains(t, properties, "Status")
}

func TestNotionDatabaseHandlerUpdateRequiresChange(t *testing.T) {
	server := mockDatabaseServer(t, nil)
	defer server.Close()

	handler := newDatabaseHandler(server)
	_, err := handler.Handle(context.Background(), &domain.ToolRequest{
		Name:      ToolNotionUpdateDatabase,
		Arguments: map[string]interface{}{"databaseId": "db1"},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one of title or properties")
}

func TestNotionDatabaseHandlerListTools(t *testing.T) {
	server := mockDatabaseServer(t, nil)
	defer server.Close()

	handler := newDatabaseHandler(server)
	assert.Len(t, handler.ListTools(), 5)
}
