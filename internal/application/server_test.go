package application

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jira-notion-mcp-server/internal/domain"
)

// testConfig returns a minimal stdio configuration for server tests.
func testConfig() *domain.Config {
	return &domain.Config{
		Transport: domain.TransportConfig{Type: "stdio"},
	}
}

// runServer feeds the given JSON-RPC lines through a stdio transport
// and returns the decoded responses, one per input line.
func runServer(t *testing.T, router *RequestRouter, lines ...string) []*domain.Response {
	t.Helper()

	input := strings.Join(lines, "\n") + "\n"
	var output bytes.Buffer

	transport := domain.NewStdioTransportWithIO(strings.NewReader(input), &output)
	server := NewServer(transport, router, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, server.Start(ctx))

	// The read loop closes its channel on EOF; poll until every input
	// line has produced an output line.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Count(output.String(), "\n") >= len(lines) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	var responses []*domain.Response
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line == "" {
			continue
		}
		var resp domain.Response
		require.NoError(t, json.Unmarshal([]byte(line), &resp))
		responses = append(responses, &resp)
	}

	require.Len(t, responses, len(lines))
	return responses
}

// echoRouter builds a router with a single stub tool.
func echoRouter(t *testing.T) *RequestRouter {
	t.Helper()
	handler := &stubHandler{
		group: "stub",
		tools: []domain.ToolDefinition{simpleTool("stub_echo")},
		reply: &domain.ToolResponse{
			Content: []domain.ContentBlock{{Type: "text", Text: "echoed"}},
		},
	}
	router, err := NewRequestRouter(domain.NewResponseMapper(), handler)
	require.NoError(t, err)
	return router
}

func TestServerInitialize(t *testing.T) {
	responses := runServer(t, echoRouter(t),
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

	resp := responses[0]
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, "2024-11-05", result["protocolVersion"])

	serverInfo := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "jira-notion-mcp-server", serverInfo["name"])
}

func TestServerToolsList(t *testing.T) {
	responses := runServer(t, echoRouter(t),
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

	resp := responses[0]
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	tools := result["tools"].([]interface{})
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]interface{})
	assert.Equal(t, "stub_echo", tool["name"])
	assert.Contains(t, tool, "inputSchema")
}

func TestServerToolsCallSuccess(t *testing.T) {
	responses := runServer(t, echoRouter(t),
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"stub_echo","arguments":{}}}`)

	resp := responses[0]
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]interface{})
	require.Len(t, content, 1)
	assert.Equal(t, "echoed", content[0].(map[string]interface{})["text"])
}

func TestServerToolsCallUnknownToolIsEnvelopeNotRPCError(t *testing.T) {
	responses := runServer(t, echoRouter(t),
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"does_not_exist","arguments":{}}}`)

	resp := responses[0]
	require.Nil(t, resp.Error, "tool-level failures must not use the JSON-RPC error channel")

	result := resp.Result.(map[string]interface{})
	assert.Equal(t, true, result["isError"])
	content := result["content"].([]interface{})
	assert.Contains(t, content[0].(map[string]interface{})["text"], "unknown tool")
}

func TestServerToolsCallMissingParams(t *testing.T) {
	responses := runServer(t, echoRouter(t),
		`{"jsonrpc":"2.0","id":5,"method":"tools/call"}`)

	resp := responses[0]
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.InvalidParams, resp.Error.Code)
}

func TestServerUnknownMethod(t *testing.T) {
	responses := runServer(t, echoRouter(t),
		`{"jsonrpc":"2.0","id":6,"method":"resources/list"}`)

	resp := responses[0]
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.MethodNotFound, resp.Error.Code)
}

func TestServerInvalidVersion(t *testing.T) {
	responses := runServer(t, echoRouter(t),
		`{"jsonrpc":"1.0","id":7,"method":"initialize"}`)

	resp := responses[0]
	require.NotNil(t, resp.Error)
	assert.Equal(t, domain.InvalidRequest, resp.Error.Code)
}

func TestServerSequentialRequests(t *testing.T) {
	responses := runServer(t, echoRouter(t),
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"stub_echo","arguments":{}}}`)

	require.Len(t, responses, 3)
	for _, resp := range responses {
		assert.Nil(t, resp.Error)
	}
}
