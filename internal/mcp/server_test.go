// ABOUTME: Protocol-level tests for the MCP server
// ABOUTME: Drives a real client session over in-memory transports
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connectTestClient runs the server on an in-memory transport and connects
// a client session to it.
func connectTestClient(t *testing.T, server *Server) *mcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.mcpServer.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		cancel()
		t.Fatalf("client.Connect: %v", err)
	}

	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-errCh
	})

	return session
}

func TestListTools(t *testing.T) {
	server, _ := newTestServer(t)
	session := connectTestClient(t, server)

	result, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range result.Tools {
		names[tool.Name] = true
	}

	for _, want := range []string{
		"search_items", "get_citation", "add_item", "get_bibliography",
		"create_collection", "update_item", "delete_item",
		"get_item_types", "get_item_fields",
	} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}

func TestListResources(t *testing.T) {
	server, _ := newTestServer(t)
	session := connectTestClient(t, server)

	result, err := session.ListResources(context.Background(), nil)
	require.NoError(t, err)

	uris := make(map[string]bool)
	for _, resource := range result.Resources {
		uris[resource.URI] = true
	}
	for _, want := range []string{
		"zotero://collections", "zotero://items/top", "zotero://items/recent",
	} {
		assert.True(t, uris[want], "missing resource %s", want)
	}

	templates, err := session.ListResourceTemplates(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, templates.ResourceTemplates, 3)
}

func TestCallToolOverSession(t *testing.T) {
	server, fake := newTestServer(t)
	for _, key := range []string{"AAAA0001", "AAAA0002", "AAAA0003", "AAAA0004", "AAAA0005", "AAAA0006", "AAAA0007"} {
		fake.addItem(key, "Ethics study "+key, "journalArticle", nil)
	}
	session := connectTestClient(t, server)
	ctx := context.Background()

	t.Run("search respects limit", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "search_items",
			Arguments: map[string]json.RawMessage{
				"query": json.RawMessage(`"ethics"`),
				"limit": json.RawMessage(`5`),
			},
		})
		require.NoError(t, err)
		require.False(t, result.IsError)

		data, err := json.Marshal(result.StructuredContent)
		require.NoError(t, err)
		var output SearchItemsOutput
		require.NoError(t, json.Unmarshal(data, &output))
		assert.LessOrEqual(t, len(output.Results), 5)
	})

	t.Run("unknown tool is an error response, not a crash", func(t *testing.T) {
		_, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "definitely_not_registered",
			Arguments: map[string]json.RawMessage{},
		})
		require.Error(t, err)

		// The session must still be usable afterwards
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "search_items",
			Arguments: map[string]json.RawMessage{
				"query": json.RawMessage(`"ethics"`),
			},
		})
		require.NoError(t, err)
		assert.False(t, result.IsError)
	})

	t.Run("missing argument surfaces as an error", func(t *testing.T) {
		result, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      "get_citation",
			Arguments: map[string]json.RawMessage{},
		})
		// Rejected either by schema validation or by the handler, but
		// always as an error response rather than a dead session.
		if err == nil {
			assert.True(t, result.IsError)
		}

		followUp, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name: "search_items",
			Arguments: map[string]json.RawMessage{
				"query": json.RawMessage(`"ethics"`),
			},
		})
		require.NoError(t, err)
		assert.False(t, followUp.IsError)
	})
}

func TestReadResourceOverSession(t *testing.T) {
	server, fake := newTestServer(t)
	fake.addItem("ABCD1234", "On Liberty", "book", nil)
	session := connectTestClient(t, server)
	ctx := context.Background()

	t.Run("static resource", func(t *testing.T) {
		result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "zotero://collections"})
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "Philosophy")
	})

	t.Run("templated resource", func(t *testing.T) {
		result, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "zotero://items/ABCD1234"})
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, "On Liberty")
	})

	t.Run("unknown resource URI is an error", func(t *testing.T) {
		_, err := session.ReadResource(ctx, &mcp.ReadResourceParams{URI: "zotero://nope"})
		require.Error(t, err)
	})
}

// TestServeMalformedInput drives the server over raw pipes: a line of
// broken JSON must get exactly one parse-error response and the next
// well-formed request must still be served.
func TestServeMalformedInput(t *testing.T) {
	server, _ := newTestServer(t)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, inR, outW)
	}()
	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		_ = outR.Close()
		<-done
	})

	out := bufio.NewReader(outR)
	writeLine := func(line string) {
		t.Helper()
		_, err := io.WriteString(inW, line+"\n")
		require.NoError(t, err)
	}
	readResponse := func() map[string]json.RawMessage {
		t.Helper()
		type readResult struct {
			line string
			err  error
		}
		ch := make(chan readResult, 1)
		go func() {
			line, err := out.ReadString('\n')
			ch <- readResult{line, err}
		}()
		select {
		case got := <-ch:
			require.NoError(t, got.err)
			var msg map[string]json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(got.line), &msg))
			return msg
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for a response line")
			return nil
		}
	}

	writeLine(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"raw-pipe","version":"0.0.1"}}}`)
	init := readResponse()
	assert.Equal(t, "1", string(init["id"]))
	require.Contains(t, init, "result")

	writeLine(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)

	writeLine(`{this is not JSON`)
	parseErr := readResponse()
	require.Contains(t, parseErr, "error")
	var rpcErr struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(parseErr["error"], &rpcErr))
	assert.Equal(t, -32700, rpcErr.Code)
	assert.Equal(t, "null", string(parseErr["id"]))

	writeLine(`{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`)
	listResp := readResponse()
	assert.Equal(t, "2", string(listResp["id"]))
	require.Contains(t, listResp, "result")
	assert.Contains(t, string(listResp["result"]), "search_items")
}

func TestFrameable(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{`{"jsonrpc":"2.0","id":1,"method":"ping"}`, true},
		{`[{"jsonrpc":"2.0","id":1,"method":"a"}]`, true},
		{`{broken`, false},
		{`"just a string"`, false},
		{`42`, false},
		{``, false},
	}
	for _, tc := range cases {
		if got := frameable([]byte(tc.input + "\n")); got != tc.want {
			t.Errorf("frameable(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestGetPromptOverSession(t *testing.T) {
	server, _ := newTestServer(t)
	session := connectTestClient(t, server)

	result, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{Name: "zotero-getting-started"})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	text, ok := result.Messages[0].Content.(*mcp.TextContent)
	require.True(t, ok)
	assert.True(t, strings.Contains(text.Text, "search_items"))
}
