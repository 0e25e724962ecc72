// ABOUTME: MCP server implementation for zotero-mcp
// ABOUTME: Exposes a Zotero library as tools and resources for AI assistants
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harper/zotero-mcp/internal/zotero"
)

// Server wraps the MCP server with Zotero-specific functionality.
type Server struct {
	mcpServer *mcp.Server
	client    *zotero.Client
	log       *log.Logger
}

// NewServer creates a new Zotero MCP server backed by client.
func NewServer(client *zotero.Client, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	impl := &mcp.Implementation{
		Name:    "zotero-mcp",
		Version: "0.2.0",
	}

	server := &Server{
		mcpServer: mcp.NewServer(impl, nil),
		client:    client,
		log:       logger,
	}

	// Register components
	server.registerPrompts()
	server.registerTools()
	server.registerResources()

	return server
}

// Run starts the MCP server on stdin/stdout. It returns when stdin closes
// or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve runs the server over the given newline-delimited JSON streams.
// Input lines that cannot be framed as JSON-RPC are answered with a parse
// error and discarded before they reach the protocol layer, which would
// otherwise drop the whole session on the first bad line.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	w := &syncWriter{w: out}
	transport := &mcp.IOTransport{
		Reader: s.filterMalformedLines(in, w),
		Writer: w,
	}
	return s.mcpServer.Run(ctx, transport)
}

// parseErrorLine is the JSON-RPC 2.0 response for input that could not be
// parsed. The id is null because a broken line has no usable id.
const parseErrorLine = `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Parse error"}}` + "\n"

// filterMalformedLines forwards well-formed input lines to the returned
// reader and answers everything else with parseErrorLine on out. The
// protocol layer's stream decoder cannot resync after a syntax error, so
// bad lines must never reach it.
func (s *Server) filterMalformedLines(in io.Reader, out io.Writer) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		br := bufio.NewReader(in)
		for {
			line, err := br.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				if frameable(line) {
					if _, werr := pw.Write(line); werr != nil {
						return
					}
				} else {
					s.log.Warn("discarding malformed input line")
					if _, werr := io.WriteString(out, parseErrorLine); werr != nil {
						pw.CloseWithError(werr)
						return
					}
				}
			}
			if err != nil {
				pw.CloseWithError(err)
				return
			}
		}
	}()
	return pr
}

// frameable reports whether a line can be decoded as a JSON-RPC message or
// batch. Valid JSON scalars are rejected along with syntax errors, since
// neither can be framed.
func frameable(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return false
	}
	return json.Valid(trimmed)
}

// syncWriter serializes writes from the protocol layer and the input
// filter onto one stream. Close is a no-op so the server never closes
// stdout out from under the process.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *syncWriter) Close() error { return nil }

// toolSchema derives the JSON schema for a tool's input struct.
func toolSchema[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(err)
	}
	return schema
}
