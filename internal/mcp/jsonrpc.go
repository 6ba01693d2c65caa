// Package mcp exposes the impact log to AI assistants as an MCP stdio
// server speaking JSON-RPC 2.0.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/blackwell-systems/impactlog/internal/tracker"
	"github.com/rs/zerolog/log"
)

// protocolVersion is the MCP revision this server implements.
const protocolVersion = "2024-11-05"

// maxMessageSize bounds a single newline-delimited request.
const maxMessageSize = 1 << 20

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// Server is an MCP stdio server over a Tracker. Each input line is one
// JSON-RPC message; each response is written as one line.
type Server struct {
	tools   []toolDef
	index   map[string]int
	tracker *tracker.Tracker
	version string
}

type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

// toolHandler receives the raw "arguments" object, {} when absent. The
// returned value is sent back JSON-encoded as text content.
type toolHandler func(ctx context.Context, args json.RawMessage) (any, error)

type request struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *rpcError        `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      serverInfo     `json:"serverInfo"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// toolsCallResult is the MCP content envelope of a tool call. Tool
// failures are reported here with IsError, not as JSON-RPC errors.
type toolsCallResult struct {
	Content []textContent `json:"content"`
	IsError bool          `json:"isError"`
}

type textContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolListEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// NewServer constructs a Server backed by tr with every impactlog tool
// registered. version is reported in serverInfo.
func NewServer(tr *tracker.Tracker, version string) *Server {
	s := &Server{
		index:   make(map[string]int),
		tracker: tr,
		version: version,
	}
	addTools(s)
	return s
}

// registerTool adds def, replacing any tool with the same name in place.
func (s *Server) registerTool(def toolDef) {
	if i, ok := s.index[def.Name]; ok {
		s.tools[i] = def
		return
	}
	s.index[def.Name] = len(s.tools)
	s.tools = append(s.tools, def)
}

// Run serves requests read from r until r reaches EOF or ctx is cancelled.
// Both are a clean shutdown and return nil; read and write failures are
// returned.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go readLines(ctx, r, lines, readErr)

	bw := bufio.NewWriter(w)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			resp := s.handle(ctx, line)
			if resp == nil {
				continue
			}
			if err := writeMessage(bw, resp); err != nil {
				return err
			}
		}
	}
}

// readLines sends every non-blank line of r on out, then reports the
// scanner error (nil at EOF) on errc and closes out.
func readLines(ctx context.Context, r io.Reader, out chan<- []byte, errc chan<- error) {
	defer close(out)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		// The scanner reuses its buffer.
		msg := append([]byte(nil), line...)
		select {
		case out <- msg:
		case <-ctx.Done():
			errc <- nil
			return
		}
	}
	errc <- sc.Err()
}

// handle dispatches one message. Notifications (no id) get no response.
func (s *Server) handle(ctx context.Context, line []byte) *response {
	var req request
	if err := json.Unmarshal(line, &req); err != nil {
		return &response{JSONRPC: "2.0", Error: &rpcError{Code: codeParseError, Message: "Parse error"}}
	}
	if req.ID == nil {
		log.Debug().Str("method", req.Method).Msg("notification")
		return nil
	}

	resp := &response{JSONRPC: "2.0", ID: req.ID}
	switch req.Method {
	case "initialize":
		resp.Result = initializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      serverInfo{Name: "impactlog", Version: s.version},
		}
	case "ping":
		resp.Result = struct{}{}
	case "tools/list":
		resp.Result = map[string]any{"tools": s.listTools()}
	case "tools/call":
		var params toolsCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
			resp.Error = &rpcError{Code: codeInvalidParams, Message: "Invalid params"}
			break
		}
		resp.Result = s.callTool(ctx, params)
	default:
		resp.Error = &rpcError{Code: codeMethodNotFound, Message: "Method not found"}
	}
	return resp
}

func (s *Server) listTools() []toolListEntry {
	entries := make([]toolListEntry, len(s.tools))
	for i, t := range s.tools {
		entries[i] = toolListEntry{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
	}
	return entries
}

func (s *Server) callTool(ctx context.Context, params toolsCallParams) toolsCallResult {
	i, ok := s.index[params.Name]
	if !ok {
		return textResult(fmt.Sprintf("unknown tool: %s", params.Name), true)
	}
	tool := s.tools[i]

	args := params.Arguments
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage(`{}`)
	}

	start := time.Now()
	result, err := tool.Handler(ctx, args)
	log.Debug().Str("tool", tool.Name).Dur("took", time.Since(start)).Err(err).Msg("tool call")
	if err != nil {
		return textResult(err.Error(), true)
	}

	data, err := json.Marshal(result)
	if err != nil {
		return textResult(fmt.Sprintf("encoding %s result: %v", tool.Name, err), true)
	}
	return textResult(string(data), false)
}

func textResult(text string, isError bool) toolsCallResult {
	return toolsCallResult{Content: []textContent{{Type: "text", Text: text}}, IsError: isError}
}

// writeMessage writes v as one JSON line and flushes.
func writeMessage(bw *bufio.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.Flush()
}
