package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
)

// Request is the tool request envelope, one JSON object per line.
type Request struct {
	ID   int             `json:"id"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// Response is the tool response envelope.
type Response struct {
	ID      int         `json:"id"`
	Content interface{} `json:"content"`
}

// ToolHandler processes raw JSON args and returns a result or error.
type ToolHandler func(ctx context.Context, raw json.RawMessage) (interface{}, error)

// Server reads newline-delimited requests, dispatches to registered tool
// handlers, and writes one response line per request.
type Server struct {
	tools map[string]ToolHandler
	in    io.Reader
	out   io.Writer
}

// NewServer creates a new tool server on the given I/O streams.
func NewServer(in io.Reader, out io.Writer) *Server {
	return &Server{tools: make(map[string]ToolHandler), in: in, out: out}
}

// RegisterTool adds a tool handler to the server.
func (s *Server) RegisterTool(name string, h ToolHandler) {
	s.tools[name] = h
}

// Serve reads requests until EOF or ctx is done. Handler errors travel back
// inside the response envelope; only input problems end the loop.
func (s *Server) Serve(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// Whole documents travel through tool args, so lines can be large.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.write(map[string]interface{}{
				"id":    0,
				"error": "decode request: " + err.Error(),
			})
			continue
		}
		h, ok := s.tools[req.Tool]
		if !ok {
			s.write(map[string]interface{}{
				"id":    req.ID,
				"error": "unknown tool: " + req.Tool,
			})
			continue
		}
		result, err := h(ctx, req.Args)
		envelope := Response{ID: req.ID, Content: result}
		if err != nil {
			envelope.Content = map[string]string{"error": err.Error()}
		}
		s.write(envelope)
	}
	return scanner.Err()
}

func (s *Server) write(v interface{}) {
	b, _ := json.Marshal(v)
	s.out.Write(b)
	s.out.Write([]byte("\n"))
}
