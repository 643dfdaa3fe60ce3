package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestServerDispatchesRequests(t *testing.T) {
	input := strings.Join([]string{
		`{"id":1,"tool":"echo","args":{"msg":"hi"}}`,
		``,
		`{"id":2,"tool":"missing"}`,
		`not json`,
		`{"id":3,"tool":"fail"}`,
	}, "\n") + "\n"

	var out bytes.Buffer
	srv := NewServer(strings.NewReader(input), &out)
	srv.RegisterTool("echo", func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
		var args struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		return "echo: " + args.Msg, nil
	})
	srv.RegisterTool("fail", func(context.Context, json.RawMessage) (interface{}, error) {
		return nil, fmt.Errorf("boom")
	})

	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 response lines, got %d: %q", len(lines), out.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &resp); err != nil {
		t.Fatalf("decode first response: %v", err)
	}
	if resp["id"] != float64(1) || resp["content"] != "echo: hi" {
		t.Fatalf("unexpected first response: %#v", resp)
	}

	resp = nil
	if err := json.Unmarshal([]byte(lines[1]), &resp); err != nil {
		t.Fatalf("decode second response: %v", err)
	}
	if resp["id"] != float64(2) || resp["error"] != "unknown tool: missing" {
		t.Fatalf("unexpected second response: %#v", resp)
	}

	resp = nil
	if err := json.Unmarshal([]byte(lines[2]), &resp); err != nil {
		t.Fatalf("decode third response: %v", err)
	}
	errMsg, _ := resp["error"].(string)
	if resp["id"] != float64(0) || !strings.HasPrefix(errMsg, "decode request: ") {
		t.Fatalf("unexpected third response: %#v", resp)
	}

	resp = nil
	if err := json.Unmarshal([]byte(lines[3]), &resp); err != nil {
		t.Fatalf("decode fourth response: %v", err)
	}
	content, _ := resp["content"].(map[string]interface{})
	if resp["id"] != float64(3) || content["error"] != "boom" {
		t.Fatalf("unexpected fourth response: %#v", resp)
	}
}

func TestServerStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	srv := NewServer(strings.NewReader(`{"id":1,"tool":"echo"}`+"\n"), &out)

	if err := srv.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("no responses expected after cancel, got %q", out.String())
	}
}

func TestServerReturnsNilAtEOF(t *testing.T) {
	srv := NewServer(strings.NewReader(""), &bytes.Buffer{})
	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("expected nil at EOF, got %v", err)
	}
}

func TestServerHandlesLongLines(t *testing.T) {
	payload := strings.Repeat("x", 100*1024)
	input := fmt.Sprintf(`{"id":7,"tool":"len","args":{"data":%q}}`+"\n", payload)

	var out bytes.Buffer
	srv := NewServer(strings.NewReader(input), &out)
	srv.RegisterTool("len", func(_ context.Context, raw json.RawMessage) (interface{}, error) {
		var args struct {
			Data string `json:"data"`
		}
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, err
		}
		return len(args.Data), nil
	})

	if err := srv.Serve(context.Background()); err != nil {
		t.Fatalf("Serve returned error: %v", err)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["content"] != float64(100*1024) {
		t.Fatalf("unexpected content: %#v", resp["content"])
	}
}
