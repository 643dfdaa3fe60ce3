package tools_test

import (
	"context"
	"errors"
	"testing"

	"domino/internal/tools"
)

func TestRegisterAndCall(t *testing.T) {
	tools.ResetHandlersForTest()

	tools.RegisterHandler("load", func(ctx context.Context, args map[string]interface{}) (tools.Result, error) {
		if args["source"] != "https://example.com" {
			t.Errorf("unexpected args: %#v", args)
		}
		return tools.Result{Text: "ok"}, nil
	})

	res, err := tools.Call(context.Background(), "load", map[string]interface{}{"source": "https://example.com"})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if res.Text != "ok" {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestCallUnknownTool(t *testing.T) {
	tools.ResetHandlersForTest()
	_, err := tools.Call(context.Background(), "unknown", nil)
	if err == nil {
		t.Fatalf("expected error for unknown tool")
	}
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}
