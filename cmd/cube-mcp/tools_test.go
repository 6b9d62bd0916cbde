package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/vthunder/cube/internal/activity"
	"github.com/vthunder/cube/internal/effectors"
	"github.com/vthunder/cube/internal/executive"
	"github.com/vthunder/cube/internal/memory"
	"github.com/vthunder/cube/internal/runner"
)

func newTestTools(t *testing.T) *tools {
	t.Helper()
	store, err := memory.Open(memory.DriverCGO, filepath.Join(t.TempDir(), "objects.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	journal := activity.New(t.TempDir())
	exec, err := executive.New(executive.Config{
		Hardware: effectors.NewMockHardware(),
		Memory:   store,
		Activity: journal,
	})
	if err != nil {
		t.Fatal(err)
	}
	r := runner.New(exec, runner.Options{PollInterval: time.Millisecond})
	r.Start()
	t.Cleanup(func() { r.Stop() })
	return newTools(exec, r, journal)
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := handler(ctx, req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestRememberThenFind(t *testing.T) {
	tl := newTestTools(t)

	if _, isErr := call(t, tl.handleRemember, map[string]any{"name": "wallet", "location": "bag"}); isErr {
		t.Fatal("remember failed")
	}

	out, isErr := call(t, tl.handleFind, map[string]any{"name": "wallet"})
	if isErr {
		t.Fatalf("find failed: %s", out)
	}
	var res executive.FindResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	if !res.Found || res.Memory == nil || res.Memory.Location != "bag" {
		t.Errorf("unexpected find result %+v", res)
	}
}

func TestSetModeValidates(t *testing.T) {
	tl := newTestTools(t)

	if _, isErr := call(t, tl.handleSetMode, map[string]any{"mode": "sleepy"}); !isErr {
		t.Error("Expected error for invalid mode")
	}

	out, isErr := call(t, tl.handleSetMode, map[string]any{"mode": "focus"})
	if isErr || !strings.Contains(out, `"focus"`) {
		t.Errorf("unexpected set_mode output %q", out)
	}
}

func TestCommandAndStatus(t *testing.T) {
	tl := newTestTools(t)

	if _, isErr := call(t, tl.handleCommand, map[string]any{}); !isErr {
		t.Error("Expected error for missing text")
	}

	out, isErr := call(t, tl.handleCommand, map[string]any{"text": "明天9点提醒带身份证"})
	if isErr || !strings.Contains(out, "带身份证") {
		t.Errorf("unexpected command output %q", out)
	}

	out, _ = call(t, tl.handleStatus, nil)
	if !strings.Contains(out, `"reminders"`) || !strings.Contains(out, "带身份证") {
		t.Errorf("status should list the reminder: %s", out)
	}
}

func TestSetEmotionUnknown(t *testing.T) {
	tl := newTestTools(t)

	if _, isErr := call(t, tl.handleSetEmotion, map[string]any{"emotion": "furious"}); !isErr {
		t.Error("Expected error for unknown emotion")
	}
	if out, isErr := call(t, tl.handleSetEmotion, map[string]any{"emotion": "relaxed"}); isErr {
		t.Errorf("relaxed should be accepted: %s", out)
	}
}

func TestTickTool(t *testing.T) {
	tl := newTestTools(t)
	out, isErr := call(t, tl.handleTick, nil)
	if isErr || !strings.Contains(out, `"mode": "ambient"`) {
		t.Errorf("unexpected tick output %q", out)
	}
}

func TestActivityTool(t *testing.T) {
	tl := newTestTools(t)
	call(t, tl.handleSetMode, map[string]any{"mode": "focus", "reason": "wake_word"})
	call(t, tl.handleCommand, map[string]any{"text": "你好"})

	out, isErr := call(t, tl.handleActivity, map[string]any{"type": "mode"})
	if isErr {
		t.Fatalf("activity failed: %s", out)
	}
	var entries []activity.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("bad JSON %q: %v", out, err)
	}
	if len(entries) != 1 || entries[0].Reason != "wake_word" {
		t.Errorf("unexpected mode entries %+v", entries)
	}

	out, _ = call(t, tl.handleActivity, map[string]any{"limit": float64(1)})
	if err := json.Unmarshal([]byte(out), &entries); err != nil || len(entries) != 1 || entries[0].Type != activity.TypeCommand {
		t.Errorf("Expected latest entry to be the chat command, got %s", out)
	}
}
