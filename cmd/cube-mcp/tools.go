package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/vthunder/cube/internal/activity"
	"github.com/vthunder/cube/internal/executive"
	"github.com/vthunder/cube/internal/focus"
	"github.com/vthunder/cube/internal/runner"
	"github.com/vthunder/cube/internal/types"
)

// tools exposes the executive as MCP tools. Anything that moves hardware
// goes through the runner so it is ordered with ticks and other commands.
type tools struct {
	exec    *executive.Executive
	runner  *runner.Runner
	journal *activity.Log
}

func newTools(exec *executive.Executive, r *runner.Runner, journal *activity.Log) *tools {
	return &tools{exec: exec, runner: r, journal: journal}
}

func (t *tools) register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("cube_status",
		mcp.WithDescription("Current mode, emotion, last message, actuator state and reminders."),
	), t.handleStatus)

	s.AddTool(mcp.NewTool("cube_set_mode",
		mcp.WithDescription("Force the attention mode: focus (left brain) or ambient (right brain)."),
		mcp.WithString("mode", mcp.Required(), mcp.Description("focus or ambient")),
		mcp.WithString("reason", mcp.Description("Recorded on the transition. Default: manual")),
	), t.handleSetMode)

	s.AddTool(mcp.NewTool("cube_command",
		mcp.WithDescription("Run a spoken-style text command, e.g. \"我的钥匙在哪？\" or \"remind me tomorrow at 7pm to call mom\"."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Command text (Chinese or English)")),
	), t.handleCommand)

	s.AddTool(mcp.NewTool("cube_add_reminder",
		mcp.WithDescription("Schedule a reminder. Time text like \"明天9点\" or \"tomorrow 7:30\"; defaults to 09:00."),
		mcp.WithString("time", mcp.Required(), mcp.Description("When to remind")),
		mcp.WithString("content", mcp.Required(), mcp.Description("What to remind about")),
		mcp.WithString("location", mcp.Description("Optional place")),
		mcp.WithBoolean("repeat_daily", mcp.Description("Repeat every day. Default: false")),
	), t.handleAddReminder)

	s.AddTool(mcp.NewTool("cube_find",
		mcp.WithDescription("Point the laser at where an object was last seen."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Object name")),
	), t.handleFind)

	s.AddTool(mcp.NewTool("cube_remember",
		mcp.WithDescription("Record that an object was seen at a location."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Object name")),
		mcp.WithString("location", mcp.Required(), mcp.Description("Where it is")),
		mcp.WithNumber("confidence", mcp.Description("0..1. Default: 0.9")),
	), t.handleRemember)

	s.AddTool(mcp.NewTool("cube_set_emotion",
		mcp.WithDescription("Change the breathing pattern: calm, anxious, relaxed, excited, deepSleep, meditative."),
		mcp.WithString("emotion", mcp.Required(), mcp.Description("Emotion name")),
	), t.handleSetEmotion)

	s.AddTool(mcp.NewTool("cube_activity",
		mcp.WithDescription("Recent device activity: commands, mode changes, reminders, actions and faults."),
		mcp.WithNumber("limit", mcp.Description("Max entries. Default: 20")),
		mcp.WithString("type", mcp.Description("Only this type: command, mode, reminder, action, error")),
		mcp.WithString("query", mcp.Description("Only entries containing this text")),
	), t.handleActivity)

	s.AddTool(mcp.NewTool("cube_tick",
		mcp.WithDescription("Run one control tick now: fire due reminders and apply the idle timeout."),
	), t.handleTick)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func (t *tools) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.exec.Status())
}

func (t *tools) handleSetMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	mode, err := types.ParseMode(stringArg(args, "mode"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reason := stringArg(args, "reason")

	v, err := t.runner.Submit(ctx, focus.P1UserInput, "set_mode", func() (any, error) {
		return t.exec.SetMode(mode, reason)
	})
	if err != nil && v == nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return withWarning(v, err)
}

func (t *tools) handleCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	text := stringArg(args, "text")
	if text == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	resp, err := t.runner.Command(ctx, text)
	if err != nil && resp.Result == nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return withWarning(resp, err)
}

func (t *tools) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	content := stringArg(args, "content")
	if content == "" {
		return mcp.NewToolResultError("content is required"), nil
	}
	repeat, _ := args["repeat_daily"].(bool)

	result := t.exec.AddReminder(stringArg(args, "time"), content, stringArg(args, "location"), repeat)
	return jsonResult(result)
}

func (t *tools) handleFind(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	name := stringArg(args, "name")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}

	v, err := t.runner.Submit(ctx, focus.P1UserInput, "find", func() (any, error) {
		res, err := t.exec.FindObject(context.WithoutCancel(ctx), name)
		if err != nil && !res.Found && res.Message == "" {
			return nil, err
		}
		return res, err
	})
	if err != nil && v == nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return withWarning(v, err)
}

func (t *tools) handleRemember(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	name := stringArg(args, "name")
	location := stringArg(args, "location")
	if name == "" || location == "" {
		return mcp.NewToolResultError("name and location are required"), nil
	}
	confidence := 0.9
	if c, ok := args["confidence"].(float64); ok {
		confidence = c
	}

	obj, err := t.exec.RememberObject(ctx, name, location, confidence)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(obj)
}

func (t *tools) handleSetEmotion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	name := stringArg(args, "emotion")

	v, err := t.runner.Submit(ctx, focus.P1UserInput, "set_emotion", func() (any, error) {
		res, err := t.exec.SetEmotion(name)
		if res.Emotion == "" {
			return nil, err
		}
		return res, err
	})
	if err != nil && v == nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return withWarning(v, err)
}

func (t *tools) handleTick(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := t.runner.Tick(ctx)
	return withWarning(status, err)
}

func (t *tools) handleActivity(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.journal == nil {
		return mcp.NewToolResultError("activity journal is disabled"), nil
	}
	args, _ := req.Params.Arguments.(map[string]any)
	limit := 20
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	var entries []activity.Entry
	var err error
	switch {
	case stringArg(args, "query") != "":
		entries, err = t.journal.Search(stringArg(args, "query"), limit)
	case stringArg(args, "type") != "":
		entries, err = t.journal.ByType(activity.Type(stringArg(args, "type")), limit)
	default:
		entries, err = t.journal.Recent(limit)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read activity: %v", err)), nil
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	return jsonResult(entries)
}

// withWarning returns the result, noting a non-fatal error (a hardware
// fault after the state already changed) alongside it.
func withWarning(v any, err error) (*mcp.CallToolResult, error) {
	if err == nil {
		return jsonResult(v)
	}
	return jsonResult(map[string]any{
		"result":  v,
		"warning": err.Error(),
	})
}
