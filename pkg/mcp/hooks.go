package mcp

import (
	"context"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// callLogger records every tool call with its duration and outcome.
// Arguments are never logged; a tool call can carry table and column
// names but the log line only needs the tool and how it went.
type callLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

func newCallLogger(logger *zap.Logger) *callLogger {
	return &callLogger{logger: logger.Named("mcp")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (c *callLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(c.beforeCallTool)
	hooks.AddAfterCallTool(c.afterCallTool)
	hooks.AddOnError(c.onError)
	return hooks
}

func (c *callLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	c.startTimes.Store(id, time.Now())
}

func (c *callLogger) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	c.logger.Info("tool call",
		zap.String("tool", req.Params.Name),
		zap.Duration("duration", c.elapsed(id)),
		zap.Bool("is_error", result != nil && result.IsError))
}

func (c *callLogger) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}
	c.logger.Warn("tool call failed",
		zap.String("tool", req.Params.Name),
		zap.Duration("duration", c.elapsed(id)),
		zap.Error(err))
}

func (c *callLogger) elapsed(id any) time.Duration {
	v, ok := c.startTimes.LoadAndDelete(id)
	if !ok {
		return 0
	}
	return time.Since(v.(time.Time))
}
