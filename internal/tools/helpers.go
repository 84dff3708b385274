// Package tools provides shared helper utilities for MCP tool handlers.
package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/migas-go/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// JSONResult marshals v to indented JSON and returns an mcp.CallToolResult.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult returns an mcp.CallToolResult that describes an error condition.
func ErrorResult(msg string) *mcp.CallToolResult {
	res := mcp.NewToolResultText(fmt.Sprintf("error: %s", msg))
	res.IsError = true
	return res
}

// Outcome summarizes a migas result for the audit log: "success" when the
// result reports success, otherwise "fallback: <message>".
func Outcome(result map[string]any) string {
	if ok, _ := result["success"].(bool); ok {
		return "success"
	}
	if _, ok := result["result"]; ok {
		return "success"
	}
	return fmt.Sprintf("fallback: %v", result["message"])
}

// LogAudit logs a tool invocation to the audit logger, silently ignoring a nil logger.
func LogAudit(audit *safety.AuditLogger, toolName, project string, params map[string]any, outcome string, start time.Time) {
	if audit == nil {
		return
	}
	_ = audit.Log(safety.AuditEntry{
		Timestamp: start,
		Tool:      toolName,
		Project:   project,
		Params:    params,
		Outcome:   outcome,
		Duration:  time.Since(start),
	})
}
