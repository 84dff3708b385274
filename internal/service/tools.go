// Package service exposes migas operations as MCP tools and serves them,
// with metrics and health endpoints, over HTTP.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/migas-go/internal/query"
	"github.com/jamesprial/migas-go/internal/safety"
	"github.com/jamesprial/migas-go/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	toolAddBreadcrumb = "migas_add_breadcrumb"
	toolCheckProject  = "migas_check_project"
	toolGetUsage      = "migas_get_usage"
	toolBuildQuery    = "migas_build_query"
)

// Telemetry is the subset of *migas.Client the tools call.
type Telemetry interface {
	AddBreadcrumb(ctx context.Context, project, projectVersion string, extra query.Values) map[string]any
	CheckProject(ctx context.Context, project, projectVersion string, extra query.Values) map[string]any
	GetUsage(ctx context.Context, project, start string, extra query.Values) map[string]any
	Build(op query.Operation, values query.Values) string
}

// Tools returns the migas tool registrations. Projects rejected by filter
// are refused before anything is sent.
func Tools(client Telemetry, filter *safety.Filter, audit *safety.AuditLogger) []tools.Registration {
	return []tools.Registration{
		toolAddBreadcrumbReg(client, filter, audit),
		toolCheckProjectReg(client, filter, audit),
		toolGetUsageReg(client, filter, audit),
		toolBuildQueryReg(client, audit),
	}
}

func paramsOption() mcp.ToolOption {
	return mcp.WithString("params",
		mcp.Description("Optional JSON object of additional operation parameters, e.g. {\"is_ci\": true}."),
	)
}

// parseParams decodes the optional params JSON object.
func parseParams(raw string) (query.Values, error) {
	if raw == "" {
		return query.Values{}, nil
	}
	var v query.Values
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parse params JSON: %w", err)
	}
	if v == nil {
		v = query.Values{}
	}
	return v, nil
}

// setIfPresent copies non-empty string arguments into values.
func setIfPresent(values query.Values, req mcp.CallToolRequest, names ...string) {
	for _, n := range names {
		if s := req.GetString(n, ""); s != "" {
			values[n] = s
		}
	}
}

func toolAddBreadcrumbReg(client Telemetry, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolAddBreadcrumb,
		mcp.WithDescription("Record a usage breadcrumb for a project version on the migas server."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name in owner/repo form.")),
		mcp.WithString("project_version", mcp.Required(), mcp.Description("Version of the project in use.")),
		mcp.WithString("status",
			mcp.Description("Process status: R (running), C (completed), F (failed), S (suspended)."),
			mcp.Enum(query.StatusRunning, query.StatusCompleted, query.StatusFailed, query.StatusSuspended),
		),
		mcp.WithString("status_desc", mcp.Description("Free-form status description.")),
		mcp.WithString("error_type", mcp.Description("Error class, when the process failed.")),
		mcp.WithString("error_desc", mcp.Description("Error description, when the process failed.")),
		mcp.WithString("user_type",
			mcp.Description("Kind of user sending the breadcrumb."),
			mcp.Enum(query.UserGeneral, query.UserBot),
		),
		paramsOption(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		project := req.GetString("project", "")
		version := req.GetString("project_version", "")
		args := req.GetArguments()

		if !filter.IsAllowed(project) {
			msg := fmt.Sprintf("project %q is not allowed", project)
			tools.LogAudit(audit, toolAddBreadcrumb, project, args, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		values, err := parseParams(req.GetString("params", ""))
		if err != nil {
			tools.LogAudit(audit, toolAddBreadcrumb, project, args, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		setIfPresent(values, req, "status", "status_desc", "error_type", "error_desc", "user_type")

		res := client.AddBreadcrumb(ctx, project, version, values)
		tools.LogAudit(audit, toolAddBreadcrumb, project, args, tools.Outcome(res), start)
		return tools.JSONResult(res), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolCheckProjectReg(client Telemetry, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolCheckProject,
		mcp.WithDescription("Check a project version against the latest release and see whether it has been flagged."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name in owner/repo form.")),
		mcp.WithString("project_version", mcp.Required(), mcp.Description("Version to check.")),
		paramsOption(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		project := req.GetString("project", "")
		args := req.GetArguments()

		if !filter.IsAllowed(project) {
			msg := fmt.Sprintf("project %q is not allowed", project)
			tools.LogAudit(audit, toolCheckProject, project, args, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		values, err := parseParams(req.GetString("params", ""))
		if err != nil {
			tools.LogAudit(audit, toolCheckProject, project, args, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		res := client.CheckProject(ctx, project, req.GetString("project_version", ""), values)
		tools.LogAudit(audit, toolCheckProject, project, args, tools.Outcome(res), start)
		return tools.JSONResult(res), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolGetUsageReg(client Telemetry, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool(toolGetUsage,
		mcp.WithDescription("Get usage counts for a project over a time range."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name in owner/repo form.")),
		mcp.WithString("start", mcp.Required(), mcp.Description("Start of the range (ISO 8601 date or datetime).")),
		mcp.WithString("end", mcp.Description("End of the range; defaults to now on the server.")),
		mcp.WithBoolean("unique", mcp.Description("Count unique users only.")),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		project := req.GetString("project", "")
		args := req.GetArguments()

		if !filter.IsAllowed(project) {
			msg := fmt.Sprintf("project %q is not allowed", project)
			tools.LogAudit(audit, toolGetUsage, project, args, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}

		values := query.Values{}
		setIfPresent(values, req, "end")
		if _, ok := args["unique"]; ok {
			values["unique"] = req.GetBool("unique", false)
		}

		res := client.GetUsage(ctx, project, req.GetString("start", ""), values)
		tools.LogAudit(audit, toolGetUsage, project, args, tools.Outcome(res), start)
		return tools.JSONResult(res), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func toolBuildQueryReg(client Telemetry, audit *safety.AuditLogger) tools.Registration {
	names := make([]string, 0, len(query.Operations))
	for _, op := range []query.Operation{query.AddBreadcrumb, query.CheckProject, query.GetUsage, query.AddProject} {
		names = append(names, op.Name)
	}

	tool := mcp.NewTool(toolBuildQuery,
		mcp.WithDescription("Show the GraphQL request a migas operation would send, without sending it."),
		mcp.WithString("operation", mcp.Required(), mcp.Description("Operation name."), mcp.Enum(names...)),
		paramsOption(),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("operation", "")
		args := req.GetArguments()

		op, ok := query.Lookup(name)
		if !ok {
			msg := fmt.Sprintf("unknown operation %q", name)
			tools.LogAudit(audit, toolBuildQuery, "", args, "error: "+msg, start)
			return tools.ErrorResult(msg), nil
		}
		values, err := parseParams(req.GetString("params", ""))
		if err != nil {
			tools.LogAudit(audit, toolBuildQuery, "", args, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		text := client.Build(op, values)
		out := map[string]any{"operation": op.Name, "query": text, "valid": true}
		if err := query.Check(text); err != nil {
			out["valid"] = false
			out["error"] = err.Error()
		}
		tools.LogAudit(audit, toolBuildQuery, "", args, "ok", start)
		return tools.JSONResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
