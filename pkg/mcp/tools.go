package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/jsonutil"
	"github.com/veriqa-inc/veriqa-engine/pkg/metadata"
	"github.com/veriqa-inc/veriqa-engine/pkg/quality"
)

// ToolDeps contains the open session and its helpers shared by all tools.
type ToolDeps struct {
	Conn     connector.Connector
	Resolver *metadata.Resolver
	Executor *quality.Executor

	// Schema is the default schema when a call does not name one.
	Schema string

	Logger *zap.Logger
}

// RegisterTools registers the profiling and quality-check tools.
func RegisterTools(s *server.MCPServer, deps *ToolDeps) {
	registerListObjectsTool(s, deps)
	registerDescribeTableTool(s, deps)
	registerRunChecksTool(s, deps)
}

func registerListObjectsTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"list_objects",
		mcp.WithDescription(
			"List the tables and views in a schema of the connected database. "+
				"Returns each object's name and whether it is a table or a view.",
		),
		mcp.WithString(
			"schema",
			mcp.Description("Schema to list (default: the configured schema)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		schema := deps.schemaFor(req)
		objects, err := deps.Resolver.Objects(ctx, schema)
		if err != nil {
			return nil, err
		}

		response := struct {
			Backend string                   `json:"backend"`
			Schema  string                   `json:"schema"`
			Objects []connector.SchemaObject `json:"objects"`
			Count   int                      `json:"count"`
		}{
			Backend: deps.Conn.Kind().String(),
			Schema:  schema,
			Objects: objects,
			Count:   len(objects),
		}

		jsonResult, _ := json.Marshal(response)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

func registerDescribeTableTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"describe_table",
		mcp.WithDescription(
			"Describe a table: columns with types and nullability, primary key, and "+
				"declared foreign keys. With include_stats, adds row count and size "+
				"analysis. With a column name, adds that column's statistics and the "+
				"quality checks applicable to it.",
		),
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Table or view name (matched case-insensitively)"),
		),
		mcp.WithString(
			"schema",
			mcp.Description("Schema containing the table (default: the configured schema)"),
		),
		mcp.WithString(
			"column",
			mcp.Description("Column to profile in detail (distinct/null/unique counts and type metrics)"),
		),
		mcp.WithBoolean(
			"include_stats",
			mcp.Description("If true, include table row count and size analysis (default: false)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tableArg, err := req.RequireString("table")
		if err != nil {
			return nil, err
		}
		schema := deps.schemaFor(req)

		table, err := deps.Resolver.ResolveTable(ctx, schema, tableArg)
		if err != nil {
			return nil, err
		}
		cols, err := deps.Resolver.Columns(ctx, schema, table)
		if err != nil {
			return nil, err
		}
		pks, err := deps.Conn.PrimaryKeys(ctx, schema, table)
		if err != nil {
			return nil, err
		}
		fks, err := deps.Conn.ForeignKeys(ctx, schema, table)
		if err != nil {
			return nil, err
		}

		response := struct {
			Schema      string                             `json:"schema"`
			Table       string                             `json:"table"`
			Columns     []connector.ColumnDescriptor       `json:"columns"`
			PrimaryKeys []string                           `json:"primary_keys"`
			ForeignKeys map[string]connector.ForeignKeyRef `json:"foreign_keys"`
			Analysis    *connector.TableAnalysis           `json:"analysis,omitempty"`
			Column      *columnProfile                     `json:"column,omitempty"`
		}{
			Schema:      schema,
			Table:       table,
			Columns:     cols,
			PrimaryKeys: pks,
			ForeignKeys: fks,
		}

		if includeStats, _ := optionalBool(req, "include_stats"); includeStats {
			analysis, err := deps.Resolver.Analysis(ctx, schema, table)
			if err != nil {
				return nil, err
			}
			response.Analysis = analysis
		}

		if colArg := optionalString(req, "column"); colArg != "" {
			profile, err := deps.profileColumn(ctx, schema, table, colArg, cols)
			if err != nil {
				return nil, err
			}
			response.Column = profile
		}

		jsonResult, _ := json.Marshal(response)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// columnProfile combines one column's statistics with the checks that can
// run against it.
type columnProfile struct {
	Name            string                   `json:"name"`
	Details         *connector.ColumnDetails `json:"details"`
	AvailableChecks []quality.Definition     `json:"available_checks"`
}

func (d *ToolDeps) profileColumn(ctx context.Context, schema, table, colArg string, cols []connector.ColumnDescriptor) (*columnProfile, error) {
	column, err := d.Resolver.ResolveColumn(ctx, schema, table, colArg)
	if err != nil {
		return nil, err
	}
	details, err := d.Conn.ColumnDetails(ctx, schema, table, column)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.Name == column {
			return &columnProfile{
				Name:            column,
				Details:         details,
				AvailableChecks: quality.AvailableChecks(c),
			}, nil
		}
	}
	return nil, fmt.Errorf("column %q not found in %s", column, table)
}

func registerRunChecksTool(s *server.MCPServer, deps *ToolDeps) {
	tool := mcp.NewTool(
		"run_checks",
		mcp.WithDescription(
			"Run data-quality checks against one column of a table and return the "+
				"report: per-check pass/fail/indeterminate verdicts with violation "+
				"counts, percentages, and a bounded sample of violating rows for "+
				"failed checks. Check ids and their parameters are listed by "+
				"describe_table's available_checks.",
		),
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Table to check (matched case-insensitively)"),
		),
		mcp.WithString(
			"column",
			mcp.Required(),
			mcp.Description("Column to check"),
		),
		mcp.WithArray(
			"checks",
			mcp.Required(),
			mcp.Description("Check ids to run, e.g. [\"null_check\", \"must_contain_at\"]"),
		),
		mcp.WithObject(
			"params",
			mcp.Description("Check parameters as key-value pairs, shared by all listed checks (e.g. {\"min\": 0, \"max\": 100})"),
		),
		mcp.WithString(
			"schema",
			mcp.Description("Schema containing the table (default: the configured schema)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table, err := req.RequireString("table")
		if err != nil {
			return nil, err
		}
		column, err := req.RequireString("column")
		if err != nil {
			return nil, err
		}
		checks := stringArray(req, "checks")
		if len(checks) == 0 {
			return nil, fmt.Errorf("checks must list at least one check id")
		}

		bag := make(map[string]string)
		if args, ok := req.Params.Arguments.(map[string]any); ok {
			if p, ok := args["params"].(map[string]any); ok {
				for k, v := range p {
					bag[k] = jsonutil.CoerceString(v)
				}
			}
		}

		selections, err := quality.NewSelections(column, checks, bag)
		if err != nil {
			return nil, err
		}

		report, err := deps.Executor.Run(ctx, deps.schemaFor(req), table, selections)
		if err != nil {
			return nil, err
		}

		jsonResult, _ := json.Marshal(report)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// schemaFor returns the call's schema argument, or the configured default.
func (d *ToolDeps) schemaFor(req mcp.CallToolRequest) string {
	if s := optionalString(req, "schema"); s != "" {
		return s
	}
	return d.Schema
}

// optionalString extracts an optional string parameter from the request.
func optionalString(req mcp.CallToolRequest, key string) string {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		if val, ok := args[key].(string); ok {
			return val
		}
	}
	return ""
}

// optionalBool extracts an optional boolean parameter from the request.
func optionalBool(req mcp.CallToolRequest, key string) (bool, bool) {
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		if val, ok := args[key].(bool); ok {
			return val, true
		}
	}
	return false, false
}

// stringArray extracts an array-of-strings parameter from the request.
func stringArray(req mcp.CallToolRequest, key string) []string {
	var out []string
	if args, ok := req.Params.Arguments.(map[string]any); ok {
		if arr, ok := args[key].([]any); ok {
			for _, item := range arr {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
