package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/quartzlabs/marketpulse-mcp/internal/mcperr"
)

// docToolName is the reserved introspection tool.
const docToolName = "doc"

// docTool returns the definition of the self-describing meta-tool.
func docTool() mcp.Tool {
	return mcp.NewTool(docToolName,
		mcp.WithDescription("Return the full input schema for a named tool. Use this before calling a tool whose arguments you are unsure about."),
		mcp.WithString("tool", mcp.Required(),
			mcp.Description("Tool name, optionally namespace-prefixed (e.g. 'marketpulse_getBacklinks')")),
	)
}

// docHandler resolves the named tool in the catalog and returns its stored
// input schema, pretty-printed.
func (g *Gateway) docHandler() mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := r.RequireString("tool")
		if err != nil {
			return nil, mcperr.InvalidParams("tool parameter is required")
		}

		name = stripNamespace(name)
		summary, ok := g.catalog.Summary(name)
		if !ok {
			return nil, mcperr.MethodNotFound("tool %q not found in catalog", name)
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, summary.InputSchema, "", "  "); err != nil {
			return mcp.NewToolResultText(string(summary.InputSchema)), nil
		}
		return mcp.NewToolResultText(pretty.String()), nil
	}
}

// stripNamespace drops a client-added namespace prefix up to the last
// separator: "marketpulse_getBacklinks" resolves as "getBacklinks".
func stripNamespace(name string) string {
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}
