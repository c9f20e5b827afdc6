package gateway

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/quartzlabs/marketpulse-mcp/internal/mapper"
	"github.com/quartzlabs/marketpulse-mcp/internal/mcperr"
	"github.com/quartzlabs/marketpulse-mcp/internal/translate"
)

// callHandler returns the generic dispatch handler for one catalog tool:
// lookup, map, invoke, translate. Validation and catalog-integrity failures
// reject the call with a protocol error; upstream failures come back inside
// the envelope with isError set, so the caller can tell "malformed call"
// from "the call was issued but failed".
func (g *Gateway) callHandler(name string) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		binding, ok := g.catalog.Lookup(name)
		if !ok {
			return nil, mcperr.MethodNotFound("tool %q not found in catalog", name)
		}
		if binding.Method == "" || binding.PathTemplate == "" {
			// Registered tool without HTTP metadata is a catalog defect,
			// not a caller error.
			return nil, mcperr.Internal("tool %q has no operation binding", name)
		}

		out, verr := mapper.Map(binding, r.GetArguments())
		if verr != nil {
			g.logger.Debug().Str("tool", name).Str("error", verr.Error()).Msg("argument mapping failed")
			return nil, mcperr.InvalidParams("%s", verr.Error()).WithData(map[string]interface{}{
				"kind": string(verr.Kind),
				"name": verr.Name,
			})
		}

		resp, err := g.client.Do(ctx, out)
		return translate.Result(resp, err), nil
	}
}
