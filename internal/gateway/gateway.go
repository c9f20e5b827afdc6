// Package gateway binds protocol requests to the dispatch pipeline:
// catalog lookup, argument mapping, upstream invocation, and response
// translation, over a single long-lived MCP session.
package gateway

import (
	"context"
	"sort"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/quartzlabs/marketpulse-mcp/internal/catalog"
	"github.com/quartzlabs/marketpulse-mcp/internal/common"
	"github.com/quartzlabs/marketpulse-mcp/internal/config"
	"github.com/quartzlabs/marketpulse-mcp/internal/upstream"
)

// Gateway owns the MCP server, the tool registrations derived from the
// catalog, and the single active session slot.
type Gateway struct {
	mcpServer *mcpserver.MCPServer
	sse       *mcpserver.SSEServer
	logger    *common.Logger
	catalog   *catalog.Catalog
	client    *upstream.Client

	mu      sync.Mutex
	session mcpserver.ClientSession
}

// New creates a gateway with every catalog operation registered as an MCP
// tool, plus the reserved doc meta-tool.
func New(name string, logger *common.Logger, cat *catalog.Catalog, client *upstream.Client) *Gateway {
	g := &Gateway{
		logger:  logger,
		catalog: cat,
		client:  client,
	}

	hooks := &mcpserver.Hooks{}
	hooks.AddOnRegisterSession(g.onRegisterSession)
	hooks.AddOnUnregisterSession(g.onUnregisterSession)

	s := mcpserver.NewMCPServer(
		name,
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithHooks(hooks),
		mcpserver.WithToolFilter(g.catalogOrder),
	)

	for _, summary := range cat.Summaries() {
		tool := mcp.NewToolWithRawSchema(summary.Name, summary.Description, summary.InputSchema)
		s.AddTool(tool, g.callHandler(summary.Name))
	}
	s.AddTool(docTool(), g.docHandler())

	g.mcpServer = s

	logger.Info().Int("tools", cat.Len()).Msg("gateway initialized")

	return g
}

// catalogOrder restores catalog declaration order to a tools/list response.
// The server sorts tool names alphabetically before filters run; callers see
// catalog order, with the doc meta-tool after the catalog entries.
func (g *Gateway) catalogOrder(ctx context.Context, tools []mcp.Tool) []mcp.Tool {
	rank := make(map[string]int, g.catalog.Len())
	for i, summary := range g.catalog.Summaries() {
		rank[summary.Name] = i
	}
	sort.SliceStable(tools, func(a, b int) bool {
		ra, aok := rank[tools[a].Name]
		rb, bok := rank[tools[b].Name]
		if aok && bok {
			return ra < rb
		}
		return aok
	})
	return tools
}

// Catalog returns the gateway's operation catalog.
func (g *Gateway) Catalog() *catalog.Catalog {
	return g.catalog
}

// ServeSSE starts the SSE transport on the given address: a streaming GET
// endpoint for the session plus a side channel for posted messages. Blocks
// until Shutdown or a listener error.
func (g *Gateway) ServeSSE(addr string) error {
	g.sse = mcpserver.NewSSEServer(g.mcpServer)
	g.logger.Info().Str("addr", addr).Msg("starting MCP SSE transport")
	return g.sse.Start(addr)
}

// ServeStdio runs the stdio transport for desktop MCP clients. Blocks until
// stdin closes.
func (g *Gateway) ServeStdio() error {
	return mcpserver.ServeStdio(g.mcpServer)
}

// Shutdown gracefully closes the transport and the active session.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	g.session = nil
	g.mu.Unlock()

	if g.sse != nil {
		return g.sse.Shutdown(ctx)
	}
	return nil
}

// onRegisterSession binds the new session as the single active slot. A
// prior session reference is replaced, not closed: this gateway assumes at
// most one concurrent caller, and the displaced transport tears itself down
// on disconnect.
func (g *Gateway) onRegisterSession(ctx context.Context, s mcpserver.ClientSession) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session != nil && g.session.SessionID() != s.SessionID() {
		g.logger.Warn().
			Str("old_session", g.session.SessionID()).
			Str("new_session", s.SessionID()).
			Msg("replacing active session")
	}
	g.session = s
	g.logger.Info().Str("session", s.SessionID()).Msg("session established")
}

// onUnregisterSession clears the slot if the departing session owns it.
func (g *Gateway) onUnregisterSession(ctx context.Context, s mcpserver.ClientSession) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session != nil && g.session.SessionID() == s.SessionID() {
		g.session = nil
	}
	g.logger.Info().Str("session", s.SessionID()).Msg("session closed")
}

// ActiveSessionID returns the current session id, if a session is bound.
func (g *Gateway) ActiveSessionID() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session == nil {
		return "", false
	}
	return g.session.SessionID(), true
}
