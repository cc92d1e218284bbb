package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/cull/internal/decision"
	"github.com/hpungsan/cull/internal/triage"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"item_list": {
		def:     itemListToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleItemList },
	},
	"triage_progress": {
		def:     progressToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleProgress },
	},
	"decision_save": {
		def:     decisionSaveToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDecisionSave },
	},
	"decision_get": {
		def:     decisionGetToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDecisionGet },
	},
	"decision_delete": {
		def:     decisionDeleteToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDecisionDelete },
	},
	"triage_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
}

var itemListToolDef = mcp.NewTool("item_list",
	mcp.WithDescription("List every catalog item with its current keep/delete decision (null when undecided)."),
)

var progressToolDef = mcp.NewTool("triage_progress",
	mcp.WithDescription("Report triage progress: total, completed, remaining, toDelete, toKeep, percentComplete."),
)

var decisionSaveToolDef = mcp.NewTool("decision_save",
	mcp.WithDescription("Record a keep or delete decision for a catalog item handle. Overwrites any previous decision."),
	mcp.WithString("handle", mcp.Required(), mcp.Description("Catalog item handle")),
	mcp.WithString("decision", mcp.Required(), mcp.Description("One of: keep, delete")),
)

var decisionGetToolDef = mcp.NewTool("decision_get",
	mcp.WithDescription("Look up the recorded decision for one handle."),
	mcp.WithString("handle", mcp.Required(), mcp.Description("Catalog item handle")),
)

var decisionDeleteToolDef = mcp.NewTool("decision_delete",
	mcp.WithDescription("Clear the recorded decision for one handle. Succeeds even if none exists."),
	mcp.WithString("handle", mcp.Required(), mcp.Description("Catalog item handle")),
)

var exportToolDef = mcp.NewTool("triage_export",
	mcp.WithDescription("Render the items currently marked delete as CSV (Handle,Title,SKU,Type,Decision)."),
)

// NewServer creates a new MCP server with the triage tools registered.
func NewServer(svc *triage.Service, store decision.Store, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"cull",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(svc, store)

	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(svc *triage.Service, store decision.Store, version string) error {
	s := NewServer(svc, store, version)
	return server.ServeStdio(s)
}
