package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/cull/internal/decision"
	"github.com/hpungsan/cull/internal/errors"
	"github.com/hpungsan/cull/internal/triage"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	svc   *triage.Service
	store decision.Store
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc *triage.Service, store decision.Store) *Handlers {
	return &Handlers{svc: svc, store: store}
}

// Request types for each tool

// DecisionSaveRequest represents the arguments for decision_save.
type DecisionSaveRequest struct {
	Handle   string `json:"handle"`
	Decision string `json:"decision"`
}

// DecisionGetRequest represents the arguments for decision_get.
type DecisionGetRequest struct {
	Handle string `json:"handle"`
}

// DecisionDeleteRequest represents the arguments for decision_delete.
type DecisionDeleteRequest struct {
	Handle string `json:"handle"`
}

// HandleItemList handles the item_list tool call.
func (h *Handlers) HandleItemList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.svc.Items(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(items)
}

// HandleProgress handles the triage_progress tool call.
func (h *Handlers) HandleProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	progress, err := h.svc.Progress(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(progress)
}

// HandleDecisionSave handles the decision_save tool call.
func (h *Handlers) HandleDecisionSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DecisionSaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Handle == "" {
		return errorResult(errors.NewInvalidRequest("handle is required")), nil
	}
	d, err := decision.Parse(input.Decision)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if err := h.store.Save(ctx, input.Handle, d); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"success": true})
}

// HandleDecisionGet handles the decision_get tool call.
func (h *Handlers) HandleDecisionGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DecisionGetRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Handle == "" {
		return errorResult(errors.NewInvalidRequest("handle is required")), nil
	}

	d, found, err := h.store.Get(ctx, input.Handle)
	if err != nil {
		return errorResult(err), nil
	}

	result := map[string]any{"handle": input.Handle, "decision": nil}
	if found {
		result["decision"] = string(d)
	}
	return successResult(result)
}

// HandleDecisionDelete handles the decision_delete tool call.
func (h *Handlers) HandleDecisionDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DecisionDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.Handle == "" {
		return errorResult(errors.NewInvalidRequest("handle is required")), nil
	}

	if err := h.store.Delete(ctx, input.Handle); err != nil {
		return errorResult(err), nil
	}

	return successResult(map[string]any{"success": true})
}

// HandleExport handles the triage_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	csv, err := h.svc.ExportDeletions(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(string(csv)), nil
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any
	if tErr, ok := err.(*errors.TriageError); ok {
		errorObj := map[string]any{
			"code":    string(tErr.Code),
			"message": tErr.Message,
			"status":  tErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths
		if tErr.Code != errors.ErrInternal && tErr.Details != nil {
			errorObj["details"] = tErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
