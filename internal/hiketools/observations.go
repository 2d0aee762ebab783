package hiketools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/hikelog/internal/hikestore"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── ObservationAddTool ─────────────────────────────────────────────────────

// ObservationAddTool handles the observation_add MCP tool.
type ObservationAddTool struct {
	store *hikestore.Store
}

// NewObservationAddTool creates an ObservationAddTool.
func NewObservationAddTool(store *hikestore.Store) *ObservationAddTool {
	return &ObservationAddTool{store: store}
}

// Definition returns the MCP tool definition for observation_add.
func (t *ObservationAddTool) Definition() mcp.Tool {
	return mcp.NewTool("observation_add",
		mcp.WithDescription("Attach a timestamped observation (wildlife, trail condition, view) to a hike."),
		mcp.WithNumber("hike_id",
			mcp.Required(),
			mcp.Description("ID of the hike this observation belongs to"),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("What was observed"),
		),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("When it was observed, free-form (e.g. '10:30' or '2024-05-01 10:30')"),
		),
		mcp.WithString("comments",
			mcp.Description("Optional extra comments"),
		),
	)
}

// Handle processes the observation_add tool call.
func (t *ObservationAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hikeID, ok := idArg(req, "hike_id")
	if !ok {
		return mcp.NewToolResultError("'hike_id' is required"), nil
	}
	o, msg := observationArgs(req, hikestore.Observation{HikeID: hikeID})
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	if _, found := t.store.GetHike(hikeID); !found {
		return mcp.NewToolResultError(fmt.Sprintf("hike %d not found", hikeID)), nil
	}

	id := t.store.AddObservation(o)
	if id <= 0 {
		return mcp.NewToolResultError("failed to add observation"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Observation added to hike %d\nID: %d", hikeID, id)), nil
}

// ─── ObservationGetTool ─────────────────────────────────────────────────────

// ObservationGetTool handles the observation_get MCP tool.
type ObservationGetTool struct {
	store *hikestore.Store
}

// NewObservationGetTool creates an ObservationGetTool.
func NewObservationGetTool(store *hikestore.Store) *ObservationGetTool {
	return &ObservationGetTool{store: store}
}

// Definition returns the MCP tool definition for observation_get.
func (t *ObservationGetTool) Definition() mcp.Tool {
	return mcp.NewTool("observation_get",
		mcp.WithDescription("Show one observation by ID."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Observation ID"),
		),
	)
}

// Handle processes the observation_get tool call.
func (t *ObservationGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	o, found := t.store.GetObservation(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("observation %d not found", id)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hike #%d\n", o.HikeID)
	formatObservation(&b, o)
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ObservationListTool ────────────────────────────────────────────────────

// ObservationListTool handles the observation_list MCP tool.
type ObservationListTool struct {
	store *hikestore.Store
}

// NewObservationListTool creates an ObservationListTool.
func NewObservationListTool(store *hikestore.Store) *ObservationListTool {
	return &ObservationListTool{store: store}
}

// Definition returns the MCP tool definition for observation_list.
func (t *ObservationListTool) Definition() mcp.Tool {
	return mcp.NewTool("observation_list",
		mcp.WithDescription("List the observations of a hike, latest first."),
		mcp.WithNumber("hike_id",
			mcp.Required(),
			mcp.Description("Hike ID"),
		),
	)
}

// Handle processes the observation_list tool call.
func (t *ObservationListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hikeID, ok := idArg(req, "hike_id")
	if !ok {
		return mcp.NewToolResultError("'hike_id' is required"), nil
	}

	obs := t.store.GetObservationsByHike(hikeID)
	if len(obs) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No observations for hike %d.", hikeID)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Observations for hike %d (%d)\n\n", hikeID, len(obs))
	for _, o := range obs {
		formatObservation(&b, o)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ObservationUpdateTool ──────────────────────────────────────────────────

// ObservationUpdateTool handles the observation_update MCP tool.
type ObservationUpdateTool struct {
	store *hikestore.Store
}

// NewObservationUpdateTool creates an ObservationUpdateTool.
func NewObservationUpdateTool(store *hikestore.Store) *ObservationUpdateTool {
	return &ObservationUpdateTool{store: store}
}

// Definition returns the MCP tool definition for observation_update.
func (t *ObservationUpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("observation_update",
		mcp.WithDescription("Update an observation by ID. Only provided fields are changed."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Observation ID to update"),
		),
		mcp.WithString("text", mcp.Description("New text")),
		mcp.WithString("time", mcp.Description("New time")),
		mcp.WithString("comments", mcp.Description("New comments")),
	)
}

// Handle processes the observation_update tool call.
func (t *ObservationUpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if !anyArg(req, observationFields...) {
		return mcp.NewToolResultError("at least one field to update is required"), nil
	}

	current, found := t.store.GetObservation(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("observation %d not found", id)), nil
	}

	o, msg := observationArgs(req, current)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	if n := t.store.UpdateObservation(o); n == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update observation %d", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Observation %d updated", id)), nil
}

// ─── ObservationDeleteTool ──────────────────────────────────────────────────

// ObservationDeleteTool handles the observation_delete MCP tool.
type ObservationDeleteTool struct {
	store *hikestore.Store
}

// NewObservationDeleteTool creates an ObservationDeleteTool.
func NewObservationDeleteTool(store *hikestore.Store) *ObservationDeleteTool {
	return &ObservationDeleteTool{store: store}
}

// Definition returns the MCP tool definition for observation_delete.
func (t *ObservationDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("observation_delete",
		mcp.WithDescription("Delete one observation by ID."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Observation ID to delete"),
		),
	)
}

// Handle processes the observation_delete tool call.
func (t *ObservationDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if _, found := t.store.GetObservation(id); !found {
		return mcp.NewToolResultError(fmt.Sprintf("observation %d not found", id)), nil
	}

	t.store.DeleteObservation(id)

	if _, found := t.store.GetObservation(id); found {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete observation %d", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Observation %d deleted", id)), nil
}
