package hiketools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/hikelog/internal/hikestore"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultListLimit caps listings unless the caller asks for more.
const defaultListLimit = 20

// ─── AddTool ────────────────────────────────────────────────────────────────

// AddTool handles the hike_add MCP tool.
type AddTool struct {
	store *hikestore.Store
}

// NewAddTool creates an AddTool with the given hike store.
func NewAddTool(store *hikestore.Store) *AddTool {
	return &AddTool{store: store}
}

// Definition returns the MCP tool definition for hike_add.
func (t *AddTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Log a new hike. Name, location and date are required; everything else is optional."),
	}, hikeFieldOptions(true)...)
	return mcp.NewTool("hike_add", opts...)
}

// Handle processes the hike_add tool call.
func (t *AddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	h, msg := hikeArgs(req, hikestore.NewHike("", "", ""))
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	id := t.store.AddHike(h)
	if id <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add hike %q", h.Name)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Hike logged: %q on %s\nID: %d", h.Name, h.Date, id)), nil
}

// ─── GetTool ────────────────────────────────────────────────────────────────

// GetTool handles the hike_get MCP tool.
type GetTool struct {
	store *hikestore.Store
}

// NewGetTool creates a GetTool.
func NewGetTool(store *hikestore.Store) *GetTool {
	return &GetTool{store: store}
}

// Definition returns the MCP tool definition for hike_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("hike_get",
		mcp.WithDescription("Show one hike with all its attributes and observations."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Hike ID"),
		),
	)
}

// Handle processes the hike_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	h, found := t.store.GetHike(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("hike %d not found", id)), nil
	}

	var b strings.Builder
	formatHike(&b, h, DetailFull)

	obs := t.store.GetObservationsByHike(id)
	if len(obs) == 0 {
		b.WriteString("\nNo observations.\n")
	} else {
		fmt.Fprintf(&b, "\nObservations (%d):\n", len(obs))
		for _, o := range obs {
			b.WriteString("  ")
			formatObservation(&b, o)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── ListTool ───────────────────────────────────────────────────────────────

// ListTool handles the hike_list MCP tool.
type ListTool struct {
	store *hikestore.Store
}

// NewListTool creates a ListTool.
func NewListTool(store *hikestore.Store) *ListTool {
	return &ListTool{store: store}
}

// Definition returns the MCP tool definition for hike_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("hike_list",
		mcp.WithDescription("List logged hikes, most recent date first."),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Max hikes to show (default: %d, 0 = all)", defaultListLimit)),
		),
		mcp.WithString("detail_level",
			mcp.Description("How much to show per hike (default: standard)"),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the hike_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hikes := t.store.GetAllHikes()
	if len(hikes) == 0 {
		return mcp.NewToolResultText("No hikes logged yet."), nil
	}
	limit := intArg(req, "limit", defaultListLimit)
	detail := ParseDetailLevel(req.GetString("detail_level", ""))
	return mcp.NewToolResultText(renderHikes("Hikes", hikes, limit, detail)), nil
}

// renderHikes formats a hike list with the shared footer conventions.
func renderHikes(title string, hikes []hikestore.Hike, limit int, detail string) string {
	shown := hikes
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s (%d)\n\n", title, len(hikes))
	for _, h := range shown {
		formatHike(&b, h, detail)
	}
	b.WriteString(NavigationHint(len(shown), len(hikes), "Raise limit or use hike_get #ID."))
	if detail == DetailSummary {
		b.WriteString(SummaryFooter)
	}
	return b.String()
}

// ─── UpdateTool ─────────────────────────────────────────────────────────────

// UpdateTool handles the hike_update MCP tool.
type UpdateTool struct {
	store *hikestore.Store
}

// NewUpdateTool creates an UpdateTool.
func NewUpdateTool(store *hikestore.Store) *UpdateTool {
	return &UpdateTool{store: store}
}

// Definition returns the MCP tool definition for hike_update.
func (t *UpdateTool) Definition() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Update an existing hike by ID. Only provided fields are changed."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Hike ID to update"),
		),
	}, hikeFieldOptions(false)...)
	return mcp.NewTool("hike_update", opts...)
}

// Handle processes the hike_update tool call.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("'id' is required"), nil
	}

	if !anyArg(req, hikeFields...) {
		return mcp.NewToolResultError("at least one field to update is required"), nil
	}

	current, found := t.store.GetHike(id)
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("hike %d not found", id)), nil
	}

	h, msg := hikeArgs(req, current)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	if n := t.store.UpdateHike(h); n == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update hike %d", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Hike %d updated: %q", id, h.Name)), nil
}

// ─── DeleteTool ─────────────────────────────────────────────────────────────

// DeleteTool handles the hike_delete MCP tool.
type DeleteTool struct {
	store *hikestore.Store
}

// NewDeleteTool creates a DeleteTool.
func NewDeleteTool(store *hikestore.Store) *DeleteTool {
	return &DeleteTool{store: store}
}

// Definition returns the MCP tool definition for hike_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("hike_delete",
		mcp.WithDescription("Delete a hike by ID together with all of its observations."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Hike ID to delete"),
		),
	)
}

// Handle processes the hike_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := idArg(req, "id")
	if !ok {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	if _, found := t.store.GetHike(id); !found {
		return mcp.NewToolResultError(fmt.Sprintf("hike %d not found", id)), nil
	}

	t.store.DeleteHike(id)

	if _, found := t.store.GetHike(id); found {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete hike %d", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Hike %d deleted with its observations", id)), nil
}

// ─── DeleteAllTool ──────────────────────────────────────────────────────────

// DeleteAllTool handles the hike_delete_all MCP tool.
type DeleteAllTool struct {
	store *hikestore.Store
}

// NewDeleteAllTool creates a DeleteAllTool.
func NewDeleteAllTool(store *hikestore.Store) *DeleteAllTool {
	return &DeleteAllTool{store: store}
}

// Definition returns the MCP tool definition for hike_delete_all.
func (t *DeleteAllTool) Definition() mcp.Tool {
	return mcp.NewTool("hike_delete_all",
		mcp.WithDescription("Delete every hike and observation. Irreversible; requires confirm=true."),
		mcp.WithBoolean("confirm",
			mcp.Required(),
			mcp.Description("Must be true to proceed"),
		),
	)
}

// Handle processes the hike_delete_all tool call.
func (t *DeleteAllTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !boolArg(req, "confirm", false) {
		return mcp.NewToolResultError("refusing to delete all hikes without confirm=true"), nil
	}

	before := len(t.store.GetAllHikes())
	t.store.DeleteAllHikes()

	if left := len(t.store.GetAllHikes()); left > 0 {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete all hikes: %d remain", left)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %d hikes and all observations", before)), nil
}
