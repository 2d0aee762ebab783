package hiketools

import (
	"context"
	"fmt"

	"github.com/HendryAvila/hikelog/internal/hikestore"
	"github.com/mark3labs/mcp-go/mcp"
)

// SearchTool handles the hike_search MCP tool.
type SearchTool struct {
	store *hikestore.Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store *hikestore.Store) *SearchTool {
	return &SearchTool{store: store}
}

// Definition returns the MCP tool definition for hike_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("hike_search",
		mcp.WithDescription("Find hikes whose name starts with the given text (ASCII case-insensitive)."),
		mcp.WithString("prefix",
			mcp.Required(),
			mcp.Description("Start of the hike name, e.g. 'Mo'"),
		),
		mcp.WithString("detail_level",
			mcp.Description("How much to show per hike (default: standard)"),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the hike_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prefix := req.GetString("prefix", "")
	if prefix == "" {
		return mcp.NewToolResultError("'prefix' is required"), nil
	}

	hikes := t.store.SearchHikesByName(prefix)
	if len(hikes) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No hikes found starting with %q.", prefix)), nil
	}
	detail := ParseDetailLevel(req.GetString("detail_level", ""))
	return mcp.NewToolResultText(renderHikes(fmt.Sprintf("Hikes starting with %q", prefix), hikes, 0, detail)), nil
}

// AdvancedSearchTool handles the hike_advanced_search MCP tool.
type AdvancedSearchTool struct {
	store *hikestore.Store
}

// NewAdvancedSearchTool creates an AdvancedSearchTool.
func NewAdvancedSearchTool(store *hikestore.Store) *AdvancedSearchTool {
	return &AdvancedSearchTool{store: store}
}

// Definition returns the MCP tool definition for hike_advanced_search.
func (t *AdvancedSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("hike_advanced_search",
		mcp.WithDescription(
			"Search hikes by several criteria at once. Every supplied criterion must match. "+
				"Name, location and date match anywhere in the text; distance must equal the hike length exactly.",
		),
		mcp.WithString("name", mcp.Description("Text contained in the hike name")),
		mcp.WithString("location", mcp.Description("Text contained in the location")),
		mcp.WithString("distance", mcp.Description("Exact length in km, e.g. '5' or '8.5'. Ignored if not a number.")),
		mcp.WithString("date", mcp.Description("Text contained in the date, e.g. '2024-06'")),
		mcp.WithString("detail_level",
			mcp.Description("How much to show per hike (default: standard)"),
			mcp.Enum(DetailLevelValues()...),
		),
	)
}

// Handle processes the hike_advanced_search tool call.
func (t *AdvancedSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := hikestore.HikeFilter{
		Name:     req.GetString("name", ""),
		Location: req.GetString("location", ""),
		Distance: req.GetString("distance", ""),
		Date:     req.GetString("date", ""),
	}
	// Numbers are accepted too.
	if v, ok := req.GetArguments()["distance"].(float64); ok {
		f.Distance = fmt.Sprint(v)
	}
	if f.IsEmpty() {
		return mcp.NewToolResultError("at least one search criterion is required"), nil
	}

	hikes := t.store.AdvancedSearch(f)
	if len(hikes) == 0 {
		return mcp.NewToolResultText("No hikes match those criteria."), nil
	}
	detail := ParseDetailLevel(req.GetString("detail_level", ""))
	return mcp.NewToolResultText(renderHikes("Matching hikes", hikes, 0, detail)), nil
}
