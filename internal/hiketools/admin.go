package hiketools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/HendryAvila/hikelog/internal/hikestore"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// ─── StatsTool ──────────────────────────────────────────────────────────────

// StatsTool handles the hike_stats MCP tool.
type StatsTool struct {
	store *hikestore.Store
}

// NewStatsTool creates a StatsTool with the given hike store.
func NewStatsTool(store *hikestore.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for hike_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("hike_stats",
		mcp.WithDescription("Show hike log statistics: hikes, observations, total distance, hikes per difficulty."),
	)
}

// Handle processes the hike_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Hike Log Statistics\n\n")
	fmt.Fprintf(&sb, "- **Hikes**: %d\n", stats.TotalHikes)
	fmt.Fprintf(&sb, "- **Observations**: %d\n", stats.TotalObservations)
	fmt.Fprintf(&sb, "- **Total distance**: %.1f km\n", stats.TotalLengthKm)

	if len(stats.ByDifficulty) > 0 {
		keys := make([]string, 0, len(stats.ByDifficulty))
		for k := range stats.ByDifficulty {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s %d", k, stats.ByDifficulty[k])
		}
		fmt.Fprintf(&sb, "- **By difficulty**: %s\n", strings.Join(parts, ", "))
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// ─── ExportTool ─────────────────────────────────────────────────────────────

// ExportTool handles the hikelog_export MCP tool.
type ExportTool struct {
	store *hikestore.Store
}

// NewExportTool creates an ExportTool.
func NewExportTool(store *hikestore.Store) *ExportTool {
	return &ExportTool{store: store}
}

// Definition returns the MCP tool definition for hikelog_export.
func (t *ExportTool) Definition() mcp.Tool {
	return mcp.NewTool("hikelog_export",
		mcp.WithDescription("Export every hike with its observations as a JSON or YAML document."),
		mcp.WithString("format",
			mcp.Description("Document format (default: json)"),
			mcp.Enum("json", "yaml"),
		),
		mcp.WithString("path",
			mcp.Description("Write the document to this file instead of returning it"),
		),
	)
}

// Handle processes the hikelog_export tool call.
func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := t.store.Export()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}

	doc, err := EncodeExport(data, req.GetString("format", "json"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultText(string(doc)), nil
	}
	if err := os.WriteFile(path, doc, 0600); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("writing export: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Exported %d hikes to %s", len(data.Hikes), path)), nil
}

// EncodeExport renders data as "json" or "yaml".
func EncodeExport(data *hikestore.ExportData, format string) ([]byte, error) {
	switch format {
	case "", "json":
		return json.MarshalIndent(data, "", "  ")
	case "yaml":
		return yaml.Marshal(data)
	default:
		return nil, fmt.Errorf("unknown format %q: use json or yaml", format)
	}
}

// ─── ImportTool ─────────────────────────────────────────────────────────────

// ImportTool handles the hikelog_import MCP tool.
type ImportTool struct {
	store    *hikestore.Store
	maxBytes int64
}

// NewImportTool creates an ImportTool. Documents larger than maxBytes are refused.
func NewImportTool(store *hikestore.Store, maxBytes int64) *ImportTool {
	return &ImportTool{store: store, maxBytes: maxBytes}
}

// Definition returns the MCP tool definition for hikelog_import.
func (t *ImportTool) Definition() mcp.Tool {
	return mcp.NewTool("hikelog_import",
		mcp.WithDescription(
			"Import hikes and observations from a JSON or YAML document in hikelog_export format. "+
				"The document is validated first; nothing is written if any part is invalid. New IDs are assigned.",
		),
		mcp.WithString("document",
			mcp.Description("The export document itself"),
		),
		mcp.WithString("path",
			mcp.Description("Read the document from this file instead"),
		),
	)
}

// Handle processes the hikelog_import tool call.
func (t *ImportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := []byte(req.GetString("document", ""))
	if path := req.GetString("path", ""); path != "" {
		b, err := ReadLimited(path, t.maxBytes)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		doc = b
	}
	if len(doc) == 0 {
		return mcp.NewToolResultError("'document' or 'path' is required"), nil
	}
	if t.maxBytes > 0 && int64(len(doc)) > t.maxBytes {
		return mcp.NewToolResultError(fmt.Sprintf("document exceeds %d bytes", t.maxBytes)), nil
	}

	res, err := t.store.Import(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("import failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Imported %d hikes and %d observations",
		res.HikesImported, res.ObservationsImported)), nil
}

// ReadLimited reads path, refusing files larger than max bytes (0 = no limit).
func ReadLimited(path string, max int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading import: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if max > 0 {
		r = io.LimitReader(f, max+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading import: %w", err)
	}
	if max > 0 && int64(len(b)) > max {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, max)
	}
	return b, nil
}
