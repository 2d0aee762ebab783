// Package resources implements MCP resource handlers for the hike log.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (hikelog://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/hikelog/internal/hikestore"
	"github.com/mark3labs/mcp-go/mcp"
)

// Resource URIs.
const (
	HikesURI  = "hikelog://hikes"
	SchemaURI = "hikelog://schema"
)

// Handler manages hike log resource endpoints.
type Handler struct {
	store *hikestore.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *hikestore.Store) *Handler {
	return &Handler{store: store}
}

// HikesResource returns the MCP resource definition for the hike list.
func (h *Handler) HikesResource() mcp.Resource {
	return mcp.NewResource(
		HikesURI,
		"Hike Log",
		mcp.WithResourceDescription("Every logged hike, most recent date first"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleHikes returns all hikes as JSON.
func (h *Handler) HandleHikes(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, h.store.GetAllHikes())
}

// SchemaResource returns the MCP resource definition for the schema status.
func (h *Handler) SchemaResource() mcp.Resource {
	return mcp.NewResource(
		SchemaURI,
		"Hike Log Schema",
		mcp.WithResourceDescription("Database schema version, live columns, and migration steps run by this process"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleSchema returns the schema status as JSON.
func (h *Handler) HandleSchema(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := h.store.SchemaStatus()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, st)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
