// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the hike store and injects it
// into the tools, prompts and resources that depend on it.
// No business logic lives here, only wiring.
package server

import (
	"fmt"

	"github.com/HendryAvila/hikelog/internal/config"
	"github.com/HendryAvila/hikelog/internal/hikestore"
	"github.com/HendryAvila/hikelog/internal/hiketools"
	"github.com/HendryAvila/hikelog/internal/prompts"
	"github.com/HendryAvila/hikelog/internal/resources"
	"github.com/mark3labs/mcp-go/server"
	"github.com/powerman/structlog"
)

// Version is set at build time via ldflags.
var Version = "dev"

var log = structlog.New(structlog.KeyUnit, "server")

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the hike store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil.
func New(cfg config.Config) (*server.MCPServer, func(), error) {
	store, err := hikestore.New(cfg.Store())
	if err != nil {
		return nil, noop, fmt.Errorf("opening hike store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.PrintErr("hike store close", "err", err)
		}
	}
	log.Info("hike store ready", "path", store.Path())

	s := server.NewMCPServer(
		"hikelog",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	registerHikeTools(s, store, cfg)

	// --- Register prompts ---

	logHike := prompts.NewLogHikePrompt()
	s.AddPrompt(logHike.Definition(), logHike.Handle)

	tripReport := prompts.NewTripReportPrompt()
	s.AddPrompt(tripReport.Definition(), tripReport.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.HikesResource(), resourceHandler.HandleHikes)
	s.AddResource(resourceHandler.SchemaResource(), resourceHandler.HandleSchema)

	return s, cleanup, nil
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// registerHikeTools registers all hike log MCP tools with the server.
func registerHikeTools(s *server.MCPServer, hs *hikestore.Store, cfg config.Config) {
	// --- Hikes ---
	addTool := hiketools.NewAddTool(hs)
	s.AddTool(addTool.Definition(), addTool.Handle)

	getTool := hiketools.NewGetTool(hs)
	s.AddTool(getTool.Definition(), getTool.Handle)

	listTool := hiketools.NewListTool(hs)
	s.AddTool(listTool.Definition(), listTool.Handle)

	updateTool := hiketools.NewUpdateTool(hs)
	s.AddTool(updateTool.Definition(), updateTool.Handle)

	deleteTool := hiketools.NewDeleteTool(hs)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)

	deleteAll := hiketools.NewDeleteAllTool(hs)
	s.AddTool(deleteAll.Definition(), deleteAll.Handle)

	// --- Search ---
	searchTool := hiketools.NewSearchTool(hs)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	advancedSearch := hiketools.NewAdvancedSearchTool(hs)
	s.AddTool(advancedSearch.Definition(), advancedSearch.Handle)

	// --- Observations ---
	obsAdd := hiketools.NewObservationAddTool(hs)
	s.AddTool(obsAdd.Definition(), obsAdd.Handle)

	obsGet := hiketools.NewObservationGetTool(hs)
	s.AddTool(obsGet.Definition(), obsGet.Handle)

	obsList := hiketools.NewObservationListTool(hs)
	s.AddTool(obsList.Definition(), obsList.Handle)

	obsUpdate := hiketools.NewObservationUpdateTool(hs)
	s.AddTool(obsUpdate.Definition(), obsUpdate.Handle)

	obsDelete := hiketools.NewObservationDeleteTool(hs)
	s.AddTool(obsDelete.Definition(), obsDelete.Handle)

	// --- Statistics & transfer ---
	statsTool := hiketools.NewStatsTool(hs)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	exportTool := hiketools.NewExportTool(hs)
	s.AddTool(exportTool.Definition(), exportTool.Handle)

	importTool := hiketools.NewImportTool(hs, cfg.ImportMaxBytes)
	s.AddTool(importTool.Definition(), importTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use hikelog effectively.
func serverInstructions() string {
	return `You have access to hikelog, a personal hiking log.

## What it stores
- Hikes: name, location, date, parking, length (km), difficulty, description, weather, group size.
- Observations: timestamped notes attached to one hike (wildlife, trail conditions, views).

## How to use it
1. When the user describes a hike they did, collect name, location and date, then call hike_add.
   Ask once about the optional details; do not invent values the user did not give.
2. Use the returned ID for observation_add. Each observation needs text and a time.
3. To find a hike, prefer hike_search (name prefix). Use hike_advanced_search when the user
   filters by location, date or exact distance.
4. hike_get shows one hike with its observations. hike_list shows recent hikes; pass
   detail_level=summary for long logs.
5. Deleting a hike deletes its observations. hike_delete_all needs confirm=true; only use it
   when the user explicitly asks to wipe the log.

## Dates
Dates are free text but sort as text, so write them as YYYY-MM-DD unless the user insists otherwise.

## Difficulty
Easy, Medium or Hard. Unset difficulty is stored as Easy. Other text is stored as given.`
}
