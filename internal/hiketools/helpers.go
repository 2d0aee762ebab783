// Package hiketools provides MCP tool handlers for the hike log.
//
// Each tool handler follows the same pattern:
// - A struct with dependencies (hikestore.Store) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// The store reports failures as neutral values (-1 ids, zero row counts,
// empty lists); handlers turn those into tool errors for the caller.
package hiketools

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/hikelog/internal/hikestore"
	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg extracts a float argument, returning defaultVal if missing.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// hasArg reports whether the caller supplied key at all.
func hasArg(req mcp.CallToolRequest, key string) bool {
	_, ok := req.GetArguments()[key]
	return ok
}

// Updatable argument names of a hike and of an observation.
var (
	hikeFields        = []string{"name", "location", "date", "parking", "length", "difficulty", "description", "weather", "group_size"}
	observationFields = []string{"text", "time", "comments"}
)

// anyArg reports whether the caller supplied at least one of keys.
func anyArg(req mcp.CallToolRequest, keys ...string) bool {
	for _, k := range keys {
		if hasArg(req, k) {
			return true
		}
	}
	return false
}

// idArg reads a required positive id.
func idArg(req mcp.CallToolRequest, key string) (int64, bool) {
	id := intArg(req, key, 0)
	if id <= 0 {
		return 0, false
	}
	return int64(id), true
}

// hikeArgs builds a Hike from request arguments, starting from base so
// update calls only change the fields the caller supplied.
func hikeArgs(req mcp.CallToolRequest, base hikestore.Hike) (hikestore.Hike, string) {
	h := base
	if hasArg(req, "name") {
		h.Name = strings.TrimSpace(req.GetString("name", ""))
	}
	if hasArg(req, "location") {
		h.Location = strings.TrimSpace(req.GetString("location", ""))
	}
	if hasArg(req, "date") {
		h.Date = strings.TrimSpace(req.GetString("date", ""))
	}
	if hasArg(req, "parking") {
		h.Parking = boolArg(req, "parking", h.Parking)
	}
	if hasArg(req, "length") {
		h.Length = floatArg(req, "length", h.Length)
	}
	if hasArg(req, "difficulty") {
		h.Difficulty = req.GetString("difficulty", h.Difficulty)
	}
	if hasArg(req, "description") {
		h.Description = req.GetString("description", "")
	}
	if hasArg(req, "weather") {
		h.Weather = req.GetString("weather", "")
	}
	if hasArg(req, "group_size") {
		h.GroupSize = intArg(req, "group_size", h.GroupSize)
	}

	switch {
	case h.Name == "":
		return h, "'name' is required"
	case h.Location == "":
		return h, "'location' is required"
	case h.Date == "":
		return h, "'date' is required"
	case h.Length < 0:
		return h, "'length' must not be negative"
	case h.GroupSize < 0:
		return h, "'group_size' must not be negative"
	}
	return h, ""
}

// observationArgs builds an Observation from request arguments over base.
func observationArgs(req mcp.CallToolRequest, base hikestore.Observation) (hikestore.Observation, string) {
	o := base
	if hasArg(req, "text") {
		o.Text = strings.TrimSpace(req.GetString("text", ""))
	}
	if hasArg(req, "time") {
		o.Time = strings.TrimSpace(req.GetString("time", ""))
	}
	if hasArg(req, "comments") {
		o.Comments = req.GetString("comments", "")
	}
	switch {
	case o.Text == "":
		return o, "'text' is required"
	case o.Time == "":
		return o, "'time' is required"
	}
	return o, ""
}

// hikeFieldOptions declares the shared hike attribute parameters.
// Required marks name, location and date as required (add) or optional (update).
func hikeFieldOptions(required bool) []mcp.ToolOption {
	req := func(desc string) []mcp.PropertyOption {
		if required {
			return []mcp.PropertyOption{mcp.Required(), mcp.Description(desc)}
		}
		return []mcp.PropertyOption{mcp.Description(desc)}
	}
	return []mcp.ToolOption{
		mcp.WithString("name", req("Hike name (e.g. 'Mossy Creek')")...),
		mcp.WithString("location", req("Where the hike took place")...),
		mcp.WithString("date", req("Date of the hike, free-form text (YYYY-MM-DD sorts best)")...),
		mcp.WithBoolean("parking", mcp.Description("Whether parking is available")),
		mcp.WithNumber("length", mcp.Description("Length in kilometers"), mcp.Min(0)),
		mcp.WithString("difficulty",
			mcp.Description("Difficulty: "+strings.Join(hikestore.DifficultyValues(), ", ")+" (default: Easy). Other text is stored as given."),
		),
		mcp.WithString("description", mcp.Description("Free-text description")),
		mcp.WithString("weather", mcp.Description("Weather conditions")),
		mcp.WithNumber("group_size", mcp.Description("Number of people (0 = unspecified)"), mcp.Min(0)),
	}
}

// formatHike renders one hike at the given detail level.
func formatHike(b *strings.Builder, h hikestore.Hike, detail string) {
	fmt.Fprintf(b, "#%d %s (%s, %s)", h.ID, h.Name, h.Location, h.Date)
	if detail == DetailSummary {
		b.WriteString("\n")
		return
	}
	parking := "no"
	if h.Parking {
		parking = "yes"
	}
	fmt.Fprintf(b, "\n    %.1f km | %s | parking: %s", h.Length, h.Difficulty, parking)
	if h.GroupSize > 0 {
		fmt.Fprintf(b, " | group: %d", h.GroupSize)
	}
	if h.Weather != "" {
		fmt.Fprintf(b, " | weather: %s", h.Weather)
	}
	b.WriteString("\n")
	if h.Description != "" {
		desc := h.Description
		if detail == DetailStandard {
			desc = Truncate(desc, 200)
		}
		fmt.Fprintf(b, "    %s\n", desc)
	}
}

func formatObservation(b *strings.Builder, o hikestore.Observation) {
	fmt.Fprintf(b, "#%d [%s] %s", o.ID, o.Time, o.Text)
	if o.Comments != "" {
		fmt.Fprintf(b, " (%s)", o.Comments)
	}
	b.WriteString("\n")
}
