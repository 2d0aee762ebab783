// Package prompts implements MCP prompt handlers for the hike log.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// LogHikePrompt handles the log-hike MCP prompt.
// It guides the AI through collecting a hike's details and saving it.
type LogHikePrompt struct{}

// NewLogHikePrompt creates a LogHikePrompt.
func NewLogHikePrompt() *LogHikePrompt {
	return &LogHikePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *LogHikePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("log-hike",
		mcp.WithPromptDescription(
			"Log a hike you just did. I'll ask for the details, save the hike, "+
				"then offer to record observations from the trail.",
		),
		mcp.WithArgument("name",
			mcp.ArgumentDescription("Name of the hike, if you already know it"),
		),
	)
}

// Handle processes the log-hike prompt request.
func (p *LogHikePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := ""
	if args := req.Params.Arguments; args != nil {
		name = args["name"]
	}

	opening := "I want to log a hike."
	description := "Log a hike"
	if name != "" {
		opening = fmt.Sprintf("I want to log a hike called '%s'.", name)
		description = fmt.Sprintf("Log hike: %s", name)
	}

	return &mcp.GetPromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(opening + "\n\n" +
					"Please:\n" +
					"1. Ask me for anything still missing of: name, location, date (YYYY-MM-DD)\n" +
					"2. Ask about the optional details in one message: parking, length in km, difficulty (Easy, Medium or Hard), " +
					"description, weather, group size. Skip whatever I don't answer\n" +
					"3. Run `hike_add` with what I gave you\n" +
					"4. Ask if I noticed anything worth recording, and run `observation_add` with the new hike ID for each one\n" +
					"5. Finish with `hike_get` so I can check the entry",
				),
			},
		},
	}, nil
}

// TripReportPrompt handles the trip-report MCP prompt.
// It instructs the AI to read a logged hike and write it up.
type TripReportPrompt struct{}

// NewTripReportPrompt creates a TripReportPrompt.
func NewTripReportPrompt() *TripReportPrompt {
	return &TripReportPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *TripReportPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("trip-report",
		mcp.WithPromptDescription("Write a short trip report for a logged hike from its attributes and observations."),
		mcp.WithArgument("hike_id",
			mcp.ArgumentDescription("ID of the hike"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the trip-report prompt request.
func (p *TripReportPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := req.Params.Arguments["hike_id"]
	if id == "" {
		return nil, fmt.Errorf("hike_id is required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Trip report for hike %s", id),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Please run `hike_get` with id=%s.\n\n"+
						"Then write a short trip report:\n"+
						"1. One paragraph on the route: where, when, distance, difficulty, parking\n"+
						"2. The observations in time order as a bulleted list\n"+
						"3. A closing line on the weather and group, if recorded",
					id,
				)),
			},
		},
	}, nil
}
