package oc_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/ocslots/internal/server"
)

func handleListEvents(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	session, err := sc.Session(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Authentication failed: %v", err)), nil
	}

	events, err := session.Events(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	loc := session.Location()
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d sessions:\n\n", len(events))
	for i, e := range events {
		start, end := e.Start.In(loc), e.End.In(loc)
		fmt.Fprintf(&b, "%d. %s\n", i+1, e.Attendee)
		fmt.Fprintf(&b, "   Date: %s\n", start.Format("Mon 02-01-2006"))
		fmt.Fprintf(&b, "   Time: %s-%s\n", start.Format("15:04"), end.Format("15:04"))
	}
	return mcp.NewToolResultText(b.String()), nil
}
