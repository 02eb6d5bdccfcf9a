package oc_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ocslots/internal/server"
	"github.com/teemow/ocslots/internal/tools/common"
)

// RegisterOCTools registers all scheduling tools with the MCP server
func RegisterOCTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("server and server context are required")
	}

	checkTool := mcp.NewTool("oc_check",
		mcp.WithDescription("Check the OpenClassrooms login and return the resolved user id"),
	)
	s.AddTool(checkTool, common.InstrumentedToolHandler("oc_check", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheck(ctx, request, sc)
		}))

	listEventsTool := mcp.NewTool("oc_list_events",
		mcp.WithDescription("List the booked mentoring sessions of the current user"),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandler("oc_list_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	RegisterAvailabilityTools(s, sc)

	return nil
}

func handleCheck(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	session, err := sc.Session(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Authentication failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Authenticated as user %s", session.UserID())), nil
}
