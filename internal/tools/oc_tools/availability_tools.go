package oc_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ocslots/internal/server"
	"github.com/teemow/ocslots/internal/slots"
	"github.com/teemow/ocslots/internal/tools/common"
)

// RegisterAvailabilityTools registers the booking and release tools.
func RegisterAvailabilityTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	seriesOptions := []mcp.ToolOption{
		mcp.WithString("weekday",
			mcp.Required(),
			mcp.Description("Day of the week: full or short English name (monday, mon), or 0-6 with 0 = Monday"),
		),
		mcp.WithNumber("start_hour",
			mcp.Required(),
			mcp.Description("First hour of the range, 0-24 in local time"),
		),
		mcp.WithNumber("end_hour",
			mcp.Required(),
			mcp.Description("Hour the range ends at (exclusive), 0-24 in local time"),
		),
		mcp.WithNumber("repeat",
			mcp.Description("Number of consecutive weeks, starting with the next matching day (default: 1)"),
		),
	}

	addTool := mcp.NewTool("oc_add_availability",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create one-hour availability slots for an hour range on a weekday, repeated weekly"),
		}, seriesOptions...)...,
	)
	s.AddTool(addTool, common.InstrumentedToolHandler("oc_add_availability", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSeries(ctx, request, sc, slots.Book)
		}))

	removeTool := mcp.NewTool("oc_remove_availability",
		append([]mcp.ToolOption{
			mcp.WithDescription("Delete existing availability slots falling on an hour range of a weekday, repeated weekly"),
		}, seriesOptions...)...,
	)
	s.AddTool(removeTool, common.InstrumentedToolHandler("oc_remove_availability", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSeries(ctx, request, sc, slots.Release)
		}))
}

func handleSeries(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, op slots.Operation) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	series, err := slots.ParseSeries(
		common.ArgString(args, "weekday"),
		common.ArgString(args, "start_hour"),
		common.ArgString(args, "end_hour"),
		common.ArgString(args, "repeat"),
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}

	runner, err := sc.Runner(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Authentication failed: %v", err)), nil
	}

	report, err := runner.Run(ctx, op, series, nil)
	text := formatReport(report)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s\n\nRun aborted: %v", text, err)), nil
	}
	if report.AllFailed() {
		return mcp.NewToolResultError(text), nil
	}
	return mcp.NewToolResultText(text), nil
}

func formatReport(report slots.Report) string {
	var b strings.Builder
	b.WriteString(report.Summary())
	b.WriteString("\n")
	for _, r := range report.Results {
		b.WriteString("\n- ")
		b.WriteString(r.String())
	}
	return b.String()
}
