package cmd

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/ocslots/internal/credentials"
	"github.com/teemow/ocslots/internal/server"
	"github.com/teemow/ocslots/internal/tools/oc_tools"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

The server exposes oc_check, oc_list_events, oc_add_availability and
oc_remove_availability. Credentials come from the environment or the
credentials file; stdin carries the protocol and is never prompted on.
Logs are written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func runServe(opts *rootOptions) error {
	shutdownCtx, cancel := signalContext()
	defer cancel()

	a, err := newApp(shutdownCtx, opts)
	if err != nil {
		return err
	}
	defer a.close()

	// The prompt source would read from the protocol stream.
	creds := credentials.Chain{credentials.NewEnvSource(), credentials.NewFileSource(a.cfg.CredentialsFile, a.logger)}

	serverContext, err := server.NewServerContext(shutdownCtx, a.client, creds,
		server.WithLogger(a.logger),
		server.WithMetrics(a.provider.Metrics()),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := newMCPServer()
	if err := oc_tools.RegisterOCTools(mcpSrv, serverContext); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	a.logger.Info("Starting ocslots MCP server on stdio", "version", version)
	return runStdioServer(mcpSrv)
}

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("ocslots", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}
