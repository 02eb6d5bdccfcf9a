// Package server provides the context shared by the MCP tools of ocslots.
//
// ServerContext owns the scheduling session. The session is authenticated
// lazily on the first tool call that needs it, using the configured
// credential source, and reused by later calls. Tools run one at a time over
// stdio, but the context is safe for concurrent use.
package server
