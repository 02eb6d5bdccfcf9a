// Package cmd implements the command-line interface for ocslots.
//
// This package provides the following commands:
//   - add: Create weekly availability slots for an hour range
//   - rem: Delete availability slots falling on an hour range
//   - check: Verify the login and print the resolved user id
//   - events: List booked sessions, optionally exporting them to ICS or Google Calendar
//   - google-auth: Authorize the Google Calendar export
//   - serve: Start the MCP server on stdio
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
