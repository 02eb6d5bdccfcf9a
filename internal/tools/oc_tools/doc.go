// Package oc_tools exposes the scheduling operations as MCP tools:
// oc_check, oc_list_events, oc_add_availability and oc_remove_availability.
package oc_tools
