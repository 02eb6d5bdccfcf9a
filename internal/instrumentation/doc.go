// Package instrumentation provides OpenTelemetry instrumentation for ocslots.
//
// A CLI run is short-lived, so instrumentation is off unless
// INSTRUMENTATION_ENABLED is set. When enabled, metrics are collected for
// every call to the scheduling API, every authentication attempt, every slot
// processed by a booking or release run and every MCP tool invocation.
//
// # Metrics
//
// Scheduling API Metrics:
//   - oc_api_operations_total: Counter of API operations by operation and status
//   - oc_api_operation_duration_seconds: Histogram of API operation durations
//
// Session Metrics:
//   - oc_auth_total: Counter of authentication attempts by result (cached, success, failure)
//
// Slot Metrics:
//   - oc_slots_total: Counter of processed slots by operation (book, release) and status
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// With the prometheus exporter the metrics land in a private registry. Set
// PUSHGATEWAY_URL and call Provider.Push before exiting to hand them to a
// Prometheus Pushgateway.
//
// # Tracing
//
// Spans are created for CLI commands (cli.<command>), API calls (oc.<operation>)
// and MCP tool invocations (tool.<name>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 1.0)
//   - OTEL_SERVICE_NAME: Service name (default: ocslots)
//   - PUSHGATEWAY_URL, PUSHGATEWAY_JOB: Pushgateway target
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	recorder := provider.Metrics()
//	recorder.RecordAPIOperation(ctx, instrumentation.OperationCreateAvailability, "success", time.Since(start))
//
//	if err := provider.Push(ctx); err != nil {
//		slog.Warn("metrics push failed", "error", err)
//	}
package instrumentation
