package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/metric/noop"
)

func newTestMetrics(t *testing.T) (*Provider, *Metrics) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	provider, err := NewProvider(ctx, enabledConfig())
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics := provider.Metrics()
	if metrics == nil {
		t.Fatal("expected metrics to be non-nil")
	}
	return provider, metrics
}

func gatheredFamilies(t *testing.T, p *Provider) map[string]bool {
	t.Helper()

	families, err := p.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetrics_RecordAPIOperation(t *testing.T) {
	provider, metrics := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordAPIOperation(ctx, OperationCreateAvailability, StatusSuccess, 200*time.Millisecond)
	metrics.RecordAPIOperation(ctx, OperationDeleteAvailability, StatusError, 500*time.Millisecond)

	names := gatheredFamilies(t, provider)
	if !names["oc_api_operations_total"] {
		t.Errorf("expected oc_api_operations_total, got %v", names)
	}
	if !names["oc_api_operation_duration_seconds"] {
		t.Errorf("expected oc_api_operation_duration_seconds, got %v", names)
	}
}

func TestMetrics_RecordAuth(t *testing.T) {
	provider, metrics := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordAuth(ctx, AuthResultCached)
	metrics.RecordAuth(ctx, AuthResultSuccess)
	metrics.RecordAuth(ctx, AuthResultFailure)

	if names := gatheredFamilies(t, provider); !names["oc_auth_total"] {
		t.Errorf("expected oc_auth_total, got %v", names)
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	provider, metrics := newTestMetrics(t)
	ctx := context.Background()

	metrics.RecordToolInvocation(ctx, "oc_add_availability", StatusSuccess, 150*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "oc_check", StatusError, 10*time.Millisecond)

	if names := gatheredFamilies(t, provider); !names["mcp_tool_invocations_total"] {
		t.Errorf("expected mcp_tool_invocations_total, got %v", names)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	nilMetrics.RecordAPIOperation(ctx, OperationLogin, StatusSuccess, time.Second)
	nilMetrics.RecordAuth(ctx, AuthResultSuccess)
	nilMetrics.RecordSlot(ctx, "book", StatusSuccess)
	nilMetrics.RecordToolInvocation(ctx, "oc_check", StatusSuccess, time.Second)

	empty := &Metrics{}
	empty.RecordAPIOperation(ctx, OperationLogin, StatusSuccess, time.Second)
	empty.RecordAuth(ctx, AuthResultSuccess)
	empty.RecordSlot(ctx, "release", StatusSkipped)
	empty.RecordToolInvocation(ctx, "oc_check", StatusSuccess, time.Second)
}

func TestNewMetrics_NoopMeter(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	metrics.RecordSlot(context.Background(), "book", StatusSuccess)
}
