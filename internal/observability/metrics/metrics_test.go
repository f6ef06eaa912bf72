package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("resource", "product"),
		attribute.String("product_id", "456"),
		attribute.String("status", "shipped"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "resource" && attrs[1].Key != "resource" {
		t.Fatalf("expected resource to be retained")
	}
	if attrs[0].Key != "status" && attrs[1].Key != "status" {
		t.Fatalf("expected status to be retained")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordCatalogWrite(context.Background(), "product", "create", "ok")
	m.RecordTrackingEvent(context.Background(), "pending")
	m.RecordOrderCreated(context.Background())
}

func TestNoopMetricsRecord(t *testing.T) {
	m := NewNoop()
	if m == nil {
		t.Fatal("expected noop metrics")
	}
	m.RecordRateLimitDenied(context.Background(), "/user/token", "exhausted")
}
