package utils

import (
	"context"
	"testing"
)

func TestLogFieldsFromContext(t *testing.T) {
	if fields := LogFieldsFromContext(context.Background()); len(fields) != 0 {
		t.Fatalf("empty context gave fields %v", fields)
	}

	ctx := SetCorrelationIdInContext(context.Background(), "cid-1")
	ctx = SetRequestPathInContext(ctx, "/api/transactions")
	ctx = SetClientIpInContext(ctx, "10.0.0.7")

	fields := LogFieldsFromContext(ctx)
	if fields["correlation_id"] != "cid-1" || fields["path"] != "/api/transactions" || fields["client_ip"] != "10.0.0.7" {
		t.Fatalf("unexpected fields %v", fields)
	}
}
