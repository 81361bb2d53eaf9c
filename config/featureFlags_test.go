package config

import "testing"

func TestInvoicePrefix(t *testing.T) {
	cases := []struct {
		env  string
		want string
	}{
		{"", "INV"},
		{"so", "SO"},
		{" inv-b ", "INV-B"},
		{"INV/X", "INV"},
		{"TOOLONGPREFIX", "INV"},
	}
	for _, tc := range cases {
		t.Setenv("INVOICE_PREFIX", tc.env)
		if got := InvoicePrefix(); got != tc.want {
			t.Fatalf("INVOICE_PREFIX=%q: got %q, want %q", tc.env, got, tc.want)
		}
	}
}

func TestInvoiceNumberMaxAttempts(t *testing.T) {
	t.Setenv("INVOICE_NUMBER_MAX_ATTEMPTS", "")
	if got := InvoiceNumberMaxAttempts(); got != 5 {
		t.Fatalf("default attempts = %d, want 5", got)
	}
	t.Setenv("INVOICE_NUMBER_MAX_ATTEMPTS", "0")
	if got := InvoiceNumberMaxAttempts(); got != 1 {
		t.Fatalf("attempts floor = %d, want 1", got)
	}
	t.Setenv("INVOICE_NUMBER_MAX_ATTEMPTS", "abc")
	if got := InvoiceNumberMaxAttempts(); got != 5 {
		t.Fatalf("unparsable attempts = %d, want 5", got)
	}
}

func TestRestoreStockOnDelete(t *testing.T) {
	t.Setenv("STOCK_RESTORE_ON_DELETE", "")
	if !RestoreStockOnDelete() {
		t.Fatalf("restore should default to true")
	}
	t.Setenv("STOCK_RESTORE_ON_DELETE", "no")
	if RestoreStockOnDelete() {
		t.Fatalf("restore should be off for %q", "no")
	}
	t.Setenv("STOCK_RESTORE_ON_DELETE", "maybe")
	if !RestoreStockOnDelete() {
		t.Fatalf("unrecognised value should keep the default")
	}
}

func TestPriceAtTimeSource(t *testing.T) {
	t.Setenv("PRICE_AT_TIME_SOURCE", " Product ")
	if got := PriceAtTimeSource(); got != PriceSourceProduct {
		t.Fatalf("got %q, want %q", got, PriceSourceProduct)
	}
	t.Setenv("PRICE_AT_TIME_SOURCE", "catalog")
	if got := PriceAtTimeSource(); got != PriceSourceRequest {
		t.Fatalf("got %q, want %q", got, PriceSourceRequest)
	}
}

func TestLowStockThreshold(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "")
	if got := LowStockThreshold(); got != 10 {
		t.Fatalf("default threshold = %d, want 10", got)
	}
	t.Setenv("LOW_STOCK_THRESHOLD", "-3")
	if got := LowStockThreshold(); got != 0 {
		t.Fatalf("negative threshold = %d, want 0", got)
	}
}

func TestReportCacheSettings(t *testing.T) {
	t.Setenv("ENABLE_REPORT_CACHE", "")
	if ReportCacheEnabled() {
		t.Fatalf("report cache should default to off")
	}
	t.Setenv("ENABLE_REPORT_CACHE", "On")
	if !ReportCacheEnabled() {
		t.Fatalf("report cache should be on for %q", "On")
	}

	t.Setenv("REPORT_CACHE_TTL_SECONDS", "30")
	if got := ReportCacheTTL(); got.Seconds() != 30 {
		t.Fatalf("ttl = %s, want 30s", got)
	}
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "-1")
	if got := ReportCacheTTL(); got.Seconds() != 120 {
		t.Fatalf("ttl = %s, want default 120s", got)
	}

	t.Setenv("REPORT_SLOW_MS", "")
	if got := ReportSlowThreshold(); got.Milliseconds() != 500 {
		t.Fatalf("slow threshold = %s, want 500ms", got)
	}
}
