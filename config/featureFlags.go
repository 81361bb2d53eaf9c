package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	PriceSourceRequest = "request"
	PriceSourceProduct = "product"
)

var invoicePrefixPattern = regexp.MustCompile(`^[A-Z0-9-]{1,10}$`)

// InvoicePrefix is the leading segment of generated invoice numbers.
//
// Set via env:
// - INVOICE_PREFIX=INV (uppercase letters, digits and '-', at most 10 chars)
func InvoicePrefix() string {
	v := strings.ToUpper(strings.TrimSpace(os.Getenv("INVOICE_PREFIX")))
	if !invoicePrefixPattern.MatchString(v) {
		return "INV"
	}
	return v
}

// InvoiceNumberMaxAttempts bounds how many times a posting is retried after
// losing an invoice number to a concurrent writer.
//
// Set via env:
// - INVOICE_NUMBER_MAX_ATTEMPTS=5
func InvoiceNumberMaxAttempts() int {
	n := intFromEnv("INVOICE_NUMBER_MAX_ATTEMPTS", 5)
	if n < 1 {
		return 1
	}
	return n
}

// RestoreStockOnDelete puts the quantities of a deleted transaction back
// into stock in the same unit of work.
//
// Set via env:
// - STOCK_RESTORE_ON_DELETE=true (default)
func RestoreStockOnDelete() bool {
	return boolFromEnv("STOCK_RESTORE_ON_DELETE", true)
}

// PriceAtTimeSource decides where a line's unit price comes from.
// "request" takes the caller's price and falls back to the product price when
// omitted; "product" always snapshots the product row.
//
// Set via env:
// - PRICE_AT_TIME_SOURCE=request|product
func PriceAtTimeSource() string {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("PRICE_AT_TIME_SOURCE")))
	if v == PriceSourceProduct {
		return PriceSourceProduct
	}
	return PriceSourceRequest
}

// LowStockThreshold is the inclusive stock level reported as low on the dashboard.
func LowStockThreshold() int {
	n := intFromEnv("LOW_STOCK_THRESHOLD", 10)
	if n < 0 {
		return 0
	}
	return n
}

// PhoneDefaultRegion is the region used to parse customer phone numbers
// written without a country code.
func PhoneDefaultRegion() string {
	v := strings.ToUpper(strings.TrimSpace(os.Getenv("PHONE_DEFAULT_REGION")))
	if v == "" {
		return "ID"
	}
	return v
}

// ReportCacheEnabled turns on the redis cache for the dashboard.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
func ReportCacheEnabled() bool {
	return boolFromEnv("ENABLE_REPORT_CACHE", false)
}

// ReportCacheTTL is how long a cached report lives (REPORT_CACHE_TTL_SECONDS, default 120).
func ReportCacheTTL() time.Duration {
	n := intFromEnv("REPORT_CACHE_TTL_SECONDS", 120)
	if n <= 0 {
		n = 120
	}
	return time.Duration(n) * time.Second
}

// ReportSlowThreshold is the duration above which a report is logged as slow
// (REPORT_SLOW_MS, default 500).
func ReportSlowThreshold() time.Duration {
	n := intFromEnv("REPORT_SLOW_MS", 500)
	if n <= 0 {
		n = 500
	}
	return time.Duration(n) * time.Millisecond
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolFromEnv(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	}
	return def
}
