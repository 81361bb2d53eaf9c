package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/sirupsen/logrus"
)

// Reports missing and malformed invoice numbers for one month.
func main() {
	monthStr := flag.String("month", "", "Optional: month to audit (YYYY-MM). Defaults to the current month.")
	failOnGaps := flag.Bool("fail-on-gaps", false, "Exit with status 2 when the month has missing or malformed numbers")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	period := time.Now().UTC()
	if v := strings.TrimSpace(*monthStr); v != "" {
		d, err := time.Parse("2006-01", v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid month: %v\n", err)
			os.Exit(1)
		}
		period = d
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	logger := config.GetLogger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	audit, err := models.AuditInvoiceNumbers(ctx, period)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "invoice-audit"}).Error(err.Error())
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(audit); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}

	if *failOnGaps && (len(audit.Missing) > 0 || len(audit.Malformed) > 0) {
		os.Exit(2)
	}
}
