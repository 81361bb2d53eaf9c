package models

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"gorm.io/gorm"
)

// InvoiceSequenceWidth is the minimum number of digits in the sequence
// segment. Sequences above 9999 simply grow wider.
const InvoiceSequenceWidth = 4

const invoicePeriodLayout = "0601"

// InvoiceNumber is the parsed form of PREFIX/YYMM/NNNN.
type InvoiceNumber struct {
	Prefix   string
	Period   string
	Sequence int
}

func (n InvoiceNumber) String() string {
	return fmt.Sprintf("%s/%s/%0*d", n.Prefix, n.Period, InvoiceSequenceWidth, n.Sequence)
}

// InvoicePeriod is the YYMM segment for t.
func InvoicePeriod(t time.Time) string {
	return t.Format(invoicePeriodLayout)
}

func FormatInvoiceNumber(prefix string, period time.Time, sequence int) string {
	return InvoiceNumber{Prefix: prefix, Period: InvoicePeriod(period), Sequence: sequence}.String()
}

// ParseInvoiceNumber splits an invoice number into its segments. The sequence
// must be at least InvoiceSequenceWidth digits, greater than zero, and carry
// no leading zeros once it is wider than InvoiceSequenceWidth.
func ParseInvoiceNumber(s string) (*InvoiceNumber, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[0] == "" {
		return nil, utils.NewValidationError("invoice_number", fmt.Sprintf("malformed invoice number %q", s))
	}
	period, seq := parts[1], parts[2]
	if len(period) != 4 || !isDigits(period) {
		return nil, utils.NewValidationError("invoice_number", fmt.Sprintf("malformed period in %q", s))
	}
	if month, _ := strconv.Atoi(period[2:]); month < 1 || month > 12 {
		return nil, utils.NewValidationError("invoice_number", fmt.Sprintf("month out of range in %q", s))
	}
	if len(seq) < InvoiceSequenceWidth || !isDigits(seq) {
		return nil, utils.NewValidationError("invoice_number", fmt.Sprintf("malformed sequence in %q", s))
	}
	// only the first InvoiceSequenceWidth digits may be zero padding
	if len(seq) > InvoiceSequenceWidth && seq[0] == '0' {
		return nil, utils.NewValidationError("invoice_number", fmt.Sprintf("over-padded sequence in %q", s))
	}
	n, err := strconv.Atoi(seq)
	if err != nil || n < 1 {
		return nil, utils.NewValidationError("invoice_number", fmt.Sprintf("malformed sequence in %q", s))
	}
	return &InvoiceNumber{Prefix: parts[0], Period: period, Sequence: n}, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// NextInvoiceNumber reads the highest number issued for period's month and
// returns the one after it, starting at 0001 each month. It runs on the
// caller's tx; uniqueness is only guaranteed by the index on insert.
func NextInvoiceNumber(ctx context.Context, tx *gorm.DB, period time.Time) (string, error) {
	if period.IsZero() {
		return "", fmt.Errorf("%w: clock returned zero time", utils.ErrInvalidPeriod)
	}
	prefix := config.InvoicePrefix()

	last, err := highestInvoiceSequence(ctx, tx, prefix, period)
	if err != nil {
		return "", utils.NewPersistenceError("read latest invoice number", err)
	}
	return FormatInvoiceNumber(prefix, period, last+1), nil
}

// highestInvoiceSequence returns the largest well-formed sequence issued for
// period's month, or 0. Numbers that do not parse, including other prefixes
// matched by a case-insensitive LIKE, are ignored.
func highestInvoiceSequence(ctx context.Context, tx *gorm.DB, prefix string, period time.Time) (int, error) {
	var numbers []string
	err := tx.WithContext(ctx).Model(&Transaction{}).
		Where("invoice_number LIKE ?", prefix+"/"+InvoicePeriod(period)+"/%").
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, n := range numbers {
		parsed, err := ParseInvoiceNumber(n)
		if err != nil || parsed.Prefix != prefix {
			continue
		}
		if parsed.Sequence > highest {
			highest = parsed.Sequence
		}
	}
	return highest, nil
}

// InvoiceAudit summarises the numbers issued in one month.
type InvoiceAudit struct {
	Period    string   `json:"period"`
	Count     int      `json:"count"`
	Last      string   `json:"last"`
	Missing   []int    `json:"missing"`
	Malformed []string `json:"malformed"`
}

// AuditInvoiceNumbers lists gaps in the sequence and numbers that do not parse.
// Gaps are expected when transactions are deleted.
func AuditInvoiceNumbers(ctx context.Context, period time.Time) (*InvoiceAudit, error) {
	db := config.GetDB()
	prefix := config.InvoicePrefix()

	var numbers []string
	if err := db.WithContext(ctx).Model(&Transaction{}).
		Where("invoice_number LIKE ?", prefix+"/"+InvoicePeriod(period)+"/%").
		Pluck("invoice_number", &numbers).Error; err != nil {
		return nil, utils.NewPersistenceError("list invoice numbers", err)
	}

	audit := &InvoiceAudit{Period: InvoicePeriod(period), Count: len(numbers)}
	seen := make(map[int]bool, len(numbers))
	maxSeq := 0
	for _, n := range numbers {
		parsed, err := ParseInvoiceNumber(n)
		if err != nil || parsed.Prefix != prefix {
			audit.Malformed = append(audit.Malformed, n)
			continue
		}
		seen[parsed.Sequence] = true
		if parsed.Sequence > maxSeq {
			maxSeq = parsed.Sequence
			audit.Last = n
		}
	}
	for seq := 1; seq < maxSeq; seq++ {
		if !seen[seq] {
			audit.Missing = append(audit.Missing, seq)
		}
	}
	return audit, nil
}
