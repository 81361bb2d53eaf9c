package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/xuri/excelize/v2"
)

const transactionRegisterSheet = "Transactions"

var transactionRegisterHeadings = []string{
	"Invoice Number",
	"Invoice Date",
	"Customer Code",
	"Customer Name",
	"Product Code",
	"Product Name",
	"Quantity",
	"Price",
	"Disc 1 (%)",
	"Disc 2 (%)",
	"Disc 3 (%)",
	"Net Price",
	"Amount",
	"Invoice Total",
}

// ExportTransactionRegister writes one row per transaction line, newest
// transaction first, as an xlsx workbook.
func ExportTransactionRegister(ctx context.Context, filter *models.TransactionFilter, w io.Writer) error {
	started := time.Now()
	defer logSlowReport(ctx, "transactionRegister", started, nil)

	transactions, err := models.GetTransactionsWithDetails(ctx, filter)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			config.LogError(config.GetLogger(), "Reports", "ExportTransactionRegister", "close workbook", nil, err)
		}
	}()
	if err := f.SetSheetName("Sheet1", transactionRegisterSheet); err != nil {
		return err
	}

	// Add headers
	col := 'A'
	for _, h := range transactionRegisterHeadings {
		if err := f.SetCellValue(transactionRegisterSheet, string(col)+"1", h); err != nil {
			return err
		}
		col++
	}

	// Add data
	rowNo := 2
	for _, t := range transactions {
		customerCode, customerName := "", ""
		if t.Customer != nil {
			customerCode, customerName = t.Customer.CustomerCode, t.Customer.Name
		}
		for _, d := range t.Details {
			values := []interface{}{
				t.InvoiceNumber,
				t.InvoiceDate.Format("2006-01-02"),
				customerCode,
				customerName,
				d.ProductCode,
				d.ProductName,
				d.Quantity,
				d.PriceAtTime.InexactFloat64(),
				d.Disc1.InexactFloat64(),
				d.Disc2.InexactFloat64(),
				d.Disc3.InexactFloat64(),
				d.NetPrice.InexactFloat64(),
				d.Amount.InexactFloat64(),
				t.Total.InexactFloat64(),
			}
			col := 'A'
			for _, v := range values {
				if err := f.SetCellValue(transactionRegisterSheet, string(col)+fmt.Sprint(rowNo), v); err != nil {
					return err
				}
				col++
			}
			rowNo++
		}
	}

	return f.Write(w)
}
