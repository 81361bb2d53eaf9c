package main

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/models/reports"
	"github.com/mmdatafocus/backoffice_backend/utils"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	dateLayout           = "2006-01-02"
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// transactionRequest is the wire form of models.NewTransaction; invoice_date
// is a plain calendar date.
type transactionRequest struct {
	CustomerId  int                         `json:"customer_id"`
	InvoiceDate string                      `json:"invoice_date"`
	Items       []models.NewTransactionItem `json:"items"`
}

func (r *transactionRequest) toInput() (*models.NewTransaction, error) {
	input := &models.NewTransaction{
		CustomerId: r.CustomerId,
		Items:      r.Items,
	}
	if v := strings.TrimSpace(r.InvoiceDate); v != "" {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, utils.NewValidationError("invoice_date", "must be a date formatted as YYYY-MM-DD")
		}
		input.InvoiceDate = d
	}
	return input, nil
}

func bindTransaction(c *gin.Context) (*models.NewTransaction, bool) {
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return nil, false
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return input, true
}

func bindTransactionFilter(c *gin.Context) (*models.TransactionFilter, bool) {
	var filter models.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondError(c, utils.NewValidationError("filter", "customer_id must be a number and dates formatted as YYYY-MM-DD"))
		return nil, false
	}
	return &filter, true
}

func listTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := bindTransactionFilter(c)
		if !ok {
			return
		}
		transactions, err := models.GetTransactions(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	}
}

func getTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		transaction, err := models.GetTransaction(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

// createTransactionHandler honours the Idempotency-Key header: resending a
// request with the same key returns the transaction already posted.
func createTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		input, ok := bindTransaction(c)
		if !ok {
			return
		}
		input.IdempotencyKey = c.GetHeader(idempotencyKeyHeader)

		transaction, err := models.CreateTransaction(c.Request.Context(), input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, transaction)
	}
}

func updateTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		input, ok := bindTransaction(c)
		if !ok {
			return
		}
		transaction, err := models.UpdateTransaction(c.Request.Context(), id, input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

func deleteTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramId(c)
		if !ok {
			return
		}
		transaction, err := models.DeleteTransaction(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

func exportTransactionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := bindTransactionFilter(c)
		if !ok {
			return
		}
		var buf bytes.Buffer
		if err := reports.ExportTransactionRegister(c.Request.Context(), filter, &buf); err != nil {
			respondError(c, err)
			return
		}
		filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().Format("20060102"))
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	}
}

func dashboardHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dashboard, err := reports.GetDashboard(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	}
}

// invoiceAuditHandler reports gaps for ?month=YYYY-MM, this month by default.
func invoiceAuditHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		period := time.Now()
		if v := strings.TrimSpace(c.Query("month")); v != "" {
			parsed, err := time.Parse("2006-01", v)
			if err != nil {
				respondError(c, utils.NewValidationError("month", "must be formatted as YYYY-MM"))
				return
			}
			period = parsed
		}
		audit, err := models.AuditInvoiceNumbers(c.Request.Context(), period)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, audit)
	}
}
