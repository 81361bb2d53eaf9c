package models_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// setupTestDB installs a fresh in-memory SQLite database as the global
// connection. Tests using it must not run in parallel.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	conn, err := config.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	config.UseDB(conn)
	config.UseRedis(nil)
	models.MigrateTable()
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
		config.UseDB(nil)
	})
	return conn
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustCreateCustomer(t *testing.T, code string) *models.Customer {
	t.Helper()
	c, err := models.CreateCustomer(context.Background(), &models.NewCustomer{
		CustomerCode: code,
		Name:         "Customer " + code,
	})
	if err != nil {
		t.Fatalf("CreateCustomer(%s): %v", code, err)
	}
	return c
}

func mustCreateProduct(t *testing.T, code, name, price string, stock int) *models.Product {
	t.Helper()
	p, err := models.CreateProduct(context.Background(), &models.NewProduct{
		ProductCode: code,
		Name:        name,
		Price:       dec(price),
		Stock:       stock,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s): %v", code, err)
	}
	return p
}

// insertHeader writes a bare transaction header, bypassing the poster.
func insertHeader(t *testing.T, db *gorm.DB, customerId int, invoiceNumber string) {
	t.Helper()
	header := models.Transaction{
		CustomerId:    customerId,
		InvoiceNumber: invoiceNumber,
		InvoiceDate:   time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Total:         decimal.Zero,
	}
	if err := db.Create(&header).Error; err != nil {
		t.Fatalf("insert header %s: %v", invoiceNumber, err)
	}
}

func stockOf(t *testing.T, db *gorm.DB, productId int) int {
	t.Helper()
	var stock int
	if err := db.Model(&models.Product{}).Where("id = ?", productId).Select("stock").Scan(&stock).Error; err != nil {
		t.Fatalf("read stock of %d: %v", productId, err)
	}
	return stock
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return n
}

func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func line(productId, qty int, disc1 string) models.NewTransactionItem {
	return models.NewTransactionItem{
		ProductId: productId,
		Quantity:  qty,
		Disc1:     dec(disc1),
	}
}
