package models_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"gorm.io/gorm"
)

var errRollback = errors.New("rollback")

func TestReserveDoesNotChangeStock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := mustCreateProduct(t, "P-A", "Alpha", "1000", 5)
	b := mustCreateProduct(t, "P-B", "Beta", "2000", 3)

	err := db.Transaction(func(tx *gorm.DB) error {
		products, err := models.NewStockLedger(tx).Reserve(ctx, []models.StockItem{
			{ProductId: a.ID, Quantity: 5},
			{ProductId: b.ID, Quantity: 1},
		})
		if err != nil {
			return err
		}
		if len(products) != 2 || products[a.ID].Name != "Alpha" {
			t.Fatalf("unexpected reserved products: %+v", products)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if got := stockOf(t, db, a.ID); got != 5 {
		t.Fatalf("stock of A = %d, want 5", got)
	}
	if got := stockOf(t, db, b.ID); got != 3 {
		t.Fatalf("stock of B = %d, want 3", got)
	}
}

func TestReserveErrors(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := mustCreateProduct(t, "P-A", "Alpha", "1000", 5)

	reserve := func(items ...models.StockItem) error {
		return db.Transaction(func(tx *gorm.DB) error {
			_, err := models.NewStockLedger(tx).Reserve(ctx, items)
			return err
		})
	}

	err := reserve(models.StockItem{ProductId: 9999, Quantity: 1})
	var nf *utils.NotFoundError
	if !errors.As(err, &nf) || nf.Id != 9999 {
		t.Fatalf("expected NotFoundError for 9999, got %v", err)
	}

	if err := reserve(models.StockItem{ProductId: a.ID, Quantity: 0}); !errors.Is(err, utils.ErrValidation) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}

	err = reserve(models.StockItem{ProductId: a.ID, Quantity: 6})
	var ise *utils.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if ise.Available != 5 || ise.Requested != 6 || ise.ProductName != "Alpha" {
		t.Fatalf("unexpected shortage: %+v", ise)
	}
	if ise.Error() != "Insufficient stock for product: Alpha. Available: 5, Requested: 6" {
		t.Fatalf("unexpected message: %s", ise.Error())
	}

	// the first failing item wins
	err = reserve(
		models.StockItem{ProductId: a.ID, Quantity: 9},
		models.StockItem{ProductId: 9999, Quantity: 1},
	)
	if !errors.Is(err, utils.ErrInsufficientStock) {
		t.Fatalf("expected the shortage on the first item, got %v", err)
	}
}

func TestReserveCountsRepeatedProductCumulatively(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := mustCreateProduct(t, "P-A", "Alpha", "1000", 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := models.NewStockLedger(tx).Reserve(ctx, []models.StockItem{
			{ProductId: a.ID, Quantity: 3},
			{ProductId: a.ID, Quantity: 3},
		})
		return err
	})
	var ise *utils.InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if ise.Requested != 6 || ise.Available != 5 {
		t.Fatalf("unexpected shortage: %+v", ise)
	}
}

func TestApplyAndRestore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := mustCreateProduct(t, "P-A", "Alpha", "1000", 10)
	items := []models.StockItem{{ProductId: a.ID, Quantity: 2}, {ProductId: a.ID, Quantity: 3}}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return models.NewStockLedger(tx).Apply(ctx, items)
	}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := stockOf(t, db, a.ID); got != 5 {
		t.Fatalf("stock after apply = %d, want 5", got)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return models.NewStockLedger(tx).Restore(ctx, items)
	}); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := stockOf(t, db, a.ID); got != 10 {
		t.Fatalf("stock after restore = %d, want 10", got)
	}

	// restore then re-apply of the same batch is a no-op on stock
	if err := db.Transaction(func(tx *gorm.DB) error {
		ledger := models.NewStockLedger(tx)
		if err := ledger.Restore(ctx, items); err != nil {
			return err
		}
		return ledger.Apply(ctx, items)
	}); err != nil {
		t.Fatalf("Restore+Apply: %v", err)
	}
	if got := stockOf(t, db, a.ID); got != 10 {
		t.Fatalf("stock after restore+apply = %d, want 10", got)
	}

	if err := db.Transaction(func(tx *gorm.DB) error {
		return models.NewStockLedger(tx).Restore(ctx, []models.StockItem{{ProductId: 9999, Quantity: 1}})
	}); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected NotFound restoring unknown product, got %v", err)
	}
}

func TestApplyIsGuardedAgainstNegativeStock(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := mustCreateProduct(t, "P-A", "Alpha", "1000", 4)

	err := db.Transaction(func(tx *gorm.DB) error {
		return models.NewStockLedger(tx).Apply(ctx, []models.StockItem{{ProductId: a.ID, Quantity: 5}})
	})
	var ise *utils.InsufficientStockError
	if !errors.As(err, &ise) || ise.Available != 4 || ise.Requested != 5 {
		t.Fatalf("expected guarded shortage, got %v", err)
	}
	if got := stockOf(t, db, a.ID); got != 4 {
		t.Fatalf("stock = %d, want 4", got)
	}
}

func TestReplaceRestoresBeforeReserving(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	// 3 units already committed, 7 left
	a := mustCreateProduct(t, "P-A", "Alpha", "1000", 7)
	old := []models.StockItem{{ProductId: a.ID, Quantity: 3}}

	if err := db.Transaction(func(tx *gorm.DB) error {
		_, err := models.NewStockLedger(tx).Replace(ctx, old, []models.StockItem{{ProductId: a.ID, Quantity: 10}})
		return err
	}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got := stockOf(t, db, a.ID); got != 0 {
		t.Fatalf("stock = %d, want 0", got)
	}
}

func TestReplaceFailureLeavesStockUntouched(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	a := mustCreateProduct(t, "P-A", "Alpha", "1000", 7)
	old := []models.StockItem{{ProductId: a.ID, Quantity: 3}}

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := models.NewStockLedger(tx).Replace(ctx, old, []models.StockItem{{ProductId: a.ID, Quantity: 15}})
		return err
	})
	var ise *utils.InsufficientStockError
	if !errors.As(err, &ise) || ise.Available != 10 || ise.Requested != 15 {
		t.Fatalf("expected shortage against restored stock, got %v", err)
	}
	if got := stockOf(t, db, a.ID); got != 7 {
		t.Fatalf("stock = %d, want 7", got)
	}

	// a later error in the same unit also undoes a successful replace
	err = db.Transaction(func(tx *gorm.DB) error {
		if _, err := models.NewStockLedger(tx).Replace(ctx, old, []models.StockItem{{ProductId: a.ID, Quantity: 1}}); err != nil {
			return err
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("expected rollback error, got %v", err)
	}
	if got := stockOf(t, db, a.ID); got != 7 {
		t.Fatalf("stock after rollback = %d, want 7", got)
	}
}
