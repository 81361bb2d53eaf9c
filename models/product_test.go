package models_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
)

func TestCreateProductValidation(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	mustCreateProduct(t, "P-A", "Alpha", "1000", 5)

	cases := []struct {
		name  string
		input models.NewProduct
		field string
	}{
		{"duplicate code", models.NewProduct{ProductCode: " P-A ", Name: "Again", Price: dec("1")}, "product_code"},
		{"missing name", models.NewProduct{ProductCode: "P-B", Price: dec("1")}, "name"},
		{"negative price", models.NewProduct{ProductCode: "P-B", Name: "Beta", Price: dec("-1")}, "price"},
		{"negative stock", models.NewProduct{ProductCode: "P-B", Name: "Beta", Price: dec("1"), Stock: -1}, "stock"},
	}
	for _, tc := range cases {
		input := tc.input
		_, err := models.CreateProduct(ctx, &input)
		var ve *utils.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if ve.Field != tc.field {
			if _, ok := ve.Fields[tc.field]; !ok {
				t.Fatalf("%s: expected field %s, got %+v", tc.name, tc.field, ve)
			}
		}
	}
}

func TestUpdateProductKeepsOwnCode(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	a := mustCreateProduct(t, "P-A", "Alpha", "1000", 5)
	mustCreateProduct(t, "P-B", "Beta", "1000", 5)

	updated, err := models.UpdateProduct(ctx, a.ID, &models.NewProduct{ProductCode: "P-A", Name: "Alpha 2", Price: dec("1250.555"), Stock: 8})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.Name != "Alpha 2" || updated.Stock != 8 || updated.Price.StringFixed(2) != "1250.56" {
		t.Fatalf("unexpected product after update: %+v", updated)
	}

	if _, err := models.UpdateProduct(ctx, a.ID, &models.NewProduct{ProductCode: "P-B", Name: "Alpha", Price: dec("1")}); !errors.Is(err, utils.ErrValidation) {
		t.Fatalf("expected validation error for taken code, got %v", err)
	}
	if _, err := models.UpdateProduct(ctx, 9999, &models.NewProduct{ProductCode: "P-Z", Name: "Zed", Price: dec("1")}); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestDeleteProductInUse(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	c := mustCreateCustomer(t, "C001")
	used := mustCreateProduct(t, "P-A", "Alpha", "1000", 5)
	unused := mustCreateProduct(t, "P-B", "Beta", "1000", 5)
	createOne(t, c.ID, line(used.ID, 1, "0"))

	if _, err := models.DeleteProduct(ctx, used.ID); !errors.Is(err, utils.ErrConflict) {
		t.Fatalf("expected conflict deleting a used product, got %v", err)
	}
	if _, err := models.DeleteProduct(ctx, unused.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := models.GetProduct(ctx, unused.ID); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestGetProductsSearch(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	mustCreateProduct(t, "P-B", "Beta Soap", "1000", 5)
	mustCreateProduct(t, "P-A", "Alpha Rice", "1000", 5)
	mustCreateProduct(t, "X-1", "Soap Bar", "1000", 5)

	all, err := models.GetProducts(ctx, nil)
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if len(all) != 3 || all[0].ProductCode != "P-A" {
		t.Fatalf("expected 3 products ordered by code, got %d", len(all))
	}

	search := "soap"
	found, err := models.GetProducts(ctx, &search)
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("search returned %d products, want 2", len(found))
	}

	details, err := models.GetProductDetails(ctx, all[0].ID)
	if err != nil {
		t.Fatalf("GetProductDetails: %v", err)
	}
	if details.ProductCode != "P-A" || details.Stock != 5 || details.Price.StringFixed(2) != "1000.00" {
		t.Fatalf("unexpected details: %+v", details)
	}
}
