package models_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mmdatafocus/backoffice_backend/models"
	"github.com/mmdatafocus/backoffice_backend/utils"
)

func TestCreateCustomerFormatsPhone(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	c, err := models.CreateCustomer(ctx, &models.NewCustomer{
		CustomerCode: "C001",
		Name:         "Toko Maju",
		Phone:        "0812-3456-7890",
		Location: models.CustomerLocation{
			Address:  "Jl. Merdeka 1",
			City:     "Bandung",
			Province: "Jawa Barat",
		},
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if c.Phone != "+6281234567890" {
		t.Fatalf("phone = %s, want +6281234567890", c.Phone)
	}

	details, err := models.GetCustomerDetails(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCustomerDetails: %v", err)
	}
	if details.Address != "Jl. Merdeka 1, Bandung, Jawa Barat" {
		t.Fatalf("address = %q", details.Address)
	}

	if _, err := models.CreateCustomer(ctx, &models.NewCustomer{CustomerCode: "C002", Name: "Bad", Phone: "12345"}); !errors.Is(err, utils.ErrValidation) {
		t.Fatalf("expected validation error for bad phone, got %v", err)
	}
	if _, err := models.CreateCustomer(ctx, &models.NewCustomer{CustomerCode: "C001", Name: "Dup"}); !errors.Is(err, utils.ErrValidation) {
		t.Fatalf("expected validation error for duplicate code, got %v", err)
	}
}

func TestDeleteCustomerWithTransactions(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	busy := mustCreateCustomer(t, "C001")
	idle := mustCreateCustomer(t, "C002")
	p := mustCreateProduct(t, "P-A", "Alpha", "1000", 5)
	createOne(t, busy.ID, line(p.ID, 1, "0"))

	if _, err := models.DeleteCustomer(ctx, busy.ID); !errors.Is(err, utils.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := models.DeleteCustomer(ctx, idle.ID); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	if _, err := models.GetCustomer(ctx, idle.ID); !errors.Is(err, utils.ErrNotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestUpdateCustomer(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	c := mustCreateCustomer(t, "C001")

	updated, err := models.UpdateCustomer(ctx, c.ID, &models.NewCustomer{CustomerCode: "C001", Name: "Renamed"})
	if err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("name = %s", updated.Name)
	}

	search := "renamed"
	found, err := models.GetCustomers(ctx, &search)
	if err != nil {
		t.Fatalf("GetCustomers: %v", err)
	}
	if len(found) != 1 || found[0].ID != c.ID {
		t.Fatalf("search returned %d customers", len(found))
	}
}
