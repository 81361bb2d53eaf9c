package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"gorm.io/gorm"
)

type Customer struct {
	ID           int              `gorm:"primary_key" json:"id"`
	CustomerCode string           `gorm:"size:50;not null;uniqueIndex" json:"customer_code"`
	Name         string           `gorm:"size:255;not null" json:"name"`
	Phone        string           `gorm:"size:30" json:"phone"`
	Location     CustomerLocation `gorm:"embedded" json:"location"`
	CreatedAt    time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// CustomerLocation is stored as entered; region names are not checked
// against reference tables.
type CustomerLocation struct {
	Address     string `gorm:"type:text" json:"address"`
	Province    string `gorm:"size:100" json:"province"`
	City        string `gorm:"size:100" json:"city"`
	District    string `gorm:"size:100" json:"district"`
	SubDistrict string `gorm:"size:100" json:"sub_district"`
	PostalCode  string `gorm:"size:10" json:"postal_code"`
}

type NewCustomer struct {
	CustomerCode string           `json:"customer_code" binding:"required,max=50"`
	Name         string           `json:"name" binding:"required,max=255"`
	Phone        string           `json:"phone" binding:"max=30"`
	Location     CustomerLocation `json:"location"`
}

type CustomerDetails struct {
	ID           int    `json:"id"`
	CustomerCode string `json:"customer_code"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

// FullAddress joins the non-empty location parts, street first.
func (l CustomerLocation) FullAddress() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{l.Address, l.SubDistrict, l.District, l.City, l.Province, l.PostalCode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (input *NewCustomer) validate(ctx context.Context, tx *gorm.DB, id int) error {
	input.CustomerCode = strings.TrimSpace(input.CustomerCode)
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Phone != "" {
		formatted, err := utils.FormatPhoneNumber(input.Phone, config.PhoneDefaultRegion())
		if err != nil {
			return utils.NewValidationError("phone", "is not a valid phone number")
		}
		input.Phone = formatted
	}
	if err := utils.ValidateUnique[Customer](ctx, tx, "customer_code", input.CustomerCode, id); err != nil {
		return utils.PersistenceOrKind("check customer code", err)
	}
	return nil
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	if err := input.validate(ctx, db, 0); err != nil {
		return nil, err
	}

	customer := Customer{
		CustomerCode: input.CustomerCode,
		Name:         input.Name,
		Phone:        input.Phone,
		Location:     input.Location,
	}
	if err := db.WithContext(ctx).Create(&customer).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewValidationError("customer_code", "has already been taken")
		}
		config.LogError(logger, "Customer", "CreateCustomer", "insert customer", input, err)
		return nil, utils.NewPersistenceError("create customer", err)
	}

	clearReportCache(ctx)
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	customer, err := utils.FetchModel[Customer](ctx, db, id)
	if err != nil {
		return nil, utils.PersistenceOrKind("fetch customer", err)
	}
	if err := input.validate(ctx, db, id); err != nil {
		return nil, err
	}

	customer.CustomerCode = input.CustomerCode
	customer.Name = input.Name
	customer.Phone = input.Phone
	customer.Location = input.Location
	if err := db.WithContext(ctx).Save(customer).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewValidationError("customer_code", "has already been taken")
		}
		config.LogError(logger, "Customer", "UpdateCustomer", "update customer", input, err)
		return nil, utils.NewPersistenceError("update customer", err)
	}

	if err := customer.RemoveInstanceRedis(); err != nil {
		config.LogError(logger, "Customer", "UpdateCustomer", "remove customer cache", id, err)
	}
	return customer, nil
}

// DeleteCustomer refuses customers that still have transactions.
func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	customer, err := utils.FetchModel[Customer](ctx, db, id)
	if err != nil {
		return nil, utils.PersistenceOrKind("fetch customer", err)
	}

	count, err := utils.ResourceCountWhere[Transaction](ctx, db, "customer_id = ?", id)
	if err != nil {
		return nil, utils.NewPersistenceError("count customer transactions", err)
	}
	if count > 0 {
		return nil, &utils.ConflictError{
			Resource: "Customer",
			Message:  "Cannot delete customer because it has transactions",
		}
	}

	if err := db.WithContext(ctx).Delete(customer).Error; err != nil {
		config.LogError(logger, "Customer", "DeleteCustomer", "delete customer", id, err)
		return nil, utils.NewPersistenceError("delete customer", err)
	}

	if err := customer.RemoveInstanceRedis(); err != nil {
		config.LogError(logger, "Customer", "DeleteCustomer", "remove customer cache", id, err)
	}
	clearReportCache(ctx)
	return customer, nil
}

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	customer, err := GetResource[Customer](ctx, id)
	if err != nil {
		return nil, utils.PersistenceOrKind("get customer", err)
	}
	return customer, nil
}

// GetCustomerDetails is the lookup used when picking a customer for a transaction.
func GetCustomerDetails(ctx context.Context, id int) (*CustomerDetails, error) {
	customer, err := GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CustomerDetails{
		ID:           customer.ID,
		CustomerCode: customer.CustomerCode,
		Name:         customer.Name,
		Phone:        customer.Phone,
		Address:      customer.Location.FullAddress(),
	}, nil
}

func GetCustomers(ctx context.Context, search *string) ([]*Customer, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if search != nil && strings.TrimSpace(*search) != "" {
		term := "%" + strings.TrimSpace(*search) + "%"
		dbCtx = dbCtx.Where("name LIKE ? OR customer_code LIKE ?", term, term)
	}
	var results []*Customer
	if err := dbCtx.Order("name").Find(&results).Error; err != nil {
		return nil, utils.NewPersistenceError("list customers", err)
	}
	return results, nil
}
