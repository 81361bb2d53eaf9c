package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          int             `gorm:"primary_key" json:"id"`
	ProductCode string          `gorm:"size:50;not null;uniqueIndex" json:"product_code"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"price"`
	Stock       int             `gorm:"not null;default:0;check:chk_products_stock,stock >= 0" json:"stock"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	ProductCode string          `json:"product_code" binding:"required,max=50"`
	Name        string          `json:"name" binding:"required,max=255"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"gte=0"`
}

type ProductDetails struct {
	ID          int             `json:"id"`
	ProductCode string          `json:"product_code"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

func (input *NewProduct) validate(ctx context.Context, tx *gorm.DB, id int) error {
	input.ProductCode = strings.TrimSpace(input.ProductCode)
	input.Name = strings.TrimSpace(input.Name)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.Price.IsNegative() {
		return utils.NewValidationError("price", "must be at least 0")
	}
	if err := utils.ValidateUnique[Product](ctx, tx, "product_code", input.ProductCode, id); err != nil {
		return utils.PersistenceOrKind("check product code", err)
	}
	return nil
}

func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	if err := input.validate(ctx, db, 0); err != nil {
		return nil, err
	}

	product := Product{
		ProductCode: input.ProductCode,
		Name:        input.Name,
		Price:       input.Price.Round(2),
		Stock:       input.Stock,
	}
	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewValidationError("product_code", "has already been taken")
		}
		config.LogError(logger, "Product", "CreateProduct", "insert product", input, err)
		return nil, utils.NewPersistenceError("create product", err)
	}

	clearReportCache(ctx)
	return &product, nil
}

// UpdateProduct edits catalogue data. Stock set here is a manual correction;
// postings change stock only through the stock ledger.
func UpdateProduct(ctx context.Context, id int, input *NewProduct) (*Product, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	product, err := utils.FetchModel[Product](ctx, db, id)
	if err != nil {
		return nil, utils.PersistenceOrKind("fetch product", err)
	}
	if err := input.validate(ctx, db, id); err != nil {
		return nil, err
	}

	if err := db.WithContext(ctx).Model(product).Updates(map[string]interface{}{
		"product_code": input.ProductCode,
		"name":         input.Name,
		"price":        input.Price.Round(2),
		"stock":        input.Stock,
	}).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, utils.NewValidationError("product_code", "has already been taken")
		}
		config.LogError(logger, "Product", "UpdateProduct", "update product", input, err)
		return nil, utils.NewPersistenceError("update product", err)
	}

	if err := product.RemoveInstanceRedis(); err != nil {
		config.LogError(logger, "Product", "UpdateProduct", "remove product cache", id, err)
	}
	clearReportCache(ctx)
	return utils.FetchModel[Product](ctx, db, id)
}

// DeleteProduct refuses products that appear on any transaction line.
func DeleteProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	product, err := utils.FetchModel[Product](ctx, db, id)
	if err != nil {
		return nil, utils.PersistenceOrKind("fetch product", err)
	}

	count, err := utils.ResourceCountWhere[TransactionDetail](ctx, db, "product_id = ?", id)
	if err != nil {
		return nil, utils.NewPersistenceError("count product usage", err)
	}
	if count > 0 {
		return nil, &utils.ConflictError{
			Resource: "Product",
			Message:  "Cannot delete product because it is used in transactions",
		}
	}

	if err := db.WithContext(ctx).Delete(product).Error; err != nil {
		config.LogError(logger, "Product", "DeleteProduct", "delete product", id, err)
		return nil, utils.NewPersistenceError("delete product", err)
	}

	if err := product.RemoveInstanceRedis(); err != nil {
		config.LogError(logger, "Product", "DeleteProduct", "remove product cache", id, err)
	}
	clearReportCache(ctx)
	return product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	product, err := GetResource[Product](ctx, id)
	if err != nil {
		return nil, utils.PersistenceOrKind("get product", err)
	}
	return product, nil
}

// GetProductDetails is the lookup used when filling a transaction line.
func GetProductDetails(ctx context.Context, id int) (*ProductDetails, error) {
	product, err := GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductDetails{
		ID:          product.ID,
		ProductCode: product.ProductCode,
		Name:        product.Name,
		Price:       product.Price,
		Stock:       product.Stock,
	}, nil
}

// GetProducts lists products by code, optionally filtered by name or code.
func GetProducts(ctx context.Context, search *string) ([]*Product, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if search != nil && strings.TrimSpace(*search) != "" {
		term := "%" + strings.TrimSpace(*search) + "%"
		dbCtx = dbCtx.Where("name LIKE ? OR product_code LIKE ?", term, term)
	}
	var results []*Product
	if err := dbCtx.Order("product_code").Find(&results).Error; err != nil {
		return nil, utils.NewPersistenceError("list products", err)
	}
	return results, nil
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
