package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

type Transaction struct {
	ID            int                 `gorm:"primary_key" json:"id"`
	CustomerId    int                 `gorm:"index;not null" json:"customer_id"`
	Customer      *Customer           `gorm:"foreignKey:CustomerId" json:"customer,omitempty"`
	InvoiceNumber string              `gorm:"size:30;not null;uniqueIndex" json:"invoice_number"`
	InvoiceDate   time.Time           `gorm:"type:date;not null" json:"invoice_date"`
	Total         decimal.Decimal     `gorm:"type:decimal(15,2);not null;default:0" json:"total"`
	Details       []TransactionDetail `gorm:"foreignKey:TransactionId;constraint:OnDelete:CASCADE" json:"details"`
	CreatedAt     time.Time           `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"autoUpdateTime" json:"updated_at"`
}

// TransactionDetail is one invoice line. ProductCode, ProductName and
// InvoiceNumber are copied when the line is written and never refreshed.
type TransactionDetail struct {
	ID            int             `gorm:"primary_key" json:"id"`
	TransactionId int             `gorm:"index;not null" json:"transaction_id"`
	ProductId     int             `gorm:"index;not null" json:"product_id"`
	ProductCode   string          `gorm:"size:50;not null" json:"product_code"`
	ProductName   string          `gorm:"size:255;not null" json:"product_name"`
	InvoiceNumber string          `gorm:"size:30;index;not null" json:"invoice_number"`
	Quantity      int             `gorm:"not null;check:chk_transaction_details_quantity,quantity > 0" json:"quantity"`
	PriceAtTime   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"price_at_time"`
	Disc1         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"disc1"`
	Disc2         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"disc2"`
	Disc3         decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"disc3"`
	NetPrice      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"net_price"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewTransaction struct {
	CustomerId  int                  `json:"customer_id" binding:"required,gt=0"`
	InvoiceDate time.Time            `json:"invoice_date" binding:"required"`
	Items       []NewTransactionItem `json:"items" binding:"required,min=1,dive"`
	// IdempotencyKey makes a create safe to resend; an already committed
	// create with the same key is returned instead of posting again.
	IdempotencyKey string `json:"-"`
}

type NewTransactionItem struct {
	ProductId   int              `json:"product_id" binding:"required,gt=0"`
	Quantity    int              `json:"quantity" binding:"required,gte=1"`
	PriceAtTime *decimal.Decimal `json:"price_at_time"`
	Disc1       decimal.Decimal  `json:"disc1"`
	Disc2       decimal.Decimal  `json:"disc2"`
	Disc3       decimal.Decimal  `json:"disc3"`
}

type TransactionFilter struct {
	CustomerId *int       `form:"customer_id"`
	FromDate   *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate     *time.Time `form:"to_date" time_format:"2006-01-02"`
}

func (input *NewTransaction) validate() error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	for i, item := range input.Items {
		if item.PriceAtTime != nil && item.PriceAtTime.IsNegative() {
			return utils.NewValidationError(fmt.Sprintf("items[%d].price_at_time", i), "must be at least 0")
		}
		// discounts are stored at two decimals; price with the stored values
		item.Disc1 = utils.RoundDiscount(item.Disc1)
		item.Disc2 = utils.RoundDiscount(item.Disc2)
		item.Disc3 = utils.RoundDiscount(item.Disc3)
		for n, disc := range []decimal.Decimal{item.Disc1, item.Disc2, item.Disc3} {
			if !utils.IsValidDiscount(disc) {
				return utils.NewValidationError(fmt.Sprintf("items[%d].disc%d", i, n+1), "must be between 0 and 100")
			}
		}
		input.Items[i] = item
	}
	input.IdempotencyKey = strings.TrimSpace(input.IdempotencyKey)
	if len(input.IdempotencyKey) > 255 {
		return utils.NewValidationError("idempotency_key", "must be at most 255 characters")
	}
	return nil
}

func (input *NewTransaction) stockItems() []StockItem {
	items := make([]StockItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, StockItem{ProductId: item.ProductId, Quantity: item.Quantity})
	}
	return items
}

func (t *Transaction) stockItems() []StockItem {
	items := make([]StockItem, 0, len(t.Details))
	for _, d := range t.Details {
		items = append(items, StockItem{ProductId: d.ProductId, Quantity: d.Quantity})
	}
	return items
}

func (t *Transaction) productIds() []int {
	ids := make([]int, 0, len(t.Details))
	for _, d := range t.Details {
		ids = append(ids, d.ProductId)
	}
	return ids
}

func resolvePriceAtTime(item NewTransactionItem, product *Product) decimal.Decimal {
	if item.PriceAtTime == nil || config.PriceAtTimeSource() == config.PriceSourceProduct {
		return product.Price
	}
	return item.PriceAtTime.Round(2)
}

// buildTransactionDetails prices every line and returns them with their total.
func buildTransactionDetails(items []NewTransactionItem, products map[int]*Product, invoiceNumber string) ([]TransactionDetail, decimal.Decimal) {
	details := make([]TransactionDetail, 0, len(items))
	amounts := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		product := products[item.ProductId]
		price := resolvePriceAtTime(item, product)
		netPrice := utils.CalculateNetPrice(price, item.Disc1, item.Disc2, item.Disc3)
		amount := utils.CalculateLineAmount(netPrice, item.Quantity)
		details = append(details, TransactionDetail{
			ProductId:     product.ID,
			ProductCode:   product.ProductCode,
			ProductName:   product.Name,
			InvoiceNumber: invoiceNumber,
			Quantity:      item.Quantity,
			PriceAtTime:   price,
			Disc1:         item.Disc1,
			Disc2:         item.Disc2,
			Disc3:         item.Disc3,
			NetPrice:      netPrice,
			Amount:        amount,
		})
		amounts = append(amounts, amount)
	}
	return details, utils.SumAmounts(amounts...)
}

// CreateTransaction posts a new sale: it checks stock for every line, takes
// the next invoice number for the current month, writes header and lines and
// decrements stock, all in one unit. Losing an invoice number to a concurrent
// posting restarts the whole unit, up to INVOICE_NUMBER_MAX_ATTEMPTS times.
func CreateTransaction(ctx context.Context, input *NewTransaction) (*Transaction, error) {
	logger := config.GetLogger()

	if err := input.validate(); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != "" {
		existing, err := findIdempotentTransaction(ctx, config.GetDB(), input.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	period := postingClock()
	if period.IsZero() {
		return nil, fmt.Errorf("%w: clock returned zero time", utils.ErrInvalidPeriod)
	}

	release := lockInvoicePeriod(ctx, period)
	defer release()

	maxAttempts := config.InvoiceNumberMaxAttempts()
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		p := newPosting(ctx, PostingOperationCreate, attempt)
		result, err := p.create(input, period)
		if err == nil {
			release()
			clearPostingCaches(ctx, result.productIds())
			return result, nil
		}
		if !errors.Is(err, utils.ErrDuplicateInvoiceNumber) {
			return nil, err
		}
		logger.WithFields(p.logFields()).Warn("invoice number taken by a concurrent posting; retrying")
	}

	err := utils.NewPersistenceError("create transaction",
		fmt.Errorf("%w after %d attempts", utils.ErrInvoiceGenerationFailed, maxAttempts))
	config.LogError(logger, "Transaction", "CreateTransaction", "invoice number retries exhausted", nil, err)
	return nil, err
}

func (p *posting) create(input *NewTransaction, period time.Time) (*Transaction, error) {
	ctx := p.ctx
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, p.fail(utils.NewPersistenceError("begin transaction", tx.Error))
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := p.transition(PostingStateValidating); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Customer](ctx, tx, input.CustomerId); err != nil {
		return nil, p.fail(utils.PersistenceOrKind("check customer", err))
	}
	ledger := NewStockLedger(tx)
	products, err := ledger.Reserve(ctx, input.stockItems())
	if err != nil {
		return nil, p.fail(err)
	}

	if err := p.transition(PostingStatePosting); err != nil {
		return nil, err
	}
	invoiceNumber, err := NextInvoiceNumber(ctx, tx, period)
	if err != nil {
		return nil, p.fail(err)
	}
	p.invoiceNumber = invoiceNumber

	details, total := buildTransactionDetails(input.Items, products, invoiceNumber)
	header := Transaction{
		CustomerId:    input.CustomerId,
		InvoiceNumber: invoiceNumber,
		InvoiceDate:   input.InvoiceDate,
		Total:         total,
	}
	if err := tx.Omit(clause.Associations).Create(&header).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return nil, p.fail(fmt.Errorf("%w: %s", utils.ErrDuplicateInvoiceNumber, invoiceNumber))
		}
		return nil, p.fail(utils.NewPersistenceError("insert transaction header", err))
	}
	for i := range details {
		details[i].TransactionId = header.ID
	}
	if err := tx.Create(&details).Error; err != nil {
		return nil, p.fail(utils.NewPersistenceError("insert transaction details", err))
	}
	if err := ledger.Apply(ctx, input.stockItems()); err != nil {
		return nil, p.fail(err)
	}
	if input.IdempotencyKey != "" {
		if err := recordIdempotencyKey(tx, input.IdempotencyKey, header.ID); err != nil {
			return nil, p.fail(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, p.fail(utils.NewPersistenceError("commit transaction", err))
	}
	if err := p.transition(PostingStateCommitted); err != nil {
		return nil, err
	}

	header.Details = details
	return &header, nil
}

// UpdateTransaction replaces customer, date and every line of a posted
// transaction. The old lines' stock is restored and the new lines are
// checked and applied against it in the same unit. The invoice number is kept.
func UpdateTransaction(ctx context.Context, id int, input *NewTransaction) (*Transaction, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	p := newPosting(ctx, PostingOperationUpdate, 1)
	result, oldProductIds, err := p.update(id, input)
	if err != nil {
		return nil, err
	}
	clearPostingCaches(ctx, append(oldProductIds, result.productIds()...))
	return result, nil
}

func (p *posting) update(id int, input *NewTransaction) (*Transaction, []int, error) {
	ctx := p.ctx
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, nil, p.fail(utils.NewPersistenceError("begin transaction", tx.Error))
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := p.transition(PostingStateValidating); err != nil {
		return nil, nil, err
	}
	existing, err := utils.FetchModelForUpdate[Transaction](ctx, tx, id, "Details")
	if err != nil {
		return nil, nil, p.fail(utils.PersistenceOrKind("fetch transaction", err))
	}
	p.invoiceNumber = existing.InvoiceNumber
	if err := utils.ValidateResourceId[Customer](ctx, tx, input.CustomerId); err != nil {
		return nil, nil, p.fail(utils.PersistenceOrKind("check customer", err))
	}
	ledger := NewStockLedger(tx)
	products, err := ledger.Replace(ctx, existing.stockItems(), input.stockItems())
	if err != nil {
		return nil, nil, p.fail(err)
	}

	if err := p.transition(PostingStatePosting); err != nil {
		return nil, nil, err
	}
	if err := tx.Where("transaction_id = ?", existing.ID).Delete(&TransactionDetail{}).Error; err != nil {
		return nil, nil, p.fail(utils.NewPersistenceError("delete transaction details", err))
	}
	details, total := buildTransactionDetails(input.Items, products, existing.InvoiceNumber)
	for i := range details {
		details[i].TransactionId = existing.ID
	}
	if err := tx.Create(&details).Error; err != nil {
		return nil, nil, p.fail(utils.NewPersistenceError("insert transaction details", err))
	}
	if err := tx.Model(&Transaction{ID: existing.ID}).Updates(map[string]interface{}{
		"customer_id":  input.CustomerId,
		"invoice_date": input.InvoiceDate,
		"total":        total,
	}).Error; err != nil {
		return nil, nil, p.fail(utils.NewPersistenceError("update transaction header", err))
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, p.fail(utils.NewPersistenceError("commit transaction", err))
	}
	if err := p.transition(PostingStateCommitted); err != nil {
		return nil, nil, err
	}

	oldProductIds := existing.productIds()
	existing.CustomerId = input.CustomerId
	existing.InvoiceDate = input.InvoiceDate
	existing.Total = total
	existing.Details = details
	return existing, oldProductIds, nil
}

// DeleteTransaction removes a transaction and its lines together. With
// STOCK_RESTORE_ON_DELETE the lines' quantities go back into stock in the
// same unit.
func DeleteTransaction(ctx context.Context, id int) (*Transaction, error) {
	p := newPosting(ctx, PostingOperationDelete, 1)
	result, err := p.delete(id)
	if err != nil {
		return nil, err
	}
	clearPostingCaches(ctx, result.productIds())
	return result, nil
}

func (p *posting) delete(id int) (*Transaction, error) {
	ctx := p.ctx
	db := config.GetDB()

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, p.fail(utils.NewPersistenceError("begin transaction", tx.Error))
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()
	defer func() { _ = tx.Rollback().Error }()

	if err := p.transition(PostingStateValidating); err != nil {
		return nil, err
	}
	existing, err := utils.FetchModelForUpdate[Transaction](ctx, tx, id, "Details")
	if err != nil {
		return nil, p.fail(utils.PersistenceOrKind("fetch transaction", err))
	}
	p.invoiceNumber = existing.InvoiceNumber

	if err := p.transition(PostingStatePosting); err != nil {
		return nil, err
	}
	if config.RestoreStockOnDelete() {
		if err := NewStockLedger(tx).Restore(ctx, existing.stockItems()); err != nil {
			return nil, p.fail(err)
		}
	}
	if err := tx.Where("transaction_id = ?", existing.ID).Delete(&TransactionDetail{}).Error; err != nil {
		return nil, p.fail(utils.NewPersistenceError("delete transaction details", err))
	}
	if err := deleteIdempotencyKeys(tx, existing.ID); err != nil {
		return nil, p.fail(err)
	}
	if err := tx.Delete(&Transaction{ID: existing.ID}).Error; err != nil {
		return nil, p.fail(utils.NewPersistenceError("delete transaction header", err))
	}

	if err := tx.Commit().Error; err != nil {
		return nil, p.fail(utils.NewPersistenceError("commit transaction", err))
	}
	if err := p.transition(PostingStateCommitted); err != nil {
		return nil, err
	}
	return existing, nil
}

func GetTransaction(ctx context.Context, id int) (*Transaction, error) {
	transaction, err := utils.FetchModel[Transaction](ctx, config.GetDB(), id, "Details", "Customer")
	if err != nil {
		return nil, utils.PersistenceOrKind("get transaction", err)
	}
	return transaction, nil
}

// GetTransactions lists transactions newest first.
func GetTransactions(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("Customer")
	if filter != nil {
		if filter.CustomerId != nil {
			dbCtx = dbCtx.Where("customer_id = ?", *filter.CustomerId)
		}
		if filter.FromDate != nil {
			dbCtx = dbCtx.Where("invoice_date >= ?", *filter.FromDate)
		}
		if filter.ToDate != nil {
			dbCtx = dbCtx.Where("invoice_date <= ?", *filter.ToDate)
		}
	}
	var results []*Transaction
	if err := dbCtx.Order("created_at DESC").Order("id DESC").Find(&results).Error; err != nil {
		return nil, utils.NewPersistenceError("list transactions", err)
	}
	return results, nil
}

// GetTransactionsWithDetails is GetTransactions with lines loaded, for exports.
func GetTransactionsWithDetails(ctx context.Context, filter *TransactionFilter) ([]*Transaction, error) {
	transactions, err := GetTransactions(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(transactions) == 0 {
		return transactions, nil
	}
	ids := make([]int, 0, len(transactions))
	byId := make(map[int]*Transaction, len(transactions))
	for _, t := range transactions {
		ids = append(ids, t.ID)
		byId[t.ID] = t
	}
	var details []TransactionDetail
	if err := config.GetDB().WithContext(ctx).Where("transaction_id IN ?", ids).Order("id").Find(&details).Error; err != nil {
		return nil, utils.NewPersistenceError("list transaction details", err)
	}
	for _, d := range details {
		byId[d.TransactionId].Details = append(byId[d.TransactionId].Details, d)
	}
	return transactions, nil
}
