package models

import (
	"context"
	"fmt"
	"sort"

	"github.com/mmdatafocus/backoffice_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockItem is one requested movement of a product's stock.
type StockItem struct {
	ProductId int
	Quantity  int
}

// StockLedger is the only writer of products.stock during postings. Every
// method runs on the caller's transaction and changes stock by a delta,
// never by assigning an absolute value.
type StockLedger struct {
	tx *gorm.DB
}

func NewStockLedger(tx *gorm.DB) *StockLedger {
	return &StockLedger{tx: tx}
}

// Reserve checks a whole batch without changing anything and stops at the
// first failing item. Per item, in order: the product exists, the quantity
// is positive, and the quantity requested so far for that product fits in
// its stock. Product rows stay locked until the transaction ends.
func (l *StockLedger) Reserve(ctx context.Context, items []StockItem) (map[int]*Product, error) {
	products, err := l.lockProducts(ctx, items)
	if err != nil {
		return nil, err
	}

	reserved := make(map[int]int, len(products))
	for _, item := range items {
		product, ok := products[item.ProductId]
		if !ok {
			return nil, utils.NewNotFoundError("Product", item.ProductId)
		}
		if item.Quantity <= 0 {
			return nil, utils.NewValidationError("quantity", fmt.Sprintf("invalid quantity %d for product: %s", item.Quantity, product.Name))
		}
		requested := reserved[item.ProductId] + item.Quantity
		if requested > product.Stock {
			return nil, &utils.InsufficientStockError{
				ProductId:   product.ID,
				ProductName: product.Name,
				Available:   product.Stock,
				Requested:   requested,
			}
		}
		reserved[item.ProductId] = requested
	}
	return products, nil
}

// lockProducts reads every product in items, locking rows in id order so
// concurrent postings over the same products cannot deadlock.
func (l *StockLedger) lockProducts(ctx context.Context, items []StockItem) (map[int]*Product, error) {
	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductId)
	}
	ids = utils.UniqueSlice(ids)
	sort.Ints(ids)

	products := make(map[int]*Product, len(ids))
	if len(ids) == 0 {
		return products, nil
	}

	var rows []*Product
	if err := l.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&rows).Error; err != nil {
		return nil, utils.NewPersistenceError("lock products", err)
	}
	for _, p := range rows {
		products[p.ID] = p
	}
	return products, nil
}

// Apply decrements stock for a batch that passed Reserve. The decrement is
// guarded by stock >= qty, so a concurrent writer that got there first
// surfaces as InsufficientStockError instead of negative stock.
func (l *StockLedger) Apply(ctx context.Context, items []StockItem) error {
	for _, item := range aggregateStockItems(items) {
		if item.Quantity <= 0 {
			return utils.NewValidationError("quantity", fmt.Sprintf("invalid quantity %d for product id %d", item.Quantity, item.ProductId))
		}
		res := l.tx.WithContext(ctx).Model(&Product{}).
			Where("id = ? AND stock >= ?", item.ProductId, item.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
		if res.Error != nil {
			return utils.NewPersistenceError("decrement stock", res.Error)
		}
		if res.RowsAffected == 0 {
			return l.shortageError(ctx, item)
		}
	}
	return nil
}

// Restore puts quantities back, e.g. the old lines of an edited transaction.
func (l *StockLedger) Restore(ctx context.Context, items []StockItem) error {
	for _, item := range aggregateStockItems(items) {
		if item.Quantity <= 0 {
			continue
		}
		res := l.tx.WithContext(ctx).Model(&Product{}).
			Where("id = ?", item.ProductId).
			UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity))
		if res.Error != nil {
			return utils.NewPersistenceError("increment stock", res.Error)
		}
		if res.RowsAffected == 0 {
			return utils.NewNotFoundError("Product", item.ProductId)
		}
	}
	return nil
}

// Replace swaps one committed batch for another: the old quantities go back
// first, then the new batch is reserved against the restored stock and
// applied. On error the caller rolls back and stock is as before.
func (l *StockLedger) Replace(ctx context.Context, oldItems []StockItem, newItems []StockItem) (map[int]*Product, error) {
	if err := l.Restore(ctx, oldItems); err != nil {
		return nil, err
	}
	products, err := l.Reserve(ctx, newItems)
	if err != nil {
		return nil, err
	}
	if err := l.Apply(ctx, newItems); err != nil {
		return nil, err
	}
	return products, nil
}

func (l *StockLedger) shortageError(ctx context.Context, item StockItem) error {
	var product Product
	if err := l.tx.WithContext(ctx).First(&product, item.ProductId).Error; err != nil {
		if isRecordNotFound(err) {
			return utils.NewNotFoundError("Product", item.ProductId)
		}
		return utils.NewPersistenceError("read product stock", err)
	}
	return &utils.InsufficientStockError{
		ProductId:   product.ID,
		ProductName: product.Name,
		Available:   product.Stock,
		Requested:   item.Quantity,
	}
}

// aggregateStockItems sums quantities per product, ordered by product id.
func aggregateStockItems(items []StockItem) []StockItem {
	totals := make(map[int]int, len(items))
	for _, item := range items {
		totals[item.ProductId] += item.Quantity
	}
	out := make([]StockItem, 0, len(totals))
	for id, qty := range totals {
		out = append(out, StockItem{ProductId: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductId < out[j].ProductId })
	return out
}
