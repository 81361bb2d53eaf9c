package models

import (
	"context"
	"time"

	"github.com/mmdatafocus/backoffice_backend/utils"
	"gorm.io/gorm"
)

const idempotencyHandlerCreateTransaction = "CreateTransaction"

// IdempotencyKey remembers which transaction a client-supplied key produced.
// The row is written in the same unit as the posting, so a key exists only
// for committed work.
// Unique constraint: (handler_name, request_key).
type IdempotencyKey struct {
	ID            int       `gorm:"primary_key" json:"id"`
	HandlerName   string    `gorm:"size:100;not null;index:uniq_idem,unique" json:"handler_name"`
	RequestKey    string    `gorm:"size:255;not null;index:uniq_idem,unique" json:"request_key"`
	TransactionId int       `gorm:"index;not null" json:"transaction_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// findIdempotentTransaction returns the transaction an earlier create with
// the same key committed, or nil.
func findIdempotentTransaction(ctx context.Context, tx *gorm.DB, requestKey string) (*Transaction, error) {
	var keys []IdempotencyKey
	if err := tx.WithContext(ctx).
		Where("handler_name = ? AND request_key = ?", idempotencyHandlerCreateTransaction, requestKey).
		Limit(1).Find(&keys).Error; err != nil {
		return nil, utils.NewPersistenceError("read idempotency key", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	return utils.FetchModel[Transaction](ctx, tx, keys[0].TransactionId, "Details")
}

func recordIdempotencyKey(tx *gorm.DB, requestKey string, transactionId int) error {
	key := IdempotencyKey{
		HandlerName:   idempotencyHandlerCreateTransaction,
		RequestKey:    requestKey,
		TransactionId: transactionId,
	}
	if err := tx.Create(&key).Error; err != nil {
		if utils.IsDuplicateKeyError(err) {
			return &utils.ConflictError{
				Resource: "Transaction",
				Message:  "a request with this idempotency key is already being processed",
			}
		}
		return utils.NewPersistenceError("insert idempotency key", err)
	}
	return nil
}

func deleteIdempotencyKeys(tx *gorm.DB, transactionId int) error {
	if err := tx.Where("transaction_id = ?", transactionId).Delete(&IdempotencyKey{}).Error; err != nil {
		return utils.NewPersistenceError("delete idempotency keys", err)
	}
	return nil
}
