package utils

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* DB fetching */

// fetch model from db
// (may return NotFoundError)
func FetchModel[T any](ctx context.Context, tx *gorm.DB, id int, associations ...string) (*T, error) {
	dbCtx := tx.WithContext(ctx)
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(GetTypeName[T](), id)
		}
		return nil, err
	}
	return &result, nil
}

// fetch model and hold a row lock until tx ends (no-op on SQLite)
func FetchModelForUpdate[T any](ctx context.Context, tx *gorm.DB, id int, associations ...string) (*T, error) {
	return FetchModel[T](ctx, tx.Clauses(clause.Locking{Strength: "UPDATE"}), id, associations...)
}
