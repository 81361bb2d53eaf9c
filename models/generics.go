package models

import (
	"context"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
)

// first find in redis, then in db, cache result
// (may return NotFoundError)
func GetResource[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	logger := config.GetLogger()

	// find in redis; a broken cache only costs a db read
	result, err := utils.RetrieveRedis[T](id)
	if err != nil {
		config.LogError(logger, "Generics", "GetResource", "retrieve cache", id, err)
		result = nil
	}
	if result != nil {
		return result, nil
	}

	result, err = utils.FetchModel[T](ctx, config.GetDB(), id, associations...)
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedis[T](result, id); err != nil {
		config.LogError(logger, "Generics", "GetResource", "store cache", id, err)
	}
	return result, nil
}
