package models

import (
	"context"

	"github.com/mmdatafocus/backoffice_backend/config"
	"github.com/mmdatafocus/backoffice_backend/utils"
)

// DashboardCacheKey holds the cached dashboard summary. Anything that changes
// products, customers or transactions clears it.
const DashboardCacheKey = "Report:Dashboard"

type RedisCleaner interface {
	RemoveInstanceRedis() error
}

func (obj Product) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Product](obj.ID)
}

func (obj Customer) RemoveInstanceRedis() error {
	return utils.RemoveRedisItem[Customer](obj.ID)
}

func clearReportCache(ctx context.Context) {
	if err := config.RemoveRedisKey(DashboardCacheKey); err != nil {
		config.GetLogger().WithFields(utils.LogFieldsFromContext(ctx)).WithError(err).Warn("failed to clear dashboard cache")
	}
}

// clearPostingCaches drops everything a committed posting may have made stale.
func clearPostingCaches(ctx context.Context, productIds []int) {
	logger := config.GetLogger()
	for _, id := range utils.UniqueSlice(productIds) {
		if err := (Product{ID: id}).RemoveInstanceRedis(); err != nil {
			config.LogError(logger, "Posting", "clearPostingCaches", "remove product cache", id, err)
		}
	}
	clearReportCache(ctx)
}
