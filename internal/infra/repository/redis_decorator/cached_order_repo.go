package redis_decorator

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog/log"
)

/*
redis 只做訂單列表查詢的cache-aside，寫入一律直達db
快取作廢由order sync收到變更通知後觸發，這裡不主動更新快取內容
*/
type CacheAsideOrderRepo struct {
	db.IOrderRepository
	cache redis_repo.IOrderCacheRepository
}

func NewCacheAsideOrderRepo(dbRepo db.IOrderRepository, cache redis_repo.IOrderCacheRepository) db.IOrderRepository {
	return &CacheAsideOrderRepo{IOrderRepository: dbRepo, cache: cache}
}

func (r *CacheAsideOrderRepo) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	orders, hit, err := r.cache.GetAllOrders(ctx)
	if err != nil {
		// 快取壞了不擋查詢，直接回源
		log.Error().Err(err).Msg("order cache read failed, falling back to db")
	}
	if hit {
		return orders, nil
	}

	orders, err = r.IOrderRepository.GetAllOrders(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetAllOrders(ctx, orders); err != nil {
		log.Error().Err(err).Msg("failed to populate all-orders cache")
	}
	return orders, nil
}

func (r *CacheAsideOrderRepo) GetOrdersByUserID(ctx context.Context, userID int) ([]model.Order, error) {
	orders, hit, err := r.cache.GetUserOrders(ctx, userID)
	if err != nil {
		log.Error().Err(err).Msgf("order cache read failed for user %d, falling back to db", userID)
	}
	if hit {
		return orders, nil
	}

	orders, err = r.IOrderRepository.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetUserOrders(ctx, userID, orders); err != nil {
		log.Error().Err(err).Msgf("failed to populate user-orders cache for user %d", userID)
	}
	return orders, nil
}

var _ db.IOrderRepository = (*CacheAsideOrderRepo)(nil)
