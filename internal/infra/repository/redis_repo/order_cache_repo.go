package redis_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

const orderCacheTTL = 5 * time.Minute

type IOrderCacheRepository interface {
	GetAllOrders(ctx context.Context) ([]model.Order, bool, error)
	SetAllOrders(ctx context.Context, orders []model.Order) error
	GetUserOrders(ctx context.Context, userID int) ([]model.Order, bool, error)
	SetUserOrders(ctx context.Context, userID int, orders []model.Order) error
	InvalidateAll(ctx context.Context) error
	InvalidateUser(ctx context.Context, userID int) error
	InvalidateEverything(ctx context.Context) error
}

// OrderCacheRepo 訂單查詢快取
// 不存增量，收到變更通知就作廢整個key，下次讀取回源重建
type OrderCacheRepo struct {
	OrderCache *redis.Client
}

func NewOrderCacheRepo(orderCache *redis.Client) *OrderCacheRepo {
	return &OrderCacheRepo{OrderCache: orderCache}
}

func generateAllOrdersKey() string {
	return "orders:all"
}

func generateUserOrdersKey(userID int) string {
	return fmt.Sprintf("orders:user:%d", userID)
}

func (r *OrderCacheRepo) getOrders(ctx context.Context, key string) ([]model.Order, bool, error) {
	val, err := r.OrderCache.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached orders: %w", err)
	}

	var orders []model.Order
	if err := json.Unmarshal(val, &orders); err != nil {
		// 壞掉的快取直接作廢，當作miss
		r.OrderCache.Del(ctx, key)
		return nil, false, nil
	}
	return orders, true, nil
}

func (r *OrderCacheRepo) setOrders(ctx context.Context, key string, orders []model.Order) error {
	val, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}
	if err := r.OrderCache.Set(ctx, key, val, orderCacheTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache orders: %w", err)
	}
	return nil
}

func (r *OrderCacheRepo) GetAllOrders(ctx context.Context) ([]model.Order, bool, error) {
	return r.getOrders(ctx, generateAllOrdersKey())
}

func (r *OrderCacheRepo) SetAllOrders(ctx context.Context, orders []model.Order) error {
	return r.setOrders(ctx, generateAllOrdersKey(), orders)
}

func (r *OrderCacheRepo) GetUserOrders(ctx context.Context, userID int) ([]model.Order, bool, error) {
	return r.getOrders(ctx, generateUserOrdersKey(userID))
}

func (r *OrderCacheRepo) SetUserOrders(ctx context.Context, userID int, orders []model.Order) error {
	return r.setOrders(ctx, generateUserOrdersKey(userID), orders)
}

func (r *OrderCacheRepo) InvalidateAll(ctx context.Context) error {
	if err := r.OrderCache.Del(ctx, generateAllOrdersKey()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate all-orders cache: %w", err)
	}
	return nil
}

func (r *OrderCacheRepo) InvalidateUser(ctx context.Context, userID int) error {
	if err := r.OrderCache.Del(ctx, generateUserOrdersKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate user-orders cache: %w", err)
	}
	return nil
}

// InvalidateEverything 斷線重連後全面作廢，避免斷線期間漏掉的變更殘留
func (r *OrderCacheRepo) InvalidateEverything(ctx context.Context) error {
	iter := r.OrderCache.Scan(ctx, 0, "orders:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.OrderCache.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to invalidate cache key %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan order cache keys: %w", err)
	}
	return nil
}

var _ IOrderCacheRepository = (*OrderCacheRepo)(nil)
