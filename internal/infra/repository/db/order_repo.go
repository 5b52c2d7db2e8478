package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

type IOrderRepository interface {
	CreateOrderWithItems(ctx context.Context, order *model.Order, usage *model.CouponUsage) error
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, fromStatus, toStatus string) (bool, error)
}

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

// CreateOrderWithItems 訂單與品項同一個事務寫入，不會出現沒有品項的訂單
// usage 有帶的話一併寫入，(coupon_id, user_id) 唯一索引衝突時整筆回滾，
// 同一用戶同一券並發結帳只會成功一單，輸家拿到 gorm.ErrDuplicatedKey
func (s *OrderRepo) CreateOrderWithItems(ctx context.Context, order *model.Order, usage *model.CouponUsage) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		if usage != nil {
			if err := tx.Create(usage).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Read - 根據ID查詢訂單，帶品項
func (s *OrderRepo) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").First(&order, "order_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Read - 根據用戶ID查詢訂單，新到舊
func (s *OrderRepo) GetOrdersByUserID(ctx context.Context, userID int) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").
		Where("user_id = ?", userID).
		Order("order_date DESC").
		Find(&orders).Error
	return orders, err
}

// Read - 查詢所有訂單，後台用
func (s *OrderRepo) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).Preload("OrderItems").
		Order("order_date DESC").
		Find(&orders).Error
	return orders, err
}

// UpdateOrderStatus 條件式更新，WHERE 帶上當前狀態擋掉非法轉移
// 回傳 false 表示訂單不存在或不在 fromStatus
func (s *OrderRepo) UpdateOrderStatus(ctx context.Context, id string, fromStatus, toStatus string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var _ IOrderRepository = (*OrderRepo)(nil)
