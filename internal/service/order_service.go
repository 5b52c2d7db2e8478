package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/feed"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCartEmpty               = errors.New("cart is empty")
	ErrUnauthenticated         = errors.New("user is not authenticated")
	ErrOrderWriteFailed        = errors.New("order write failed")
	ErrOrderNotExist           = errors.New("order is not exist")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)

type IOrderService interface {
	SubmitOrder(ctx context.Context, userID int, cartStore *cart.Store, details model.ShippingDetails, coupon *model.Coupon) (*model.Order, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	CompleteOrder(ctx context.Context, orderID string) (*model.Order, error)
}

type OrderService struct {
	orderRepo db.IOrderRepository
	couponSvc ICouponService
	feed      feed.IOrderFeedProducer
}

func NewOrderService(orderRepo db.IOrderRepository, couponSvc ICouponService, feedProducer feed.IOrderFeedProducer) *OrderService {
	return &OrderService{orderRepo: orderRepo, couponSvc: couponSvc, feed: feedProducer}
}

// SubmitOrder 把結帳完成的購物車轉成持久化訂單
//
// 訂單、品項快照、折價券使用紀錄走同一個事務:
// 不會有沒品項的訂單，同一用戶同一券並發結帳也只會成功一單，
// 輸家拿到 ErrCouponAlreadyUsed 且不會留下半張訂單
//
// 成功後才清購物車；任何寫入失敗購物車原封不動，使用者可以直接重試
func (o *OrderService) SubmitOrder(ctx context.Context, userID int, cartStore *cart.Store, details model.ShippingDetails, coupon *model.Coupon) (*model.Order, error) {
	if userID == 0 {
		return nil, ErrUnauthenticated
	}

	lines := cartStore.Lines()
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	subtotal := cartStore.Subtotal()
	discount := o.couponSvc.ComputeDiscount(subtotal, coupon)
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	orderID := uuid.NewString()
	order := &model.Order{
		OrderID:         orderID,
		UserID:          userID,
		Status:          model.OrderStatusPending,
		FullName:        details.FullName,
		Phone:           details.Phone,
		Email:           details.Email,
		ShippingAddress: details.Address,
		Subtotal:        subtotal,
		Discount:        discount,
		Total:           total,
		OrderDate:       time.Now().UTC(),
		OrderItems:      snapshotOrderItems(orderID, lines),
	}

	var usage *model.CouponUsage
	if coupon != nil {
		order.CouponID = &coupon.CouponID
		usage = &model.CouponUsage{
			UsageID:  uuid.NewString(),
			CouponID: coupon.CouponID,
			UserID:   userID,
			OrderID:  orderID,
		}
	}

	if err := o.orderRepo.CreateOrderWithItems(ctx, order, usage); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponAlreadyUsed
		}
		return nil, fmt.Errorf("%w: %v", ErrOrderWriteFailed, err)
	}

	if coupon != nil {
		o.couponSvc.FinalizeRedemption(ctx, coupon.CouponID)
	}

	o.publishAsync(ctx, order, false)
	cartStore.Clear()

	return order, nil
}

// snapshotOrderItems 品項名稱與單價於此刻定格，商品之後改價不影響這張單
func snapshotOrderItems(orderID string, lines []model.CartLine) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, model.OrderItem{
			OrderID:     orderID,
			ProductKey:  line.ProductKey,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
		})
	}
	return items
}

func (o *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := o.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotExist
		}
		return nil, err
	}
	return order, nil
}

func (o *OrderService) GetOrdersByUserID(ctx context.Context, userID int) ([]model.Order, error) {
	return o.orderRepo.GetOrdersByUserID(ctx, userID)
}

func (o *OrderService) GetAllOrders(ctx context.Context) ([]model.Order, error) {
	return o.orderRepo.GetAllOrders(ctx)
}

// CompleteOrder 後台把訂單標記完成
// 只允許 pending -> completed 單向轉移，completed 是終態
// WHERE 條件帶上當前狀態，兩個管理員同時按下去也只會成功一次
func (o *OrderService) CompleteOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := o.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := o.orderRepo.UpdateOrderStatus(ctx, orderID, model.OrderStatusPending, model.OrderStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, ErrInvalidStatusTransition
	}

	order.Status = model.OrderStatusCompleted
	o.publishAsync(ctx, order, true)

	return order, nil
}

// publishAsync 變更通知用fire-and-forget發佈
// 訂單已經落地，通知失敗只記log不影響結果；訂閱端斷線重連後會全面重抓
func (o *OrderService) publishAsync(ctx context.Context, order *model.Order, isUpdate bool) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		var err error
		if isUpdate {
			err = o.feed.PublishOrderUpdated(ctx, order)
		} else {
			err = o.feed.PublishOrderCreated(ctx, order)
		}
		if err != nil {
			log.Error().Err(err).Msgf("failed to publish order change for order %s", order.OrderID)
		}
	}()
}

var _ IOrderService = (*OrderService)(nil)
