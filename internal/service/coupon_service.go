package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/db"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrCouponNotFound    = errors.New("coupon not found")
	ErrCouponInactive    = errors.New("coupon is inactive")
	ErrCouponAlreadyUsed = errors.New("coupon already used by this user")
	ErrCouponCodeExists  = errors.New("coupon code already exists")
	ErrInvalidCoupon     = errors.New("invalid coupon definition")
)

type ICouponService interface {
	Validate(ctx context.Context, code string, userID int) (*model.Coupon, error)
	ComputeDiscount(subtotal decimal.Decimal, coupon *model.Coupon) decimal.Decimal
	FinalizeRedemption(ctx context.Context, couponID string)
	CreateCoupon(ctx context.Context, coupon *model.Coupon) error
	GetCoupon(ctx context.Context, couponID string) (*model.Coupon, error)
	GetAllCoupons(ctx context.Context) ([]model.Coupon, error)
	UpdateCoupon(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error)
	DeactivateCoupon(ctx context.Context, couponID string) error
	DeleteCoupon(ctx context.Context, couponID string) error
}

type CouponService struct {
	couponRepo db.ICouponRepository
}

func NewCouponService(couponRepo db.ICouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Validate 以代碼找券並確認該用戶可用
// userID為0代表未登入訪客，略過單人單次檢查(沒有身份無從檢查)
// 這是既定的訪客體驗，實際兌換在成單時仍會被唯一索引擋下
func (c *CouponService) Validate(ctx context.Context, code string, userID int) (*model.Coupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrCouponNotFound
	}

	coupon, err := c.couponRepo.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon by code failed: %w", err)
	}

	if !coupon.IsActive {
		return nil, ErrCouponInactive
	}

	if userID != 0 {
		usage, err := c.couponRepo.GetCouponUsage(ctx, coupon.CouponID, userID)
		if err != nil {
			return nil, fmt.Errorf("get coupon usage failed: %w", err)
		}
		if usage != nil {
			return nil, ErrCouponAlreadyUsed
		}
	}

	return coupon, nil
}

// ComputeDiscount 由小計與券算出折扣金額
// percentage: 小計*value/100 四捨五入到分
// fixed: min(value, 小計)，折扣永遠不超過小計，total不會是負的
func (c *CouponService) ComputeDiscount(subtotal decimal.Decimal, coupon *model.Coupon) decimal.Decimal {
	if coupon == nil {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch coupon.DiscountType {
	case model.DiscountTypePercentage:
		discount = subtotal.Mul(coupon.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
	case model.DiscountTypeFixed:
		discount = coupon.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount
}

// FinalizeRedemption 訂單落地後遞增使用次數
// 使用紀錄已隨訂單事務寫入，這裡只補計數器
// 失敗不往上拋，訂單已成立不能被計數器擋下；紀錄與計數器的落差
// 可由對帳工作用使用紀錄筆數修復
func (c *CouponService) FinalizeRedemption(ctx context.Context, couponID string) {
	if err := c.couponRepo.IncrementUsageCount(ctx, couponID); err != nil {
		log.Error().Err(err).Msgf("failed to increment usage count for coupon %s, counter drifted from usage rows", couponID)
	}
}

// CreateCoupon 後台建券，代碼一律轉大寫儲存
func (c *CouponService) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if err := validateCouponFields(coupon); err != nil {
		return err
	}
	if coupon.CouponID == "" {
		coupon.CouponID = uuid.NewString()
	}

	err := c.couponRepo.CreateCoupon(ctx, coupon)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCouponCodeExists
		}
		return fmt.Errorf("create coupon failed: %w", err)
	}
	return nil
}

func (c *CouponService) GetCoupon(ctx context.Context, couponID string) (*model.Coupon, error) {
	coupon, err := c.couponRepo.GetCouponByID(ctx, couponID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return coupon, nil
}

func (c *CouponService) GetAllCoupons(ctx context.Context) ([]model.Coupon, error) {
	return c.couponRepo.GetAllCoupons(ctx)
}

func (c *CouponService) UpdateCoupon(ctx context.Context, coupon *model.Coupon) (*model.Coupon, error) {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))
	if err := validateCouponFields(coupon); err != nil {
		return nil, err
	}

	err := c.couponRepo.UpdateCoupon(ctx, coupon)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCouponCodeExists
		}
		return nil, err
	}

	return c.GetCoupon(ctx, coupon.CouponID)
}

// DeactivateCoupon 下架促銷走停用不走刪除，保留稽核軌跡
func (c *CouponService) DeactivateCoupon(ctx context.Context, couponID string) error {
	return c.couponRepo.SetCouponActive(ctx, couponID, false)
}

func (c *CouponService) DeleteCoupon(ctx context.Context, couponID string) error {
	return c.couponRepo.DeleteCoupon(ctx, couponID)
}

func validateCouponFields(coupon *model.Coupon) error {
	if coupon.Code == "" {
		return ErrInvalidCoupon
	}
	if coupon.DiscountType != model.DiscountTypePercentage && coupon.DiscountType != model.DiscountTypeFixed {
		return ErrInvalidCoupon
	}
	if !coupon.DiscountValue.IsPositive() {
		return ErrInvalidCoupon
	}
	return nil
}

var _ ICouponService = (*CouponService)(nil)
