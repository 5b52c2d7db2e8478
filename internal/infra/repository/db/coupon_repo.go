package db

import (
	"context"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

type ICouponRepository interface {
	CreateCoupon(ctx context.Context, coupon *model.Coupon) error
	GetCouponByID(ctx context.Context, id string) (*model.Coupon, error)
	GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetAllCoupons(ctx context.Context) ([]model.Coupon, error)
	UpdateCoupon(ctx context.Context, coupon *model.Coupon) error
	SetCouponActive(ctx context.Context, id string, active bool) error
	DeleteCoupon(ctx context.Context, id string) error
	GetCouponUsage(ctx context.Context, couponID string, userID int) (*model.CouponUsage, error)
	CreateCouponUsage(ctx context.Context, usage *model.CouponUsage) error
	IncrementUsageCount(ctx context.Context, couponID string) error
}

type CouponRepo struct {
	db *DbDao
}

func NewCouponRepo(db *DbDao) *CouponRepo {
	return &CouponRepo{db: db}
}

// Create - 建立折價券，code 重複回傳 gorm.ErrDuplicatedKey
func (s *CouponRepo) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	return s.db.WithContext(ctx).Create(coupon).Error
}

// Read - 根據ID查詢折價券
func (s *CouponRepo) GetCouponByID(ctx context.Context, id string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := s.db.WithContext(ctx).First(&coupon, "coupon_id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Read - 根據代碼查詢折價券，code 由caller先轉大寫
// 啟用與否交給service判斷，才能區分「查無此券」跟「已停用」
func (s *CouponRepo) GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	var coupon model.Coupon
	err := s.db.WithContext(ctx).First(&coupon, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Read - 查詢所有折價券，後台列表用，新到舊
func (s *CouponRepo) GetAllCoupons(ctx context.Context) ([]model.Coupon, error) {
	var coupons []model.Coupon
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&coupons).Error
	return coupons, err
}

// Update - 更新折價券
func (s *CouponRepo) UpdateCoupon(ctx context.Context, coupon *model.Coupon) error {
	return s.db.WithContext(ctx).Save(coupon).Error
}

// Update - 啟用/停用，促銷下架走停用保留稽核軌跡
func (s *CouponRepo) SetCouponActive(ctx context.Context, id string, active bool) error {
	return s.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("coupon_id = ?", id).
		Update("is_active", active).Error
}

// Delete - 軟刪除折價券
func (s *CouponRepo) DeleteCoupon(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("coupon_id = ?", id).Delete(&model.Coupon{}).Error
}

// Read - 查詢使用紀錄，沒有紀錄回傳 (nil, nil)
func (s *CouponRepo) GetCouponUsage(ctx context.Context, couponID string, userID int) (*model.CouponUsage, error) {
	var usage model.CouponUsage
	err := s.db.WithContext(ctx).First(&usage, "coupon_id = ? AND user_id = ?", couponID, userID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

// Create - 寫入使用紀錄，同一用戶重複兌換回傳 gorm.ErrDuplicatedKey
func (s *CouponRepo) CreateCouponUsage(ctx context.Context, usage *model.CouponUsage) error {
	return s.db.WithContext(ctx).Create(usage).Error
}

// IncrementUsageCount 伺服器端原子遞增
// 不做讀回寫出，併發兌換不會掉更新
func (s *CouponRepo) IncrementUsageCount(ctx context.Context, couponID string) error {
	return s.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("coupon_id = ?", couponID).
		Update("usage_count", gorm.Expr("usage_count + ?", 1)).Error
}

var _ ICouponRepository = (*CouponRepo)(nil)
