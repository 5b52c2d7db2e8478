package model

import (
	"github.com/shopspring/decimal"
)

const (
	DiscountTypePercentage = "percentage" // 按小計百分比折扣
	DiscountTypeFixed      = "fixed"      // 固定金額折扣，超過小計會被夾到小計
)

// Coupon 折價券
// Code 一律以大寫儲存，查詢前先正規化
type Coupon struct {
	CouponID      string          `gorm:"primaryKey;type:varchar(255)" json:"coupon_id"`
	Code          string          `gorm:"uniqueIndex;not null;type:varchar(50)" json:"code"`
	DiscountType  string          `gorm:"not null;type:varchar(20)" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"discount_value"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	UsageCount    int             `gorm:"not null;default:0" json:"usage_count"`
	BaseModel
}

// CouponUsage 折價券使用紀錄
// (coupon_id, user_id) 唯一索引由db層擋下同一用戶重複兌換
type CouponUsage struct {
	UsageID  string `gorm:"primaryKey;type:varchar(255)" json:"usage_id"`
	CouponID string `gorm:"not null;type:varchar(255);uniqueIndex:idx_coupon_user" json:"coupon_id"`
	UserID   int    `gorm:"not null;uniqueIndex:idx_coupon_user" json:"user_id"`
	OrderID  string `gorm:"not null;type:varchar(255)" json:"order_id"`
	BaseModel
}
