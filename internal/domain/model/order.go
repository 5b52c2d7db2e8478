package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStatusPending   = "pending"   // 待處理
	OrderStatusCompleted = "completed" // 已完成，終態
)

// Order 訂單，total = max(0, subtotal - discount)
type Order struct {
	OrderID         string          `gorm:"primaryKey;type:varchar(255)" json:"order_id"`
	UserID          int             `gorm:"not null;index" json:"user_id"`
	Status          string          `gorm:"not null;type:varchar(20);default:'pending'" json:"status"`
	FullName        string          `gorm:"not null;type:varchar(100)" json:"full_name"`
	Phone           string          `gorm:"not null;type:varchar(50)" json:"phone"`
	Email           string          `gorm:"not null;type:varchar(100)" json:"email"`
	ShippingAddress string          `gorm:"not null;type:varchar(255)" json:"shipping_address"`
	Subtotal        decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"subtotal"`
	Discount        decimal.Decimal `gorm:"not null;type:decimal(10,2);default:0" json:"discount"`
	Total           decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"total"`
	CouponID        *string         `gorm:"type:varchar(255)" json:"coupon_id,omitempty"`
	OrderDate       time.Time       `gorm:"not null" json:"order_date"`
	OrderItems      []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items"`
	BaseModel
}

// OrderItem 訂單品項快照
// 名稱與單價於成立訂單當下複製，之後商品資料異動不影響歷史訂單
type OrderItem struct {
	OrderID     string          `gorm:"primaryKey;type:varchar(255)" json:"order_id"`
	ProductKey  string          `gorm:"primaryKey;type:varchar(255)" json:"product_key"`
	ProductID   string          `gorm:"not null;type:varchar(255)" json:"product_id"`
	ProductName string          `gorm:"not null;type:varchar(255)" json:"product_name"`
	UnitPrice   decimal.Decimal `gorm:"not null;type:decimal(10,2)" json:"unit_price"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	BaseModel
}

// ShippingDetails 結帳表單
type ShippingDetails struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}
