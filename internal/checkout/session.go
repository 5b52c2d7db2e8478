package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/cart"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/shopspring/decimal"
)

type Step string

const (
	StepCart         Step = "cart"
	StepDetails      Step = "details"
	StepConfirmation Step = "confirmation" // 本次購物階段的終態
)

var (
	ErrInvalidStep       = errors.New("action is not allowed at current checkout step")
	ErrCheckoutCompleted = errors.New("checkout already completed")
)

// ValidationError 表單欄位缺漏，可由使用者補正後重試
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// CouponEngine 結帳流程需要的折價券能力
type CouponEngine interface {
	Validate(ctx context.Context, code string, userID int) (*model.Coupon, error)
	ComputeDiscount(subtotal decimal.Decimal, coupon *model.Coupon) decimal.Decimal
}

// OrderComposer 結帳流程需要的成單能力
type OrderComposer interface {
	SubmitOrder(ctx context.Context, userID int, cartStore *cart.Store, details model.ShippingDetails, coupon *model.Coupon) (*model.Order, error)
}

// Totals 結帳金額預覽
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Session 單一購物階段的結帳狀態機
// cart -> details -> confirmation 線性推進，不能跳步
// 自身只持有目前步驟與已套用的券，購物車與訂單都委派出去
type Session struct {
	mu       sync.Mutex
	step     Step
	cart     *cart.Store
	coupon   *model.Coupon
	orderID  string
	engine   CouponEngine
	composer OrderComposer
}

func NewSession(cartStore *cart.Store, engine CouponEngine, composer OrderComposer) *Session {
	return &Session{
		step:     StepCart,
		cart:     cartStore,
		engine:   engine,
		composer: composer,
	}
}

func (s *Session) CurrentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) Cart() *cart.Store {
	return s.cart
}

// Advance cart -> details，空購物車擋下不變更狀態
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepCart:
		if s.cart.Len() == 0 {
			return service.ErrCartEmpty
		}
		s.step = StepDetails
		return nil
	case StepConfirmation:
		return ErrCheckoutCompleted
	default:
		return ErrInvalidStep
	}
}

// Retreat details -> cart，永遠允許且不丟任何資料
// 購物車內容與已套用的券都跨步驟保留
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepDetails:
		s.step = StepCart
		return nil
	case StepCart:
		return nil
	default:
		return ErrCheckoutCompleted
	}
}

// ApplyCoupon 驗證代碼並記住套用的券
// 同一個代碼重複套用是冪等的，不會疊加折扣
func (s *Session) ApplyCoupon(ctx context.Context, code string, userID int) (*model.Coupon, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step == StepConfirmation {
		return nil, decimal.Zero, ErrCheckoutCompleted
	}

	normalized := strings.ToUpper(strings.TrimSpace(code))
	if s.coupon != nil && s.coupon.Code == normalized {
		return s.coupon, s.engine.ComputeDiscount(s.cart.Subtotal(), s.coupon), nil
	}

	coupon, err := s.engine.Validate(ctx, code, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	s.coupon = coupon
	return coupon, s.engine.ComputeDiscount(s.cart.Subtotal(), coupon), nil
}

// RemoveCoupon 移除尚未兌換的券，沒有任何持久化要收拾
func (s *Session) RemoveCoupon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupon = nil
}

// AppliedCoupon 目前套用的 {code, discount}，沒有則ok為false
func (s *Session) AppliedCoupon() (code string, discount decimal.Decimal, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.coupon == nil {
		return "", decimal.Zero, false
	}
	return s.coupon.Code, s.engine.ComputeDiscount(s.cart.Subtotal(), s.coupon), true
}

// Preview 以當下購物車內容算出金額預覽
func (s *Session) Preview() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()

	subtotal := s.cart.Subtotal()
	discount := s.engine.ComputeDiscount(subtotal, s.coupon)
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	return Totals{Subtotal: subtotal, Discount: discount, Total: total}
}

// Submit details -> confirmation
// 欄位缺漏或成單失敗都停在details，購物車與券保留讓使用者直接重試
// mutex橫跨整個提交，連點兩下的第二個請求會排隊，
// 等到鎖時步驟已是confirmation，拿到ErrCheckoutCompleted而不是第二張訂單
func (s *Session) Submit(ctx context.Context, userID int, details model.ShippingDetails) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepConfirmation:
		return nil, ErrCheckoutCompleted
	case StepDetails:
	default:
		return nil, ErrInvalidStep
	}

	if missing := missingFields(details); len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	order, err := s.composer.SubmitOrder(ctx, userID, s.cart, details, s.coupon)
	if err != nil {
		return nil, err
	}

	s.step = StepConfirmation
	s.orderID = order.OrderID
	return order, nil
}

// OrderID 成單後的訂單編號，confirmation畫面的view-order連結用
func (s *Session) OrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderID
}

func missingFields(details model.ShippingDetails) []string {
	var missing []string
	if strings.TrimSpace(details.FullName) == "" {
		missing = append(missing, "full_name")
	}
	if strings.TrimSpace(details.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(details.Phone) == "" {
		missing = append(missing, "phone")
	}
	if strings.TrimSpace(details.Address) == "" {
		missing = append(missing, "address")
	}
	return missing
}
