package api

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AppliedCouponResponse struct {
	Code     string          `json:"code"`
	Discount decimal.Decimal `json:"discount"`
}

type CheckoutResponse struct {
	Step    checkout.Step          `json:"step"`
	Totals  checkout.Totals        `json:"totals"`
	Coupon  *AppliedCouponResponse `json:"coupon,omitempty"`
	OrderID string                 `json:"order_id,omitempty"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

type SubmitCheckoutRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

func checkoutResponse(session *checkout.Session) CheckoutResponse {
	resp := CheckoutResponse{
		Step:    session.CurrentStep(),
		Totals:  session.Preview(),
		OrderID: session.OrderID(),
	}
	if code, discount, ok := session.AppliedCoupon(); ok {
		resp.Coupon = &AppliedCouponResponse{Code: code, Discount: discount}
	}
	return resp
}

// GetCheckout handles GET /checkout
func (s *Server) GetCheckout(c *gin.Context) {
	session := s.checkouts.GetOrCreate(sessionID(c))
	c.JSON(http.StatusOK, checkoutResponse(session))
}

// AdvanceCheckout handles POST /checkout/advance (cart -> details)
func (s *Server) AdvanceCheckout(c *gin.Context) {
	session := s.checkouts.GetOrCreate(sessionID(c))
	if err := session.Advance(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutResponse(session))
}

// RetreatCheckout handles POST /checkout/back (details -> cart)，不丟資料
func (s *Server) RetreatCheckout(c *gin.Context) {
	session := s.checkouts.GetOrCreate(sessionID(c))
	if err := session.Retreat(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutResponse(session))
}

// ApplyCoupon handles POST /checkout/coupon
// 驗證失敗不影響購物車與結帳步驟，只回拒絕訊息
func (s *Server) ApplyCoupon(c *gin.Context) {
	var req ApplyCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: err.Error()})
		return
	}

	session := s.checkouts.GetOrCreate(sessionID(c))
	if _, _, err := session.ApplyCoupon(c.Request.Context(), req.Code, userID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkoutResponse(session))
}

// RemoveCoupon handles DELETE /checkout/coupon
func (s *Server) RemoveCoupon(c *gin.Context) {
	session := s.checkouts.GetOrCreate(sessionID(c))
	session.RemoveCoupon()
	c.JSON(http.StatusOK, checkoutResponse(session))
}

// SubmitCheckout handles POST /checkout/submit
// 失敗停在details步驟，購物車保留可直接重試
func (s *Server) SubmitCheckout(c *gin.Context) {
	var req SubmitCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: err.Error()})
		return
	}

	session := s.checkouts.GetOrCreate(sessionID(c))
	order, err := session.Submit(c.Request.Context(), userID(c), model.ShippingDetails{
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}
