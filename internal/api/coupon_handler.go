package api

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CouponRequest struct {
	Code          string          `json:"code" binding:"required"`
	DiscountType  string          `json:"discount_type" binding:"required"`
	DiscountValue decimal.Decimal `json:"discount_value" binding:"required"`
	IsActive      *bool           `json:"is_active"`
}

func (r CouponRequest) toModel(couponID string) *model.Coupon {
	coupon := &model.Coupon{
		CouponID:      couponID,
		Code:          r.Code,
		DiscountType:  r.DiscountType,
		DiscountValue: r.DiscountValue,
		IsActive:      true,
	}
	if r.IsActive != nil {
		coupon.IsActive = *r.IsActive
	}
	return coupon
}

// GetAllCoupons handles GET /admin/coupons，新到舊
func (s *Server) GetAllCoupons(c *gin.Context) {
	coupons, err := s.couponSvc.GetAllCoupons(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupons)
}

// CreateCoupon handles POST /admin/coupons
func (s *Server) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: err.Error()})
		return
	}

	coupon := req.toModel("")
	if err := s.couponSvc.CreateCoupon(c.Request.Context(), coupon); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, coupon)
}

// UpdateCoupon handles PUT /admin/coupons/:couponId
func (s *Server) UpdateCoupon(c *gin.Context) {
	var req CouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: err.Error()})
		return
	}

	coupon, err := s.couponSvc.UpdateCoupon(c.Request.Context(), req.toModel(c.Param("couponId")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, coupon)
}

// DeactivateCoupon handles POST /admin/coupons/:couponId/deactivate
// 下架促銷的建議作法，保留使用紀錄的稽核軌跡
func (s *Server) DeactivateCoupon(c *gin.Context) {
	if err := s.couponSvc.DeactivateCoupon(c.Request.Context(), c.Param("couponId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteCoupon handles DELETE /admin/coupons/:couponId
func (s *Server) DeleteCoupon(c *gin.Context) {
	if err := s.couponSvc.DeleteCoupon(c.Request.Context(), c.Param("couponId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
