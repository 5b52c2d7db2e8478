package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/storefront/internal/checkout"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/gin-gonic/gin"
)

// Server 對外HTTP介面
// 身份與session由外部協作者(認證層/前端)以header帶入:
// X-Session-ID 識別購物階段，X-User-ID 識別登入用戶，沒帶視為訪客
type Server struct {
	checkouts *checkout.Manager
	couponSvc service.ICouponService
	orderSvc  service.IOrderService
}

func NewServer(checkouts *checkout.Manager, couponSvc service.ICouponService, orderSvc service.IOrderService) *Server {
	return &Server{
		checkouts: checkouts,
		couponSvc: couponSvc,
		orderSvc:  orderSvc,
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	shop := router.Group("/", requireSession())
	{
		shop.GET("/cart", s.GetCart)
		shop.POST("/cart/items", s.AddCartItem)
		shop.PUT("/cart/items/:productKey", s.SetCartItemQuantity)
		shop.DELETE("/cart/items/:productKey", s.RemoveCartItem)
		shop.DELETE("/cart", s.ClearCart)

		shop.GET("/checkout", s.GetCheckout)
		shop.POST("/checkout/advance", s.AdvanceCheckout)
		shop.POST("/checkout/back", s.RetreatCheckout)
		shop.POST("/checkout/coupon", s.ApplyCoupon)
		shop.DELETE("/checkout/coupon", s.RemoveCoupon)
		shop.POST("/checkout/submit", s.SubmitCheckout)
	}

	router.GET("/orders", s.GetMyOrders)
	router.GET("/orders/:orderId", s.GetMyOrder)

	admin := router.Group("/admin")
	{
		admin.GET("/orders", s.GetAllOrders)
		admin.PATCH("/orders/:orderId/status", s.UpdateOrderStatus)

		admin.GET("/coupons", s.GetAllCoupons)
		admin.POST("/coupons", s.CreateCoupon)
		admin.PUT("/coupons/:couponId", s.UpdateCoupon)
		admin.POST("/coupons/:couponId/deactivate", s.DeactivateCoupon)
		admin.DELETE("/coupons/:couponId", s.DeleteCoupon)
	}

	return router
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

const (
	headerSessionID = "X-Session-ID"
	headerUserID    = "X-User-ID"

	ctxKeySessionID = "sessionID"
)

func requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader(headerSessionID)
		if sessionID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
				Error:   "MISSING_SESSION",
				Message: "X-Session-ID header is required",
			})
			return
		}
		c.Set(ctxKeySessionID, sessionID)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxKeySessionID)
}

// userID 從header取得登入用戶，0代表未登入訪客
func userID(c *gin.Context) int {
	raw := c.GetHeader(headerUserID)
	if raw == "" {
		return 0
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// respondError 網路面錯誤一律帶可行動訊息回覆，不吞錯
func respondError(c *gin.Context, err error) {
	var validationErr *checkout.ValidationError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "VALIDATION_ERROR", Message: validationErr.Error()})
	case errors.Is(err, service.ErrCartEmpty):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "CART_EMPTY", Message: "your cart is empty"})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "UNAUTHENTICATED", Message: "please sign in to place an order"})
	case errors.Is(err, service.ErrCouponNotFound):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "COUPON_NOT_FOUND", Message: "invalid or expired coupon code"})
	case errors.Is(err, service.ErrCouponInactive):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "COUPON_INACTIVE", Message: "this coupon is no longer active"})
	case errors.Is(err, service.ErrCouponAlreadyUsed):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "COUPON_ALREADY_USED", Message: "you have already used this coupon"})
	case errors.Is(err, service.ErrInvalidCoupon):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_COUPON", Message: "coupon definition is invalid"})
	case errors.Is(err, service.ErrCouponCodeExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "COUPON_CODE_EXISTS", Message: "a coupon with this code already exists"})
	case errors.Is(err, service.ErrOrderNotExist):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ORDER_NOT_FOUND", Message: "order not found"})
	case errors.Is(err, service.ErrInvalidStatusTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "INVALID_STATUS_TRANSITION", Message: "order status can only move from pending to completed"})
	case errors.Is(err, checkout.ErrCheckoutCompleted):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "CHECKOUT_COMPLETED", Message: "this checkout has already been completed"})
	case errors.Is(err, checkout.ErrInvalidStep):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "INVALID_STEP", Message: "action is not allowed at the current checkout step"})
	case errors.Is(err, service.ErrOrderWriteFailed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "ORDER_WRITE_FAILED", Message: "failed to place your order, please try again"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "INTERNAL", Message: "unexpected error"})
	}
}
