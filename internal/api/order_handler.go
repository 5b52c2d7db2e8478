package api

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/service"
	"github.com/gin-gonic/gin"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// GetMyOrders handles GET /orders，登入用戶自己的訂單
func (s *Server) GetMyOrders(c *gin.Context) {
	uid := userID(c)
	if uid == 0 {
		respondError(c, service.ErrUnauthenticated)
		return
	}

	orders, err := s.orderSvc.GetOrdersByUserID(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetMyOrder handles GET /orders/:orderId
// 不是自己的訂單一律回404，不洩漏存在與否
func (s *Server) GetMyOrder(c *gin.Context) {
	uid := userID(c)
	if uid == 0 {
		respondError(c, service.ErrUnauthenticated)
		return
	}

	order, err := s.orderSvc.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if order.UserID != uid {
		respondError(c, service.ErrOrderNotExist)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetAllOrders handles GET /admin/orders，後台全量
func (s *Server) GetAllOrders(c *gin.Context) {
	orders, err := s.orderSvc.GetAllOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus handles PATCH /admin/orders/:orderId/status
// 只接受 pending -> completed
func (s *Server) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: err.Error()})
		return
	}
	if req.Status != model.OrderStatusCompleted {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: "status must be 'completed'"})
		return
	}

	order, err := s.orderSvc.CompleteOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
