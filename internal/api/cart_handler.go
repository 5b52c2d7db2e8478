package api

import (
	"net/http"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AddCartItemRequest struct {
	ProductID  string            `json:"product_id" binding:"required"`
	Name       string            `json:"name" binding:"required"`
	UnitPrice  decimal.Decimal   `json:"unit_price" binding:"required"`
	Quantity   int               `json:"quantity" binding:"required"`
	Attributes map[string]string `json:"attributes"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Lines    []model.CartLine `json:"lines"`
	Subtotal decimal.Decimal  `json:"subtotal"`
}

func (s *Server) cartResponse(c *gin.Context) CartResponse {
	store := s.checkouts.GetOrCreate(sessionID(c)).Cart()
	return CartResponse{Lines: store.Lines(), Subtotal: store.Subtotal()}
}

// GetCart handles GET /cart
func (s *Server) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, s.cartResponse(c))
}

// AddCartItem handles POST /cart/items
// 同商品同規格重複加入會累加數量
func (s *Server) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: err.Error()})
		return
	}

	store := s.checkouts.GetOrCreate(sessionID(c)).Cart()
	store.Add(model.CartLine{
		ProductKey: model.VariantKey(req.ProductID, req.Attributes),
		ProductID:  req.ProductID,
		Name:       req.Name,
		UnitPrice:  req.UnitPrice,
		Quantity:   req.Quantity,
		Attributes: req.Attributes,
	})

	c.JSON(http.StatusOK, s.cartResponse(c))
}

// SetCartItemQuantity handles PUT /cart/items/:productKey
// 數量 <= 0 等同移除該品項
func (s *Server) SetCartItemQuantity(c *gin.Context) {
	var req SetQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "INVALID_INPUT", Message: err.Error()})
		return
	}

	store := s.checkouts.GetOrCreate(sessionID(c)).Cart()
	store.SetQuantity(c.Param("productKey"), req.Quantity)

	c.JSON(http.StatusOK, s.cartResponse(c))
}

// RemoveCartItem handles DELETE /cart/items/:productKey，冪等
func (s *Server) RemoveCartItem(c *gin.Context) {
	store := s.checkouts.GetOrCreate(sessionID(c)).Cart()
	store.Remove(c.Param("productKey"))

	c.JSON(http.StatusOK, s.cartResponse(c))
}

// ClearCart handles DELETE /cart
func (s *Server) ClearCart(c *gin.Context) {
	store := s.checkouts.GetOrCreate(sessionID(c)).Cart()
	store.Clear()

	c.JSON(http.StatusOK, s.cartResponse(c))
}
