package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// CartLine 購物車單一品項
// ProductKey 為商品變體唯一鍵，同商品不同規格(如尺寸)視為不同品項
type CartLine struct {
	ProductKey string            `json:"product_key"`
	ProductID  string            `json:"product_id"`
	Name       string            `json:"name"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	Quantity   int               `json:"quantity"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Amount 單一品項小計
func (l CartLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// VariantKey 由商品ID與規格組出變體唯一鍵
// 規格以 key 排序組合，確保同一組規格永遠得到同一個鍵
func VariantKey(productID string, attributes map[string]string) string {
	if len(attributes) == 0 {
		return productID
	}

	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(productID)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf(":%s=%s", k, attributes[k]))
	}
	return sb.String()
}
