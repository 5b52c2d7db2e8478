package cart

import (
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Store 單一購物階段的購物車
// 純程序內狀態，不碰網路不碰儲存，無效輸入採夾擠處理不回錯誤
type Store struct {
	mu    sync.RWMutex
	order []string // ProductKey 插入順序
	lines map[string]*model.CartLine
}

func NewStore() *Store {
	return &Store{
		order: make([]string, 0, 8),
		lines: make(map[string]*model.CartLine),
	}
}

// Add 加入品項，同一個ProductKey會累加數量不會產生重複品項
func (s *Store) Add(line model.CartLine) {
	if line.Quantity <= 0 {
		return
	}
	if line.ProductKey == "" {
		line.ProductKey = model.VariantKey(line.ProductID, line.Attributes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.lines[line.ProductKey]; ok {
		existing.Quantity += line.Quantity
		return
	}

	s.order = append(s.order, line.ProductKey)
	s.lines[line.ProductKey] = &line
}

// SetQuantity 設定品項數量，n <= 0 視同移除
func (s *Store) SetQuantity(productKey string, n int) {
	if n <= 0 {
		s.Remove(productKey)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if line, ok := s.lines[productKey]; ok {
		line.Quantity = n
	}
}

// Remove 移除品項，不存在的key為no-op
func (s *Store) Remove(productKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lines[productKey]; !ok {
		return
	}

	delete(s.lines, productKey)
	for i, key := range s.order {
		if key == productKey {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Clear 清空購物車，訂單成立後呼叫
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = s.order[:0]
	s.lines = make(map[string]*model.CartLine)
}

// Lines 依插入順序回傳品項快照
func (s *Store) Lines() []model.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]model.CartLine, 0, len(s.order))
	for _, key := range s.order {
		lines = append(lines, *s.lines[key])
	}
	return lines
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// Subtotal 即時計算小計，不做快取所以不會有過期問題
func (s *Store) Subtotal() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subtotal := decimal.NewFromInt(0)
	for _, line := range s.lines {
		subtotal = subtotal.Add(line.Amount())
	}
	return subtotal
}
