package checkout

import (
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/cart"
)

// Manager 以sessionID管理結帳狀態機，跟購物車共用同一把key
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	carts    *cart.Manager
	engine   CouponEngine
	composer OrderComposer
}

func NewManager(carts *cart.Manager, engine CouponEngine, composer OrderComposer) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		carts:    carts,
		engine:   engine,
		composer: composer,
	}
}

func (m *Manager) GetOrCreate(sessionID string) *Session {
	m.mu.RLock()
	session, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return session
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[sessionID]; ok {
		return session
	}
	session = NewSession(m.carts.GetOrCreate(sessionID), m.engine, m.composer)
	m.sessions[sessionID] = session
	return session
}

// Drop 清掉整個購物階段，登出或結帳完成離場時用
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	m.carts.Drop(sessionID)
}
