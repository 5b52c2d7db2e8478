package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/feed"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog/log"
)

type BackGroundService interface {
	Start() error
	Stop(timeout time.Duration) error
}

// FeedConsumerFactory 把consumer建構延後到service組裝完handler之後
type FeedConsumerFactory func(handler feed.EventHandler, onReconnect func()) feed.IOrderFeedConsumer

// OrderEventFilter 訂閱範圍，UserID為0代表全部訂單(後台視角)
type OrderEventFilter struct {
	UserID int
}

// Subscription 訂閱句柄，持有者負責在視圖卸載時呼叫Cancel
// Cancel冪等，重複呼叫無害
type Subscription struct {
	once   sync.Once
	cancel func()
}

func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

type subscriberEntry struct {
	filter OrderEventFilter
	fn     func(model.OrderEvent)
}

// OrderSyncService 監聽訂單變更通知，作廢對應的查詢快取
// 讓客戶端與後台畫面下一次讀取拿到現值，不靠輪詢
type OrderSyncService struct {
	consumer  feed.IOrderFeedConsumer
	cache     redis_repo.IOrderCacheRepository
	mu        sync.RWMutex
	nextSubID int
	subs      map[int]subscriberEntry

	isRunning  atomic.Bool
	stopCancel context.CancelFunc
}

func NewOrderSyncService(newConsumer FeedConsumerFactory, cache redis_repo.IOrderCacheRepository) *OrderSyncService {
	if newConsumer == nil {
		panic("order sync service dependency newConsumer is nil")
	}
	if cache == nil {
		panic("order sync service dependency cache is nil")
	}

	s := &OrderSyncService{
		cache: cache,
		subs:  make(map[int]subscriberEntry),
	}
	s.consumer = newConsumer(s.handleEvent, s.handleReconnect)
	return s
}

func (s *OrderSyncService) Start() error {
	if !s.isRunning.CompareAndSwap(false, true) {
		return fmt.Errorf("order sync service is already running")
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopCancel = cancel

	if err := s.consumer.Start(ctx); err != nil {
		cancel()
		s.isRunning.Store(false)
		return err
	}
	return nil
}

func (s *OrderSyncService) Stop(timeout time.Duration) error {
	if s.stopCancel == nil {
		return nil
	}
	s.stopCancel()
	s.consumer.Stop()

	time.AfterFunc(timeout, func() {
		if s.isRunning.Load() {
			log.Error().Msg("time out for stop order sync service")
		}
		s.isRunning.Store(false)
	})

	return nil
}

// Subscribe 註冊程序內監聽，回傳可取消的句柄
// 句柄生命週期由呼叫端管理，視圖卸載時必須Cancel避免訂閱洩漏
func (s *OrderSyncService) Subscribe(filter OrderEventFilter, fn func(model.OrderEvent)) *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = subscriberEntry{filter: filter, fn: fn}

	return &Subscription{
		cancel: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
		},
	}
}

// handleEvent 不做增量合併，收到通知就作廢快取讓下次讀取回源
func (s *OrderSyncService) handleEvent(event model.OrderEvent) {
	ctx := context.Background()

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Error().Err(err).Msgf("failed to invalidate all-orders cache for order %s", event.OrderID)
	}
	if event.UserID != 0 {
		if err := s.cache.InvalidateUser(ctx, event.UserID); err != nil {
			log.Error().Err(err).Msgf("failed to invalidate user-orders cache for user %d", event.UserID)
		}
	}

	s.mu.RLock()
	entries := make([]subscriberEntry, 0, len(s.subs))
	for _, entry := range s.subs {
		if entry.filter.UserID == 0 || entry.filter.UserID == event.UserID {
			entries = append(entries, entry)
		}
	}
	s.mu.RUnlock()

	for _, entry := range entries {
		entry.fn(event)
	}
}

// handleReconnect 斷線期間的通知已經漏掉，全部作廢一次補回一致性
func (s *OrderSyncService) handleReconnect() {
	if err := s.cache.InvalidateEverything(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to invalidate order caches after feed reconnect")
	}
}

var _ BackGroundService = (*OrderSyncService)(nil)
