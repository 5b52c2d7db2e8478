package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// fakeFeedConsumer 不碰broker，測試直接呼叫被注入的handler模擬事件到達
type fakeFeedConsumer struct {
	started bool
	stopped bool
}

func (f *fakeFeedConsumer) Start(ctx context.Context) error {
	f.started = true
	return nil
}

func (f *fakeFeedConsumer) Stop() {
	f.stopped = true
}

type fakeOrderCache struct {
	mu                   sync.Mutex
	invalidateAllCount   int
	invalidatedUsers     []int
	invalidateEverything int
}

func (f *fakeOrderCache) GetAllOrders(ctx context.Context) ([]model.Order, bool, error) {
	return nil, false, nil
}

func (f *fakeOrderCache) SetAllOrders(ctx context.Context, orders []model.Order) error {
	return nil
}

func (f *fakeOrderCache) GetUserOrders(ctx context.Context, userID int) ([]model.Order, bool, error) {
	return nil, false, nil
}

func (f *fakeOrderCache) SetUserOrders(ctx context.Context, userID int, orders []model.Order) error {
	return nil
}

func (f *fakeOrderCache) InvalidateAll(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidateAllCount++
	return nil
}

func (f *fakeOrderCache) InvalidateUser(ctx context.Context, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidatedUsers = append(f.invalidatedUsers, userID)
	return nil
}

func (f *fakeOrderCache) InvalidateEverything(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidateEverything++
	return nil
}

type OrderSyncServiceTestSuite struct {
	suite.Suite
	consumer    *fakeFeedConsumer
	cache       *fakeOrderCache
	svc         *OrderSyncService
	emit        feed.EventHandler
	reconnected func()
}

func (suite *OrderSyncServiceTestSuite) SetupTest() {
	suite.consumer = &fakeFeedConsumer{}
	suite.cache = &fakeOrderCache{}
	suite.svc = NewOrderSyncService(func(handler feed.EventHandler, onReconnect func()) feed.IOrderFeedConsumer {
		suite.emit = handler
		suite.reconnected = onReconnect
		return suite.consumer
	}, suite.cache)
}

func TestOrderSyncServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrderSyncServiceTestSuite))
}

func orderEvent(userID int) model.OrderEvent {
	return model.OrderEvent{
		EventID:    "event-1",
		EventType:  model.OrderCreatedEventName,
		OrderID:    "order-1",
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	}
}

func (suite *OrderSyncServiceTestSuite) TestStartAndStop() {
	assert.NoError(suite.T(), suite.svc.Start())
	assert.True(suite.T(), suite.consumer.started)

	// 重複啟動擋下
	assert.Error(suite.T(), suite.svc.Start())

	assert.NoError(suite.T(), suite.svc.Stop(time.Second))
	assert.True(suite.T(), suite.consumer.stopped)
}

func (suite *OrderSyncServiceTestSuite) TestEventInvalidatesCaches() {
	suite.emit(orderEvent(42))

	assert.Equal(suite.T(), 1, suite.cache.invalidateAllCount)
	assert.Equal(suite.T(), []int{42}, suite.cache.invalidatedUsers)
}

func (suite *OrderSyncServiceTestSuite) TestGuestEventSkipsUserCache() {
	suite.emit(orderEvent(0))

	assert.Equal(suite.T(), 1, suite.cache.invalidateAllCount)
	assert.Empty(suite.T(), suite.cache.invalidatedUsers)
}

func (suite *OrderSyncServiceTestSuite) TestSubscribeDispatchByFilter() {
	var allEvents, userEvents []model.OrderEvent

	all := suite.svc.Subscribe(OrderEventFilter{}, func(event model.OrderEvent) {
		allEvents = append(allEvents, event)
	})
	defer all.Cancel()

	mine := suite.svc.Subscribe(OrderEventFilter{UserID: 42}, func(event model.OrderEvent) {
		userEvents = append(userEvents, event)
	})
	defer mine.Cancel()

	suite.emit(orderEvent(42))
	suite.emit(orderEvent(7))

	// 全域訂閱收到全部，過濾訂閱只收到自己的
	assert.Len(suite.T(), allEvents, 2)
	assert.Len(suite.T(), userEvents, 1)
	assert.Equal(suite.T(), 42, userEvents[0].UserID)
}

func (suite *OrderSyncServiceTestSuite) TestCancelStopsDelivery() {
	var events []model.OrderEvent
	sub := suite.svc.Subscribe(OrderEventFilter{}, func(event model.OrderEvent) {
		events = append(events, event)
	})

	suite.emit(orderEvent(42))
	sub.Cancel()
	suite.emit(orderEvent(42))

	assert.Len(suite.T(), events, 1)

	// Cancel冪等
	sub.Cancel()
}

func (suite *OrderSyncServiceTestSuite) TestReconnectFlushesEverything() {
	suite.reconnected()

	assert.Equal(suite.T(), 1, suite.cache.invalidateEverything)
}
