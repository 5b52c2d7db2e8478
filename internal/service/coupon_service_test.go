package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// fakeCouponRepo 純記憶體實作，模擬db層的唯一索引與原子遞增
type fakeCouponRepo struct {
	couponsByID   map[string]*model.Coupon
	usages        map[string]*model.CouponUsage // key: couponID:userID
	increments    map[string]int
	failIncrement bool
}

func newFakeCouponRepo() *fakeCouponRepo {
	return &fakeCouponRepo{
		couponsByID: make(map[string]*model.Coupon),
		usages:      make(map[string]*model.CouponUsage),
		increments:  make(map[string]int),
	}
}

func usageKey(couponID string, userID int) string {
	return fmt.Sprintf("%s:%d", couponID, userID)
}

func (f *fakeCouponRepo) CreateCoupon(ctx context.Context, coupon *model.Coupon) error {
	for _, existing := range f.couponsByID {
		if existing.Code == coupon.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	cp := *coupon
	f.couponsByID[coupon.CouponID] = &cp
	return nil
}

func (f *fakeCouponRepo) GetCouponByID(ctx context.Context, id string) (*model.Coupon, error) {
	coupon, ok := f.couponsByID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *coupon
	return &cp, nil
}

func (f *fakeCouponRepo) GetCouponByCode(ctx context.Context, code string) (*model.Coupon, error) {
	for _, coupon := range f.couponsByID {
		if coupon.Code == code {
			cp := *coupon
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCouponRepo) GetAllCoupons(ctx context.Context) ([]model.Coupon, error) {
	coupons := make([]model.Coupon, 0, len(f.couponsByID))
	for _, coupon := range f.couponsByID {
		coupons = append(coupons, *coupon)
	}
	return coupons, nil
}

func (f *fakeCouponRepo) UpdateCoupon(ctx context.Context, coupon *model.Coupon) error {
	cp := *coupon
	f.couponsByID[coupon.CouponID] = &cp
	return nil
}

func (f *fakeCouponRepo) SetCouponActive(ctx context.Context, id string, active bool) error {
	if coupon, ok := f.couponsByID[id]; ok {
		coupon.IsActive = active
	}
	return nil
}

func (f *fakeCouponRepo) DeleteCoupon(ctx context.Context, id string) error {
	delete(f.couponsByID, id)
	return nil
}

func (f *fakeCouponRepo) GetCouponUsage(ctx context.Context, couponID string, userID int) (*model.CouponUsage, error) {
	usage, ok := f.usages[usageKey(couponID, userID)]
	if !ok {
		return nil, nil
	}
	return usage, nil
}

func (f *fakeCouponRepo) CreateCouponUsage(ctx context.Context, usage *model.CouponUsage) error {
	key := usageKey(usage.CouponID, usage.UserID)
	if _, ok := f.usages[key]; ok {
		return gorm.ErrDuplicatedKey
	}
	f.usages[key] = usage
	return nil
}

func (f *fakeCouponRepo) IncrementUsageCount(ctx context.Context, couponID string) error {
	if f.failIncrement {
		return errors.New("increment failed")
	}
	f.increments[couponID]++
	return nil
}

type CouponServiceTestSuite struct {
	suite.Suite
	repo *fakeCouponRepo
	svc  *CouponService
}

func (suite *CouponServiceTestSuite) SetupTest() {
	suite.repo = newFakeCouponRepo()
	suite.svc = NewCouponService(suite.repo)
}

func TestCouponServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CouponServiceTestSuite))
}

func (suite *CouponServiceTestSuite) seedCoupon(code, discountType string, value int64, active bool) *model.Coupon {
	coupon := &model.Coupon{
		CouponID:      "coupon-" + code,
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: decimal.NewFromInt(value),
		IsActive:      active,
	}
	suite.repo.couponsByID[coupon.CouponID] = coupon
	return coupon
}

func (suite *CouponServiceTestSuite) TestValidateNormalizesCase() {
	suite.seedCoupon("SAVE10", model.DiscountTypePercentage, 10, true)

	coupon, err := suite.svc.Validate(context.Background(), "  save10 ", 1)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "SAVE10", coupon.Code)
}

func (suite *CouponServiceTestSuite) TestValidateNotFound() {
	_, err := suite.svc.Validate(context.Background(), "NOPE", 1)
	assert.ErrorIs(suite.T(), err, ErrCouponNotFound)

	_, err = suite.svc.Validate(context.Background(), "", 1)
	assert.ErrorIs(suite.T(), err, ErrCouponNotFound)
}

func (suite *CouponServiceTestSuite) TestValidateInactive() {
	suite.seedCoupon("OLD", model.DiscountTypeFixed, 5, false)

	_, err := suite.svc.Validate(context.Background(), "OLD", 1)
	assert.ErrorIs(suite.T(), err, ErrCouponInactive)
}

func (suite *CouponServiceTestSuite) TestValidateAlreadyUsed() {
	coupon := suite.seedCoupon("ONCE", model.DiscountTypeFixed, 5, true)
	suite.repo.usages[usageKey(coupon.CouponID, 7)] = &model.CouponUsage{
		CouponID: coupon.CouponID, UserID: 7, OrderID: "order-1",
	}

	_, err := suite.svc.Validate(context.Background(), "ONCE", 7)
	assert.ErrorIs(suite.T(), err, ErrCouponAlreadyUsed)

	// 其他用戶不受影響
	_, err = suite.svc.Validate(context.Background(), "ONCE", 8)
	assert.NoError(suite.T(), err)
}

func (suite *CouponServiceTestSuite) TestValidateGuestSkipsUsageCheck() {
	coupon := suite.seedCoupon("GUEST", model.DiscountTypeFixed, 5, true)
	suite.repo.usages[usageKey(coupon.CouponID, 7)] = &model.CouponUsage{
		CouponID: coupon.CouponID, UserID: 7, OrderID: "order-1",
	}

	// userID 0 = 訪客，沒有身份可查，驗證放行
	_, err := suite.svc.Validate(context.Background(), "GUEST", 0)
	assert.NoError(suite.T(), err)
}

func (suite *CouponServiceTestSuite) TestComputeDiscountPercentage() {
	coupon := &model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(10)}

	// 小計200 打9折 折20
	discount := suite.svc.ComputeDiscount(decimal.NewFromInt(200), coupon)
	assert.True(suite.T(), discount.Equal(decimal.NewFromInt(20)), "got %s", discount)
}

func (suite *CouponServiceTestSuite) TestComputeDiscountRoundsToCent() {
	coupon := &model.Coupon{DiscountType: model.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(15)}

	// 99.99 * 15% = 14.9985 -> 15.00
	discount := suite.svc.ComputeDiscount(decimal.RequireFromString("99.99"), coupon)
	assert.True(suite.T(), discount.Equal(decimal.RequireFromString("15.00")), "got %s", discount)
}

func (suite *CouponServiceTestSuite) TestComputeDiscountFixedClampedToSubtotal() {
	coupon := &model.Coupon{DiscountType: model.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(100)}

	// 小計50 固定折100，夾到50，total不會是負的
	discount := suite.svc.ComputeDiscount(decimal.NewFromInt(50), coupon)
	assert.True(suite.T(), discount.Equal(decimal.NewFromInt(50)))
}

func (suite *CouponServiceTestSuite) TestComputeDiscountNilCoupon() {
	discount := suite.svc.ComputeDiscount(decimal.NewFromInt(100), nil)
	assert.True(suite.T(), discount.IsZero())
}

func (suite *CouponServiceTestSuite) TestFinalizeRedemptionIncrements() {
	coupon := suite.seedCoupon("BUMP", model.DiscountTypeFixed, 5, true)

	suite.svc.FinalizeRedemption(context.Background(), coupon.CouponID)
	assert.Equal(suite.T(), 1, suite.repo.increments[coupon.CouponID])
}

func (suite *CouponServiceTestSuite) TestFinalizeRedemptionFailureDoesNotPanic() {
	suite.repo.failIncrement = true
	// 訂單已成立，計數器失敗只記log
	suite.svc.FinalizeRedemption(context.Background(), "whatever")
}

func (suite *CouponServiceTestSuite) TestCreateCouponNormalizesCode() {
	coupon := &model.Coupon{
		Code:          "newcode",
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(20),
		IsActive:      true,
	}
	err := suite.svc.CreateCoupon(context.Background(), coupon)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "NEWCODE", coupon.Code)
	assert.NotEmpty(suite.T(), coupon.CouponID)
}

func (suite *CouponServiceTestSuite) TestCreateCouponDuplicateCode() {
	suite.seedCoupon("TAKEN", model.DiscountTypeFixed, 5, true)

	err := suite.svc.CreateCoupon(context.Background(), &model.Coupon{
		Code:          "taken",
		DiscountType:  model.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(5),
	})
	assert.ErrorIs(suite.T(), err, ErrCouponCodeExists)
}

func (suite *CouponServiceTestSuite) TestCreateCouponRejectsInvalidDefinition() {
	cases := []*model.Coupon{
		{Code: "", DiscountType: model.DiscountTypeFixed, DiscountValue: decimal.NewFromInt(5)},
		{Code: "X", DiscountType: "bogus", DiscountValue: decimal.NewFromInt(5)},
		{Code: "X", DiscountType: model.DiscountTypeFixed, DiscountValue: decimal.Zero},
		{Code: "X", DiscountType: model.DiscountTypePercentage, DiscountValue: decimal.NewFromInt(-10)},
	}
	for _, coupon := range cases {
		err := suite.svc.CreateCoupon(context.Background(), coupon)
		assert.ErrorIs(suite.T(), err, ErrInvalidCoupon)
	}
}

func (suite *CouponServiceTestSuite) TestDeactivateCoupon() {
	coupon := suite.seedCoupon("RETIRE", model.DiscountTypeFixed, 5, true)

	err := suite.svc.DeactivateCoupon(context.Background(), coupon.CouponID)
	assert.NoError(suite.T(), err)

	_, err = suite.svc.Validate(context.Background(), "RETIRE", 1)
	assert.ErrorIs(suite.T(), err, ErrCouponInactive)
}
