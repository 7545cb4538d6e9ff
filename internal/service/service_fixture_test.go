package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/payment/paystack"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/pricing"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/queue"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeGateway struct {
	mu     sync.Mutex
	err    error
	inputs []paystack.InitializeInput
}

func (g *fakeGateway) Initialize(_ context.Context, input paystack.InitializeInput) (*paystack.InitializeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inputs = append(g.inputs, input)
	if g.err != nil {
		return nil, g.err
	}
	return &paystack.InitializeResult{
		AuthorizationURL: "https://checkout.paystack.test/" + input.Reference,
		AccessCode:       "access",
		Reference:        input.Reference,
	}, nil
}

type recordingDispatcher struct {
	mu       sync.Mutex
	pharmacy []queue.PharmacyNotificationPayload
	customer []queue.CustomerSMSPayload
}

func (d *recordingDispatcher) DispatchPharmacyNotification(payload queue.PharmacyNotificationPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pharmacy = append(d.pharmacy, payload)
}

func (d *recordingDispatcher) DispatchCustomerSMS(payload queue.CustomerSMSPayload) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.customer = append(d.customer, payload)
}

type staticAuthorizer map[uint]string

func (a staticAuthorizer) HasRole(operatorID uint, role string) (bool, error) {
	return a[operatorID] == role, nil
}

type sentSMS struct {
	to      string
	message string
}

type fakeSMS struct {
	mu   sync.Mutex
	err  error
	sent []sentSMS
}

func (f *fakeSMS) Send(_ context.Context, to, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentSMS{to: to, message: message})
	return nil
}

type fakeEmail struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (f *fakeEmail) Send(_ context.Context, to, subject, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to+"|"+subject)
	return fmt.Sprintf("<msg-%d@test>", len(f.sent)), nil
}

type serviceFixture struct {
	db            *gorm.DB
	orderRepo     *repository.GormOrderRepository
	eventRepo     *repository.GormOrderEventRepository
	pharmacyRepo  *repository.GormPharmacyRepository
	attemptRepo   *repository.GormNotificationAttemptRepository
	gateway       *fakeGateway
	dispatcher    *recordingDispatcher
	orders        *OrderService
	assignments   *AssignmentService
	admin         Actor
	pharmacy      *models.Pharmacy
	pharmacyActor Actor
	otherPharmacy *models.Pharmacy
	otherActor    Actor
}

func testOrderConfig() config.OrderConfig {
	return config.OrderConfig{
		PublicBaseURL:       "https://discreetkit.test/",
		TrackingSMSEnabled:  true,
		MinPhoneLength:      9,
		MinOtherAreaLength:  3,
		TrackingCodeRetries: 5,
	}
}

func testPricingEngine() *pricing.Engine {
	return pricing.NewEngine(config.PricingConfig{
		DefaultDeliveryFee: 20,
		Campuses: []config.CampusConfig{
			{Name: "University of Ghana (Legon)", DeliveryFee: 10, DeliveryDiscount: 10, StudentPricing: true},
			{Name: "KNUST", DeliveryFee: 15, StudentPricing: true},
		},
	})
}

func setupServiceTest(t *testing.T) *serviceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}

	f := &serviceFixture{
		db:           db,
		orderRepo:    repository.NewOrderRepository(db, nil),
		eventRepo:    repository.NewOrderEventRepository(db),
		pharmacyRepo: repository.NewPharmacyRepository(db),
		attemptRepo:  repository.NewNotificationAttemptRepository(db),
		gateway:      &fakeGateway{},
		dispatcher:   &recordingDispatcher{},
		admin:        Actor{OperatorID: 1, Username: "admin", Role: constants.RoleAdmin},
	}
	f.pharmacy = f.createPharmacy(t, "Legon Pharmacy", 7)
	f.pharmacyActor = Actor{OperatorID: 7, Username: "legon", Role: constants.RolePharmacy}
	f.otherPharmacy = f.createPharmacy(t, "Osu Pharmacy", 8)
	f.otherActor = Actor{OperatorID: 8, Username: "osu", Role: constants.RolePharmacy}

	access := NewAccessPolicy(staticAuthorizer{1: constants.RoleAdmin}, f.pharmacyRepo, []string{"Boss@DiscreetKit.test"})
	f.orders = NewOrderService(f.orderRepo, f.eventRepo, testPricingEngine(), f.gateway, f.dispatcher, access, testOrderConfig(), "GHS")
	f.assignments = NewAssignmentService(f.orderRepo, f.eventRepo, f.pharmacyRepo, f.dispatcher, access, testOrderConfig())
	return f
}

func (f *serviceFixture) createPharmacy(t *testing.T, name string, operatorID uint) *models.Pharmacy {
	t.Helper()
	op := operatorID
	pharmacy := &models.Pharmacy{
		Name:       name,
		Location:   "Accra",
		Phone:      "0201112223",
		Email:      strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@pharmacy.test",
		OperatorID: &op,
		IsActive:   true,
	}
	if err := f.pharmacyRepo.Create(pharmacy); err != nil {
		t.Fatalf("create pharmacy failed: %v", err)
	}
	return pharmacy
}

// 直接落库一条订单，绕过支付流程
func (f *serviceFixture) seedOrder(t *testing.T, status string) *models.Order {
	t.Helper()
	code, err := GenerateTrackingCode()
	if err != nil {
		t.Fatalf("generate tracking code failed: %v", err)
	}
	order := &models.Order{
		TrackingCode:      code,
		DeliveryArea:      "KNUST",
		Phone:             "0241234567",
		PhoneMasked:       "*******567",
		Email:             "buyer@example.com",
		Subtotal:          models.NewMoneyFromDecimal(decimal.NewFromInt(75)),
		DeliveryFee:       models.NewMoneyFromDecimal(decimal.NewFromInt(15)),
		Total:             models.NewMoneyFromDecimal(decimal.NewFromInt(90)),
		Status:            status,
		PharmacyAckStatus: constants.AckStatusPending,
		PaymentReference:  code,
	}
	items := []models.OrderItem{{ProductID: 1, Name: "Test Kit", Quantity: 1, UnitPrice: models.NewMoney(75), LineTotal: models.NewMoney(75)}}
	if err := f.orderRepo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func (f *serviceFixture) countEvents(t *testing.T, orderID uint) int64 {
	t.Helper()
	n, err := f.eventRepo.CountByOrder(orderID)
	if err != nil {
		t.Fatalf("count events failed: %v", err)
	}
	return n
}

func (f *serviceFixture) countOrders(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.Order{}).Count(&n).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	return n
}

func (f *serviceFixture) reload(t *testing.T, orderID uint) *models.Order {
	t.Helper()
	order, err := f.orderRepo.GetByID(orderID)
	if err != nil || order == nil {
		t.Fatalf("reload order failed: order=%v err=%v", order, err)
	}
	return order
}

func validCheckout() CreateOrderInput {
	return CreateOrderInput{
		Items:        []CartItemInput{{ProductID: 1, Name: "HIV Self-Test Kit", Quantity: 1, UnitPrice: decimal.RequireFromString("75.00")}},
		DeliveryArea: "University of Ghana (Legon)",
		Phone:        "0241234567",
		Email:        "buyer@example.com",
		Subtotal:     decimal.RequireFromString("75.00"),
		Discount:     decimal.Zero,
		DeliveryFee:  decimal.Zero,
		Total:        decimal.RequireFromString("75.00"),
	}
}

func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields[field]; !ok {
		t.Fatalf("expected field %q in %v", field, verr.Fields)
	}
}
