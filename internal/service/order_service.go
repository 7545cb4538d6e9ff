package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/payment/paystack"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/pricing"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/queue"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"

	"github.com/shopspring/decimal"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo  repository.OrderRepository
	eventRepo  repository.OrderEventRepository
	pricing    *pricing.Engine
	gateway    PaymentGateway
	dispatcher NotificationDispatcher
	access     *AccessPolicy
	cfg        config.OrderConfig
	currency   string
	codeGen    func() (string, error)
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, eventRepo repository.OrderEventRepository, engine *pricing.Engine, gateway PaymentGateway, dispatcher NotificationDispatcher, access *AccessPolicy, cfg config.OrderConfig, currency string) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		eventRepo:  eventRepo,
		pricing:    engine,
		gateway:    gateway,
		dispatcher: dispatcher,
		access:     access,
		cfg:        cfg,
		currency:   currency,
		codeGen:    GenerateTrackingCode,
	}
}

// CartItemInput 购物车行
type CartItemInput struct {
	ProductID        uint
	Name             string
	Quantity         int
	UnitPrice        decimal.Decimal
	StudentUnitPrice *decimal.Decimal
	ImageURL         string
}

// CreateOrderInput 结算输入，金额字段仅用于校验
type CreateOrderInput struct {
	Items        []CartItemInput
	DeliveryArea string
	OtherArea    string
	DeliveryNote string
	Phone        string
	Email        string
	Subtotal     decimal.Decimal
	Discount     decimal.Decimal
	DeliveryFee  decimal.Decimal
	Total        decimal.Decimal
}

// CreateOrderResult 结算结果
type CreateOrderResult struct {
	OrderID          uint         `json:"order_id"`
	TrackingCode     string       `json:"tracking_code"`
	AuthorizationURL string       `json:"authorization_url"`
	Total            models.Money `json:"total"`
}

type checkout struct {
	items []pricing.Item
	quote pricing.Quote
	area  string
	phone string
	email string
}

// Create 创建订单并初始化托管支付，支付初始化失败时删除订单
func (s *OrderService) Create(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	c, err := s.validateCheckout(input)
	if err != nil {
		return nil, err
	}

	code, err := s.newTrackingCode()
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		TrackingCode:      code,
		DeliveryArea:      c.area,
		DeliveryNote:      strings.TrimSpace(input.DeliveryNote),
		Phone:             c.phone,
		PhoneMasked:       maskPhone(c.phone),
		Email:             c.email,
		Subtotal:          models.NewMoneyFromDecimal(c.quote.Subtotal),
		Discount:          models.NewMoneyFromDecimal(c.quote.Discount),
		DeliveryFee:       models.NewMoneyFromDecimal(c.quote.DeliveryFee),
		Total:             models.NewMoneyFromDecimal(c.quote.Total),
		Status:            constants.OrderStatusPendingPayment,
		PharmacyAckStatus: constants.AckStatusPending,
		PaymentReference:  code,
	}
	if err := s.orderRepo.Create(order, buildOrderItems(c.items, c.quote.StudentPricing)); err != nil {
		return nil, err
	}
	log := logger.ForOrder(order.ID, code)

	if err := s.eventRepo.Append(&models.OrderEvent{
		OrderID: order.ID,
		Status:  constants.EventLabelOrderReceived,
		Note:    "Awaiting payment confirmation",
	}); err != nil {
		log.Errorw("order_initial_event_failed", "error", err)
		s.rollback(order)
		return nil, err
	}

	if s.cfg.TrackingSMSEnabled && s.dispatcher != nil {
		s.dispatcher.DispatchCustomerSMS(queue.CustomerSMSPayload{OrderID: order.ID, Status: order.Status})
	}

	result, err := s.initializePayment(ctx, order)
	if err != nil {
		log.Warnw("order_payment_init_failed", "error", err)
		s.rollback(order)
		return nil, ErrPaymentInitFailed
	}

	log.Infow("order_created", "total", order.Total.String(), "delivery_area", order.DeliveryArea)
	return &CreateOrderResult{
		OrderID:          order.ID,
		TrackingCode:     code,
		AuthorizationURL: result.AuthorizationURL,
		Total:            order.Total,
	}, nil
}

// Quote 预览计价，不落库
func (s *OrderService) Quote(items []CartItemInput, deliveryArea, otherArea string) (*pricing.Quote, error) {
	verr := &ValidationError{}
	priced := s.validateItems(items, verr)
	area := s.resolveDeliveryArea(deliveryArea, otherArea, verr)
	if verr.HasErrors() {
		return nil, verr
	}
	quote, err := s.pricing.Quote(priced, area)
	if err != nil {
		verr.Add("items", err.Error())
		return nil, verr
	}
	return &quote, nil
}

// TrackingURL 顾客追踪页地址，同时作为支付回调地址
func (s *OrderService) TrackingURL(code string) string {
	return trackingURL(s.cfg.PublicBaseURL, code)
}

// Currency 支付币种
func (s *OrderService) Currency() string {
	if strings.TrimSpace(s.currency) == "" {
		return "GHS"
	}
	return s.currency
}

// GetByTrackingCode 按追踪码查询订单（事件按时间倒序）
func (s *OrderService) GetByTrackingCode(code string) (*models.Order, error) {
	code = NormalizeTrackingCode(code)
	if !IsTrackingCode(code) {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByTrackingCode(code)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetForAdmin 管理员查询订单详情
func (s *OrderService) GetForAdmin(actor Actor, orderID uint) (*models.Order, error) {
	if err := s.access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.ListByOrder(order.ID)
	if err != nil {
		return nil, err
	}
	order.Events = events
	return order, nil
}

// ListAdmin 管理员订单列表（按创建时间倒序）
func (s *OrderService) ListAdmin(actor Actor, filter repository.OrderListFilter) ([]models.Order, error) {
	if err := s.access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	return s.orderRepo.ListAdmin(filter)
}

// ListForPharmacy 药房查看指派给自己的订单
func (s *OrderService) ListForPharmacy(actor Actor, filter repository.OrderListFilter) ([]models.Order, error) {
	pharmacy, err := s.access.PharmacyFor(actor)
	if err != nil {
		return nil, err
	}
	return s.orderRepo.ListByPharmacy(pharmacy.ID, filter)
}

// Transition 按正常流转表推进订单状态（管理员），发货只能由药房发起
func (s *OrderService) Transition(actor Actor, orderID uint, to string) (*models.Order, error) {
	if err := s.access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	to = NormalizeOrderStatus(to)
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !CanAdminTransition(order.Status, to) {
		return nil, ErrOrderStatusInvalid
	}
	updated, err := s.orderRepo.UpdateFieldsIf(order.ID,
		map[string]interface{}{"status": order.Status},
		map[string]interface{}{"status": to},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if !updated {
		return nil, ErrOrderStatusInvalid
	}
	s.appendEvent(order, statusEventLabel(to), fmt.Sprintf("Status changed from %s to %s", order.Status, to))
	s.afterStatusChange(order, to)
	return s.loadOrder(order.ID)
}

// ForceSetStatus 管理员强制设置任意状态，不校验流转表
func (s *OrderService) ForceSetStatus(actor Actor, orderID uint, status, note string) (*models.Order, error) {
	if err := s.access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	status = NormalizeOrderStatus(status)
	if !IsValidOrderStatus(status) {
		return nil, ErrOrderStatusInvalid
	}
	order, err := s.loadOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}
	if err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{"status": status}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	eventNote := fmt.Sprintf("Status updated by admin (%s to %s)", order.Status, status)
	if note = strings.TrimSpace(note); note != "" {
		eventNote += ": " + note
	}
	s.appendEvent(order, constants.EventLabelStatusUpdated, eventNote)
	logger.ForOrder(order.ID, order.TrackingCode).Infow("order_status_forced",
		"operator_id", actor.OperatorID,
		"from", order.Status,
		"to", status,
	)
	s.afterStatusChange(order, status)
	return s.loadOrder(order.ID)
}

// MarkPaid 支付确认：pending_payment -> received。重复确认不报错。
func (s *OrderService) MarkPaid(reference string, paidAt time.Time) (*models.Order, error) {
	order, err := s.orderRepo.GetByTrackingCode(NormalizeTrackingCode(reference))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return order, nil
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}
	updated, err := s.orderRepo.UpdateFieldsIf(order.ID,
		map[string]interface{}{"status": constants.OrderStatusPendingPayment},
		map[string]interface{}{"status": constants.OrderStatusReceived, "paid_at": paidAt},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if updated {
		s.appendEvent(order, constants.EventLabelPaymentConfirmed, "Payment received, order is being prepared")
		logger.ForOrder(order.ID, order.TrackingCode).Infow("order_marked_paid", "paid_at", paidAt)
	}
	return s.loadOrder(order.ID)
}

func (s *OrderService) validateCheckout(input CreateOrderInput) (*checkout, error) {
	verr := &ValidationError{}
	items := s.validateItems(input.Items, verr)
	area := s.resolveDeliveryArea(input.DeliveryArea, input.OtherArea, verr)

	phone := strings.TrimSpace(input.Phone)
	minPhone := positiveOr(s.cfg.MinPhoneLength, 9)
	if len([]rune(phone)) < minPhone {
		verr.Add("phone", fmt.Sprintf("must be at least %d characters", minPhone))
	}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		verr.Add("email", "is required")
	} else if addr, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "is not a valid email address")
	} else {
		email = addr.Address
	}

	if verr.HasErrors() {
		return nil, verr
	}

	quote, err := s.pricing.Quote(items, area)
	if err != nil {
		verr.Add("items", err.Error())
		return nil, verr
	}
	for _, field := range quote.Mismatches(pricing.Figures{
		Subtotal:    input.Subtotal,
		Discount:    input.Discount,
		DeliveryFee: input.DeliveryFee,
		Total:       input.Total,
	}) {
		verr.Add(field, "does not match the calculated amount")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	return &checkout{items: items, quote: quote, area: area, phone: phone, email: email}, nil
}

func (s *OrderService) validateItems(items []CartItemInput, verr *ValidationError) []pricing.Item {
	if len(items) == 0 {
		verr.Add("items", "cart is empty")
		return nil
	}
	out := make([]pricing.Item, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if item.Quantity <= 0 {
			verr.Add(field+".quantity", "must be positive")
		}
		if item.UnitPrice.IsNegative() {
			verr.Add(field+".price", "must not be negative")
		}
		if item.StudentUnitPrice != nil && item.StudentUnitPrice.IsNegative() {
			verr.Add(field+".student_price", "must not be negative")
		}
		out = append(out, pricing.Item{
			ProductID:        item.ProductID,
			Name:             strings.TrimSpace(item.Name),
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			StudentUnitPrice: item.StudentUnitPrice,
			ImageURL:         strings.TrimSpace(item.ImageURL),
		})
	}
	return out
}

// 已知校区返回规范名称；other 使用自填地址
func (s *OrderService) resolveDeliveryArea(area, other string, verr *ValidationError) string {
	area = strings.TrimSpace(area)
	if area == "" {
		verr.Add("delivery_area", "is required")
		return ""
	}
	if strings.EqualFold(area, constants.DeliveryAreaOther) {
		other = strings.TrimSpace(other)
		minLen := positiveOr(s.cfg.MinOtherAreaLength, 3)
		if len([]rune(other)) < minLen {
			verr.Add("other_area", fmt.Sprintf("must be at least %d characters", minLen))
		}
		return other
	}
	if campus, ok := s.pricing.Campus(area); ok {
		return campus.Name
	}
	verr.Add("delivery_area", "unknown delivery area")
	return ""
}

func (s *OrderService) newTrackingCode() (string, error) {
	attempts := positiveOr(s.cfg.TrackingCodeRetries, 1)
	for i := 0; i < attempts; i++ {
		code, err := s.codeGen()
		if err != nil {
			return "", err
		}
		exists, err := s.orderRepo.TrackingCodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		logger.Warnw("order_tracking_code_collision", "attempt", i+1)
	}
	return "", ErrTrackingCodeExhausted
}

func (s *OrderService) initializePayment(ctx context.Context, order *models.Order) (*paystack.InitializeResult, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: gateway not configured", paystack.ErrConfigInvalid)
	}
	result, err := s.gateway.Initialize(ctx, paystack.InitializeInput{
		Email:       order.Email,
		AmountMinor: order.Total.MinorUnits(),
		Currency:    s.Currency(),
		Reference:   order.TrackingCode,
		CallbackURL: s.TrackingURL(order.TrackingCode),
		Metadata: map[string]interface{}{
			"order_id":      order.ID,
			"tracking_code": order.TrackingCode,
		},
	})
	if err != nil {
		return nil, err
	}
	if result == nil || strings.TrimSpace(result.AuthorizationURL) == "" {
		return nil, fmt.Errorf("%w: missing authorization url", paystack.ErrResponseInvalid)
	}
	return result, nil
}

func (s *OrderService) rollback(order *models.Order) {
	if err := s.orderRepo.Delete(order.ID); err != nil {
		logger.ForOrder(order.ID, order.TrackingCode).Errorw("order_rollback_failed", "error", err)
	}
}

func (s *OrderService) loadOrder(orderID uint) (*models.Order, error) {
	return loadOrder(s.orderRepo, orderID)
}

func (s *OrderService) appendEvent(order *models.Order, label, note string) {
	appendOrderEvent(s.eventRepo, order, label, note)
}

func (s *OrderService) afterStatusChange(order *models.Order, status string) {
	if s.dispatcher == nil {
		return
	}
	if s.cfg.TrackingSMSEnabled && customerNotifiableStatus(status) {
		s.dispatcher.DispatchCustomerSMS(queue.CustomerSMSPayload{OrderID: order.ID, Status: status})
	}
	if order.PharmacyID != nil {
		s.dispatcher.DispatchPharmacyNotification(queue.PharmacyNotificationPayload{
			Kind:       constants.PharmacyNoticeStatusChange,
			OrderID:    order.ID,
			PharmacyID: *order.PharmacyID,
			Status:     status,
		})
	}
}

func loadOrder(repo repository.OrderRepository, orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, ErrOrderNotFound
	}
	order, err := repo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// 事件写入失败只记录日志，订单变更已生效
func appendOrderEvent(repo repository.OrderEventRepository, order *models.Order, label, note string) {
	if err := repo.Append(&models.OrderEvent{OrderID: order.ID, Status: label, Note: note}); err != nil {
		logger.ForOrder(order.ID, order.TrackingCode).Errorw("order_event_append_failed", "label", label, "error", err)
	}
}

func buildOrderItems(items []pricing.Item, studentPricing bool) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		unit := models.NewMoneyFromDecimal(item.UnitPrice)
		row := models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: unit,
			LineTotal: models.NewMoneyFromDecimal(unit.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))),
			ImageURL:  item.ImageURL,
		}
		if studentPricing && item.StudentUnitPrice != nil {
			student := models.NewMoneyFromDecimal(*item.StudentUnitPrice)
			row.StudentUnitPrice = &student
		}
		out = append(out, row)
	}
	return out
}

func trackingURL(baseURL, code string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/track/" + code
}

// 仅保留末三位
func maskPhone(phone string) string {
	runes := []rune(phone)
	if len(runes) <= 3 {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-3) + string(runes[len(runes)-3:])
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
