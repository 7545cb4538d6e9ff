package service

import (
	"fmt"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/queue"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"
)

// AssignmentService 药房指派与确认流程
type AssignmentService struct {
	orderRepo    repository.OrderRepository
	eventRepo    repository.OrderEventRepository
	pharmacyRepo repository.PharmacyRepository
	dispatcher   NotificationDispatcher
	access       *AccessPolicy
	cfg          config.OrderConfig
}

// NewAssignmentService 创建指派服务
func NewAssignmentService(orderRepo repository.OrderRepository, eventRepo repository.OrderEventRepository, pharmacyRepo repository.PharmacyRepository, dispatcher NotificationDispatcher, access *AccessPolicy, cfg config.OrderConfig) *AssignmentService {
	return &AssignmentService{
		orderRepo:    orderRepo,
		eventRepo:    eventRepo,
		pharmacyRepo: pharmacyRepo,
		dispatcher:   dispatcher,
		access:       access,
		cfg:          cfg,
	}
}

// Assign 指派药房（管理员）
func (s *AssignmentService) Assign(actor Actor, orderID, pharmacyID uint) (*models.Order, error) {
	return s.assign(actor, orderID, pharmacyID, false)
}

// Reassign 重新指派药房（管理员），事件单独记录
func (s *AssignmentService) Reassign(actor Actor, orderID, pharmacyID uint) (*models.Order, error) {
	return s.assign(actor, orderID, pharmacyID, true)
}

func (s *AssignmentService) assign(actor Actor, orderID, pharmacyID uint, reassign bool) (*models.Order, error) {
	if err := s.access.RequireAdmin(actor); err != nil {
		return nil, err
	}
	order, err := loadOrder(s.orderRepo, orderID)
	if err != nil {
		return nil, err
	}
	pharmacy, err := s.activePharmacy(pharmacyID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"pharmacy_id":         pharmacy.ID,
		"pharmacy_ack_status": constants.AckStatusPending,
	}
	// 指派最多把订单推进到 received，不跳级也不回退
	if order.Status == constants.OrderStatusPendingPayment {
		updates["status"] = constants.OrderStatusReceived
	}
	if err := s.orderRepo.UpdateFields(order.ID, updates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}

	label := constants.EventLabelAssigned
	note := fmt.Sprintf("Order assigned to %s", pharmacy.Name)
	if reassign {
		label = constants.EventLabelReassigned
		note = fmt.Sprintf("Order reassigned from %s to %s", s.pharmacyName(order.PharmacyID), pharmacy.Name)
	}
	appendOrderEvent(s.eventRepo, order, label, note)
	logger.ForOrder(order.ID, order.TrackingCode).Infow("order_assigned",
		"pharmacy_id", pharmacy.ID,
		"operator_id", actor.OperatorID,
		"reassign", reassign,
	)

	if s.dispatcher != nil {
		s.dispatcher.DispatchPharmacyNotification(queue.PharmacyNotificationPayload{
			Kind:       constants.PharmacyNoticeAssignment,
			OrderID:    order.ID,
			PharmacyID: pharmacy.ID,
		})
	}
	return loadOrder(s.orderRepo, order.ID)
}

// Accept 药房接单：确认状态 pending -> accepted，订单进入 processing
func (s *AssignmentService) Accept(actor Actor, orderID uint) (*models.Order, error) {
	pharmacy, order, err := s.assignedOrder(actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.PharmacyAckStatus != constants.AckStatusPending {
		return nil, ErrAckNotPending
	}

	conds := map[string]interface{}{
		"pharmacy_ack_status": constants.AckStatusPending,
		"pharmacy_id":         pharmacy.ID,
	}
	updates := map[string]interface{}{
		"pharmacy_ack_status": constants.AckStatusAccepted,
	}
	if order.Status == constants.OrderStatusReceived {
		conds["status"] = constants.OrderStatusReceived
		updates["status"] = constants.OrderStatusProcessing
	}
	updated, err := s.orderRepo.UpdateFieldsIf(order.ID, conds, updates)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if !updated {
		return nil, ErrAckNotPending
	}

	appendOrderEvent(s.eventRepo, order, constants.EventLabelAccepted, fmt.Sprintf("Accepted by %s", pharmacy.Name))
	logger.ForOrder(order.ID, order.TrackingCode).Infow("order_accepted", "pharmacy_id", pharmacy.ID)
	return loadOrder(s.orderRepo, order.ID)
}

// Decline 药房拒单：清空指派并重置确认状态，订单状态不变
func (s *AssignmentService) Decline(actor Actor, orderID uint, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrDeclineReasonRequired
	}
	pharmacy, order, err := s.assignedOrder(actor, orderID)
	if err != nil {
		return nil, err
	}
	if order.PharmacyAckStatus != constants.AckStatusPending {
		return nil, ErrAckNotPending
	}

	updated, err := s.orderRepo.UpdateFieldsIf(order.ID,
		map[string]interface{}{
			"pharmacy_ack_status": constants.AckStatusPending,
			"pharmacy_id":         pharmacy.ID,
		},
		map[string]interface{}{
			"pharmacy_id":         nil,
			"pharmacy_ack_status": constants.AckStatusPending,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if !updated {
		return nil, ErrAckNotPending
	}

	appendOrderEvent(s.eventRepo, order, constants.EventLabelDeclined, fmt.Sprintf("Declined by %s: %s", pharmacy.Name, reason))
	logger.ForOrder(order.ID, order.TrackingCode).Infow("order_declined", "pharmacy_id", pharmacy.ID, "reason", reason)
	return loadOrder(s.orderRepo, order.ID)
}

// MarkOutForDelivery 药房发货：processing -> out_for_delivery
func (s *AssignmentService) MarkOutForDelivery(actor Actor, orderID uint) (*models.Order, error) {
	pharmacy, order, err := s.assignedOrder(actor, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(order.Status, constants.OrderStatusOutForDelivery) {
		return nil, ErrOrderStatusInvalid
	}

	updated, err := s.orderRepo.UpdateFieldsIf(order.ID,
		map[string]interface{}{
			"status":      constants.OrderStatusProcessing,
			"pharmacy_id": pharmacy.ID,
		},
		map[string]interface{}{"status": constants.OrderStatusOutForDelivery},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	if !updated {
		return nil, ErrOrderStatusInvalid
	}

	appendOrderEvent(s.eventRepo, order, constants.EventLabelOutForDelivery, fmt.Sprintf("Dispatched by %s", pharmacy.Name))
	logger.ForOrder(order.ID, order.TrackingCode).Infow("order_out_for_delivery", "pharmacy_id", pharmacy.ID)

	if s.dispatcher != nil && s.cfg.TrackingSMSEnabled {
		s.dispatcher.DispatchCustomerSMS(queue.CustomerSMSPayload{
			OrderID: order.ID,
			Status:  constants.OrderStatusOutForDelivery,
		})
	}
	return loadOrder(s.orderRepo, order.ID)
}

// 校验操作员绑定的药房即订单当前指派药房
func (s *AssignmentService) assignedOrder(actor Actor, orderID uint) (*models.Pharmacy, *models.Order, error) {
	pharmacy, err := s.access.PharmacyFor(actor)
	if err != nil {
		return nil, nil, err
	}
	order, err := loadOrder(s.orderRepo, orderID)
	if err != nil {
		return nil, nil, err
	}
	if !order.AssignedTo(pharmacy.ID) {
		return nil, nil, ErrUnauthorized
	}
	return pharmacy, order, nil
}

func (s *AssignmentService) activePharmacy(pharmacyID uint) (*models.Pharmacy, error) {
	if pharmacyID == 0 {
		return nil, ErrPharmacyNotFound
	}
	pharmacy, err := s.pharmacyRepo.GetByID(pharmacyID)
	if err != nil {
		return nil, err
	}
	if pharmacy == nil || !pharmacy.IsActive {
		return nil, ErrPharmacyNotFound
	}
	return pharmacy, nil
}

func (s *AssignmentService) pharmacyName(pharmacyID *uint) string {
	if pharmacyID == nil {
		return "unassigned"
	}
	pharmacy, err := s.pharmacyRepo.GetByID(*pharmacyID)
	if err != nil || pharmacy == nil {
		return fmt.Sprintf("pharmacy #%d", *pharmacyID)
	}
	return pharmacy.Name
}
