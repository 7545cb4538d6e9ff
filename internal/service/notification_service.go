package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/queue"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/sms"

	"golang.org/x/sync/errgroup"
)

// NotificationService 药房与顾客通知
type NotificationService struct {
	orderRepo     repository.OrderRepository
	eventRepo     repository.OrderEventRepository
	pharmacyRepo  repository.PharmacyRepository
	attemptRepo   repository.NotificationAttemptRepository
	smsSender     SMSSender
	emailSender   EmailSender
	countryCode   string
	publicBaseURL string
}

// NewNotificationService 创建通知服务
func NewNotificationService(orderRepo repository.OrderRepository, eventRepo repository.OrderEventRepository, pharmacyRepo repository.PharmacyRepository, attemptRepo repository.NotificationAttemptRepository, smsSender SMSSender, emailSender EmailSender, countryCode, publicBaseURL string) *NotificationService {
	return &NotificationService{
		orderRepo:     orderRepo,
		eventRepo:     eventRepo,
		pharmacyRepo:  pharmacyRepo,
		attemptRepo:   attemptRepo,
		smsSender:     smsSender,
		emailSender:   emailSender,
		countryCode:   countryCode,
		publicBaseURL: publicBaseURL,
	}
}

// ChannelOutcome 单次通知各渠道结果
type ChannelOutcome struct {
	SMSErr    error
	EmailErr  error
	EmailID   string
	Attempt   *models.NotificationAttempt
	Delivered bool
}

// NotifyAssignment 通知药房有新订单
func (s *NotificationService) NotifyAssignment(ctx context.Context, order *models.Order, pharmacy *models.Pharmacy) (*ChannelOutcome, error) {
	return s.notify(ctx, order, pharmacy, buildAssignmentMessage(order, pharmacy))
}

// NotifyStatusChange 通知药房订单状态变化
func (s *NotificationService) NotifyStatusChange(ctx context.Context, order *models.Order, pharmacy *models.Pharmacy, status string) (*ChannelOutcome, error) {
	return s.notify(ctx, order, pharmacy, buildStatusChangeMessage(order, pharmacy, status))
}

// HandlePharmacyNotification 处理后台药房通知任务
func (s *NotificationService) HandlePharmacyNotification(ctx context.Context, payload queue.PharmacyNotificationPayload) error {
	order, err := s.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Debugw("notification_pharmacy_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	pharmacy, err := s.pharmacyRepo.GetByID(payload.PharmacyID)
	if err != nil {
		return err
	}
	if pharmacy == nil {
		logger.Debugw("notification_pharmacy_skip_pharmacy_not_found", "order_id", payload.OrderID, "pharmacy_id", payload.PharmacyID)
		return nil
	}
	switch payload.Kind {
	case constants.PharmacyNoticeStatusChange:
		status := strings.TrimSpace(payload.Status)
		if status == "" {
			status = order.Status
		}
		_, err = s.NotifyStatusChange(ctx, order, pharmacy, status)
	default:
		_, err = s.NotifyAssignment(ctx, order, pharmacy)
	}
	return err
}

// SendCustomerSMS 顾客追踪/状态短信，失败只记录日志
func (s *NotificationService) SendCustomerSMS(ctx context.Context, payload queue.CustomerSMSPayload) error {
	order, err := s.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		logger.Debugw("notification_customer_sms_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}
	status := strings.TrimSpace(payload.Status)
	if status == "" {
		status = order.Status
	}
	message := buildCustomerSMS(order, status, trackingURL(s.publicBaseURL, order.TrackingCode))
	if err := s.sendSMS(ctx, order.Phone, message); err != nil {
		logger.ForOrder(order.ID, order.TrackingCode).Warnw("notification_customer_sms_failed", "status", status, "error", err)
		return err
	}
	logger.ForOrder(order.ID, order.TrackingCode).Infow("notification_customer_sms_sent", "status", status)
	return nil
}

// ListAttempts 查询订单的通知投递记录
func (s *NotificationService) ListAttempts(orderID uint) ([]models.NotificationAttempt, error) {
	return s.attemptRepo.ListByOrder(orderID)
}

// 两个渠道并发发送，互不影响；审计行只记录短信结果
func (s *NotificationService) notify(ctx context.Context, order *models.Order, pharmacy *models.Pharmacy, msg pharmacyMessage) (*ChannelOutcome, error) {
	if order == nil || pharmacy == nil {
		return nil, errors.New("order and pharmacy are required")
	}
	out := &ChannelOutcome{}
	var g errgroup.Group
	g.Go(func() error {
		out.SMSErr = s.sendSMS(ctx, pharmacy.Phone, msg.sms)
		return nil
	})
	g.Go(func() error {
		out.EmailID, out.EmailErr = s.sendEmail(ctx, pharmacy.Email, msg.subject, msg.html)
		return nil
	})
	_ = g.Wait()

	log := logger.ForOrder(order.ID, order.TrackingCode).With("pharmacy_id", pharmacy.ID)
	if out.SMSErr != nil {
		log.Warnw("notification_pharmacy_sms_failed", "error", out.SMSErr)
	}
	if out.EmailErr != nil {
		log.Warnw("notification_pharmacy_email_failed", "error", out.EmailErr)
	}

	out.Delivered = out.SMSErr == nil
	attempt, err := s.attemptRepo.Record(order.ID, pharmacy.ID, out.Delivered, errorText(out.SMSErr), time.Now())
	if err != nil {
		log.Errorw("notification_attempt_record_failed", "error", err)
		return out, err
	}
	out.Attempt = attempt

	appendOrderEvent(s.eventRepo, order, constants.EventLabelPharmacyNotified,
		fmt.Sprintf("%s notified (sms: %s, email: %s)", pharmacy.Name, outcomeText(out.SMSErr), outcomeText(out.EmailErr)))
	log.Infow("notification_pharmacy_done",
		"sms_delivered", out.SMSErr == nil,
		"email_delivered", out.EmailErr == nil,
		"attempts", attempt.Attempts,
	)
	return out, nil
}

func (s *NotificationService) sendSMS(ctx context.Context, phone, message string) error {
	if s.smsSender == nil {
		return ErrSMSServiceDisabled
	}
	recipient := sms.NormalizeRecipient(phone, s.countryCode)
	if recipient == "" {
		return ErrRecipientMissing
	}
	return s.smsSender.Send(ctx, recipient, message)
}

func (s *NotificationService) sendEmail(ctx context.Context, to, subject, html string) (string, error) {
	if s.emailSender == nil {
		return "", ErrEmailServiceDisabled
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return "", ErrRecipientMissing
	}
	return s.emailSender.Send(ctx, to, subject, html)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func outcomeText(err error) string {
	if err == nil {
		return constants.NotificationStatusSent
	}
	return constants.NotificationStatusFailed
}
