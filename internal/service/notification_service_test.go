package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/queue"
)

func newTestNotificationService(f *serviceFixture, smsSender SMSSender, emailSender EmailSender) *NotificationService {
	return NewNotificationService(f.orderRepo, f.eventRepo, f.pharmacyRepo, f.attemptRepo, smsSender, emailSender, "233", "https://discreetkit.test")
}

func TestNotifyAssignmentRecordsSMSOutcome(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusReceived)
	smsSender := &fakeSMS{}
	emailSender := &fakeEmail{}
	svc := newTestNotificationService(f, smsSender, emailSender)

	out, err := svc.NotifyAssignment(context.Background(), f.reload(t, order.ID), f.pharmacy)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if out.SMSErr != nil || out.EmailErr != nil || out.EmailID == "" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(smsSender.sent) != 1 || smsSender.sent[0].to != "233201112223" {
		t.Fatalf("expected normalized sms recipient, got %+v", smsSender.sent)
	}
	if !strings.Contains(smsSender.sent[0].message, order.TrackingCode) || !strings.Contains(smsSender.sent[0].message, "1x Test Kit") {
		t.Fatalf("sms missing order details: %s", smsSender.sent[0].message)
	}
	if len(emailSender.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(emailSender.sent))
	}

	attempt, err := f.attemptRepo.Get(order.ID, f.pharmacy.ID)
	if err != nil || attempt == nil {
		t.Fatalf("attempt not recorded: %v", err)
	}
	if attempt.Status != constants.NotificationStatusSent || attempt.Attempts != 1 || attempt.SentAt == nil {
		t.Fatalf("unexpected attempt: %+v", attempt)
	}
	events, _ := f.eventRepo.ListByOrder(order.ID)
	if len(events) != 1 || events[0].Status != constants.EventLabelPharmacyNotified {
		t.Fatalf("expected notified event, got %+v", events)
	}
}

func TestNotifyEmailFailureDoesNotMaskSMS(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusReceived)
	svc := newTestNotificationService(f, &fakeSMS{}, &fakeEmail{err: errors.New("smtp down")})

	out, err := svc.NotifyAssignment(context.Background(), f.reload(t, order.ID), f.pharmacy)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if out.SMSErr != nil || out.EmailErr == nil {
		t.Fatalf("expected sms ok and email failed, got %+v", out)
	}
	if out.Attempt.Status != constants.NotificationStatusSent {
		t.Fatalf("audit row follows sms outcome, got %s", out.Attempt.Status)
	}
	events, _ := f.eventRepo.ListByOrder(order.ID)
	if len(events) != 1 || !strings.Contains(events[0].Note, "email: failed") {
		t.Fatalf("expected email failure in event note, got %+v", events)
	}
}

func TestNotifySMSFailureIncrementsAttempts(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusReceived)
	smsSender := &fakeSMS{err: errors.New("gateway timeout")}
	svc := newTestNotificationService(f, smsSender, &fakeEmail{})

	for i := 0; i < 2; i++ {
		if _, err := svc.NotifyAssignment(context.Background(), f.reload(t, order.ID), f.pharmacy); err != nil {
			t.Fatalf("notify %d failed: %v", i, err)
		}
	}
	attempt, err := f.attemptRepo.Get(order.ID, f.pharmacy.ID)
	if err != nil || attempt == nil {
		t.Fatalf("attempt not recorded: %v", err)
	}
	if attempt.Status != constants.NotificationStatusFailed || attempt.Attempts != 2 {
		t.Fatalf("unexpected attempt after failures: %+v", attempt)
	}
	if attempt.LastError != "gateway timeout" || attempt.SentAt != nil {
		t.Fatalf("unexpected error bookkeeping: %+v", attempt)
	}

	smsSender.err = nil
	if _, err := svc.NotifyAssignment(context.Background(), f.reload(t, order.ID), f.pharmacy); err != nil {
		t.Fatalf("notify after recovery failed: %v", err)
	}
	attempts, err := svc.ListAttempts(order.ID)
	if err != nil || len(attempts) != 1 {
		t.Fatalf("expected a single audit row, got %d err=%v", len(attempts), err)
	}
	if attempts[0].Attempts != 3 || attempts[0].Status != constants.NotificationStatusSent || attempts[0].LastError != "" {
		t.Fatalf("unexpected attempt after recovery: %+v", attempts[0])
	}
}

func TestHandlePharmacyNotificationPayload(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusProcessing)
	smsSender := &fakeSMS{}
	svc := newTestNotificationService(f, smsSender, nil)

	err := svc.HandlePharmacyNotification(context.Background(), queue.PharmacyNotificationPayload{
		Kind:       constants.PharmacyNoticeStatusChange,
		OrderID:    order.ID,
		PharmacyID: f.pharmacy.ID,
		Status:     constants.OrderStatusCompleted,
	})
	if err != nil {
		t.Fatalf("handle payload failed: %v", err)
	}
	if len(smsSender.sent) != 1 || !strings.Contains(smsSender.sent[0].message, "completed") {
		t.Fatalf("expected status sms, got %+v", smsSender.sent)
	}

	if err := svc.HandlePharmacyNotification(context.Background(), queue.PharmacyNotificationPayload{OrderID: 999, PharmacyID: f.pharmacy.ID}); err != nil {
		t.Fatalf("missing order should be skipped, got %v", err)
	}
}

func TestSendCustomerSMS(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusPendingPayment)
	smsSender := &fakeSMS{}
	svc := newTestNotificationService(f, smsSender, nil)

	if err := svc.SendCustomerSMS(context.Background(), queue.CustomerSMSPayload{OrderID: order.ID}); err != nil {
		t.Fatalf("send customer sms failed: %v", err)
	}
	if len(smsSender.sent) != 1 {
		t.Fatalf("expected one sms, got %d", len(smsSender.sent))
	}
	msg := smsSender.sent[0]
	if msg.to != "233241234567" {
		t.Fatalf("unexpected recipient: %s", msg.to)
	}
	if !strings.Contains(msg.message, "https://discreetkit.test/track/"+order.TrackingCode) {
		t.Fatalf("sms missing tracking link: %s", msg.message)
	}
}

func TestDispatcherRunsInlineWhenQueueDisabled(t *testing.T) {
	f := setupServiceTest(t)
	order := f.seedOrder(t, constants.OrderStatusPendingPayment)
	done := make(chan sentSMS, 1)
	svc := newTestNotificationService(f, smsFunc(func(to, message string) { done <- sentSMS{to: to, message: message} }), nil)
	qc, _ := queue.NewClient(nil)
	dispatcher := NewTaskDispatcher(qc, svc)

	dispatcher.DispatchCustomerSMS(queue.CustomerSMSPayload{OrderID: order.ID})
	got := <-done
	if got.to != "233241234567" {
		t.Fatalf("unexpected recipient: %s", got.to)
	}
}

type smsFunc func(to, message string)

func (fn smsFunc) Send(_ context.Context, to, message string) error {
	fn(to, message)
	return nil
}
