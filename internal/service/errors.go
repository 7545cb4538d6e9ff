package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrOrderNotFound         = errors.New("order not found")
	ErrPharmacyNotFound      = errors.New("pharmacy not found")
	ErrOrderStatusInvalid    = errors.New("order status invalid for this operation")
	ErrAckNotPending         = errors.New("pharmacy acknowledgment is not pending")
	ErrDeclineReasonRequired = errors.New("decline reason is required")
	ErrPaymentInitFailed     = errors.New("payment initialization failed")
	ErrTrackingCodeExhausted = errors.New("tracking code generation exhausted")
	ErrOrderFetchFailed      = errors.New("order fetch failed")
	ErrOrderUpdateFailed     = errors.New("order update failed")
	ErrWebhookSignature      = errors.New("webhook signature invalid")
	ErrWebhookDuplicate      = errors.New("webhook already processed")
	ErrPaymentAmountMismatch = errors.New("payment amount or currency mismatch")

	ErrSMSServiceDisabled        = errors.New("sms service disabled")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	ErrInvalidEmail              = errors.New("invalid email")
	ErrEmailRecipientRejected    = errors.New("email recipient rejected")
	ErrRecipientMissing          = errors.New("notification recipient missing")
)

// ValidationError 字段级校验错误
type ValidationError struct {
	Fields map[string]string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add 记录字段错误，同一字段保留第一条
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = message
}

// HasErrors 是否存在字段错误
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}
