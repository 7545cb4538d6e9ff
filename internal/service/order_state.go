package service

import (
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
)

// 正常流转表，只允许前进一步
var allowedTransitions = map[string]string{
	constants.OrderStatusPendingPayment: constants.OrderStatusReceived,
	constants.OrderStatusReceived:       constants.OrderStatusProcessing,
	constants.OrderStatusProcessing:     constants.OrderStatusOutForDelivery,
	constants.OrderStatusOutForDelivery: constants.OrderStatusCompleted,
}

// CanTransition 判断是否允许从 from 流转到 to
func CanTransition(from, to string) bool {
	next, ok := allowedTransitions[from]
	return ok && next == to
}

// 仅限指派药房执行的流转，管理员流转接口不可代办
var pharmacyOnlyTransitions = map[string]string{
	constants.OrderStatusProcessing: constants.OrderStatusOutForDelivery,
}

// CanAdminTransition 管理员正常流转，排除药房专属步骤
func CanAdminTransition(from, to string) bool {
	if next, ok := pharmacyOnlyTransitions[from]; ok && next == to {
		return false
	}
	return CanTransition(from, to)
}

// IsValidOrderStatus 判断状态是否在枚举内
func IsValidOrderStatus(status string) bool {
	for _, s := range constants.OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// NormalizeOrderStatus 统一状态写法
func NormalizeOrderStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

func statusEventLabel(status string) string {
	switch status {
	case constants.OrderStatusProcessing:
		return constants.EventLabelProcessing
	case constants.OrderStatusOutForDelivery:
		return constants.EventLabelOutForDelivery
	case constants.OrderStatusCompleted:
		return constants.EventLabelCompleted
	default:
		return constants.EventLabelStatusUpdated
	}
}

// 需要给顾客发状态短信的状态
func customerNotifiableStatus(status string) bool {
	return status == constants.OrderStatusOutForDelivery || status == constants.OrderStatusCompleted
}
