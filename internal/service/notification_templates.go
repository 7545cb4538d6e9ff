package service

import (
	"fmt"
	"html"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
)

type pharmacyMessage struct {
	sms     string
	subject string
	html    string
}

func buildAssignmentMessage(order *models.Order, pharmacy *models.Pharmacy) pharmacyMessage {
	items := summarizeItems(order.Items)
	return pharmacyMessage{
		sms: fmt.Sprintf("DiscreetKit: new order %s assigned to %s. %s. Deliver to %s. Please accept or decline in your dashboard.",
			order.TrackingCode, pharmacy.Name, items, order.DeliveryArea),
		subject: fmt.Sprintf("New order %s assigned", order.TrackingCode),
		html: fmt.Sprintf("<p>Hello %s,</p><p>Order <strong>%s</strong> has been assigned to you.</p>"+
			"<p>Items: %s<br>Delivery area: %s<br>Total: GHS %s</p>"+
			"<p>Please accept or decline it from the pharmacy dashboard.</p>",
			html.EscapeString(pharmacy.Name),
			html.EscapeString(order.TrackingCode),
			html.EscapeString(items),
			html.EscapeString(order.DeliveryArea),
			order.Total.String()),
	}
}

func buildStatusChangeMessage(order *models.Order, pharmacy *models.Pharmacy, status string) pharmacyMessage {
	label := statusDisplay(status)
	return pharmacyMessage{
		sms:     fmt.Sprintf("DiscreetKit: order %s is now %s.", order.TrackingCode, label),
		subject: fmt.Sprintf("Order %s is now %s", order.TrackingCode, label),
		html: fmt.Sprintf("<p>Hello %s,</p><p>Order <strong>%s</strong> status changed to <strong>%s</strong>.</p>",
			html.EscapeString(pharmacy.Name),
			html.EscapeString(order.TrackingCode),
			html.EscapeString(label)),
	}
}

func buildCustomerSMS(order *models.Order, status, link string) string {
	switch status {
	case constants.OrderStatusOutForDelivery:
		return fmt.Sprintf("DiscreetKit: your order %s is out for delivery. Track it at %s", order.TrackingCode, link)
	case constants.OrderStatusCompleted:
		return fmt.Sprintf("DiscreetKit: your order %s has been delivered. Thank you.", order.TrackingCode)
	default:
		return fmt.Sprintf("DiscreetKit: we received your order. Tracking code %s. Track it at %s", order.TrackingCode, link)
	}
}

func summarizeItems(items []models.OrderItem) string {
	if len(items) == 0 {
		return "no items"
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%dx %s", item.Quantity, item.Name))
	}
	return strings.Join(parts, ", ")
}

func statusDisplay(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
