package public

import (
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/handlers/shared"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/http/response"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CartItemRequest 购物车行
type CartItemRequest struct {
	ProductID    uint             `json:"product_id"`
	Name         string           `json:"name"`
	Quantity     int              `json:"quantity"`
	Price        decimal.Decimal  `json:"price"`
	StudentPrice *decimal.Decimal `json:"student_price"`
	ImageURL     string           `json:"image_url"`
}

// QuoteRequest 计价预览请求
type QuoteRequest struct {
	Items        []CartItemRequest `json:"items"`
	DeliveryArea string            `json:"delivery_area"`
	OtherArea    string            `json:"other_area"`
}

// CheckoutRequest 结算请求，金额字段与服务端计算结果比对
type CheckoutRequest struct {
	Items        []CartItemRequest `json:"items"`
	DeliveryArea string            `json:"delivery_area"`
	OtherArea    string            `json:"other_area"`
	DeliveryNote string            `json:"delivery_note"`
	Phone        string            `json:"phone"`
	Email        string            `json:"email"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Discount     decimal.Decimal   `json:"discount"`
	DeliveryFee  decimal.Decimal   `json:"delivery_fee"`
	Total        decimal.Decimal   `json:"total"`
}

// QuoteResponse 计价结果
type QuoteResponse struct {
	Subtotal       string `json:"subtotal"`
	Discount       string `json:"discount"`
	DeliveryFee    string `json:"delivery_fee"`
	Total          string `json:"total"`
	Campus         string `json:"campus,omitempty"`
	StudentPricing bool   `json:"student_pricing"`
}

func toCartItems(items []CartItemRequest) []service.CartItemInput {
	result := make([]service.CartItemInput, 0, len(items))
	for _, item := range items {
		result = append(result, service.CartItemInput{
			ProductID:        item.ProductID,
			Name:             item.Name,
			Quantity:         item.Quantity,
			UnitPrice:        item.Price,
			StudentUnitPrice: item.StudentPrice,
			ImageURL:         item.ImageURL,
		})
	}
	return result
}

// Quote 计价预览
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	quote, err := h.OrderService.Quote(toCartItems(req.Items), req.DeliveryArea, req.OtherArea)
	if err != nil {
		shared.RespondServiceError(c, err, "error.internal")
		return
	}
	response.Success(c, QuoteResponse{
		Subtotal:       quote.Subtotal.StringFixed(2),
		Discount:       quote.Discount.StringFixed(2),
		DeliveryFee:    quote.DeliveryFee.StringFixed(2),
		Total:          quote.Total.StringFixed(2),
		Campus:         quote.Campus,
		StudentPricing: quote.StudentPricing,
	})
}

// Checkout 创建订单并返回托管支付地址
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.RespondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.OrderService.Create(c.Request.Context(), service.CreateOrderInput{
		Items:        toCartItems(req.Items),
		DeliveryArea: req.DeliveryArea,
		OtherArea:    req.OtherArea,
		DeliveryNote: req.DeliveryNote,
		Phone:        req.Phone,
		Email:        req.Email,
		Subtotal:     req.Subtotal,
		Discount:     req.Discount,
		DeliveryFee:  req.DeliveryFee,
		Total:        req.Total,
	})
	if err != nil {
		shared.RespondServiceError(c, err, "error.order_create_failed")
		return
	}

	response.Success(c, gin.H{
		"order_id":          result.OrderID,
		"tracking_code":     result.TrackingCode,
		"authorization_url": result.AuthorizationURL,
		"tracking_url":      h.OrderService.TrackingURL(result.TrackingCode),
		"total":             result.Total,
	})
}
