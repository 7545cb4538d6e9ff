// Package pricing 计算购物车金额：小计、优惠、配送费与应付总额。
// 纯函数，无外部依赖与副作用。
package pricing

import (
	"errors"
	"sort"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"

	"github.com/shopspring/decimal"
)

var (
	// ErrEmptyCart 购物车为空
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidQuantity 商品数量非法
	ErrInvalidQuantity = errors.New("item quantity must be positive")
	// ErrInvalidPrice 商品价格非法
	ErrInvalidPrice = errors.New("item price must not be negative")
)

// Tolerance 客户端金额与服务端计算允许的误差
var Tolerance = decimal.RequireFromString("0.01")

// Item 购物车行
type Item struct {
	ProductID        uint
	Name             string
	Quantity         int
	UnitPrice        decimal.Decimal
	StudentUnitPrice *decimal.Decimal
	ImageURL         string
}

// Campus 校区配送规则
type Campus struct {
	Name             string
	DeliveryFee      decimal.Decimal
	DeliveryDiscount decimal.Decimal
	StudentPricing   bool
}

// Quote 计价结果
type Quote struct {
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	DeliveryFee    decimal.Decimal
	Total          decimal.Decimal
	Campus         string // 命中的校区，自填地址为空
	StudentPricing bool
}

// Figures 客户端提交的金额
type Figures struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// Engine 计价引擎
type Engine struct {
	defaultFee decimal.Decimal
	campuses   map[string]Campus
	order      []string
}

// NewEngine 根据配置创建计价引擎
func NewEngine(cfg config.PricingConfig) *Engine {
	e := &Engine{
		defaultFee: money(decimal.NewFromFloat(cfg.DefaultDeliveryFee)),
		campuses:   make(map[string]Campus, len(cfg.Campuses)),
	}
	for _, c := range cfg.Campuses {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		key := campusKey(name)
		if _, exists := e.campuses[key]; !exists {
			e.order = append(e.order, name)
		}
		e.campuses[key] = Campus{
			Name:             name,
			DeliveryFee:      money(decimal.NewFromFloat(c.DeliveryFee)),
			DeliveryDiscount: money(decimal.NewFromFloat(c.DeliveryDiscount)),
			StudentPricing:   c.StudentPricing,
		}
	}
	return e
}

// Campus 查找校区
func (e *Engine) Campus(area string) (Campus, bool) {
	c, ok := e.campuses[campusKey(area)]
	return c, ok
}

// Campuses 返回已配置的校区名称（按名称排序）
func (e *Engine) Campuses() []string {
	names := append([]string(nil), e.order...)
	sort.Strings(names)
	return names
}

// Quote 计算购物车金额。
// 配送费按校区表取值并扣减校区减免（不低于 0），未知区域使用默认配送费；
// 学生价校区内，商品学生价低于原价的差额计入 Discount。
func (e *Engine) Quote(items []Item, area string) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, ErrEmptyCart
	}

	q := Quote{DeliveryFee: e.defaultFee}
	campus, known := e.Campus(area)
	if known {
		q.Campus = campus.Name
		q.StudentPricing = campus.StudentPricing
		q.DeliveryFee = decimal.Max(campus.DeliveryFee.Sub(campus.DeliveryDiscount), decimal.Zero)
	}

	subtotal := decimal.Zero
	discount := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return Quote{}, ErrInvalidQuantity
		}
		if item.UnitPrice.IsNegative() {
			return Quote{}, ErrInvalidPrice
		}
		qty := decimal.NewFromInt(int64(item.Quantity))
		unit := money(item.UnitPrice)
		subtotal = subtotal.Add(unit.Mul(qty))

		if q.StudentPricing && item.StudentUnitPrice != nil {
			student := money(*item.StudentUnitPrice)
			if student.IsNegative() {
				return Quote{}, ErrInvalidPrice
			}
			if student.LessThan(unit) {
				discount = discount.Add(unit.Sub(student).Mul(qty))
			}
		}
	}

	q.Subtotal = money(subtotal)
	q.Discount = money(discount)
	q.DeliveryFee = money(q.DeliveryFee)
	q.Total = money(q.Subtotal.Sub(q.Discount).Add(q.DeliveryFee))
	return q, nil
}

// Mismatches 返回与服务端计算不一致的字段名
func (q Quote) Mismatches(client Figures) []string {
	var fields []string
	check := func(name string, server, got decimal.Decimal) {
		if server.Sub(got).Abs().GreaterThan(Tolerance) {
			fields = append(fields, name)
		}
	}
	check("subtotal", q.Subtotal, client.Subtotal)
	check("discount", q.Discount, client.Discount)
	check("delivery_fee", q.DeliveryFee, client.DeliveryFee)
	check("total", q.Total, client.Total)
	return fields
}

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func campusKey(area string) string {
	return strings.ToLower(strings.Join(strings.Fields(area), " "))
}
