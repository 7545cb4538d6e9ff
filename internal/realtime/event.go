// Package realtime 将订单表的增删改推送给订阅方：
// 顾客追踪页（order:{id}）、管理端（orders）、药房端（pharmacy:{id}）。
package realtime

import (
	"fmt"
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"
)

// 订阅主题
const (
	TopicOrders = "orders"
	tableOrders = "orders"
)

// ChangeEvent 订单行变更，New/Old 为完整行
type ChangeEvent struct {
	Type  string        `json:"type"` // INSERT / UPDATE / DELETE
	Table string        `json:"table"`
	New   *models.Order `json:"new,omitempty"`
	Old   *models.Order `json:"old,omitempty"`
	At    time.Time     `json:"at"`
}

// Delivery 投递到某个主题的事件
type Delivery struct {
	Topic string
	Event ChangeEvent
}

// OrderTopic 单订单主题
func OrderTopic(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}

// PharmacyTopic 药房主题
func PharmacyTopic(pharmacyID uint) string {
	return fmt.Sprintf("pharmacy:%d", pharmacyID)
}

// NewChangeEvent 构造变更事件
func NewChangeEvent(changeType string, before, after *models.Order) ChangeEvent {
	return ChangeEvent{
		Type:  changeType,
		Table: tableOrders,
		New:   after,
		Old:   before,
		At:    time.Now(),
	}
}

// ID 返回事件对应的订单 ID
func (e ChangeEvent) ID() uint {
	if e.New != nil {
		return e.New.ID
	}
	if e.Old != nil {
		return e.Old.ID
	}
	return 0
}

// Route 计算事件需要投递的主题。
// 订单改派时，原药房收到 DELETE、新药房收到 INSERT，使各自列表按合并规则收敛。
func Route(ev ChangeEvent) []Delivery {
	id := ev.ID()
	if id == 0 {
		return nil
	}
	deliveries := []Delivery{
		{Topic: TopicOrders, Event: ev},
		{Topic: OrderTopic(id), Event: ev},
	}

	oldPharmacy := pharmacyOf(ev.Old)
	newPharmacy := pharmacyOf(ev.New)
	switch {
	case oldPharmacy == newPharmacy && newPharmacy != 0:
		deliveries = append(deliveries, Delivery{Topic: PharmacyTopic(newPharmacy), Event: ev})
	default:
		if oldPharmacy != 0 {
			removed := ev
			removed.Type = repository.ChangeDelete
			removed.New = nil
			deliveries = append(deliveries, Delivery{Topic: PharmacyTopic(oldPharmacy), Event: removed})
		}
		if newPharmacy != 0 {
			added := ev
			added.Type = repository.ChangeInsert
			added.Old = nil
			deliveries = append(deliveries, Delivery{Topic: PharmacyTopic(newPharmacy), Event: added})
		}
	}
	return deliveries
}

func pharmacyOf(order *models.Order) uint {
	if order == nil || order.PharmacyID == nil {
		return 0
	}
	return *order.PharmacyID
}

// Merge 将事件合并进本地列表：INSERT 插入到头部，UPDATE 按 ID 替换，DELETE 按 ID 移除
func Merge(list []models.Order, ev ChangeEvent) []models.Order {
	id := ev.ID()
	switch ev.Type {
	case repository.ChangeInsert:
		if ev.New == nil {
			return list
		}
		out := make([]models.Order, 0, len(list)+1)
		out = append(out, *ev.New)
		for _, o := range list {
			if o.ID != id {
				out = append(out, o)
			}
		}
		return out
	case repository.ChangeUpdate:
		if ev.New == nil {
			return list
		}
		out := make([]models.Order, len(list))
		copy(out, list)
		for i := range out {
			if out[i].ID == id {
				out[i] = *ev.New
			}
		}
		return out
	case repository.ChangeDelete:
		out := make([]models.Order, 0, len(list))
		for _, o := range list {
			if o.ID != id {
				out = append(out, o)
			}
		}
		return out
	}
	return list
}
