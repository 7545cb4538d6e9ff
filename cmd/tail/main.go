package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/cache"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/realtime"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"

	"github.com/olekukonko/tablewriter"
)

// 订阅订单变更并在终端持续刷新订单表
func main() {
	var pharmacyID uint
	var limit int
	flag.UintVar(&pharmacyID, "pharmacy", 0, "仅显示指定药房的订单")
	flag.IntVar(&limit, "limit", 20, "初始加载条数")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns: 2,
		MaxIdleConns: 1,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		stdLog.Fatalf("Failed to connect redis: %v", err)
	}
	defer cache.Close()

	// 独立消费组，避免与服务实例争抢消息
	cfg.Realtime.KafkaGroupID = "discreetkit-tail-" + strconv.Itoa(os.Getpid())
	broker, err := realtime.NewBroker(cfg.Realtime, cache.Client(), realtime.NewHub())
	if err != nil {
		stdLog.Fatalf("Failed to create broker: %v", err)
	}
	defer broker.Close()
	if broker.Name() == "memory" {
		stdLog.Fatalf("realtime broker is in-process; configure redis or kafka to tail from another process")
	}

	orderRepo := repository.NewOrderRepository(models.DB, nil)
	filter := repository.OrderListFilter{Page: 1, PageSize: limit}
	var orders []models.Order
	if pharmacyID > 0 {
		orders, err = orderRepo.ListByPharmacy(pharmacyID, filter)
	} else {
		orders, err = orderRepo.ListAdmin(filter)
	}
	if err != nil {
		stdLog.Fatalf("Failed to load orders: %v", err)
	}
	render(orders)

	topic := realtime.TopicOrders
	if pharmacyID > 0 {
		topic = realtime.PharmacyTopic(pharmacyID)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	err = broker.Consume(ctx, func(ev realtime.ChangeEvent) {
		for _, d := range realtime.Route(ev) {
			if d.Topic != topic {
				continue
			}
			orders = realtime.Merge(orders, d.Event)
			fmt.Printf("\n%s order #%d\n", d.Event.Type, d.Event.ID())
			render(orders)
		}
	})
	if err != nil && ctx.Err() == nil {
		stdLog.Fatalf("Broker consume failed: %v", err)
	}
}

func render(orders []models.Order) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Tracking", "Area", "Status", "Ack", "Pharmacy", "Total")
	for _, o := range orders {
		pharmacy := "-"
		if o.PharmacyID != nil {
			pharmacy = strconv.FormatUint(uint64(*o.PharmacyID), 10)
		}
		_ = table.Append(
			strconv.FormatUint(uint64(o.ID), 10),
			o.TrackingCode,
			o.DeliveryArea,
			o.Status,
			o.PharmacyAckStatus,
			pharmacy,
			o.Total.String(),
		)
	}
	_ = table.Render()
}
