package provider

import (
	"time"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/authz"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/cache"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/payment/paystack"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/pricing"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/queue"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/realtime"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/repository"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/service"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/sms"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client

	// Realtime
	Hub        *realtime.Hub
	Propagator *realtime.Propagator

	// Repositories
	OrderRepo               repository.OrderRepository
	OrderEventRepo          repository.OrderEventRepository
	PharmacyRepo            repository.PharmacyRepository
	OperatorRepo            repository.OperatorRepository
	NotificationAttemptRepo repository.NotificationAttemptRepository

	// Adapters
	PricingEngine   *pricing.Engine
	PaystackGateway *paystack.Gateway
	SMSClient       *sms.Client
	EmailService    *service.EmailService

	// Services
	AuthzService        *authz.Service
	AccessPolicy        *service.AccessPolicy
	AuthService         *service.AuthService
	NotificationService *service.NotificationService
	Dispatcher          *service.TaskDispatcher
	OrderService        *service.OrderService
	AssignmentService   *service.AssignmentService
	PaymentService      *service.PaymentService
	PharmacyService     *service.PharmacyService
}

// NewContainer 初始化容器，db 为空时使用 models.DB
func NewContainer(cfg *config.Config, db *gorm.DB) *Container {
	if db == nil {
		db = models.DB
	}

	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端，失败时通知退化为进程内后台任务
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient, _ = queue.NewClient(nil)
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
	}

	// 1. 实时推送
	c.initRealtime()

	// 2. 初始化 Repositories
	c.initRepositories()

	// 3. 初始化外部通道
	c.initAdapters()

	// 4. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRealtime() {
	c.Hub = realtime.NewHub()
	broker, err := realtime.NewBroker(c.Config.Realtime, cache.Client(), c.Hub)
	if err != nil {
		logger.Errorw("provider_init_realtime_broker_failed", "broker", c.Config.Realtime.Broker, "error", err)
		broker = realtime.NewMemoryBroker(c.Hub)
	}
	c.Propagator = realtime.NewPropagator(broker, c.Hub)
}

func (c *Container) initRepositories() {
	c.OrderRepo = repository.NewOrderRepository(c.DB, c.Propagator)
	c.OrderEventRepo = repository.NewOrderEventRepository(c.DB)
	c.PharmacyRepo = repository.NewPharmacyRepository(c.DB)
	c.OperatorRepo = repository.NewOperatorRepository(c.DB)
	c.NotificationAttemptRepo = repository.NewNotificationAttemptRepository(c.DB)
}

func (c *Container) initAdapters() {
	c.PricingEngine = pricing.NewEngine(c.Config.Pricing)
	c.PaystackGateway = paystack.NewGateway(paystack.Config{
		SecretKey: c.Config.Paystack.SecretKey,
		BaseURL:   c.Config.Paystack.BaseURL,
		Currency:  c.Config.Paystack.Currency,
		Timeout:   time.Duration(c.Config.Paystack.TimeoutMS) * time.Millisecond,
	})
	if c.Config.SMS.Enabled {
		smsCfg := sms.Config{
			BaseURL:     c.Config.SMS.BaseURL,
			APIKey:      c.Config.SMS.APIKey,
			SenderID:    c.Config.SMS.SenderID,
			CountryCode: c.Config.SMS.CountryCode,
			Timeout:     time.Duration(c.Config.SMS.TimeoutMS) * time.Millisecond,
		}
		if err := sms.ValidateConfig(&smsCfg); err != nil {
			logger.Warnw("provider_sms_config_invalid", "error", err)
		} else {
			c.SMSClient = sms.NewClient(smsCfg)
		}
	}
	c.EmailService = service.NewEmailService(&c.Config.Email)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	// 未启用的通道以 nil 接口传入，由通知服务记为渠道失败
	var smsSender service.SMSSender
	if c.SMSClient != nil {
		smsSender = c.SMSClient
	}
	var emailSender service.EmailSender
	if c.EmailService.Enabled() {
		emailSender = c.EmailService
	}

	c.AccessPolicy = service.NewAccessPolicy(c.AuthzService, c.PharmacyRepo, c.Config.Security.AdminEmails)
	c.AuthService = service.NewAuthService(c.Config, c.OperatorRepo)
	c.NotificationService = service.NewNotificationService(
		c.OrderRepo,
		c.OrderEventRepo,
		c.PharmacyRepo,
		c.NotificationAttemptRepo,
		smsSender,
		emailSender,
		c.Config.SMS.CountryCode,
		c.Config.Order.PublicBaseURL,
	)
	c.Dispatcher = service.NewTaskDispatcher(c.QueueClient, c.NotificationService)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.OrderEventRepo,
		c.PricingEngine,
		c.PaystackGateway,
		c.Dispatcher,
		c.AccessPolicy,
		c.Config.Order,
		c.Config.Paystack.Currency,
	)
	c.AssignmentService = service.NewAssignmentService(c.OrderRepo, c.OrderEventRepo, c.PharmacyRepo, c.Dispatcher, c.AccessPolicy, c.Config.Order)
	c.PaymentService = service.NewPaymentService(c.PaystackGateway, c.OrderService, c.Config.Order.WebhookDedupeHours)
	c.PharmacyService = service.NewPharmacyService(c.PharmacyRepo, c.OperatorRepo, c.AuthService, c.AuthzService, c.AccessPolicy)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if c.Propagator != nil {
		if err := c.Propagator.Close(); err != nil {
			logger.Warnw("provider_close_realtime_failed", "error", err)
		}
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
