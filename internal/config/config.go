package config

import (
	"fmt"
	"strings"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Email    EmailConfig    `mapstructure:"email"`
	SMS      SMSConfig      `mapstructure:"sms"`
	Paystack PaystackConfig `mapstructure:"paystack"`
	Order    OrderConfig    `mapstructure:"order"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres/mysql）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AdminEmails       []string        `mapstructure:"admin_emails"` // 管理员邮箱白名单
	LoginRateLimit    RateLimitConfig `mapstructure:"login_rate_limit"`
	CheckoutRateLimit RateLimitConfig `mapstructure:"checkout_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// EmailConfig 邮件服务配置
type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
	UseTLS   bool   `mapstructure:"use_tls"`
	UseSSL   bool   `mapstructure:"use_ssl"`
}

// SMSConfig 短信网关配置
type SMSConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BaseURL     string `mapstructure:"base_url"`
	APIKey      string `mapstructure:"api_key"`
	SenderID    string `mapstructure:"sender_id"`
	CountryCode string `mapstructure:"country_code"` // 本地号码前导 0 替换为该国家码
	TimeoutMS   int    `mapstructure:"timeout_ms"`
}

// PaystackConfig 支付网关配置
type PaystackConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	BaseURL   string `mapstructure:"base_url"`
	Currency  string `mapstructure:"currency"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

// OrderConfig 订单配置
type OrderConfig struct {
	PublicBaseURL       string `mapstructure:"public_base_url"` // 生成追踪链接与支付回调地址
	TrackingSMSEnabled  bool   `mapstructure:"tracking_sms_enabled"`
	MinPhoneLength      int    `mapstructure:"min_phone_length"`
	MinOtherAreaLength  int    `mapstructure:"min_other_area_length"`
	TrackingCodeRetries int    `mapstructure:"tracking_code_retries"`
	WebhookDedupeHours  int    `mapstructure:"webhook_dedupe_hours"`
}

// PricingConfig 定价配置
type PricingConfig struct {
	DefaultDeliveryFee float64        `mapstructure:"default_delivery_fee"` // 未列出的配送区域使用
	Campuses           []CampusConfig `mapstructure:"campuses"`
}

// CampusConfig 校区配送配置
type CampusConfig struct {
	Name             string  `mapstructure:"name"`
	DeliveryFee      float64 `mapstructure:"delivery_fee"`
	DeliveryDiscount float64 `mapstructure:"delivery_discount"` // 配送费减免，最多减免至 0
	StudentPricing   bool    `mapstructure:"student_pricing"`   // 是否适用学生价
}

// RealtimeConfig 实时推送配置
type RealtimeConfig struct {
	Broker              string   `mapstructure:"broker"` // memory / redis / kafka
	Channel             string   `mapstructure:"channel"`
	PollIntervalSeconds int      `mapstructure:"poll_interval_seconds"`
	KafkaBrokers        []string `mapstructure:"kafka_brokers"`
	KafkaTopic          string   `mapstructure:"kafka_topic"`
	KafkaGroupID        string   `mapstructure:"kafka_group_id"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/discreetkit.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "dk")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.admin_emails", []string{})
	v.SetDefault("security.login_rate_limit.window_seconds", 300)
	v.SetDefault("security.login_rate_limit.max_attempts", 5)
	v.SetDefault("security.login_rate_limit.block_seconds", 900)
	v.SetDefault("security.checkout_rate_limit.window_seconds", 60)
	v.SetDefault("security.checkout_rate_limit.max_attempts", 10)
	v.SetDefault("security.checkout_rate_limit.block_seconds", 300)
	v.SetDefault("email.enabled", false)
	v.SetDefault("email.host", "")
	v.SetDefault("email.port", 587)
	v.SetDefault("email.username", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.from", "")
	v.SetDefault("email.from_name", "DiscreetKit")
	v.SetDefault("email.use_tls", true)
	v.SetDefault("email.use_ssl", false)
	v.SetDefault("sms.enabled", false)
	v.SetDefault("sms.base_url", "")
	v.SetDefault("sms.api_key", "")
	v.SetDefault("sms.sender_id", "DiscreetKit")
	v.SetDefault("sms.country_code", "233")
	v.SetDefault("sms.timeout_ms", 12000)
	v.SetDefault("paystack.secret_key", "")
	v.SetDefault("paystack.base_url", "https://api.paystack.co")
	v.SetDefault("paystack.currency", "GHS")
	v.SetDefault("paystack.timeout_ms", 12000)
	v.SetDefault("order.public_base_url", "http://localhost:3000")
	v.SetDefault("order.tracking_sms_enabled", true)
	v.SetDefault("order.min_phone_length", 9)
	v.SetDefault("order.min_other_area_length", 3)
	v.SetDefault("order.tracking_code_retries", 5)
	v.SetDefault("order.webhook_dedupe_hours", 24)
	v.SetDefault("pricing.default_delivery_fee", 15.00)
	v.SetDefault("pricing.campuses", []map[string]interface{}{
		{"name": "University of Ghana (Legon)", "delivery_fee": 10.00, "delivery_discount": 10.00, "student_pricing": true},
		{"name": "KNUST", "delivery_fee": 15.00, "delivery_discount": 0, "student_pricing": true},
		{"name": "University of Cape Coast", "delivery_fee": 15.00, "delivery_discount": 0, "student_pricing": true},
		{"name": "Ashesi University", "delivery_fee": 15.00, "delivery_discount": 0, "student_pricing": true},
		{"name": "University of Professional Studies", "delivery_fee": 12.00, "delivery_discount": 0, "student_pricing": true},
	})
	v.SetDefault("realtime.broker", "memory")
	v.SetDefault("realtime.channel", "order_changes")
	v.SetDefault("realtime.poll_interval_seconds", 60)
	v.SetDefault("realtime.kafka_brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("realtime.kafka_topic", "order-changes")
	v.SetDefault("realtime.kafka_group_id", "")
}
