package config

import (
	"fmt"
	"strings"

	"github.com/bazaar-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	UserJWT  JWTConfig      `mapstructure:"user_jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Order    OrderConfig    `mapstructure:"order"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Shipping ShippingConfig `mapstructure:"shipping"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Authz    AuthzConfig    `mapstructure:"authz"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                     string `mapstructure:"host"`
	Port                     string `mapstructure:"port"`
	Mode                     string `mapstructure:"mode"` // debug / release
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds"`
	WriteTimeoutSeconds      int    `mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds       int    `mapstructure:"idle_timeout_seconds"`
	ShutdownTimeoutSeconds   int    `mapstructure:"shutdown_timeout_seconds"`
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
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Debug  bool               `mapstructure:"debug"`  // 输出 SQL 日志
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置（令牌由身份服务签发，本服务只校验）
type JWTConfig struct {
	SecretKey string `mapstructure:"secret"`
	Issuer    string `mapstructure:"issuer"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	Host                string `mapstructure:"host"`
	Port                int    `mapstructure:"port"`
	Password            string `mapstructure:"password"`
	DB                  int    `mapstructure:"db"`
	Prefix              string `mapstructure:"prefix"`
	WardCacheTTLSeconds int    `mapstructure:"ward_cache_ttl_seconds"`
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
	CheckoutRateLimit RateLimitConfig `mapstructure:"checkout_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// OrderConfig 订单配置
type OrderConfig struct {
	PaymentExpireMinutes    int    `mapstructure:"payment_expire_minutes"`
	TrackingSyncCron        string `mapstructure:"tracking_sync_cron"`
	TrackingSyncConcurrency int    `mapstructure:"tracking_sync_concurrency"`
}

// CheckoutConfig 结算配置
type CheckoutConfig struct {
	LockTTLSeconds     int `mapstructure:"lock_ttl_seconds"`
	PreviewConcurrency int `mapstructure:"preview_concurrency"`
}

// ShippingConfig 物流承运商配置
type ShippingConfig struct {
	Provider      string        `mapstructure:"provider"` // ghn / static
	BaseURL       string        `mapstructure:"base_url"`
	Token         string        `mapstructure:"token"`
	ShopID        int           `mapstructure:"shop_id"`
	ServiceTypeID int           `mapstructure:"service_type_id"`
	TimeoutMS     int           `mapstructure:"timeout_ms"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	BackoffMS     int           `mapstructure:"backoff_ms"`
	StaticFee     int64         `mapstructure:"static_fee"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	MinRequests  int     `mapstructure:"min_requests"`
	FailureRatio float64 `mapstructure:"failure_ratio"`
	OpenSeconds  int     `mapstructure:"open_seconds"`
}

// PaymentConfig 支付网关配置
type PaymentConfig struct {
	TimeoutMS int          `mapstructure:"timeout_ms"`
	VNPay     VNPayConfig  `mapstructure:"vnpay"`
	Wechat    WechatConfig `mapstructure:"wechat"`
}

// VNPayConfig VNPay 配置
type VNPayConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	TmnCode    string `mapstructure:"tmn_code"`
	HashSecret string `mapstructure:"hash_secret"`
	PayURL     string `mapstructure:"pay_url"`
	ReturnURL  string `mapstructure:"return_url"`
	Locale     string `mapstructure:"locale"`
}

// WechatConfig 微信支付配置
type WechatConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	AppID              string `mapstructure:"appid"`
	MerchantID         string `mapstructure:"mchid"`
	MerchantSerialNo   string `mapstructure:"merchant_serial_no"`
	MerchantPrivateKey string `mapstructure:"merchant_private_key"`
	APIV3Key           string `mapstructure:"api_v3_key"`
	NotifyURL          string `mapstructure:"notify_url"`
	BaseURL            string `mapstructure:"base_url"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// AuthzConfig 授权配置
type AuthzConfig struct {
	AdminUserIDs []uint `mapstructure:"admin_user_ids"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("./")    // 备用路径
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	SetDefaults(viper.GetViper())

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

// SetDefaults 写入全部默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_header_timeout_seconds", 5)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "bazaar.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/bazaar.db")
	v.SetDefault("database.debug", false)
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.issuer", "")
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "bz")
	v.SetDefault("redis.ward_cache_ttl_seconds", 3600)
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
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.checkout_rate_limit.window_seconds", 60)
	v.SetDefault("security.checkout_rate_limit.max_requests", 10)
	v.SetDefault("order.payment_expire_minutes", 15)
	v.SetDefault("order.tracking_sync_cron", "@every 10m")
	v.SetDefault("order.tracking_sync_concurrency", 8)
	v.SetDefault("checkout.lock_ttl_seconds", 30)
	v.SetDefault("checkout.preview_concurrency", 4)
	v.SetDefault("shipping.provider", "static")
	v.SetDefault("shipping.base_url", "https://dev-online-gateway.ghn.vn/shiip/public-api")
	v.SetDefault("shipping.token", "")
	v.SetDefault("shipping.shop_id", 0)
	v.SetDefault("shipping.service_type_id", 2)
	v.SetDefault("shipping.timeout_ms", 5000)
	v.SetDefault("shipping.max_attempts", 3)
	v.SetDefault("shipping.backoff_ms", 200)
	v.SetDefault("shipping.static_fee", 30000)
	v.SetDefault("shipping.breaker.min_requests", 10)
	v.SetDefault("shipping.breaker.failure_ratio", 0.5)
	v.SetDefault("shipping.breaker.open_seconds", 30)
	v.SetDefault("payment.timeout_ms", 10000)
	v.SetDefault("payment.vnpay.enabled", false)
	v.SetDefault("payment.vnpay.tmn_code", "")
	v.SetDefault("payment.vnpay.hash_secret", "")
	v.SetDefault("payment.vnpay.pay_url", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html")
	v.SetDefault("payment.vnpay.return_url", "")
	v.SetDefault("payment.vnpay.locale", "vn")
	v.SetDefault("payment.wechat.enabled", false)
	v.SetDefault("payment.wechat.base_url", "https://api.mch.weixin.qq.com")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "bazaar")
	v.SetDefault("authz.admin_user_ids", []uint{})
}
