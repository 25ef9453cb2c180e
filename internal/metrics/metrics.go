package metrics

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	initOnce sync.Once

	// HTTPRequests HTTP 请求计数
	HTTPRequests *prometheus.CounterVec
	// HTTPDuration HTTP 请求耗时（毫秒）
	HTTPDuration *prometheus.HistogramVec
	// CheckoutTotal 结算结果计数
	CheckoutTotal *prometheus.CounterVec
	// CheckoutDuration 结算耗时（毫秒）
	CheckoutDuration *prometheus.HistogramVec
	// OrdersCreated 按支付方式统计的创建订单数
	OrdersCreated *prometheus.CounterVec
	// ShippingRequests 承运商调用计数
	ShippingRequests *prometheus.CounterVec
	// ShippingDuration 承运商调用耗时（毫秒）
	ShippingDuration *prometheus.HistogramVec
	// BreakerState 熔断器状态（0 关闭 / 1 半开 / 2 打开）
	BreakerState *prometheus.GaugeVec
	// TrackingSyncUpdates 物流状态同步结果计数
	TrackingSyncUpdates *prometheus.CounterVec
	// PaymentCallbacks 支付回调处理计数
	PaymentCallbacks *prometheus.CounterVec
)

var defaultBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

// Init 注册全部业务指标，重复调用只注册一次
func Init(namespace string, reg prometheus.Registerer) {
	initOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		namespace = strings.TrimSpace(namespace)

		HTTPRequests = registerCounter(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}))
		HTTPDuration = registerHistogram(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   defaultBuckets,
		}, []string{"method", "route"}))
		CheckoutTotal = registerCounter(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Checkout attempts partitioned by operation and result.",
		}, []string{"operation", "result"}))
		CheckoutDuration = registerHistogram(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_duration_ms",
			Help:      "Checkout latency distribution in milliseconds.",
			Buckets:   defaultBuckets,
		}, []string{"operation"}))
		OrdersCreated = registerCounter(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_orders_created_total",
			Help:      "Sales orders created partitioned by payment method.",
		}, []string{"payment_method"}))
		ShippingRequests = registerCounter(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipping_requests_total",
			Help:      "Carrier API calls partitioned by operation and result.",
		}, []string{"operation", "result"}))
		ShippingDuration = registerHistogram(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "shipping_request_duration_ms",
			Help:      "Carrier API latency distribution in milliseconds.",
			Buckets:   defaultBuckets,
		}, []string{"operation"}))
		BreakerState = registerGauge(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state per target (0 closed, 1 half-open, 2 open).",
		}, []string{"target"}))
		TrackingSyncUpdates = registerCounter(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracking_sync_orders_total",
			Help:      "Tracking orders processed by status sync partitioned by outcome.",
		}, []string{"outcome"}))
		PaymentCallbacks = registerCounter(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_callbacks_total",
			Help:      "Payment gateway callbacks partitioned by gateway and result.",
		}, []string{"gateway", "result"}))
	})
}

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, route, status string, d time.Duration) {
	if HTTPRequests == nil {
		return
	}
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(DurationMillis(d))
}

// ObserveCheckout 记录一次结算或预览
func ObserveCheckout(operation, result string, d time.Duration) {
	if CheckoutTotal == nil {
		return
	}
	CheckoutTotal.WithLabelValues(operation, result).Inc()
	CheckoutDuration.WithLabelValues(operation).Observe(DurationMillis(d))
}

// AddOrdersCreated 累加创建的订单数
func AddOrdersCreated(paymentMethod string, n int) {
	if OrdersCreated == nil || n <= 0 {
		return
	}
	OrdersCreated.WithLabelValues(paymentMethod).Add(float64(n))
}

// ObserveShipping 记录一次承运商调用
func ObserveShipping(operation string, err error, d time.Duration) {
	if ShippingRequests == nil {
		return
	}
	ShippingRequests.WithLabelValues(operation, resultLabel(err)).Inc()
	ShippingDuration.WithLabelValues(operation).Observe(DurationMillis(d))
}

// SetBreakerState 更新熔断器状态
func SetBreakerState(target string, state float64) {
	if BreakerState == nil {
		return
	}
	BreakerState.WithLabelValues(target).Set(state)
}

// IncTrackingSync 记录物流同步结果
func IncTrackingSync(outcome string) {
	if TrackingSyncUpdates == nil {
		return
	}
	TrackingSyncUpdates.WithLabelValues(outcome).Inc()
}

// IncPaymentCallback 记录支付回调结果
func IncPaymentCallback(gateway string, err error) {
	if PaymentCallbacks == nil {
		return
	}
	PaymentCallbacks.WithLabelValues(gateway, resultLabel(err)).Inc()
}

// DurationMillis 将耗时转换为毫秒
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

func registerHistogram(reg prometheus.Registerer, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return h
}

func registerGauge(reg prometheus.Registerer, g *prometheus.GaugeVec) *prometheus.GaugeVec {
	if err := reg.Register(g); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return g
}
