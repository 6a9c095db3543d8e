package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 情感模型调用延迟（毫秒）
	SentimentModelLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentiment_model_latency_ms",
			Help:    "External sentiment model call latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(50, 2, 10), // 50ms to ~25s
		},
		[]string{"provider", "status"},
	)

	// 情感分析计数
	SentimentAnalysisCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentiment_analysis_count",
			Help: "Total number of sentiment analyses stored",
		},
		[]string{"method", "label"}, // method: huggingface, openai, fallback
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
		[]string{"statement"},
	)

	// 慢查询耗时（秒）
	SlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		},
	)

	// 进度重算计数
	ProgressRecalculationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_progress_recalculation_count",
			Help: "Total number of project progress recalculations",
		},
		[]string{"trigger"}, // trigger: timeline_add, timeline_update
	)

	// 提交询盘计数
	InquirySubmittedCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inquiry_submitted_count",
			Help: "Total number of inquiries submitted",
		},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordSentimentModelLatency 记录模型调用延迟
func RecordSentimentModelLatency(provider, status string, duration time.Duration) {
	SentimentModelLatency.WithLabelValues(provider, status).Observe(float64(duration.Milliseconds()))
}

// IncrementSentimentAnalysis 增加情感分析计数
func IncrementSentimentAnalysis(method, label string) {
	SentimentAnalysisCount.WithLabelValues(method, label).Inc()
}

// IncrementSlowQuery 记录慢查询
func IncrementSlowQuery(statement string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(statement).Inc()
	SlowQueryDuration.Observe(duration.Seconds())
}

// IncrementProgressRecalculation 增加进度重算计数
func IncrementProgressRecalculation(trigger string) {
	ProgressRecalculationCount.WithLabelValues(trigger).Inc()
}

// GinMiddleware 按路由模板记录请求延迟
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		RecordHTTPRequestDuration(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
