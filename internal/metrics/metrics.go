// Package metrics 提供Prometheus监控指标
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry 指标注册表
type Registry struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	scheduleRuns    *prometheus.CounterVec
	scheduleTime    *prometheus.HistogramVec
	ruleRejections  *prometheus.CounterVec
	assignmentsMade prometheus.Counter
	shortfallSeats  prometheus.Gauge
	coverageRate    prometheus.Gauge
	fairnessGini    *prometheus.GaugeVec
	dbConnections   *prometheus.GaugeVec
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Get 获取全局注册表
func Get() *Registry {
	once.Do(func() {
		defaultRegistry = newRegistry()
	})
	return defaultRegistry
}

func newRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paigong_http_requests_total",
			Help: "HTTP请求总数",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paigong_http_request_duration_seconds",
			Help:    "HTTP请求延迟",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method", "path"}),
		scheduleRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paigong_schedule_runs_total",
			Help: "排班运行次数",
		}, []string{"status"}),
		scheduleTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paigong_schedule_run_duration_seconds",
			Help:    "排班运行耗时",
			Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		}, []string{"status"}),
		ruleRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paigong_rule_rejections_total",
			Help: "硬规则拒绝候选次数",
		}, []string{"rule"}),
		assignmentsMade: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paigong_assignments_total",
			Help: "引擎产出的分配总数",
		}),
		shortfallSeats: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "paigong_shortfall_seats",
			Help: "最近一次运行的缺口人次",
		}),
		coverageRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "paigong_coverage_rate",
			Help: "最近一次运行的覆盖率",
		}),
		fairnessGini: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "paigong_fairness_gini",
			Help: "公平性基尼系数",
		}, []string{"metric_type"}),
		dbConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "paigong_db_connections",
			Help: "数据库连接数",
		}, []string{"state"}),
	}

	reg.MustRegister(
		r.httpRequests,
		r.httpDuration,
		r.scheduleRuns,
		r.scheduleTime,
		r.ruleRejections,
		r.assignmentsMade,
		r.shortfallSeats,
		r.coverageRate,
		r.fairnessGini,
		r.dbConnections,
	)

	return r
}

// Handler 返回Prometheus格式的指标HTTP处理器
func Handler() http.Handler {
	return promhttp.HandlerFor(Get().registry, promhttp.HandlerOpts{})
}

// RecordRequest 记录HTTP请求指标
func RecordRequest(method, path string, status int, duration time.Duration) {
	r := Get()
	r.httpRequests.WithLabelValues(method, path, fmt.Sprintf("%d", status)).Inc()
	r.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordScheduleRun 记录一次排班运行
func RecordScheduleRun(success bool, duration time.Duration, assignments, shortfall int) {
	r := Get()

	status := "success"
	if !success {
		status = "failure"
	}

	r.scheduleRuns.WithLabelValues(status).Inc()
	r.scheduleTime.WithLabelValues(status).Observe(duration.Seconds())
	r.assignmentsMade.Add(float64(assignments))
	r.shortfallSeats.Set(float64(shortfall))
}

// RecordRuleRejection 记录硬规则拒绝候选
func RecordRuleRejection(rule string) {
	Get().ruleRejections.WithLabelValues(rule).Inc()
}

// SetCoverageRate 设置最近一次运行的覆盖率
func SetCoverageRate(rate float64) {
	Get().coverageRate.Set(rate)
}

// SetFairnessGini 设置公平性基尼系数
func SetFairnessGini(metricType string, gini float64) {
	Get().fairnessGini.WithLabelValues(metricType).Set(gini)
}

// SetDBConnections 设置数据库连接数
func SetDBConnections(open, idle, inUse int) {
	r := Get()
	r.dbConnections.WithLabelValues("open").Set(float64(open))
	r.dbConnections.WithLabelValues("idle").Set(float64(idle))
	r.dbConnections.WithLabelValues("in_use").Set(float64(inUse))
}
