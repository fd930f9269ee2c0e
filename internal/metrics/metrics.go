// Package metrics 记录工具调用、架构生成与阶段切换的 Prometheus 指标
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder 指标记录接口
type Recorder interface {
	// ObserveTool 记录一次工具调用
	ObserveTool(tool string, err error, duration time.Duration)

	// ObserveGeneration 记录一次架构生成
	ObserveGeneration(model string, options int, err error, duration time.Duration)

	// ObservePhase 记录一次阶段切换
	ObservePhase(from, to string)

	// ObserveChatTurn 记录一轮对话使用的步数
	ObserveChatTurn(steps int, err error)
}

// PrometheusRecorder 基于 Prometheus 的实现，使用独立的 Registry
type PrometheusRecorder struct {
	registry           *prometheus.Registry
	toolInvocations    *prometheus.CounterVec
	toolDuration       *prometheus.HistogramVec
	generationDuration *prometheus.HistogramVec
	generatedOptions   prometheus.Histogram
	phaseTransitions   *prometheus.CounterVec
	chatSteps          *prometheus.HistogramVec
}

// NewPrometheusRecorder 创建 Prometheus 指标记录器
func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		toolInvocations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cloudarchitect_tool_invocations_total",
				Help: "Total number of tool invocations by tool and status",
			},
			[]string{"tool", "status"},
		),
		toolDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cloudarchitect_tool_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		generationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cloudarchitect_architecture_generation_duration_seconds",
				Help:    "Duration of architecture generation calls in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"model", "status"},
		),
		generatedOptions: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cloudarchitect_architecture_options",
				Help:    "Number of architecture options per successful generation",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),
		phaseTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cloudarchitect_phase_transitions_total",
				Help: "Total number of session phase transitions",
			},
			[]string{"from", "to"},
		),
		chatSteps: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cloudarchitect_chat_turn_steps",
				Help:    "Model steps used per chat turn",
				Buckets: []float64{1, 2, 3, 5, 8, 15},
			},
			[]string{"status"},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveTool 记录一次工具调用
func (p *PrometheusRecorder) ObserveTool(tool string, err error, duration time.Duration) {
	p.toolInvocations.WithLabelValues(tool, status(err)).Inc()
	p.toolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// ObserveGeneration 记录一次架构生成
func (p *PrometheusRecorder) ObserveGeneration(model string, options int, err error, duration time.Duration) {
	p.generationDuration.WithLabelValues(model, status(err)).Observe(duration.Seconds())
	if err == nil {
		p.generatedOptions.Observe(float64(options))
	}
}

// ObservePhase 记录一次阶段切换
func (p *PrometheusRecorder) ObservePhase(from, to string) {
	p.phaseTransitions.WithLabelValues(from, to).Inc()
}

// ObserveChatTurn 记录一轮对话使用的步数
func (p *PrometheusRecorder) ObserveChatTurn(steps int, err error) {
	p.chatSteps.WithLabelValues(status(err)).Observe(float64(steps))
}

// Registry 返回底层 Registry
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler 返回 /metrics 处理器
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// NopRecorder 不记录任何指标
type NopRecorder struct{}

func (NopRecorder) ObserveTool(string, error, time.Duration)            {}
func (NopRecorder) ObserveGeneration(string, int, error, time.Duration) {}
func (NopRecorder) ObservePhase(string, string)                         {}
func (NopRecorder) ObserveChatTurn(int, error)                          {}
