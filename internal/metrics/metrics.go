// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StoreMetrics はストア境界サービスが使用するメトリクス収集のインターフェース。
type StoreMetrics interface {
	RecordLoadSource(source string)
	RecordLoadNotFound()
	RecordSaveSuccess(mirrored bool)
	RecordSheetsFailure(op string)
}

// HTTPMetrics はHTTPミドルウェアが使用するメトリクス収集のインターフェース。
type HTTPMetrics interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loadSource     *prometheus.CounterVec
	loadNotFound   prometheus.Counter
	saveTotal      *prometheus.CounterVec
	sheetsFailure  *prometheus.CounterVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loadSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ikitai_load_source_total",
			Help: "読み込み元ストア別のload成功数",
		}, []string{"source"}),
		loadNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ikitai_load_not_found_total",
			Help: "どのストアにもデータが存在しなかったloadの合計数",
		}),
		saveTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ikitai_save_total",
			Help: "ミラー結果別のsave成功数",
		}, []string{"mirrored"}),
		sheetsFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ikitai_sheets_failure_total",
			Help: "Sheetsミラーの操作別失敗数",
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ikitai_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ikitai_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loadSource,
		c.loadNotFound,
		c.saveTotal,
		c.sheetsFailure,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLoadSource は読み込み元ストア（sheets/file）別にload成功を記録する。
func (c *Collector) RecordLoadSource(source string) {
	c.loadSource.WithLabelValues(source).Inc()
}

// RecordLoadNotFound はデータ未検出のloadを記録する。
func (c *Collector) RecordLoadNotFound() {
	c.loadNotFound.Inc()
}

// RecordSaveSuccess はsave成功をミラー結果別に記録する。
func (c *Collector) RecordSaveSuccess(mirrored bool) {
	c.saveTotal.WithLabelValues(strconv.FormatBool(mirrored)).Inc()
}

// RecordSheetsFailure はSheetsミラーの失敗を操作別（load/save）に記録する。
func (c *Collector) RecordSheetsFailure(op string) {
	c.sheetsFailure.WithLabelValues(op).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
