package filters

import (
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"net/http"
	"strconv"
	"time"
)

type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests handled by the gateway.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time spent handling gateway requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
	metrics.registry.MustRegister(metrics.requests, metrics.duration)
	return metrics
}

func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})
}

func (metrics *Metrics) Registry() *prometheus.Registry {
	return metrics.registry
}

// MetricsFilter counts requests of one router.
type MetricsFilter struct {
	next    *common.RequestHandler
	Name    string
	Route   string
	metrics *Metrics
}

func NewMetricsFilter(name string, route string, metrics *Metrics) *MetricsFilter {
	if metrics == nil {
		panic("Metrics are required to create MetricsFilter")
	}
	return &MetricsFilter{
		Name:    name,
		Route:   route,
		metrics: metrics,
	}
}

func (filter *MetricsFilter) SetNext(nextHandler common.RequestHandler) {
	filter.next = &nextHandler
}

func (filter *MetricsFilter) Handle(log *logrus.Entry, writer http.ResponseWriter, request *http.Request) {
	log = log.WithField("filterName", filter.Name)
	if filter.next == nil {
		log.Debugf("Metrics filter: %v doesn't have next handler", filter.Name)
		return
	}
	start := time.Now()
	recorder := newStatusRecorder(writer)
	(*filter.next).Handle(log, recorder, request)

	filter.metrics.requests.
		WithLabelValues(filter.Route, request.Method, strconv.Itoa(recorder.status)).
		Inc()
	filter.metrics.duration.
		WithLabelValues(filter.Route, request.Method).
		Observe(time.Since(start).Seconds())
}
