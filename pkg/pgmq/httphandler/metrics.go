package httphandler

import (
	"context"
	"net/http"
	"time"

	// Packages
	httpresponse "github.com/mutablelogic/go-server/pkg/httpresponse"
	prometheus "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

///////////////////////////////////////////////////////////////////////////////
// CONSTANTS

const (
	metricsTimeout = 30 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type metrics struct {
	manager       Manager
	queueLength   *prometheus.Desc
	queueMessages *prometheus.Desc
	oldestAge     *prometheus.Desc
	newestAge     *prometheus.Desc
	poolMax       *prometheus.Desc
	poolTotal     *prometheus.Desc
	poolIdle      *prometheus.Desc
	poolAcquired  *prometheus.Desc
	poolAcquires  *prometheus.Desc
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// RegisterMetricsHandler registers a HTTP handler for prometheus metrics
// on the provided router with the given path prefix. The manager must be non-nil.
func RegisterMetricsHandler(router *http.ServeMux, prefix string, manager Manager, middleware HTTPMiddlewareFuncs) {
	if manager == nil {
		panic("manager is nil")
	}

	// Create a prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(newMetrics(manager))
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Create a handler for metrics
	router.HandleFunc(joinPath(prefix, "metrics"), middleware.Wrap(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			handler.ServeHTTP(w, r)
		default:
			_ = httpresponse.Error(w, httpresponse.Err(http.StatusMethodNotAllowed), r.Method)
		}
	}))
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS - COLLECTOR

// Describe sends metric descriptors to the channel
func (m *metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.queueLength
	ch <- m.queueMessages
	ch <- m.oldestAge
	ch <- m.newestAge
	ch <- m.poolMax
	ch <- m.poolTotal
	ch <- m.poolIdle
	ch <- m.poolAcquired
	ch <- m.poolAcquires
}

// Collect fetches metrics from the database and sends them to the channel
func (m *metrics) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsTimeout)
	defer cancel()

	if err := m.collectQueueStats(ctx, ch); err != nil {
		ch <- prometheus.NewInvalidMetric(m.queueLength, err)
	}
	m.collectPoolStats(ch)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func newMetrics(manager Manager) *metrics {
	labels := []string{"queue"}
	return &metrics{
		manager:       manager,
		queueLength:   prometheus.NewDesc("pgmq_queue_length", "Number of active messages in each queue", labels, nil),
		queueMessages: prometheus.NewDesc("pgmq_queue_messages_total", "Number of messages ever sent to each queue", labels, nil),
		oldestAge:     prometheus.NewDesc("pgmq_queue_oldest_msg_age_seconds", "Age of the oldest active message in each queue", labels, nil),
		newestAge:     prometheus.NewDesc("pgmq_queue_newest_msg_age_seconds", "Age of the newest active message in each queue", labels, nil),
		poolMax:       prometheus.NewDesc("pgmq_pool_max_conns", "Maximum size of the connection pool", nil, nil),
		poolTotal:     prometheus.NewDesc("pgmq_pool_total_conns", "Number of connections in the pool", nil, nil),
		poolIdle:      prometheus.NewDesc("pgmq_pool_idle_conns", "Number of idle connections in the pool", nil, nil),
		poolAcquired:  prometheus.NewDesc("pgmq_pool_acquired_conns", "Number of connections in use", nil, nil),
		poolAcquires:  prometheus.NewDesc("pgmq_pool_acquires_total", "Number of successful connection acquires", nil, nil),
	}
}

func (m *metrics) collectQueueStats(ctx context.Context, ch chan<- prometheus.Metric) error {
	stats, err := m.manager.ListQueueStats(ctx)
	if err != nil {
		return err
	}

	for _, s := range stats {
		ch <- prometheus.MustNewConstMetric(m.queueLength, prometheus.GaugeValue, float64(s.QueueLength), s.Queue)
		ch <- prometheus.MustNewConstMetric(m.queueMessages, prometheus.CounterValue, float64(s.TotalMessages), s.Queue)

		// Ages are absent when the queue is empty
		if s.OldestMsgAgeSec != nil {
			ch <- prometheus.MustNewConstMetric(m.oldestAge, prometheus.GaugeValue, float64(*s.OldestMsgAgeSec), s.Queue)
		}
		if s.NewestMsgAgeSec != nil {
			ch <- prometheus.MustNewConstMetric(m.newestAge, prometheus.GaugeValue, float64(*s.NewestMsgAgeSec), s.Queue)
		}
	}

	return nil
}

func (m *metrics) collectPoolStats(ch chan<- prometheus.Metric) {
	stat := m.manager.Stat()
	if stat == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(m.poolMax, prometheus.GaugeValue, float64(stat.MaxConns()))
	ch <- prometheus.MustNewConstMetric(m.poolTotal, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(m.poolIdle, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(m.poolAcquired, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(m.poolAcquires, prometheus.CounterValue, float64(stat.AcquireCount()))
}
