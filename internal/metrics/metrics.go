// Package metrics provides Prometheus instrumentation for the coin engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts total trades executed, partitioned by type.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_trades_total",
		Help: "Total number of trades executed",
	}, []string{"type"})

	// TradeLatency tracks trade execution latency by type.
	TradeLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mlt_trade_latency_seconds",
		Help:    "Trade execution latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	// ActiveCoins tracks the number of actively trading coins.
	ActiveCoins = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mlt_active_coins",
		Help: "Number of coins currently trading on the curve",
	})

	// GraduatedCoins counts coins that reached full curve progress.
	GraduatedCoins = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlt_graduated_coins_total",
		Help: "Coins that sold out their bonding curve",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mlt_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mlt_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})

	// PositionLimitRejections counts trades rejected by the position limiter.
	PositionLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mlt_position_limit_rejections_total",
		Help: "Trades rejected by position limiter",
	})

	// CoinVolume tracks cumulative trade volume (tokens) per coin.
	CoinVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mlt_coin_volume_total",
		Help: "Cumulative trade volume in tokens",
	}, []string{"coin_id", "type"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
