// ABOUTME: Prometheus request metrics and the guarded /metrics endpoint
// ABOUTME: Counts HTTP requests by method, path, and status code

package gateway

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	counterVecs = make(map[string]*prometheus.CounterVec)
	counterLock sync.Mutex
)

// buildCounterVec returns a registered counter vec, reusing an existing one
// for the same name. Registration conflicts across Gateway instances (as in
// tests) resolve to the already-registered collector.
func buildCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	counterLock.Lock()
	defer counterLock.Unlock()

	if cv, ok := counterVecs[name]; ok {
		return cv
	}

	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pepper",
		Name:      name,
		Help:      help,
	}, labels)

	if err := prometheus.Register(cv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cv = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}

	counterVecs[name] = cv
	return cv
}

// requestMetrics tracks HTTP request counts.
type requestMetrics struct {
	total *prometheus.CounterVec
}

func newRequestMetrics() *requestMetrics {
	return &requestMetrics{
		total: buildCounterVec("http_requests_total", "Total HTTP requests handled", []string{"method", "path", "code"}),
	}
}

// statusRecorder captures the response status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument wraps a handler with request counting.
func (m *requestMetrics) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.total.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rec.status)).Inc()
	})
}

// metricsHandler serves the Prometheus scrape endpoint. When a token is
// configured, scrapers must present it as a bearer credential.
type metricsHandler struct {
	token string
}

func (h *metricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.token != "" {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") ||
			strings.TrimPrefix(authHeader, "Bearer ") != h.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
	}

	promhttp.Handler().ServeHTTP(w, r)
}
