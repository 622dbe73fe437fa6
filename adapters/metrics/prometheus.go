// Package metrics exposes prometheus collectors for the API and decorators
// that record LLM and article fetch outcomes.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/endo-ava/link-persona-bot/domain"
)

const namespace = "linkpersona"

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	llmRequests  *prometheus.CounterVec
	llmDuration  prometheus.Histogram
	articleFetch *prometheus.CounterVec
	summaries    *prometheus.CounterVec
	feedClients  prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "status"},
		),
		llmRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_requests_total",
				Help:      "LLM completions by outcome",
			},
			[]string{"outcome"},
		),
		llmDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Duration of LLM completions",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
		),
		articleFetch: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "article_fetch_total",
				Help:      "Article fetches by outcome",
			},
			[]string{"outcome"},
		),
		summaries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "summaries_total",
				Help:      "Generated summaries by persona",
			},
			[]string{"persona"},
		),
		feedClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "feed_clients",
				Help:      "Connected summary feed websocket clients",
			},
		),
	}
	m.registry.MustRegister(
		m.httpRequests,
		m.llmRequests,
		m.llmDuration,
		m.articleFetch,
		m.summaries,
		m.feedClients,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts every request by its route pattern.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.httpRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			return err
		}
	}
}

func (m *Metrics) SummaryCreated(personaID string) {
	m.summaries.WithLabelValues(personaID).Inc()
}

func (m *Metrics) FeedClientConnected()    { m.feedClients.Inc() }
func (m *Metrics) FeedClientDisconnected() { m.feedClients.Dec() }

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

type instrumentedLlm struct {
	next    domain.Llm
	metrics *Metrics
}

// InstrumentLlm records the outcome and duration of every completion.
func (m *Metrics) InstrumentLlm(next domain.Llm) domain.Llm {
	return &instrumentedLlm{next: next, metrics: m}
}

func (l *instrumentedLlm) Complete(ctx context.Context, messages []domain.ChatMessage, opts domain.CompletionOptions) (string, error) {
	start := time.Now()
	text, err := l.next.Complete(ctx, messages, opts)
	l.metrics.llmDuration.Observe(time.Since(start).Seconds())
	l.metrics.llmRequests.WithLabelValues(outcome(err)).Inc()
	return text, err
}

type instrumentedFetcher struct {
	next    domain.ArticleFetcher
	metrics *Metrics
}

// InstrumentFetcher counts article fetches by outcome.
func (m *Metrics) InstrumentFetcher(next domain.ArticleFetcher) domain.ArticleFetcher {
	return &instrumentedFetcher{next: next, metrics: m}
}

func (f *instrumentedFetcher) Fetch(ctx context.Context, url string) (domain.Article, error) {
	a, err := f.next.Fetch(ctx, url)
	f.metrics.articleFetch.WithLabelValues(outcome(err)).Inc()
	return a, err
}
