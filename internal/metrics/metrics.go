package metrics

import (
	"context"
	"fmt"
	"time"

	"PairTrader/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus metrics for the trader. They live in a
// private registry and leave the process only through Push.
type Metrics struct {
	Registry *prometheus.Registry

	CyclesTotal    *prometheus.CounterVec // labels: outcome
	OrdersTotal    *prometheus.CounterVec // labels: side, result
	CycleDur       prometheus.Histogram
	PersistRetries prometheus.Counter

	PositionLong  prometheus.Gauge
	Price         prometheus.Gauge
	RSI           prometheus.Gauge
	EMASpread     prometheus.Gauge
	LastCycleTime prometheus.Gauge

	pusher *push.Pusher
}

// NewMetrics registers and returns all metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairtrader_cycles_total",
			Help: "Poll cycles by outcome",
		}, []string{"outcome"}),
		OrdersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pairtrader_orders_total",
			Help: "Market orders by side and result",
		}, []string{"side", "result"}),
		CycleDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pairtrader_cycle_duration_seconds",
			Help:    "Wall time of one poll cycle",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PersistRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pairtrader_position_persist_retries_total",
			Help: "Failed position save attempts that were retried",
		}),
		PositionLong: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pairtrader_position_long",
			Help: "1 when the position is LONG, 0 when FLAT",
		}),
		Price: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pairtrader_price",
			Help: "Latest trade price",
		}),
		RSI: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pairtrader_rsi",
			Help: "Latest RSI",
		}),
		EMASpread: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pairtrader_ema_spread",
			Help: "Short EMA minus long EMA",
		}),
		LastCycleTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pairtrader_last_cycle_timestamp_seconds",
			Help: "Unix time of the last completed cycle",
		}),
	}

	m.Registry.MustRegister(
		m.CyclesTotal,
		m.OrdersTotal,
		m.CycleDur,
		m.PersistRetries,
		m.PositionLong,
		m.Price,
		m.RSI,
		m.EMASpread,
		m.LastCycleTime,
	)
	return m
}

// EnablePush configures pushing to a Prometheus Pushgateway. The symbol is
// attached as a grouping label so several traders can share one gateway.
func (m *Metrics) EnablePush(url, job, symbol string) {
	if url == "" {
		return
	}
	m.pusher = push.New(url, job).Gatherer(m.Registry).Grouping("symbol", symbol)
}

// Push sends the current values to the Pushgateway; a no-op when push is
// not configured.
func (m *Metrics) Push(ctx context.Context) error {
	if m == nil || m.pusher == nil {
		return nil
	}
	if err := m.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// ObserveCycle records a finished cycle.
func (m *Metrics) ObserveCycle(outcome string, dur time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.CyclesTotal.WithLabelValues(outcome).Inc()
	m.CycleDur.Observe(dur.Seconds())
	m.LastCycleTime.Set(float64(at.Unix()))
}

// SetMarket records the latest observed market values.
func (m *Metrics) SetMarket(price float64, s model.IndicatorSnapshot) {
	if m == nil {
		return
	}
	m.Price.Set(price)
	m.RSI.Set(s.RSI)
	if s.HasEMA {
		m.EMASpread.Set(s.EMAShort - s.EMALong)
	}
}

// SetPosition records the current position side.
func (m *Metrics) SetPosition(side model.PositionSide) {
	if m == nil {
		return
	}
	if side == model.Long {
		m.PositionLong.Set(1)
	} else {
		m.PositionLong.Set(0)
	}
}

// ObserveOrder counts an order attempt by side and result.
func (m *Metrics) ObserveOrder(side model.Side, result string) {
	if m == nil {
		return
	}
	m.OrdersTotal.WithLabelValues(string(side), result).Inc()
}

// AddPersistRetries counts retried position saves.
func (m *Metrics) AddPersistRetries(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PersistRetries.Add(float64(n))
}
