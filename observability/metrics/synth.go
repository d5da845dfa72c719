package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type SynthMetrics struct {
	deposits          prometheus.Counter
	mints             prometheus.Counter
	liquidations      prometheus.Counter
	diversifiedOps    *prometheus.CounterVec
	oracleSubmissions *prometheus.CounterVec
	rejectedOps       *prometheus.CounterVec
	currentPrice      prometheus.Gauge
	totalCollateral   prometheus.Gauge
	syntheticSupply   prometheus.Gauge
	pausedFlag        prometheus.Gauge
}

var (
	synthOnce     sync.Once
	synthRegistry *SynthMetrics
)

func Synth() *SynthMetrics {
	synthOnce.Do(func() {
		synthRegistry = &SynthMetrics{
			deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "synth_deposits_total",
				Help: "Count of committed collateral deposits.",
			}),
			mints: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "synth_mints_total",
				Help: "Count of committed synthetic mints.",
			}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "synth_liquidations_total",
				Help: "Count of executed partial liquidations.",
			}),
			diversifiedOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synth_diversified_ops_total",
				Help: "Count of diversified position operations by flavour.",
			}, []string{"operation"}),
			oracleSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synth_oracle_submissions_total",
				Help: "Count of oracle price submissions by outcome.",
			}, []string{"outcome"}),
			rejectedOps: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "synth_rejected_ops_total",
				Help: "Count of rejected engine operations by kind.",
			}, []string{"operation"}),
			currentPrice: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "synth_current_price",
				Help: "Authoritative oracle price in fixed-point units.",
			}),
			totalCollateral: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "synth_total_collateral",
				Help: "Global collateral total in scaled token units.",
			}),
			syntheticSupply: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "synth_synthetic_supply",
				Help: "Global outstanding synthetic supply.",
			}),
			pausedFlag: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "synth_paused",
				Help: "Administrative circuit breaker state (1 when paused).",
			}),
		}
		prometheus.MustRegister(
			synthRegistry.deposits,
			synthRegistry.mints,
			synthRegistry.liquidations,
			synthRegistry.diversifiedOps,
			synthRegistry.oracleSubmissions,
			synthRegistry.rejectedOps,
			synthRegistry.currentPrice,
			synthRegistry.totalCollateral,
			synthRegistry.syntheticSupply,
			synthRegistry.pausedFlag,
		)
	})
	return synthRegistry
}

func (m *SynthMetrics) DepositCommitted() {
	if m == nil {
		return
	}
	m.deposits.Inc()
}

func (m *SynthMetrics) MintCommitted() {
	if m == nil {
		return
	}
	m.mints.Inc()
}

func (m *SynthMetrics) LiquidationExecuted() {
	if m == nil {
		return
	}
	m.liquidations.Inc()
}

func (m *SynthMetrics) DiversifiedOp(operation string) {
	if m == nil {
		return
	}
	m.diversifiedOps.WithLabelValues(operation).Inc()
}

func (m *SynthMetrics) OracleSubmission(accepted bool) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if !accepted {
		outcome = "rejected"
	}
	m.oracleSubmissions.WithLabelValues(outcome).Inc()
}

func (m *SynthMetrics) OpRejected(operation string) {
	if m == nil {
		return
	}
	m.rejectedOps.WithLabelValues(operation).Inc()
}

func (m *SynthMetrics) SetCurrentPrice(price *big.Int) {
	if m == nil || price == nil {
		return
	}
	value, _ := new(big.Float).SetInt(price).Float64()
	m.currentPrice.Set(value)
}

func (m *SynthMetrics) SetTotals(collateral, supply *big.Int) {
	if m == nil {
		return
	}
	if collateral != nil {
		value, _ := new(big.Float).SetInt(collateral).Float64()
		m.totalCollateral.Set(value)
	}
	if supply != nil {
		value, _ := new(big.Float).SetInt(supply).Float64()
		m.syntheticSupply.Set(value)
	}
}

func (m *SynthMetrics) SetPaused(paused bool) {
	if m == nil {
		return
	}
	if paused {
		m.pausedFlag.Set(1)
		return
	}
	m.pausedFlag.Set(0)
}
