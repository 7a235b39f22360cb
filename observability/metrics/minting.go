package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// MintingMetrics tracks committed mints, rejected calls and treasury flows.
type MintingMetrics struct {
	minted    *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	bundles   prometheus.Counter
	withdrawn *prometheus.CounterVec
	presale   *prometheus.GaugeVec
}

var (
	mintingOnce     sync.Once
	mintingRegistry *MintingMetrics
)

// Minting returns the process-wide minting metrics, registering them with the
// default Prometheus registry on first use.
func Minting() *MintingMetrics {
	mintingOnce.Do(func() {
		mintingRegistry = &MintingMetrics{
			minted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nft_tokens_minted_total",
				Help: "Count of committed token issuances by collection.",
			}, []string{"collection"}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nft_calls_rejected_total",
				Help: "Count of rejected calls by operation and reason.",
			}, []string{"operation", "reason"}),
			bundles: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "nft_bundle_mints_total",
				Help: "Count of committed bundle mints.",
			}),
			withdrawn: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "nft_withdrawn_wei_total",
				Help: "Wei withdrawn by collection owners.",
			}, []string{"collection"}),
			presale: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "nft_presale_active",
				Help: "1 while a collection is in presale, 0 afterwards.",
			}, []string{"collection"}),
		}
		prometheus.MustRegister(
			mintingRegistry.minted,
			mintingRegistry.rejected,
			mintingRegistry.bundles,
			mintingRegistry.withdrawn,
			mintingRegistry.presale,
		)
	})
	return mintingRegistry
}

func (m *MintingMetrics) ObserveMint(collection string) {
	if m == nil {
		return
	}
	m.minted.WithLabelValues(collection).Inc()
}

func (m *MintingMetrics) ObserveRejected(operation, reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.rejected.WithLabelValues(operation, reason).Inc()
}

func (m *MintingMetrics) ObserveBundle() {
	if m == nil {
		return
	}
	m.bundles.Inc()
}

func (m *MintingMetrics) ObserveWithdrawal(collection string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.withdrawn.WithLabelValues(collection).Add(value)
}

func (m *MintingMetrics) SetPresale(collection string, active bool) {
	if m == nil {
		return
	}
	value := 0.0
	if active {
		value = 1
	}
	m.presale.WithLabelValues(collection).Set(value)
}
