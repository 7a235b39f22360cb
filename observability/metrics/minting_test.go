package metrics

import (
	"math/big"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMintingMetricsCount(t *testing.T) {
	m := Minting()
	if Minting() != m {
		t.Fatalf("expected singleton metrics")
	}
	before := testutil.ToFloat64(m.minted.WithLabelValues("metrics-test"))
	m.ObserveMint("metrics-test")
	if got := testutil.ToFloat64(m.minted.WithLabelValues("metrics-test")); got != before+1 {
		t.Fatalf("expected mint counter to increase, got %v", got)
	}
	m.ObserveRejected("mint", "")
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("mint", "unknown")); got < 1 {
		t.Fatalf("expected rejection to be counted, got %v", got)
	}
	m.ObserveWithdrawal("metrics-test", big.NewInt(0))
	if got := testutil.ToFloat64(m.withdrawn.WithLabelValues("metrics-test")); got != 0 {
		t.Fatalf("zero withdrawals must not be recorded, got %v", got)
	}
	m.SetPresale("metrics-test", true)
	if got := testutil.ToFloat64(m.presale.WithLabelValues("metrics-test")); got != 1 {
		t.Fatalf("expected presale gauge 1, got %v", got)
	}

	var nilMetrics *MintingMetrics
	nilMetrics.ObserveMint("ignored")
}
