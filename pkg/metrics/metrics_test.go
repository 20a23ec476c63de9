package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordTransactionIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(transactionsTotal.WithLabelValues("DEPOSIT", "COMPLETED"))
	RecordTransaction("DEPOSIT", "COMPLETED", 0.01)
	after := testutil.ToFloat64(transactionsTotal.WithLabelValues("DEPOSIT", "COMPLETED"))
	require.Equal(t, before+1, after)
}

func TestRecordComplianceActionIncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(complianceBlocks.WithLabelValues("block"))
	RecordComplianceAction("block")
	after := testutil.ToFloat64(complianceBlocks.WithLabelValues("block"))
	require.Equal(t, before+1, after)
}

func TestRecorderReusesVectorForSameName(t *testing.T) {
	r := NewRecorder(nil)
	r.Counter("widgets_sold", map[string]string{"region": "east"}, 2)
	r.Counter("widgets_sold", map[string]string{"region": "east"}, 3)
	require.Len(t, r.counters, 1)
}
