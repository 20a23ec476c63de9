package fraud

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/pkg/money"
)

func TestMockScorerThresholds(t *testing.T) {
	cases := []struct {
		amount   string
		decision Decision
		risk     RiskLevel
	}{
		{"60000", DecisionBlock, RiskCritical},
		{"15000", DecisionReview, RiskHigh},
		{"6000", DecisionReview, RiskMedium},
		{"100", DecisionApprove, RiskLow},
	}

	var scorer MockScorer
	for _, c := range cases {
		amt, err := decimal.NewFromString(c.amount)
		require.NoError(t, err)
		score, err := scorer.Score(context.Background(), Request{Amount: money.New(amt, money.USD)})
		require.NoError(t, err)
		require.Equal(t, c.decision, score.Decision)
		require.Equal(t, c.risk, score.RiskLevel)
	}
}

func TestClientDisabledApproves(t *testing.T) {
	c := NewClient("http://unused", 0, WithDisabled())
	score, err := c.Score(context.Background(), Request{Amount: money.Zero(money.USD)})
	require.NoError(t, err)
	require.Equal(t, DecisionApprove, score.Decision)
}

func TestClientUnreachableFallsBack(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", 0, WithFallback(DecisionReview))
	score, err := c.Score(context.Background(), Request{Amount: money.Zero(money.USD)})
	require.NoError(t, err)
	require.Equal(t, DecisionReview, score.Decision)
	require.Equal(t, RiskUnknown, score.RiskLevel)
}
