package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmccscan/pmccscan/internal/domain"
)

func TestPairProducesValidCandidateFromGoodLegs(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	long := leapsContract(70, 400, 0.82)
	short := shortContract(110, 30, 0.25)

	results := Pair("TEST", 100, []domain.OptionContract{long}, []domain.OptionContract{short}, cr)
	require.Len(t, results, 1)
	c := results[0]
	assert.Equal(t, "TEST", c.Symbol)
	assert.True(t, c.Risk.MaxProfit.IsPositive())
	assert.Greater(t, c.TotalScore, 0.0)
}

func TestTryPairRejectsWhenLongStrikeNotBelowShortStrike(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	long := leapsContract(120, 400, 0.82)
	short := shortContract(110, 30, 0.25)

	_, ok := tryPair("TEST", 100, long, short, cr)
	assert.False(t, ok)
}

func TestTryPairRejectsWhenShortStrikeBelowUnderlying(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	long := leapsContract(70, 400, 0.82)
	short := shortContract(90, 30, 0.25)

	_, ok := tryPair("TEST", 100, long, short, cr)
	assert.False(t, ok)
}

func TestTryPairRejectsBelowMinRiskReward(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	cr.MinRiskReward = 100 // impossibly high, forces rejection

	long := leapsContract(70, 400, 0.82)
	short := shortContract(110, 30, 0.25)

	_, ok := tryPair("TEST", 100, long, short, cr)
	assert.False(t, ok)
}

func TestPairKeepsOnlyBestScoringPairPerExpirationBucket(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	long := leapsContract(70, 400, 0.82)
	worseShort := shortContract(105, 30, 0.34)
	betterShort := shortContract(115, 30, 0.22)

	results := Pair("TEST", 100, []domain.OptionContract{long}, []domain.OptionContract{worseShort, betterShort}, cr)
	require.Len(t, results, 1)
}
