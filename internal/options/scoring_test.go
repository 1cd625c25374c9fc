package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpreadScorePenalizesWidePercentSpread(t *testing.T) {
	tight := spreadScore(0.01)
	wide := spreadScore(0.08)
	assert.Greater(t, tight, wide)
	assert.InDelta(t, 90, tight, 0.01)
	assert.InDelta(t, 20, wide, 0.01)
}

func TestSpreadScoreClampsAtZero(t *testing.T) {
	assert.Equal(t, 0.0, spreadScore(0.5))
}

func TestVolumeOIScoreIncreasesWithLiquidity(t *testing.T) {
	thin := volumeOIScore(5, 5)
	deep := volumeOIScore(5000, 5000)
	assert.Greater(t, deep, thin)
}

func TestLiquidityScoreRewardsTighterSpreadsAndDeeperMarkets(t *testing.T) {
	long := leapsContract(70, 400, 0.82)
	short := shortContract(110, 30, 0.25)
	score := LiquidityScore(long, short)
	assert.Greater(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestCenteredScorePeaksAtMidpoint(t *testing.T) {
	assert.InDelta(t, 100, centeredScore(33, 21, 45), 0.01)
	assert.Less(t, centeredScore(21, 21, 45), 100.0)
	assert.Less(t, centeredScore(45, 21, 45), 100.0)
}

func TestROIPotentialScoreCapsAtOneHundred(t *testing.T) {
	assert.Equal(t, 100.0, ROIPotentialScore(2.0))
	assert.Equal(t, 0.0, ROIPotentialScore(0))
	assert.InDelta(t, 50, ROIPotentialScore(0.5), 0.01)
}

func TestTotalScoreWeightsSubScoresEvenlyByDefault(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	total := TotalScore(100, 100, 100, 100, cr)
	assert.InDelta(t, 100, total, 0.01)

	total = TotalScore(0, 0, 0, 0, cr)
	assert.Equal(t, 0.0, total)
}

func TestProbabilityScoreIsHigherWhenBreakevenIsBelowSpot(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	favorable := ProbabilityScore(100, 80, 30, 0.80, cr)
	unfavorable := ProbabilityScore(100, 140, 30, 0.80, cr)
	assert.Greater(t, favorable, unfavorable)
}
