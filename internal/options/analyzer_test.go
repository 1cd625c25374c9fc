package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeProducesRankedCandidates(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	chain := testChain(
		leapsContract(70, 400, 0.82),
		leapsContract(75, 450, 0.78),
		shortContract(110, 30, 0.25),
		shortContract(115, 35, 0.22),
	)

	candidates := Analyze(chain, cr)
	require.NotEmpty(t, candidates)
	for i, c := range candidates {
		assert.Equal(t, i+1, c.Rank)
	}
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].TotalScore, candidates[i].TotalScore)
	}
}

func TestAnalyzeReturnsNilWhenNoCandidatesSurvive(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	chain := testChain(leapsContract(70, 400, 0.82)) // no shorts at all
	assert.Empty(t, Analyze(chain, cr))
}

func TestAnalyzeFlagsStaleQuotes(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	chain := testChain(
		leapsContract(70, 400, 0.82),
		shortContract(110, 30, 0.25),
	)
	chain.Updated = time.Now().UTC().Add(-48 * time.Hour)

	candidates := Analyze(chain, cr)
	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.True(t, c.StaleQuote)
	}
}

func TestAnalyzeDoesNotFlagFreshQuotes(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	chain := testChain(
		leapsContract(70, 400, 0.82),
		shortContract(110, 30, 0.25),
	)

	candidates := Analyze(chain, cr)
	require.NotEmpty(t, candidates)
	for _, c := range candidates {
		assert.False(t, c.StaleQuote)
	}
}
