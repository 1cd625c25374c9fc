package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pmccscan/pmccscan/internal/domain"
)

func TestSplitMarketCapBandsLeavesNarrowBandUnsplit(t *testing.T) {
	c := domain.ScreeningCriteria{MinMarketCap: 1_000_000_000, MaxMarketCap: 3_000_000_000}
	bands := splitMarketCapBands(c)
	assert.Len(t, bands, 1)
}

func TestSplitMarketCapBandsSplitsWideBandWithoutGapsOrOverlap(t *testing.T) {
	c := domain.ScreeningCriteria{MinMarketCap: 1_000_000_000, MaxMarketCap: 100_000_000_000}
	bands := splitMarketCapBands(c)
	assert.Greater(t, len(bands), 1)

	assert.Equal(t, c.MinMarketCap, bands[0].MinMarketCap)
	assert.Equal(t, c.MaxMarketCap, bands[len(bands)-1].MaxMarketCap)
	for i := 1; i < len(bands); i++ {
		assert.Equal(t, bands[i-1].MaxMarketCap, bands[i].MinMarketCap, "bands must tile the range with no gap or overlap")
	}
}

func TestSplitMarketCapBandsLeavesUnboundedRangeUnsplit(t *testing.T) {
	c := domain.ScreeningCriteria{MinMarketCap: 1_000_000_000}
	bands := splitMarketCapBands(c)
	assert.Len(t, bands, 1)
}
