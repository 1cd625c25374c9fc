package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmccscan/pmccscan/internal/domain"
)

func testChain(contracts ...domain.OptionContract) domain.OptionChain {
	return domain.OptionChain{
		Underlying:      "TEST",
		UnderlyingPrice: 100,
		Updated:         time.Now().UTC(),
		Contracts:       contracts,
	}
}

func TestPartitionBucketsLEAPSAndShortsByDefaults(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	leap := leapsContract(70, 400, 0.82)
	short := shortContract(110, 30, 0.25)
	chain := testChain(leap, short)

	leaps, shorts := Partition(chain, cr)
	require.Len(t, leaps, 1)
	require.Len(t, shorts, 1)
	assert.Equal(t, "LEAP", leaps[0].OptionSymbol)
	assert.Equal(t, "SHORT", shorts[0].OptionSymbol)
}

func TestPartitionDiscardsCrossedMarket(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	bad := leapsContract(70, 400, 0.82)
	bad.Bid, bad.Ask = 25, 20 // crossed

	leaps, _ := Partition(testChain(bad), cr)
	assert.Empty(t, leaps)
}

func TestPartitionDiscardsMissingGreeks(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	bad := leapsContract(70, 400, 0.82)
	bad.Delta = nil

	leaps, _ := Partition(testChain(bad), cr)
	assert.Empty(t, leaps)
}

func TestPartitionDiscardsZeroOpenInterestAndVolume(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	bad := leapsContract(70, 400, 0.82)
	bad.Volume, bad.OpenInterest = 0, 0

	leaps, _ := Partition(testChain(bad), cr)
	assert.Empty(t, leaps)
}

func TestPartitionCapsEachSideAtMaxPairsPerSide(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	cr.MaxPairsPerSide = 2

	var contracts []domain.OptionContract
	for i := 0; i < 5; i++ {
		contracts = append(contracts, leapsContract(float64(60+i), 400, 0.80+float64(i)*0.001))
	}
	leaps, _ := Partition(testChain(contracts...), cr)
	assert.Len(t, leaps, 2)
}

func TestPartitionRequiresShortToBeOutOfTheMoney(t *testing.T) {
	cr := Criteria{}.WithDefaults()
	itmShort := shortContract(90, 30, 0.25) // below 100 underlying, so ITM
	_, shorts := Partition(testChain(itmShort), cr)
	assert.Empty(t, shorts)
}
