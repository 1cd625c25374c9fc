package options

import (
	"time"

	"github.com/pmccscan/pmccscan/internal/domain"
)

func ptr(f float64) *float64 { return &f }

// leapsContract builds a deep-ITM LEAPS call candidate with sane defaults,
// overridable via the options passed.
func leapsContract(strike float64, dte int, delta float64) domain.OptionContract {
	return domain.NewOptionContract(domain.OptionContract{
		OptionSymbol:    "LEAP",
		Underlying:      "TEST",
		Strike:          strike,
		Expiration:      time.Now().UTC().AddDate(0, 0, dte),
		Side:            domain.Call,
		Bid:             19.5,
		Ask:             20.0,
		Volume:          50,
		OpenInterest:    500,
		Delta:           ptr(delta),
		Gamma:           ptr(0.01),
		Theta:           ptr(-0.02),
		Vega:            ptr(0.10),
		DTE:             dte,
		UnderlyingPrice: 100,
	})
}

// shortContract builds an OTM short call candidate with sane defaults.
func shortContract(strike float64, dte int, delta float64) domain.OptionContract {
	return domain.NewOptionContract(domain.OptionContract{
		OptionSymbol:    "SHORT",
		Underlying:      "TEST",
		Strike:          strike,
		Expiration:      time.Now().UTC().AddDate(0, 0, dte),
		Side:            domain.Call,
		Bid:             1.55,
		Ask:             1.65,
		Volume:          200,
		OpenInterest:    800,
		Delta:           ptr(delta),
		Gamma:           ptr(0.03),
		Theta:           ptr(-0.05),
		Vega:            ptr(0.05),
		DTE:             dte,
		UnderlyingPrice: 100,
	})
}
