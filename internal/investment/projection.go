package investment

import "github.com/shopspring/decimal"

var (
	one            = decimal.NewFromInt(1)
	monthsPerYear  = decimal.NewFromInt(12)
	percentDivisor = decimal.NewFromInt(100)
)

// ExpectedReturn projects the net expected return of investing a lump sum
// with an optional fixed monthly contribution: the future value of both,
// minus the principal and every contribution paid in. The rate is a nominal
// annual rate in percent (7 means 7%); contributions compound as an ordinary
// annuity, paid at the end of each month.
func ExpectedReturn(lumpSum, monthlyContribution, annualRatePercent decimal.Decimal, months int) (decimal.Decimal, error) {
	i := annualRatePercent.Div(monthsPerYear).Div(percentDivisor)

	growth, err := one.Add(i).PowInt32(int32(months))
	if err != nil {
		return decimal.Zero, err
	}

	fvLump := lumpSum.Mul(growth)

	paidIn := monthlyContribution.Mul(decimal.NewFromInt(int64(months)))

	var fvContributions decimal.Decimal
	if i.IsZero() {
		fvContributions = paidIn
	} else {
		fvContributions = monthlyContribution.Mul(growth.Sub(one)).Div(i)
	}

	return fvLump.Add(fvContributions).Sub(lumpSum).Sub(paidIn), nil
}
