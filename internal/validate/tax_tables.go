package validate

import "github.com/shopspring/decimal"

var (
	socialSecurityRate = decimal.RequireFromString("0.062")
	medicareRate       = decimal.RequireFromString("0.0145")
	interestCeiling    = decimal.NewFromInt(1_000_000)
)

// socialSecurityWageBase is the annual taxable-wage ceiling by tax year.
var socialSecurityWageBase = map[int]decimal.Decimal{
	2020: decimal.NewFromInt(137_700),
	2021: decimal.NewFromInt(142_800),
	2022: decimal.NewFromInt(147_000),
	2023: decimal.NewFromInt(160_200),
	2024: decimal.NewFromInt(168_600),
	2025: decimal.NewFromInt(176_100),
}

// WageBase returns the wage base for year, falling back to the nearest known year.
func WageBase(year int) decimal.Decimal {
	if v, ok := socialSecurityWageBase[year]; ok {
		return v
	}
	bestYear, bestDist := 0, -1
	for y := range socialSecurityWageBase {
		d := y - year
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist || (d == bestDist && y > bestYear) {
			bestYear, bestDist = y, d
		}
	}
	return socialSecurityWageBase[bestYear]
}
