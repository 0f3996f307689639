package calendar

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/poseidonvest/globe/pkg/core"
)

const (
	SummaryMissing  = "Data not released yet or incomplete; market impact unclear."
	SummaryInLine   = "Release in line with expectations; sideways markets and limited impact expected."
	SummaryPositive = "Better than expected; DXY strengthens while upward pressure builds on USDT.D."
	SummaryNegative = "Weaker than expected; DXY eases while downward pressure builds on USDT.D."

	DescriptionFallback = "This release may create market volatility."
)

var (
	nonNumeric    = regexp.MustCompile(`[^0-9.\-]`)
	leadingNumber = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)
	inverseMetric = regexp.MustCompile(`(?i)unemployment|jobless|claims`)

	neutralTolerance = decimal.RequireFromString("0.001")
)

// ParseValue reads the numeric part of a feed value such as "5.4%" or "200K".
func ParseValue(s string) (decimal.Decimal, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	m := leadingNumber.FindString(cleaned)
	if m == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Summarize describes the likely market reaction to a release.
// Lower is better for unemployment and claims, higher is better otherwise.
func Summarize(e core.EconomicEvent) string {
	if e.Actual == nil || e.Forecast == nil {
		return SummaryMissing
	}
	actual, ok := ParseValue(*e.Actual)
	if !ok {
		return SummaryMissing
	}
	forecast, ok := ParseValue(*e.Forecast)
	if !ok {
		return SummaryMissing
	}

	if actual.Sub(forecast).Abs().LessThan(neutralTolerance) {
		return SummaryInLine
	}

	positive := actual.GreaterThan(forecast)
	if inverseMetric.MatchString(e.Event) {
		positive = actual.LessThan(forecast)
	}
	if positive {
		return SummaryPositive
	}
	return SummaryNegative
}

type description struct {
	keyword string
	text    string
}

// descriptions is checked in order; the first keyword contained in the event name wins.
var descriptions = []description{
	{"NFP", "A stronger than expected NFP usually supports the dollar; a weak print can weigh on it."},
	{"Nonfarm Payrolls", "A stronger than expected NFP usually supports the dollar; a weak print can weigh on it."},
	{"Core PCE", "PCE above expectations tends to support the dollar; a lower print can weaken it."},
	{"CPI", "High inflation can favour the dollar; low inflation is associated with a weaker dollar."},
	{"Fed Interest Rate Decision", "Hawkish decisions go with a stronger dollar, dovish statements with a weaker one."},
	{"FOMC", "A hawkish tone tends to lift DXY; a dovish tone tends to push it lower."},
	{"GDP", "Strong growth can favour the dollar; weak growth can put pressure on it."},
	{"ISM Manufacturing", "A strong PMI can support the dollar; a weak PMI can weigh on it."},
	{"ISM Services", "Services data above expectations favours the dollar; weak data works against it."},
	{"Jobless Claims", "Lower claims read as dollar positive; higher claims read as negative."},
	{"Unemployment", "Lower claims read as dollar positive; higher claims read as negative."},
	{"Retail Sales", "Strong sales favour the dollar; weak sales put pressure on it."},
}

// Describe returns the static explanation for an event name, matched case-insensitively.
func Describe(event string) string {
	name := strings.ToLower(event)
	for _, d := range descriptions {
		if strings.Contains(name, strings.ToLower(d.keyword)) {
			return d.text
		}
	}
	return DescriptionFallback
}
