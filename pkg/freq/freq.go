// Package freq converts calendar durations into integer step counts at a
// given series frequency. Because a series can only be shifted by a whole
// number of rows, but annualized-return math needs the true elapsed time,
// the conversion returns both the rounded step count and the fractional
// years that the rounded count actually spans.
package freq

import (
	"math"
	"strings"

	"github.com/bulkfin/bulkfin-go/pkg/errs"
)

// Frequency is the sampling rate of a series. It is not stored on the data;
// callers pass it explicitly and must keep it consistent with the data.
type Frequency int

const (
	// TradingDay is business-day data, roughly 251.67 rows per year.
	TradingDay Frequency = iota
	// Day is calendar-day data with all 7 weekdays present.
	Day
	Week
	Month
	Quarter
	Year
)

// Annualization constants: the number of periods per year at each frequency.
const (
	tradingDaysPerYear  = 251.67
	calendarDaysPerYear = 365.25
	weeksPerYear        = 52.0
	monthsPerYear       = 12.0
	quartersPerYear     = 4.0
)

// PerYear returns the number of periods per year at this frequency.
func (f Frequency) PerYear() float64 {
	switch f {
	case TradingDay:
		return tradingDaysPerYear
	case Day:
		return calendarDaysPerYear
	case Week:
		return weeksPerYear
	case Month:
		return monthsPerYear
	case Quarter:
		return quartersPerYear
	case Year:
		return 1.0
	}
	return 0
}

// IsValid reports whether f is one of the defined frequencies.
func (f Frequency) IsValid() bool {
	return f >= TradingDay && f <= Year
}

func (f Frequency) String() string {
	switch f {
	case TradingDay:
		return "bdays"
	case Day:
		return "days"
	case Week:
		return "weeks"
	case Month:
		return "months"
	case Quarter:
		return "quarters"
	case Year:
		return "years"
	}
	return "unknown"
}

// Parse converts a frequency keyword into a Frequency. Accepted keywords
// match the vendor's conventions: "bdays"/"b", "days"/"d", "weeks"/"w",
// "months"/"m", "quarters"/"q" and "years"/"y"/"annual"/"a".
func Parse(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bdays", "b":
		return TradingDay, nil
	case "days", "d":
		return Day, nil
	case "weeks", "w":
		return Week, nil
	case "months", "m":
		return Month, nil
	case "quarters", "q":
		return Quarter, nil
	case "years", "y", "annual", "a":
		return Year, nil
	}
	return 0, errs.InvalidArgumentf("unknown frequency %q", s)
}

// Duration is a calendar offset combined from several units. All counts are
// additive and must be non-negative.
type Duration struct {
	BDays    int
	Days     int
	Weeks    int
	Months   int
	Quarters int
	Years    int
}

// IsZero reports whether every unit count is zero.
func (d Duration) IsZero() bool {
	return d == Duration{}
}

// TotalYears returns the duration expressed as fractional years, using the
// same annualization constants as the step conversion.
func (d Duration) TotalYears() float64 {
	return float64(d.BDays)/tradingDaysPerYear +
		float64(d.Days)/calendarDaysPerYear +
		float64(d.Weeks)/weeksPerYear +
		float64(d.Months)/monthsPerYear +
		float64(d.Quarters)/quartersPerYear +
		float64(d.Years)
}

func (d Duration) validate() error {
	if d.BDays < 0 || d.Days < 0 || d.Weeks < 0 ||
		d.Months < 0 || d.Quarters < 0 || d.Years < 0 {
		return errs.InvalidArgumentf("negative duration %+v", d)
	}
	return nil
}

// ToPeriods converts a duration into the number of whole periods at the
// given frequency, plus the fractional years those rounded periods span.
//
// The steps are rounded to the nearest integer, ties away from zero
// (math.Round). The years are recomputed from the rounded steps rather than
// from the nominal request, so that annualization downstream reflects the
// shift actually performed: requesting 7 quarters at year frequency rounds
// to 2 steps and reports 2.0 years, not 1.75.
func ToPeriods(f Frequency, d Duration) (steps int, years float64, err error) {
	if !f.IsValid() {
		return 0, 0, errs.InvalidArgumentf("unknown frequency %d", int(f))
	}
	if err := d.validate(); err != nil {
		return 0, 0, err
	}

	perYear := f.PerYear()
	steps = int(math.Round(d.TotalYears() * perYear))
	years = float64(steps) / perYear
	return steps, years, nil
}
