package model

// Period is a human-facing chart window label as shown on the dashboard
// period buttons.
type Period string

const (
	Period5D  Period = "5D"
	Period1M  Period = "1M"
	Period6M  Period = "6M"
	Period1Y  Period = "1Y"
	Period5Y  Period = "5Y"
	PeriodMax Period = "Max"
)

// DefaultRange is used when a label is unknown.
const DefaultRange = "1mo"

var periodRanges = map[Period]string{
	Period5D:  "5d",
	Period1M:  "1mo",
	Period6M:  "6mo",
	Period1Y:  "1y",
	Period5Y:  "5y",
	PeriodMax: "max",
}

// Range maps the label to the range parameter understood by the data
// provider. The mapping is a static table, unknown labels fall back to
// DefaultRange.
func (p Period) Range() string {
	if r, ok := periodRanges[p]; ok {
		return r
	}
	return DefaultRange
}

// Known reports whether the label is one of the supported periods.
func (p Period) Known() bool {
	_, ok := periodRanges[p]
	return ok
}

// Periods returns the supported labels in display order.
func Periods() []Period {
	return []Period{Period5D, Period1M, Period6M, Period1Y, Period5Y, PeriodMax}
}
