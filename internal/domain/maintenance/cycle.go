package maintenance

import "time"

// CycleType is how often a PM plan recurs
type CycleType string

const (
	CycleMonthly    CycleType = "MONTHLY"
	CycleQuarterly  CycleType = "QUARTERLY"
	CycleSemiAnnual CycleType = "SEMI_ANNUAL"
	CycleAnnual     CycleType = "ANNUAL"
	CycleCustom     CycleType = "CUSTOM"
)

// CycleUnit is the unit of a CUSTOM cycle
type CycleUnit string

const (
	UnitDay   CycleUnit = "DAY"
	UnitWeek  CycleUnit = "WEEK"
	UnitMonth CycleUnit = "MONTH"
	UnitYear  CycleUnit = "YEAR"
)

// CalculateNextDueAt returns the next due time after base.
// Month arithmetic normalizes like time.AddDate, so Jan 31 + 1 month is Mar 3 (or Mar 2).
func CalculateNextDueAt(base time.Time, cycleType CycleType, cycleValue int, cycleUnit CycleUnit) time.Time {
	switch cycleType {
	case CycleMonthly:
		return base.AddDate(0, cycleValue, 0)
	case CycleQuarterly:
		return base.AddDate(0, 3, 0)
	case CycleSemiAnnual:
		return base.AddDate(0, 6, 0)
	case CycleAnnual:
		return base.AddDate(1, 0, 0)
	case CycleCustom:
		switch cycleUnit {
		case UnitDay:
			return base.AddDate(0, 0, cycleValue)
		case UnitWeek:
			return base.AddDate(0, 0, cycleValue*7)
		case UnitYear:
			return base.AddDate(cycleValue, 0, 0)
		default:
			return base.AddDate(0, cycleValue, 0)
		}
	}
	return base.AddDate(0, 1, 0)
}

// MonthRange returns the first instant of the month and the last second of its last day
func MonthRange(year, month int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Second)
	return start, end
}

// DaysIn returns the number of days in the month
func DaysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
