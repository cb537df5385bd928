package maintenance

import (
	"fmt"
	"time"
)

// DayStatus summarizes the work orders of one calendar day
type DayStatus string

const (
	DayNone       DayStatus = "NONE"
	DayAllPass    DayStatus = "ALL_PASS"
	DayHasFail    DayStatus = "HAS_FAIL"
	DayInProgress DayStatus = "IN_PROGRESS"
	DayOverdue    DayStatus = "OVERDUE"
	DayNotStarted DayStatus = "NOT_STARTED"
)

// CalendarDay is one cell of the PM calendar
type CalendarDay struct {
	Date      string    `json:"date"`
	Total     int       `json:"total"`
	Completed int       `json:"completed"`
	Pass      int       `json:"pass"`
	Fail      int       `json:"fail"`
	Status    DayStatus `json:"status"`
}

// ResolveDayStatus classifies a day. past reports whether the day is before today.
func ResolveDayStatus(total, completed, fail int, past bool) DayStatus {
	switch {
	case total == 0:
		return DayNone
	case completed >= total && fail == 0:
		return DayAllPass
	case fail > 0:
		return DayHasFail
	case completed > 0 && completed < total:
		return DayInProgress
	case past:
		return DayOverdue
	}
	return DayNotStarted
}

// BuildCalendar folds the month's work orders into one entry per day, in the location of today
func BuildCalendar(year, month int, orders []PmWorkOrder, today time.Time) []CalendarDay {
	loc := today.Location()
	byDay := make(map[int][]PmWorkOrder)
	for _, wo := range orders {
		d := wo.ScheduledDate.In(loc)
		if d.Year() != year || int(d.Month()) != month {
			continue
		}
		byDay[d.Day()] = append(byDay[d.Day()], wo)
	}
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)

	days := DaysIn(year, month)
	out := make([]CalendarDay, 0, days)
	for day := 1; day <= days; day++ {
		c := CalendarDay{Date: fmt.Sprintf("%04d-%02d-%02d", year, month, day)}
		for _, wo := range byDay[day] {
			c.Total++
			if wo.Status == WoCompleted {
				c.Completed++
			}
			switch wo.OverallResult {
			case ResultPass:
				c.Pass++
			case ResultFail:
				c.Fail++
			}
		}
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
		c.Status = ResolveDayStatus(c.Total, c.Completed, c.Fail, date.Before(midnight))
		out = append(out, c)
	}
	return out
}
