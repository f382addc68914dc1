package domain

import (
	"time"
)

// CalendarDay is one row of the calendar dimension.
type CalendarDay struct {
	Date         time.Time `json:"date" validate:"required"`
	Year         int       `json:"year"`
	Month        int       `json:"month" validate:"min=1,max=12"`
	MonthName    string    `json:"month_name" validate:"len=3"`
	Quarter      int       `json:"quarter" validate:"min=1,max=4"`
	Week         int       `json:"week" validate:"min=1,max=54"`
	FiscalYear   int       `json:"fiscal_year"`
	FiscalPeriod int       `json:"fiscal_period" validate:"min=1,max=12"`
}

// DateKey returns the join key used to match sales rows against the calendar.
func (d CalendarDay) DateKey() string {
	return DateKey(d.Date)
}

// DateKey formats a date as the calendar join key. Time of day and location
// are ignored.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
