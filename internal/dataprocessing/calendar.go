package dataprocessing

import (
	"time"

	"salesetl/internal/config"
	"salesetl/pkg/contracts/domain"
)

var monthNames = [...]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var (
	defaultCalendarStart = mustDate(config.DefaultCalendarStart)
	defaultCalendarEnd   = mustDate(config.DefaultCalendarEnd)
)

func mustDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// MonthName returns the three-letter English abbreviation of month.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthNames[month-1]
}

// FiscalYear returns the fiscal year a calendar month belongs to when the
// fiscal year starts in fiscalStartMonth. Years are labelled by the calendar
// year in which they start.
func FiscalYear(year, month, fiscalStartMonth int) int {
	if month >= fiscalStartMonth {
		return year
	}
	return year - 1
}

// FiscalPeriod returns the 1-based period of month within the fiscal year.
func FiscalPeriod(month, fiscalStartMonth int) int {
	if month >= fiscalStartMonth {
		return month - fiscalStartMonth + 1
	}
	return month + (12 - fiscalStartMonth + 1)
}

// WeekOfYear numbers weeks from 1 with weeks starting on Sunday. The week
// holding January 1st is week 1, so a year spans up to 54 weeks.
func WeekOfYear(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return (t.YearDay()-1+int(jan1.Weekday()))/7 + 1
}

// CalendarBounds returns the first day of the month of the earliest date and
// the last day of the month of the latest date. Zero dates are ignored; with
// no usable dates the default bounds are used.
func CalendarBounds(dates []time.Time) (start, end time.Time) {
	var minDate, maxDate time.Time
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if minDate.IsZero() || d.Before(minDate) {
			minDate = d
		}
		if maxDate.IsZero() || d.After(maxDate) {
			maxDate = d
		}
	}
	if minDate.IsZero() {
		minDate, maxDate = defaultCalendarStart, defaultCalendarEnd
	}

	start = time.Date(minDate.Year(), minDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(maxDate.Year(), maxDate.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	return start, end
}

// BuildCalendar generates one CalendarDay per day between the bounds of
// dates, in ascending order. It never returns an empty calendar. A fiscal
// start month outside 1..12 is treated as January.
func BuildCalendar(dates []time.Time, fiscalStartMonth int) []domain.CalendarDay {
	if fiscalStartMonth < 1 || fiscalStartMonth > 12 {
		fiscalStartMonth = 1
	}

	start, end := CalendarBounds(dates)
	days := make([]domain.CalendarDay, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		month := int(d.Month())
		days = append(days, domain.CalendarDay{
			Date:         d,
			Year:         d.Year(),
			Month:        month,
			MonthName:    MonthName(month),
			Quarter:      (month + 2) / 3,
			Week:         WeekOfYear(d),
			FiscalYear:   FiscalYear(d.Year(), month, fiscalStartMonth),
			FiscalPeriod: FiscalPeriod(month, fiscalStartMonth),
		})
	}
	return days
}
