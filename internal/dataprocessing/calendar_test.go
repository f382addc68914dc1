package dataprocessing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFiscalYearAndPeriod_AllStartMonths(t *testing.T) {
	for fsm := 1; fsm <= 12; fsm++ {
		for month := 1; month <= 12; month++ {
			period := FiscalPeriod(month, fsm)
			fy := FiscalYear(2025, month, fsm)

			assert.GreaterOrEqual(t, period, 1, "fsm=%d month=%d", fsm, month)
			assert.LessOrEqual(t, period, 12, "fsm=%d month=%d", fsm, month)
			if month >= fsm {
				assert.Equal(t, 2025, fy, "fsm=%d month=%d", fsm, month)
			} else {
				assert.Equal(t, 2024, fy, "fsm=%d month=%d", fsm, month)
			}
			if fsm == 1 {
				assert.Equal(t, month, period)
			}
		}

		// Periods are a permutation of 1..12 starting at the fiscal start month.
		seen := make(map[int]bool)
		for month := 1; month <= 12; month++ {
			seen[FiscalPeriod(month, fsm)] = true
		}
		assert.Len(t, seen, 12, "fsm=%d", fsm)
		assert.Equal(t, 1, FiscalPeriod(fsm, fsm))
	}
}

func TestFiscalPeriod_JulyStart(t *testing.T) {
	tests := []struct {
		month      int
		wantPeriod int
		wantYear   int
	}{
		{month: 7, wantPeriod: 1, wantYear: 2025},
		{month: 12, wantPeriod: 6, wantYear: 2025},
		{month: 1, wantPeriod: 7, wantYear: 2024},
		{month: 2, wantPeriod: 8, wantYear: 2024},
		{month: 6, wantPeriod: 12, wantYear: 2024},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("month %d", tt.month), func(t *testing.T) {
			assert.Equal(t, tt.wantPeriod, FiscalPeriod(tt.month, 7))
			assert.Equal(t, tt.wantYear, FiscalYear(2025, tt.month, 7))
		})
	}
}

func TestCalendarBounds(t *testing.T) {
	tests := []struct {
		name      string
		dates     []time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "single date",
			dates:     []time.Time{date(2025, 2, 10)},
			wantStart: date(2025, 2, 1),
			wantEnd:   date(2025, 2, 28),
		},
		{
			name:      "unordered dates across leap february",
			dates:     []time.Time{date(2024, 3, 3), date(2024, 2, 15), date(2024, 2, 29)},
			wantStart: date(2024, 2, 1),
			wantEnd:   date(2024, 3, 31),
		},
		{
			name:      "year boundary",
			dates:     []time.Time{date(2025, 1, 15), date(2024, 12, 31)},
			wantStart: date(2024, 12, 1),
			wantEnd:   date(2025, 1, 31),
		},
		{
			name:      "no dates uses defaults",
			wantStart: date(2024, 1, 1),
			wantEnd:   date(2026, 12, 31),
		},
		{
			name:      "only zero dates uses defaults",
			dates:     []time.Time{{}, {}},
			wantStart: date(2024, 1, 1),
			wantEnd:   date(2026, 12, 31),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := CalendarBounds(tt.dates)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestBuildCalendar_Contiguous(t *testing.T) {
	dates := []time.Time{date(2025, 1, 15), date(2025, 2, 10)}
	days := BuildCalendar(dates, 7)

	// January 1 through February 28.
	require.Len(t, days, 31+28)
	assert.Equal(t, date(2025, 1, 1), days[0].Date)
	assert.Equal(t, date(2025, 2, 28), days[len(days)-1].Date)

	seen := make(map[string]bool)
	for i, d := range days {
		assert.False(t, seen[d.DateKey()], "duplicate %s", d.DateKey())
		seen[d.DateKey()] = true
		if i > 0 {
			assert.Equal(t, days[i-1].Date.AddDate(0, 0, 1), d.Date)
		}
	}

	jan15 := days[14]
	assert.Equal(t, 2025, jan15.Year)
	assert.Equal(t, 1, jan15.Month)
	assert.Equal(t, "Jan", jan15.MonthName)
	assert.Equal(t, 1, jan15.Quarter)
	assert.Equal(t, 2024, jan15.FiscalYear)
	assert.Equal(t, 7, jan15.FiscalPeriod)

	feb10 := days[31+9]
	assert.Equal(t, "Feb", feb10.MonthName)
	assert.Equal(t, 8, feb10.FiscalPeriod)
}

func TestBuildCalendar_DefaultRange(t *testing.T) {
	days := BuildCalendar(nil, 1)

	// 2024 is a leap year.
	require.Len(t, days, 366+365+365)
	assert.Equal(t, date(2024, 1, 1), days[0].Date)
	assert.Equal(t, date(2026, 12, 31), days[len(days)-1].Date)
	for _, d := range days {
		assert.Equal(t, d.Year, d.FiscalYear)
		assert.Equal(t, d.Month, d.FiscalPeriod)
	}
}

func TestBuildCalendar_InvalidFiscalStart(t *testing.T) {
	days := BuildCalendar([]time.Time{date(2025, 3, 5)}, 13)
	require.NotEmpty(t, days)
	assert.Equal(t, 3, days[0].FiscalPeriod)
	assert.Equal(t, 2025, days[0].FiscalYear)
}

func TestQuarterAndMonthName(t *testing.T) {
	days := BuildCalendar([]time.Time{date(2025, 1, 1), date(2025, 12, 1)}, 1)
	for _, d := range days {
		assert.Equal(t, (d.Month-1)/3+1, d.Quarter)
		assert.Len(t, d.MonthName, 3)
	}
	assert.Equal(t, "Dec", MonthName(12))
	assert.Equal(t, "", MonthName(0))
}

func TestWeekOfYear(t *testing.T) {
	tests := []struct {
		day  time.Time
		want int
	}{
		// 2025-01-01 is a Wednesday; the first Sunday starts week 2.
		{date(2025, 1, 1), 1},
		{date(2025, 1, 4), 1},
		{date(2025, 1, 5), 2},
		{date(2025, 12, 31), 53},
		// 2023-01-01 is a Sunday.
		{date(2023, 1, 1), 1},
		{date(2023, 1, 7), 1},
		{date(2023, 1, 8), 2},
		// 2028 is a leap year starting on Saturday.
		{date(2028, 12, 31), 54},
	}
	for _, tt := range tests {
		t.Run(tt.day.Format(time.DateOnly), func(t *testing.T) {
			assert.Equal(t, tt.want, WeekOfYear(tt.day))
		})
	}
}
