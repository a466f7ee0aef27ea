package domain

import (
	"testing"
	"time"
)

func intptr(v int) *int { return &v }

func TestMonthlyQuota(t *testing.T) {
	cases := []struct {
		name string
		f    Frequency
		want *int
	}{
		{"daily is uncapped", Frequency{Period: PeriodDay, TimesPerPeriod: intptr(4)}, nil},
		{"weekly times four", Frequency{Period: PeriodWeek, TimesPerPeriod: intptr(2)}, intptr(8)},
		{"monthly as is", Frequency{Period: PeriodMonth, TimesPerPeriod: intptr(3)}, intptr(3)},
		{"yearly rounds up", Frequency{Period: PeriodYear, TimesPerPeriod: intptr(1)}, intptr(1)},
		{"yearly above twelve", Frequency{Period: PeriodYear, TimesPerPeriod: intptr(13)}, intptr(2)},
		{"nil times is uncapped", Frequency{Period: PeriodWeek}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.f.MonthlyQuota()
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("MonthlyQuota() = %v, want %v", got, tc.want)
			}
			if got != nil && *got != *tc.want {
				t.Fatalf("MonthlyQuota() = %d, want %d", *got, *tc.want)
			}
		})
	}
}

func TestScheduleWeekday(t *testing.T) {
	// 2024-03-04 is a Monday.
	monday := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	if got := ScheduleWeekday(monday); got != 0 {
		t.Fatalf("ScheduleWeekday(monday) = %d, want 0", got)
	}
	sunday := monday.AddDate(0, 0, 6)
	if got := ScheduleWeekday(sunday); got != 6 {
		t.Fatalf("ScheduleWeekday(sunday) = %d, want 6", got)
	}
}

func TestCompareCodes(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"9.2", "9.10", -1},
		{"9.10", "9.2", 1},
		{"9.4", "9.4", 0},
		{"2", "10", -1},
		{"9", "9.1", -1},
	}
	for _, tc := range cases {
		if got := CompareCodes(tc.a, tc.b); got != tc.want {
			t.Fatalf("CompareCodes(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}
