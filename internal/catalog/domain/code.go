package domain

import (
	"strconv"
	"strings"
	"time"
)

// ScheduleWeekday maps a calendar date onto the schedule's weekday index,
// where 0 is Monday and 6 is Sunday.
func ScheduleWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// CompareCodes orders dotted hierarchical codes numerically, so "9.10"
// sorts after "9.2". Non-numeric segments fall back to string order.
func CompareCodes(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if as[i] != bs[i] {
			return strings.Compare(as[i], bs[i])
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}
