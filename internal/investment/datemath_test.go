package investment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestAddMonths(t *testing.T) {
	// End-of-month dates clamp instead of spilling into the next month.
	assert.Equal(t, date(2025, time.February, 28), addMonths(date(2025, time.January, 31), 1))
	assert.Equal(t, date(2024, time.February, 29), addMonths(date(2024, time.January, 31), 1))
	assert.Equal(t, date(2025, time.April, 30), addMonths(date(2025, time.January, 31), 3))
	assert.Equal(t, date(2025, time.March, 15), addMonths(date(2025, time.January, 15), 2))
	assert.Equal(t, date(2026, time.January, 10), addMonths(date(2025, time.July, 10), 6))
}

func TestWholeMonthsBetween(t *testing.T) {
	type testCase struct {
		name string
		from time.Time
		to   time.Time
		want int
	}

	tests := []testCase{
		{"SameInstant", date(2025, time.March, 10), date(2025, time.March, 10), 0},
		{"OneDayShort", date(2025, time.March, 10), date(2025, time.April, 9), 0},
		{"ExactlyOneMonth", date(2025, time.March, 10), date(2025, time.April, 10), 1},
		{"OneMonthAndChange", date(2025, time.March, 10), date(2025, time.April, 25), 1},
		{"OneYear", date(2024, time.June, 1), date(2025, time.June, 1), 12},
		{"EndOfMonthClamped", date(2024, time.January, 31), date(2024, time.February, 29), 1},
		{"Backwards", date(2025, time.May, 1), date(2025, time.April, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, wholeMonthsBetween(tt.from, tt.to))
		})
	}
}
