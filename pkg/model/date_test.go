package model

import "testing"

func TestDatesInRange(t *testing.T) {
	dates := DatesInRange("2025-01-30", "2025-02-02")
	want := []string{"2025-01-30", "2025-01-31", "2025-02-01", "2025-02-02"}
	if len(dates) != len(want) {
		t.Fatalf("日期数量 = %d, 期望 %d", len(dates), len(want))
	}
	for i, d := range dates {
		if d != want[i] {
			t.Errorf("dates[%d] = %s, 期望 %s", i, d, want[i])
		}
	}
}

func TestDatesInRangeSingleDay(t *testing.T) {
	dates := DatesInRange("2025-03-10", "2025-03-10")
	if len(dates) != 1 || dates[0] != "2025-03-10" {
		t.Errorf("单日区间 = %v", dates)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{"2025-01-01", "2025-01-01", 0},
		{"2025-01-01", "2025-01-08", 7},
		{"2025-01-08", "2025-01-01", -7},
		{"2024-02-28", "2024-03-01", 2}, // 闰年
	}
	for _, tt := range tests {
		if got := DaysBetween(tt.from, tt.to); got != tt.want {
			t.Errorf("DaysBetween(%s, %s) = %d, 期望 %d", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestWeekNumberSaturdayBoundary(t *testing.T) {
	// 2025-01-04 是周六,应开启新的一周
	friday := WeekNumber("2025-01-03")
	saturday := WeekNumber("2025-01-04")
	if saturday != friday+1 {
		t.Errorf("周六应递增周序号: 周五=%d 周六=%d", friday, saturday)
	}
	// 周六到下周五共 7 天,序号一致
	for _, d := range DatesInRange("2025-01-04", "2025-01-10") {
		if WeekNumber(d) != saturday {
			t.Errorf("%s 的周序号 = %d, 期望 %d", d, WeekNumber(d), saturday)
		}
	}
	if WeekNumber("2025-01-11") != saturday+1 {
		t.Errorf("下一个周六未递增周序号")
	}
}

func TestMonthKey(t *testing.T) {
	if got := MonthKey("2025-07-15"); got != "2025-07" {
		t.Errorf("MonthKey = %s", got)
	}
}

func TestAddDays(t *testing.T) {
	if got := AddDays("2025-01-30", 3); got != "2025-02-02" {
		t.Errorf("AddDays 跨月 = %s", got)
	}
	if got := AddDays("2025-01-05", -5); got != "2024-12-31" {
		t.Errorf("AddDays 跨年 = %s", got)
	}
}
