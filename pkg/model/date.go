package model

import "time"

// DateLayout 模块内统一的日期格式
const DateLayout = "2006-01-02"

// referenceSaturday 周序号计算的基准周六
var referenceSaturday = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// ParseDate 解析 YYYY-MM-DD 日期字符串
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate 格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays 日期偏移 n 天
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return FormatDate(t.AddDate(0, 0, n))
}

// DaysBetween 计算 from 到 to 的天数差(to 在后为正)
func DaysBetween(from, to string) int {
	a, err := ParseDate(from)
	if err != nil {
		return 0
	}
	b, err := ParseDate(to)
	if err != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

// DatesInRange 展开闭区间 [start, end] 内的全部日期
func DatesInRange(start, end string) []string {
	a, err := ParseDate(start)
	if err != nil {
		return nil
	}
	b, err := ParseDate(end)
	if err != nil {
		return nil
	}
	var dates []string
	for d := a; !d.After(b); d = d.AddDate(0, 0, 1) {
		dates = append(dates, FormatDate(d))
	}
	return dates
}

// WeekNumber 返回以周六为一周起点的连续周序号。
// 同一周内的日期序号相同,跨周六递增。
func WeekNumber(date string) int {
	t, err := ParseDate(date)
	if err != nil {
		return 0
	}
	days := int(t.Sub(referenceSaturday).Hours() / 24)
	if days < 0 {
		return (days - 6) / 7
	}
	return days / 7
}

// MonthKey 返回 YYYY-MM 形式的月份键
func MonthKey(date string) string {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}
