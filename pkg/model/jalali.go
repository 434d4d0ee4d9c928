package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// JalaliToGregorian 将波斯历日期转换为公历
func JalaliToGregorian(jy, jm, jd int) (int, int, int) {
	jy += 1595
	days := -355668 + 365*jy + (jy/33)*8 + ((jy%33)+3)/4 + jd
	if jm < 7 {
		days += (jm - 1) * 31
	} else {
		days += (jm-7)*30 + 186
	}
	gy := 400 * (days / 146097)
	days %= 146097
	if days > 36524 {
		days--
		gy += 100 * (days / 36524)
		days %= 36524
		if days >= 365 {
			days++
		}
	}
	gy += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		gy += (days - 1) / 365
		days = (days - 1) % 365
	}
	gd := days + 1
	monthDays := []int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	if (gy%4 == 0 && gy%100 != 0) || gy%400 == 0 {
		monthDays[2] = 29
	}
	gm := 1
	for gm < 13 && gd > monthDays[gm] {
		gd -= monthDays[gm]
		gm++
	}
	return gy, gm, gd
}

// GregorianToJalali 将公历日期转换为波斯历
func GregorianToJalali(gy, gm, gd int) (int, int, int) {
	dayOfYear := []int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334}
	gy2 := gy
	if gm > 2 {
		gy2 = gy + 1
	}
	days := 355666 + 365*gy + (gy2+3)/4 - (gy2+99)/100 + (gy2+399)/400 + gd + dayOfYear[gm-1]
	jy := -1595 + 33*(days/12053)
	days %= 12053
	jy += 4 * (days / 1461)
	days %= 1461
	if days > 365 {
		jy += (days - 1) / 365
		days = (days - 1) % 365
	}
	var jm, jd int
	if days < 186 {
		jm = 1 + days/31
		jd = 1 + days%31
	} else {
		jm = 7 + (days-186)/30
		jd = 1 + (days-186)%30
	}
	return jy, jm, jd
}

// ParseJalaliDate 解析 "1403/01/15" 或 "1403-01-15" 形式的波斯历日期,
// 返回对应的公历 YYYY-MM-DD 字符串
func ParseJalaliDate(s string) (string, error) {
	normalized := strings.ReplaceAll(s, "-", "/")
	parts := strings.Split(normalized, "/")
	if len(parts) != 3 {
		return "", fmt.Errorf("无效的波斯历日期: %s", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return "", fmt.Errorf("无效的波斯历日期: %s", s)
		}
		nums[i] = n
	}
	jy, jm, jd := nums[0], nums[1], nums[2]
	if jm < 1 || jm > 12 || jd < 1 || jd > 31 {
		return "", fmt.Errorf("波斯历日期超出范围: %s", s)
	}
	gy, gm, gd := JalaliToGregorian(jy, jm, jd)
	return FormatDate(time.Date(gy, time.Month(gm), gd, 0, 0, 0, 0, time.UTC)), nil
}

// FormatJalaliDate 将公历 YYYY-MM-DD 字符串格式化为波斯历 "1403/01/15"
func FormatJalaliDate(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	jy, jm, jd := GregorianToJalali(t.Year(), int(t.Month()), t.Day())
	return fmt.Sprintf("%04d/%02d/%02d", jy, jm, jd), nil
}
