package model

import "testing"

func TestShiftDuration(t *testing.T) {
	tests := []struct {
		name        string
		start, end  string
		wantMinutes int
	}{
		{"白班8小时", "08:00", "16:00", 480},
		{"跨天晚班", "22:00", "06:00", 480},
		{"起止相同按跨天", "08:00", "08:00", 1440},
		{"不足1小时按1小时", "08:00", "08:30", 60},
		{"缺少时间取缺省", "", "", 480},
		{"非法时间取缺省", "25:00", "08:00", 480},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &ShiftRequirement{StartTime: tt.start, EndTime: tt.end}
			if got := s.DurationMinutes(); got != tt.wantMinutes {
				t.Errorf("DurationMinutes() = %d, 期望 %d", got, tt.wantMinutes)
			}
		})
	}
}

func TestUserConstraintDefaults(t *testing.T) {
	u := NewUserConstraint(1, "测试")
	if u.MaxConsecutiveShifts != 3 || u.MinRestDaysBetweenShifts != 1 ||
		u.MaxShiftsPerWeek != 5 || u.MaxNightShiftsPerMonth != 8 {
		t.Errorf("缺省限额不符: %+v", u)
	}
	if !u.IsActive {
		t.Error("新建人员应默认在岗")
	}
}

func TestDefaultHardRules(t *testing.T) {
	h := DefaultHardRules()
	if h.EnforceMaxShiftsPerWeek || h.EnforceMaxNightShiftsPerMonth {
		t.Error("周上限与月晚班上限默认应为软性")
	}
	if !h.EnforceMinRestDays || !h.ForbidUnavailableDates || !h.EnforceSpecialtyCapacity {
		t.Error("核心硬性规则默认应开启")
	}
}

func TestAllowsLabel(t *testing.T) {
	pattern := RotationMorningNight
	rotating := &UserConstraint{ShiftType: ShiftTypeRotating, RotationPattern: &pattern}
	if !rotating.AllowsLabel(ShiftMorning) || !rotating.AllowsLabel(ShiftNight) {
		t.Error("早+晚轮转 应允许早班和晚班")
	}
	if rotating.AllowsLabel(ShiftEvening) {
		t.Error("早+晚轮转 不应允许中班")
	}

	fixed := &UserConstraint{ShiftType: ShiftTypeFixed, ShiftSubType: SubTypeNight}
	if !fixed.AllowsLabel(ShiftNight) || fixed.AllowsLabel(ShiftMorning) {
		t.Error("固定晚班人员只能上晚班")
	}
}

func TestConstraintsValidate(t *testing.T) {
	c := NewShiftConstraints(1, "2025-01-01", "2025-01-07")
	c.UserConstraints = []*UserConstraint{NewUserConstraint(1, "甲")}
	c.ShiftRequirements = []*ShiftRequirement{{
		ShiftID: 1, Label: ShiftMorning,
		SpecialtyRequirements: []*SpecialtyRequirement{{SpecialtyID: 1, RequiredTotalCount: 1}},
	}}
	if err := c.Validate(); err != nil {
		t.Fatalf("合法输入不应报错: %v", err)
	}

	bad := NewShiftConstraints(1, "2025-01-07", "2025-01-01")
	bad.UserConstraints = c.UserConstraints
	bad.ShiftRequirements = c.ShiftRequirements
	if err := bad.Validate(); err == nil {
		t.Error("倒置日期区间应报错")
	}

	dup := NewShiftConstraints(1, "2025-01-01", "2025-01-07")
	dup.UserConstraints = []*UserConstraint{NewUserConstraint(1, "甲"), NewUserConstraint(1, "乙")}
	dup.ShiftRequirements = c.ShiftRequirements
	if err := dup.Validate(); err == nil {
		t.Error("人员 ID 重复应报错")
	}
}
