package productivity

import "testing"

func TestMonthlyRequiredHoursFullTime(t *testing.T) {
	calc := NewDefaultCalculator()
	snap, err := calc.MonthlyRequiredHours(Employment{UserID: 1, EmploymentPercent: 1.0}, 2025, 1)
	if err != nil {
		t.Fatalf("MonthlyRequiredHours: %v", err)
	}
	if snap.FinalRequiredHours != DefaultBaseMonthlyHours {
		t.Errorf("全职上限 = %v", snap.FinalRequiredHours)
	}
}

func TestMonthlyRequiredHoursPartTimeWithDeduction(t *testing.T) {
	calc := NewDefaultCalculator()
	snap, err := calc.MonthlyRequiredHours(Employment{UserID: 2, EmploymentPercent: 0.5, DeductionHours: 8}, 2025, 6)
	if err != nil {
		t.Fatalf("MonthlyRequiredHours: %v", err)
	}
	if snap.FinalRequiredHours != 80 {
		t.Errorf("半职减免后上限 = %v, 期望 80", snap.FinalRequiredHours)
	}
}

func TestMonthlyRequiredHoursClampsAtZero(t *testing.T) {
	calc := &DefaultCalculator{BaseMonthlyHours: 10}
	snap, err := calc.MonthlyRequiredHours(Employment{EmploymentPercent: 1, DeductionHours: 100}, 2025, 3)
	if err != nil {
		t.Fatalf("MonthlyRequiredHours: %v", err)
	}
	if snap.FinalRequiredHours != 0 {
		t.Errorf("上限不应为负: %v", snap.FinalRequiredHours)
	}
}

func TestMonthlyRequiredHoursInvalidMonth(t *testing.T) {
	calc := NewDefaultCalculator()
	if _, err := calc.MonthlyRequiredHours(Employment{}, 2025, 13); err == nil {
		t.Error("非法月份应报错")
	}
}
