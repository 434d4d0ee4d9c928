package cpsat

import (
	"context"
	"testing"
	"time"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"

	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/solution"
)

func indexedConstraints() *Constraints {
	c := model.NewShiftConstraints(1, "2025-01-01", "2025-01-05")
	for i := 1; i <= 3; i++ {
		u := model.NewUserConstraint(i, "护士")
		u.SpecialtyID = 10 + i%2
		c.UserConstraints = append(c.UserConstraints, u)
	}
	c.UserConstraints[0].UnavailableDates["2025-01-03"] = true
	c.UserConstraints[0].UnavailableDates["2025-02-01"] = true // 区间之外, 应被忽略
	c.ShiftRequirements = []*model.ShiftRequirement{
		{
			ShiftID: 100, Label: model.ShiftMorning, StartTime: "08:00", EndTime: "16:00",
			SpecialtyRequirements: []*model.SpecialtyRequirement{{SpecialtyID: 10, RequiredTotalCount: 1}},
		},
		{
			ShiftID: 200, Label: model.ShiftNight, StartTime: "22:00", EndTime: "06:00",
			SpecialtyRequirements: []*model.SpecialtyRequirement{{SpecialtyID: 11, RequiredTotalCount: 1}},
		},
	}
	return FromModel(c)
}

func TestFromModelIndexSpaces(t *testing.T) {
	c := indexedConstraints()
	if c.NumUsers() != 3 || c.NumShifts() != 2 || c.NumDays() != 5 {
		t.Fatalf("索引空间 = %d/%d/%d", c.NumUsers(), c.NumShifts(), c.NumDays())
	}
	if c.NumSpecialties() != 2 {
		t.Errorf("专业数 = %d, 期望 2", c.NumSpecialties())
	}
	for i, u := range c.Users {
		if u.UserIndex != i {
			t.Errorf("人员下标不连续: %d != %d", u.UserIndex, i)
		}
	}
	for i, s := range c.Shifts {
		if s.ShiftIndex != i {
			t.Errorf("班次下标不连续: %d != %d", s.ShiftIndex, i)
		}
	}
	if c.Dates[0] != "2025-01-01" || c.Dates[4] != "2025-01-05" {
		t.Errorf("日期展开不正确: %v", c.Dates)
	}
}

func TestFromModelUnavailableDateIndices(t *testing.T) {
	c := indexedConstraints()
	got := c.Users[0].UnavailableDateIndices
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("不可用日期下标 = %v, 期望 [2]", got)
	}
	if c.TotalUnavailableDates() != 1 {
		t.Errorf("不可用日期总数 = %d", c.TotalUnavailableDates())
	}
}

func TestFromModelShiftDurations(t *testing.T) {
	c := indexedConstraints()
	if c.Shifts[0].DurationMinutes != 480 {
		t.Errorf("白班时长 = %d 分钟", c.Shifts[0].DurationMinutes)
	}
	if c.Shifts[1].DurationMinutes != 480 {
		t.Errorf("跨天晚班时长 = %d 分钟", c.Shifts[1].DurationMinutes)
	}
}

func TestConvertStatus(t *testing.T) {
	tests := []struct {
		in   cmpb.CpSolverStatus
		want solution.Status
	}{
		{cmpb.CpSolverStatus_OPTIMAL, solution.StatusOptimal},
		{cmpb.CpSolverStatus_FEASIBLE, solution.StatusFeasible},
		{cmpb.CpSolverStatus_INFEASIBLE, solution.StatusInfeasible},
		{cmpb.CpSolverStatus_MODEL_INVALID, solution.StatusAbnormal},
		{cmpb.CpSolverStatus_UNKNOWN, solution.StatusUnknown},
	}
	for _, tt := range tests {
		if got := convertStatus(tt.in); got != tt.want {
			t.Errorf("convertStatus(%v) = %s, 期望 %s", tt.in, got, tt.want)
		}
	}
}

func TestSatParametersRespectContextDeadline(t *testing.T) {
	s, err := New(indexedConstraints(), DefaultParameters())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	params := s.satParameters(ctx)
	if params.GetMaxTimeInSeconds() > 5.0 {
		t.Errorf("时限应被上下文截短: %v", params.GetMaxTimeInSeconds())
	}
	if params.GetNumSearchWorkers() != 4 {
		t.Errorf("搜索线程数 = %d", params.GetNumSearchWorkers())
	}
}

func TestParametersValidation(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatalf("缺省参数应合法: %v", err)
	}
	bad := DefaultParameters()
	bad.MaxTimeSeconds = 0
	if err := bad.Validate(); err == nil {
		t.Error("零时限应报错")
	}
	bad = DefaultParameters()
	bad.MaxSolutions = 0
	if err := bad.Validate(); err == nil {
		t.Error("解数量上限为 0 应报错")
	}
}

func TestObjectiveWeight(t *testing.T) {
	if objectiveWeight(2.6) != 3 {
		t.Errorf("权重取整错误")
	}
	if objectiveWeight(0.2) != 1 {
		t.Errorf("过小权重应提升到 1")
	}
}
