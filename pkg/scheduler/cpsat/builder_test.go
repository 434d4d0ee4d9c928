package cpsat

import (
	"testing"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"

	"github.com/paiban/yipai/pkg/model"
)

// capacityConstraints 同专业两人(一男一女)、单班次两天,
// 男性人员带 8 小时法定工时上限
func capacityConstraints() *Constraints {
	c := model.NewShiftConstraints(1, "2025-03-01", "2025-03-02")
	male := model.NewUserConstraint(1, "张三")
	male.Gender = model.GenderMale
	male.SpecialtyID = 10
	hours := 8.0
	male.ProductivityRequiredHours = &hours
	female := model.NewUserConstraint(2, "李四")
	female.Gender = model.GenderFemale
	female.SpecialtyID = 10
	c.UserConstraints = []*model.UserConstraint{male, female}
	c.ShiftRequirements = []*model.ShiftRequirement{
		{
			ShiftID: 100, Label: model.ShiftMorning, StartTime: "08:00", EndTime: "16:00",
			SpecialtyRequirements: []*model.SpecialtyRequirement{
				{SpecialtyID: 10, RequiredTotalCount: 1, RequiredMaleCount: 1},
			},
		},
	}
	return FromModel(c)
}

func linearConstraints(t *testing.T, b *modelBuilder) []*cmpb.LinearConstraintProto {
	t.Helper()
	m, err := b.builder.Model()
	if err != nil {
		t.Fatalf("导出模型失败: %v", err)
	}
	var out []*cmpb.LinearConstraintProto
	for _, ct := range m.GetConstraints() {
		if lin := ct.GetLinear(); lin != nil {
			out = append(out, lin)
		}
	}
	return out
}

func TestBuildModelSpecialtyFloorAndCeiling(t *testing.T) {
	s, err := New(capacityConstraints(), DefaultParameters())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b := s.buildModel()

	// 专业人数约束: 需求 1 人, 上浮不超过 2, 即人数落在 [1, 3]
	found := 0
	for _, lin := range linearConstraints(t, b) {
		dom := lin.GetDomain()
		if len(dom) != 2 || dom[0] != 1 || dom[1] != 3 {
			continue
		}
		found++
		if len(lin.GetVars()) != 2 {
			t.Errorf("专业约束应覆盖 2 名同专业人员,实际 %d 个变量", len(lin.GetVars()))
		}
		for _, coeff := range lin.GetCoeffs() {
			if coeff != 1 {
				t.Errorf("专业约束系数应为 1,实际 %d", coeff)
			}
		}
	}
	if found != 2 {
		t.Errorf("期望每天各 1 条专业人数约束共 2 条,实际 %d 条", found)
	}
}

func TestBuildModelMaleFloor(t *testing.T) {
	s, err := New(capacityConstraints(), DefaultParameters())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b := s.buildModel()

	// 男性下限: 单个男性变量之和 ≥ 1, 上界不设限
	found := 0
	for _, lin := range linearConstraints(t, b) {
		dom := lin.GetDomain()
		if len(dom) != 2 || dom[0] != 1 || dom[1] < 1<<32 {
			continue
		}
		if len(lin.GetVars()) != 1 || lin.GetCoeffs()[0] != 1 {
			continue
		}
		found++
	}
	if found != 2 {
		t.Errorf("期望每天各 1 条男性下限约束共 2 条,实际 %d 条", found)
	}
}

func TestBuildModelProductivityMinutesCap(t *testing.T) {
	s, err := New(capacityConstraints(), DefaultParameters())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b := s.buildModel()

	// 法定工时 8 小时 → 480 分钟, 每条排班变量按班次时长 480 计权
	found := 0
	for _, lin := range linearConstraints(t, b) {
		coeffs := lin.GetCoeffs()
		if len(coeffs) == 0 {
			continue
		}
		all480 := true
		for _, coeff := range coeffs {
			if coeff != 480 {
				all480 = false
				break
			}
		}
		if !all480 {
			continue
		}
		found++
		if len(lin.GetVars()) != 2 {
			t.Errorf("工时约束应覆盖 1 班次 × 2 天共 2 个变量,实际 %d 个", len(lin.GetVars()))
		}
		dom := lin.GetDomain()
		if len(dom) != 2 || dom[1] != 480 {
			t.Errorf("工时约束上界应为 480 分钟,实际域 %v", dom)
		}
	}
	if found != 1 {
		t.Errorf("仅男性人员设了工时上限,期望 1 条工时约束,实际 %d 条", found)
	}
}
