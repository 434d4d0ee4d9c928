package hybrid

import (
	"context"
	"math/rand"
	"testing"

	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/scheduler"
	"github.com/paiban/yipai/pkg/scheduler/annealing"
	"github.com/paiban/yipai/pkg/scheduler/cpsat"
	"github.com/paiban/yipai/pkg/solution"
)

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"cp_first", "sa_first", "parallel", "iterative", "adaptive"} {
		if _, err := ParseStrategy(name); err != nil {
			t.Errorf("ParseStrategy(%s): %v", name, err)
		}
	}
	if _, err := ParseStrategy("greedy"); err == nil {
		t.Error("未知策略应报错")
	}
}

func TestParametersValidate(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatalf("缺省参数应合法: %v", err)
	}
	bad := DefaultParameters()
	bad.MaxIterations = 0
	if err := bad.Validate(); err == nil {
		t.Error("迭代上限为 0 应报错")
	}
	bad = DefaultParameters()
	bad.Strategy = "unknown"
	if err := bad.Validate(); err == nil {
		t.Error("未知策略应报错")
	}
}

func TestSelectBest(t *testing.T) {
	a := solution.New()
	a.Score = 10
	b := solution.New()
	b.Score = 5
	if got := SelectBest(a, b); got != b {
		t.Error("应选择分数更低的解")
	}
	if got := SelectBest(b, a); got != b {
		t.Error("参数顺序不应影响选择")
	}

	// 持平偏向第一个参数
	c := solution.New()
	c.Score = 10
	if got := SelectBest(a, c); got != a {
		t.Error("持平时应返回第一个参数")
	}

	if got := SelectBest(nil, b); got != b {
		t.Error("第一个为 nil 时返回第二个")
	}
	if got := SelectBest(a, nil); got != a {
		t.Error("第二个为 nil 时返回第一个")
	}
}

func TestComplexity(t *testing.T) {
	c := model.NewShiftConstraints(1, "2025-01-01", "2025-01-10")
	for i := 1; i <= 5; i++ {
		u := model.NewUserConstraint(i, "护士")
		u.SpecialtyID = 1
		c.UserConstraints = append(c.UserConstraints, u)
	}
	// 两条落在区间内的不可用日期
	c.UserConstraints[0].UnavailableDates["2025-01-02"] = true
	c.UserConstraints[1].UnavailableDates["2025-01-03"] = true
	c.ShiftRequirements = []*model.ShiftRequirement{
		{ShiftID: 1, Label: model.ShiftMorning,
			SpecialtyRequirements: []*model.SpecialtyRequirement{{SpecialtyID: 1, RequiredTotalCount: 2}}},
		{ShiftID: 2, Label: model.ShiftNight,
			SpecialtyRequirements: []*model.SpecialtyRequirement{{SpecialtyID: 1, RequiredTotalCount: 1}}},
	}

	s, err := New(c, cpsat.FromModel(c), annealing.DefaultParameters(), cpsat.DefaultParameters(),
		DefaultParameters(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// 5 人 × 2 班次 × 10 天 × 2 条不可用 / 1000 = 0.2
	if got := s.Complexity(); got != 0.2 {
		t.Errorf("复杂度 = %v, 期望 0.2", got)
	}
}

// saOnlyScheduler 复杂度远超阈值的自适应配置, 只会走退火路径
func saOnlyScheduler(t *testing.T) *Scheduler {
	t.Helper()
	c := model.NewShiftConstraints(1, "2025-01-01", "2025-01-07")
	names := []string{"甲", "乙", "丙", "丁"}
	for i, name := range names {
		u := model.NewUserConstraint(i+1, name)
		u.SpecialtyID = 1
		if i%2 == 0 {
			u.Gender = model.GenderMale
		} else {
			u.Gender = model.GenderFemale
		}
		u.MinRestDaysBetweenShifts = 0
		u.MaxConsecutiveShifts = 7
		c.UserConstraints = append(c.UserConstraints, u)
	}
	c.UserConstraints[3].UnavailableDates["2025-01-04"] = true
	c.ShiftRequirements = []*model.ShiftRequirement{{
		ShiftID:   1,
		ShiftName: "白班",
		Label:     model.ShiftMorning,
		StartTime: "08:00",
		EndTime:   "16:00",
		SpecialtyRequirements: []*model.SpecialtyRequirement{
			{SpecialtyID: 1, SpecialtyName: "护理", RequiredTotalCount: 2},
		},
	}}

	params := DefaultParameters()
	params.Strategy = StrategyAdaptive
	params.ComplexityThreshold = 0.001

	s, err := New(c, cpsat.FromModel(c), annealing.DefaultParameters(), cpsat.DefaultParameters(),
		params, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSolveRetainsLastResult(t *testing.T) {
	s := saOnlyScheduler(t)
	if s.Last() != nil {
		t.Fatal("尚未求解时 Last 应为 nil")
	}

	var solver scheduler.Solver = s
	r, err := solver.Solve(context.Background())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	last := s.Last()
	if last == nil {
		t.Fatal("求解后 Last 应可取回完整结果")
	}
	if last.Final != r.Solution {
		t.Error("Last 的最终解应与统一结果一致")
	}
	if last.StrategyUsed != StrategyAdaptive {
		t.Errorf("策略 = %s, 期望 adaptive", last.StrategyUsed)
	}
	if last.SASolution == nil || last.CPSolution != nil {
		t.Error("高复杂度自适应应只经过退火阶段")
	}
	if r.Duration != last.TotalTime {
		t.Errorf("统一结果耗时应与完整结果一致: %v vs %v", r.Duration, last.TotalTime)
	}
}
