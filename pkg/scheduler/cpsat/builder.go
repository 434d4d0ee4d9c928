package cpsat

import (
	"math"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"

	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/solution"
)

// 专业容量约束允许的松弛上限
const specialtyCapacitySlack = 2

// varKey 决策变量的三元下标
type varKey struct {
	user  int
	shift int
	date  int
}

// genderKey 性别平衡辅助变量的下标
type genderKey struct {
	shift  int
	date   int
	gender model.Gender
}

// specialtyKey 专业统计辅助变量的下标
type specialtyKey struct {
	shift     int
	date      int
	specialty int
}

// modelBuilder 持有构建中的模型与变量登记表
type modelBuilder struct {
	builder *cpmodel.Builder

	assign    map[varKey]cpmodel.BoolVar
	onCall    map[varKey]cpmodel.BoolVar
	gender    map[genderKey]cpmodel.IntVar
	specialty map[specialtyKey]cpmodel.IntVar

	numVariables   int
	numConstraints int
}

// buildModel 构建完整的 CP 模型:决策变量、硬性约束、软性惩罚与目标函数
func (s *Scheduler) buildModel() *modelBuilder {
	b := &modelBuilder{
		builder:   cpmodel.NewCpModelBuilder(),
		assign:    make(map[varKey]cpmodel.BoolVar),
		onCall:    make(map[varKey]cpmodel.BoolVar),
		gender:    make(map[genderKey]cpmodel.IntVar),
		specialty: make(map[specialtyKey]cpmodel.IntVar),
	}

	s.createVariables(b)
	s.addHardConstraints(b)
	objective := s.buildObjective(b)
	b.builder.Maximize(objective)
	s.applyHint(b)

	return b
}

func (s *Scheduler) createVariables(b *modelBuilder) {
	c := s.constraints
	for u := range c.Users {
		for sh := range c.Shifts {
			for d := range c.Dates {
				k := varKey{user: u, shift: sh, date: d}
				b.assign[k] = b.builder.NewBoolVar()
				b.onCall[k] = b.builder.NewBoolVar()
				b.numVariables += 2
				// 待命必须以排班为前提
				b.builder.AddImplication(b.onCall[k], b.assign[k])
				b.numConstraints++
			}
		}
	}

	numUsers := int64(c.NumUsers())
	for sh := range c.Shifts {
		for d := range c.Dates {
			for _, g := range []model.Gender{model.GenderMale, model.GenderFemale} {
				b.gender[genderKey{shift: sh, date: d, gender: g}] = b.builder.NewIntVar(0, numUsers)
				b.numVariables++
			}
			for _, idx := range c.specialtyIndex {
				b.specialty[specialtyKey{shift: sh, date: d, specialty: idx}] = b.builder.NewIntVar(0, numUsers)
				b.numVariables++
			}
		}
	}
}

func (s *Scheduler) addHardConstraints(b *modelBuilder) {
	c := s.constraints
	hard := c.HardRules

	// 不可用日期直接钉死为 0
	if hard.ForbidUnavailableDates {
		for _, u := range c.Users {
			for _, d := range u.UnavailableDateIndices {
				for sh := range c.Shifts {
					b.builder.AddEquality(b.assign[varKey{user: u.UserIndex, shift: sh, date: d}], cpmodel.NewConstant(0))
					b.numConstraints++
				}
			}
		}
	}

	if hard.ForbidDuplicateDailyAssignments || hard.EnforceMaxShiftsPerDay {
		limit := int64(c.Global.MaxShiftsPerDay)
		if hard.ForbidDuplicateDailyAssignments && limit > 1 {
			limit = 1
		}
		for u := range c.Users {
			for d := range c.Dates {
				daily := cpmodel.NewLinearExpr()
				for sh := range c.Shifts {
					daily.Add(b.assign[varKey{user: u, shift: sh, date: d}])
				}
				b.builder.AddLessOrEqual(daily, cpmodel.NewConstant(limit))
				b.numConstraints++
			}
		}
	}

	if hard.EnforceSpecialtyCapacity {
		s.addSpecialtyCapacity(b)
	}

	if hard.EnforceMinRestDays {
		for _, u := range c.Users {
			rest := u.MinRestDaysBetweenShifts
			for d := 0; d < c.NumDays(); d++ {
				for next := d + 1; next <= d+rest && next < c.NumDays(); next++ {
					pair := cpmodel.NewLinearExpr()
					for sh := range c.Shifts {
						pair.Add(b.assign[varKey{user: u.UserIndex, shift: sh, date: d}])
						pair.Add(b.assign[varKey{user: u.UserIndex, shift: sh, date: next}])
					}
					b.builder.AddLessOrEqual(pair, cpmodel.NewConstant(1))
					b.numConstraints++
				}
			}
		}
	}

	if hard.EnforceMaxConsecutiveShifts {
		for _, u := range c.Users {
			window := u.MaxConsecutiveShifts + 1
			for start := 0; start+window <= c.NumDays(); start++ {
				run := cpmodel.NewLinearExpr()
				for offset := 0; offset < window; offset++ {
					for sh := range c.Shifts {
						run.Add(b.assign[varKey{user: u.UserIndex, shift: sh, date: start + offset}])
					}
				}
				b.builder.AddLessOrEqual(run, cpmodel.NewConstant(int64(u.MaxConsecutiveShifts)))
				b.numConstraints++
			}
		}
	}

	if hard.EnforceProductivityHours {
		for _, u := range c.Users {
			if u.ProductivityRequiredHours == nil {
				continue
			}
			capMinutes := int64(math.Round(*u.ProductivityRequiredHours * 60))
			worked := cpmodel.NewLinearExpr()
			for _, sh := range c.Shifts {
				for d := range c.Dates {
					worked.AddTerm(b.assign[varKey{user: u.UserIndex, shift: sh.ShiftIndex, date: d}], int64(sh.DurationMinutes))
				}
			}
			b.builder.AddLessOrEqual(worked, cpmodel.NewConstant(capMinutes))
			b.numConstraints++
		}
	}
}

// addSpecialtyCapacity 专业容量: 人数落在 [需求, 需求+2],
// 性别子计数不低于下限, 待命人数不超过待命需求
func (s *Scheduler) addSpecialtyCapacity(b *modelBuilder) {
	c := s.constraints
	for _, sh := range c.Shifts {
		for _, sr := range sh.SpecialtyRequirements {
			for d := range c.Dates {
				total := cpmodel.NewLinearExpr()
				males := cpmodel.NewLinearExpr()
				females := cpmodel.NewLinearExpr()
				onCalls := cpmodel.NewLinearExpr()
				matched := 0
				maleCount, femaleCount := 0, 0

				for _, u := range c.Users {
					if u.SpecialtyID != sr.SpecialtyID {
						continue
					}
					k := varKey{user: u.UserIndex, shift: sh.ShiftIndex, date: d}
					total.Add(b.assign[k])
					onCalls.Add(b.onCall[k])
					matched++
					if u.Gender == model.GenderMale {
						males.Add(b.assign[k])
						maleCount++
					} else {
						females.Add(b.assign[k])
						femaleCount++
					}
				}

				if matched > 0 {
					required := int64(sr.RequiredTotalCount)
					b.builder.AddLinearConstraint(total, required, required+specialtyCapacitySlack)
					b.builder.AddLessOrEqual(onCalls, cpmodel.NewConstant(int64(sr.OnCallTotalCount)))
					b.numConstraints += 2

					// 专业统计辅助变量与实际人数保持一致
					specIdx := c.specialtyIndex[sr.SpecialtyID]
					sk := specialtyKey{shift: sh.ShiftIndex, date: d, specialty: specIdx}
					b.builder.AddEquality(b.specialty[sk], total)
					b.numConstraints++
				}
				if maleCount > 0 {
					b.builder.AddGreaterOrEqual(males, cpmodel.NewConstant(int64(sr.RequiredMaleCount)))
					b.numConstraints++
				}
				if femaleCount > 0 {
					b.builder.AddGreaterOrEqual(females, cpmodel.NewConstant(int64(sr.RequiredFemaleCount)))
					b.numConstraints++
				}
			}
		}
	}
}

// buildObjective 目标: 最大化覆盖, 扣除软性惩罚, 叠加偏好奖惩
func (s *Scheduler) buildObjective(b *modelBuilder) *cpmodel.LinearExpr {
	c := s.constraints
	objective := cpmodel.NewLinearExpr()

	for _, v := range b.assign {
		objective.Add(v)
	}

	if c.Global.RequireGenderBalance {
		s.addGenderBalancePenalty(b, objective)
	}
	if !c.HardRules.EnforceMaxShiftsPerWeek {
		s.addWeeklyExcessPenalty(b, objective)
	}
	if !c.HardRules.EnforceMaxNightShiftsPerMonth {
		s.addMonthlyNightExcessPenalty(b, objective)
	}
	s.addPreferencePenalty(b, objective)

	return objective
}

// addGenderBalancePenalty 惩罚变量 ≥ |男 − 女|, 以权重扣分
func (s *Scheduler) addGenderBalancePenalty(b *modelBuilder, objective *cpmodel.LinearExpr) {
	c := s.constraints
	weight := objectiveWeight(c.SoftWeights.GenderBalance)
	for sh := range c.Shifts {
		for d := range c.Dates {
			males := cpmodel.NewLinearExpr()
			females := cpmodel.NewLinearExpr()
			for _, u := range c.Users {
				k := varKey{user: u.UserIndex, shift: sh, date: d}
				if u.Gender == model.GenderMale {
					males.Add(b.assign[k])
				} else {
					females.Add(b.assign[k])
				}
			}

			maleVar := b.gender[genderKey{shift: sh, date: d, gender: model.GenderMale}]
			femaleVar := b.gender[genderKey{shift: sh, date: d, gender: model.GenderFemale}]
			b.builder.AddEquality(maleVar, males)
			b.builder.AddEquality(femaleVar, females)

			penalty := b.builder.NewIntVar(0, int64(c.NumUsers()))
			b.numVariables++
			diff := cpmodel.NewLinearExpr().Add(maleVar).AddTerm(femaleVar, -1)
			b.builder.AddGreaterOrEqual(penalty, diff)
			reversed := cpmodel.NewLinearExpr().Add(femaleVar).AddTerm(maleVar, -1)
			b.builder.AddGreaterOrEqual(penalty, reversed)
			b.numConstraints += 4

			objective.AddTerm(penalty, -weight)
		}
	}
}

// addWeeklyExcessPenalty 周超额变量 ≥ 周排班数 − 周上限
func (s *Scheduler) addWeeklyExcessPenalty(b *modelBuilder, objective *cpmodel.LinearExpr) {
	c := s.constraints
	weight := objectiveWeight(c.SoftWeights.WeeklyMax)
	numWeeks := (c.NumDays() + 6) / 7
	for _, u := range c.Users {
		for week := 0; week < numWeeks; week++ {
			startDay := week * 7
			endDay := startDay + 7
			if endDay > c.NumDays() {
				endDay = c.NumDays()
			}
			weekly := cpmodel.NewLinearExpr()
			for d := startDay; d < endDay; d++ {
				for sh := range c.Shifts {
					weekly.Add(b.assign[varKey{user: u.UserIndex, shift: sh, date: d}])
				}
			}

			excess := b.builder.NewIntVar(0, int64(c.NumDays()))
			b.numVariables++
			shortfall := cpmodel.NewLinearExpr().Add(weekly).AddConstant(int64(-u.MaxShiftsPerWeek))
			b.builder.AddGreaterOrEqual(excess, shortfall)
			b.numConstraints++

			objective.AddTerm(excess, -weight)
		}
	}
}

// addMonthlyNightExcessPenalty 晚班超额变量 ≥ 晚班总数 − 月上限
func (s *Scheduler) addMonthlyNightExcessPenalty(b *modelBuilder, objective *cpmodel.LinearExpr) {
	c := s.constraints
	weight := objectiveWeight(c.SoftWeights.MonthlyNightCap)
	for _, u := range c.Users {
		nights := cpmodel.NewLinearExpr()
		nightShifts := 0
		for _, sh := range c.Shifts {
			if sh.Label != model.ShiftNight {
				continue
			}
			nightShifts++
			for d := range c.Dates {
				nights.Add(b.assign[varKey{user: u.UserIndex, shift: sh.ShiftIndex, date: d}])
			}
		}
		if nightShifts == 0 {
			continue
		}

		excess := b.builder.NewIntVar(0, int64(c.NumDays()))
		b.numVariables++
		shortfall := cpmodel.NewLinearExpr().Add(nights).AddConstant(int64(-u.MaxNightShiftsPerMonth))
		b.builder.AddGreaterOrEqual(excess, shortfall)
		b.numConstraints++

		objective.AddTerm(excess, -weight)
	}
}

// addPreferencePenalty 偏好班段加分, 不愿意的班段以双倍权重扣分
func (s *Scheduler) addPreferencePenalty(b *modelBuilder, objective *cpmodel.LinearExpr) {
	c := s.constraints
	preferred := objectiveWeight(c.SoftWeights.UserPreferredShift)
	unwanted := objectiveWeight(c.SoftWeights.UserUnwantedShift)
	for _, u := range c.Users {
		for _, sh := range c.Shifts {
			if !u.PreferredShifts[sh.Label] && !u.UnwantedShifts[sh.Label] {
				continue
			}
			for d := range c.Dates {
				k := varKey{user: u.UserIndex, shift: sh.ShiftIndex, date: d}
				if u.PreferredShifts[sh.Label] {
					objective.AddTerm(b.assign[k], preferred)
				}
				if u.UnwantedShifts[sh.Label] {
					objective.AddTerm(b.assign[k], -2*unwanted)
				}
			}
		}
	}
}

// applyHint 将外部解注入为搜索提示
func (s *Scheduler) applyHint(b *modelBuilder) {
	if s.hint == nil || s.hint.Len() == 0 {
		return
	}
	c := s.constraints

	userIndex := make(map[int]int, c.NumUsers())
	for _, u := range c.Users {
		userIndex[u.UserID] = u.UserIndex
	}
	shiftIndex := make(map[int]int, c.NumShifts())
	for _, sh := range c.Shifts {
		shiftIndex[sh.ShiftID] = sh.ShiftIndex
	}
	dateIndex := make(map[string]int, c.NumDays())
	for i, d := range c.Dates {
		dateIndex[d] = i
	}

	hint := &cpmodel.Hint{Bools: make(map[cpmodel.BoolVar]bool)}
	for key := range b.assign {
		hint.Bools[b.assign[key]] = false
	}
	for _, a := range s.hint.Assignments {
		u, okUser := userIndex[a.UserID]
		sh, okShift := shiftIndex[a.ShiftID]
		d, okDate := dateIndex[a.Date]
		if okUser && okShift && okDate {
			hint.Bools[b.assign[varKey{user: u, shift: sh, date: d}]] = true
		}
	}
	b.builder.SetHint(hint)
}

// objectiveWeight 软性权重换算为整数目标系数, 最小为 1
func objectiveWeight(w float64) int64 {
	coeff := int64(math.Round(w))
	if coeff < 1 {
		coeff = 1
	}
	return coeff
}
