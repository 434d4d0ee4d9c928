package annealing

import (
	"fmt"
	"math"

	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/solution"
)

// 各类软性违规的基准罚分
const (
	penaltyConsecutive     = 50.0
	penaltyRest            = 30.0
	penaltyWeekly          = 40.0
	penaltyMonthlyNight    = 60.0
	penaltyGenderImbalance = 100.0
	penaltySpecialtyShort  = 50.0
	penaltyUnwantedShift   = 20.0
	rewardPreferredShift   = 5.0
	rewardPerAssignment    = 10.0
)

// Evaluate 计算解的评分并回填违规列表,分数越低越好。
// 对同一解重复调用结果一致。
func (s *Scheduler) Evaluate(sol *solution.Solution) float64 {
	sol.Violations = nil
	score := 0.0

	// 覆盖奖励:每条分配 -10
	score -= float64(sol.Len()) * rewardPerAssignment

	// 未启用硬性过滤的规则按软性罚分计
	score += s.constraintViolationPenalty(sol) * s.params.PenaltyWeight

	score += s.genderBalancePenalty(sol)
	score += s.specialtyShortfallPenalty(sol)
	score += s.preferencePenalty(sol)

	score += s.fairShiftCountPenalty(sol) * s.constraints.SoftWeights.FairShiftCountBalance
	score += s.extraShiftRotationPenalty(sol) * s.constraints.SoftWeights.ExtraShiftRotation
	score += s.shiftLabelBalancePenalty(sol) * s.constraints.SoftWeights.ShiftLabelBalance

	return score
}

func (s *Scheduler) constraintViolationPenalty(sol *solution.Solution) float64 {
	penalty := 0.0
	hard := s.constraints.HardRules
	weights := s.constraints.SoftWeights

	for _, u := range s.constraints.UserConstraints {
		assignments := sol.UserAssignments(u.UserID)

		if !hard.EnforceMaxConsecutiveShifts {
			penalty += s.checkConsecutive(sol, u, assignments)
		}
		if !hard.EnforceMinRestDays {
			penalty += s.checkRestDays(sol, u, assignments)
		}
		if !hard.EnforceMaxShiftsPerWeek {
			penalty += s.checkWeekly(sol, u, assignments) * weights.WeeklyMax
		}
		if !hard.EnforceMaxNightShiftsPerMonth {
			penalty += s.checkMonthlyNight(sol, u, assignments) * weights.MonthlyNightCap
		}
		if !hard.EnforceProductivityHours && u.ProductivityRequiredHours != nil {
			penalty += s.checkProductivity(sol, u, assignments) * weights.ProductivityOvertime
		}
	}
	return penalty
}

func (s *Scheduler) checkConsecutive(sol *solution.Solution, u *model.UserConstraint, assignments []*solution.Assignment) float64 {
	penalty := 0.0
	consecutive := 1
	for i := 1; i < len(assignments); i++ {
		if model.DaysBetween(assignments[i-1].Date, assignments[i].Date) == 1 {
			consecutive++
			if consecutive > u.MaxConsecutiveShifts {
				penalty += penaltyConsecutive
				sol.Violations = append(sol.Violations,
					fmt.Sprintf("人员 %d 连续 %d 天排班, 超过上限 %d", u.UserID, consecutive, u.MaxConsecutiveShifts))
			}
		} else {
			consecutive = 1
		}
	}
	return penalty
}

func (s *Scheduler) checkRestDays(sol *solution.Solution, u *model.UserConstraint, assignments []*solution.Assignment) float64 {
	penalty := 0.0
	for i := 1; i < len(assignments); i++ {
		gap := model.DaysBetween(assignments[i-1].Date, assignments[i].Date)
		if gap < u.MinRestDaysBetweenShifts+1 {
			penalty += penaltyRest
			sol.Violations = append(sol.Violations,
				fmt.Sprintf("人员 %d 两次排班间隔 %d 天, 不足 %d 天", u.UserID, gap, u.MinRestDaysBetweenShifts+1))
		}
	}
	return penalty
}

func (s *Scheduler) checkWeekly(sol *solution.Solution, u *model.UserConstraint, assignments []*solution.Assignment) float64 {
	penalty := 0.0
	weeks := make(map[int]int)
	for _, a := range assignments {
		weeks[model.WeekNumber(a.Date)]++
	}
	for week, count := range weeks {
		if count > u.MaxShiftsPerWeek {
			penalty += penaltyWeekly
			sol.Violations = append(sol.Violations,
				fmt.Sprintf("人员 %d 第 %d 周排班 %d 次, 超过上限 %d", u.UserID, week, count, u.MaxShiftsPerWeek))
		}
	}
	return penalty
}

func (s *Scheduler) checkMonthlyNight(sol *solution.Solution, u *model.UserConstraint, assignments []*solution.Assignment) float64 {
	penalty := 0.0
	months := make(map[string]int)
	for _, a := range assignments {
		if a.Label == model.ShiftNight {
			months[model.MonthKey(a.Date)]++
		}
	}
	for month, count := range months {
		if count > u.MaxNightShiftsPerMonth {
			penalty += penaltyMonthlyNight
			sol.Violations = append(sol.Violations,
				fmt.Sprintf("人员 %d 在 %s 排晚班 %d 次, 超过上限 %d", u.UserID, month, count, u.MaxNightShiftsPerMonth))
		}
	}
	return penalty
}

func (s *Scheduler) checkProductivity(sol *solution.Solution, u *model.UserConstraint, assignments []*solution.Assignment) float64 {
	worked := s.workedHours(assignments)
	limit := *u.ProductivityRequiredHours
	if worked <= limit+model.ProductivityToleranceHours {
		return 0
	}
	sol.Violations = append(sol.Violations,
		fmt.Sprintf("人员 %d 工时 %.1f 小时, 超过法定上限 %.1f 小时", u.UserID, worked, limit))
	return worked - limit
}

// workedHours 合计分配的班次时长
func (s *Scheduler) workedHours(assignments []*solution.Assignment) float64 {
	total := 0.0
	for _, a := range assignments {
		if d, ok := s.durations[a.ShiftID]; ok {
			total += d
		} else {
			total += model.DefaultShiftDurationHours
		}
	}
	return total
}

func (s *Scheduler) genderBalancePenalty(sol *solution.Solution) float64 {
	if !s.constraints.Global.RequireGenderBalance {
		return 0
	}
	penalty := 0.0
	minRatio := s.constraints.Global.MinGenderBalanceRatio
	for _, date := range s.constraints.Dates() {
		for _, shift := range s.constraints.ShiftRequirements {
			assignments := sol.ShiftAssignments(shift.ShiftID, date)
			if len(assignments) == 0 {
				continue
			}
			male := 0
			for _, a := range assignments {
				if u := s.constraints.UserByID(a.UserID); u != nil && u.Gender == model.GenderMale {
					male++
				}
			}
			total := float64(len(assignments))
			maleRatio := float64(male) / total
			femaleRatio := float64(len(assignments)-male) / total
			if maleRatio < minRatio || femaleRatio < minRatio {
				penalty += penaltyGenderImbalance
			}
		}
	}
	return penalty * s.constraints.SoftWeights.GenderBalance
}

func (s *Scheduler) specialtyShortfallPenalty(sol *solution.Solution) float64 {
	if !s.constraints.Global.PreferSpecialtyMatch {
		return 0
	}
	penalty := 0.0
	for _, date := range s.constraints.Dates() {
		for _, shift := range s.constraints.ShiftRequirements {
			assignments := sol.ShiftAssignments(shift.ShiftID, date)
			for _, sr := range shift.SpecialtyRequirements {
				assigned, male := 0, 0
				for _, a := range assignments {
					u := s.constraints.UserByID(a.UserID)
					if u == nil || u.SpecialtyID != sr.SpecialtyID {
						continue
					}
					assigned++
					if u.Gender == model.GenderMale {
						male++
					}
				}
				if assigned < sr.RequiredTotalCount {
					penalty += float64(sr.RequiredTotalCount-assigned) * penaltySpecialtyShort
				}
				// 性别下限缺口同样计入缺员罚分
				if male < sr.RequiredMaleCount {
					penalty += float64(sr.RequiredMaleCount-male) * penaltySpecialtyShort
				}
				if female := assigned - male; female < sr.RequiredFemaleCount {
					penalty += float64(sr.RequiredFemaleCount-female) * penaltySpecialtyShort
				}
			}
		}
	}
	return penalty * s.constraints.SoftWeights.SpecialtyPreference
}

func (s *Scheduler) preferencePenalty(sol *solution.Solution) float64 {
	penalty := 0.0
	for _, a := range sol.Assignments {
		u := s.constraints.UserByID(a.UserID)
		if u == nil {
			continue
		}
		if u.UnwantedShifts[a.Label] {
			penalty += penaltyUnwantedShift * s.constraints.SoftWeights.UserUnwantedShift
		}
		if u.PreferredShifts[a.Label] {
			penalty -= rewardPreferredShift * s.constraints.SoftWeights.UserPreferredShift
		}
	}
	return penalty
}

// fairShiftCountPenalty 班次数偏离全员均值的绝对偏差之和
func (s *Scheduler) fairShiftCountPenalty(sol *solution.Solution) float64 {
	users := s.constraints.UserConstraints
	if len(users) == 0 {
		return 0
	}
	counts := make([]int, len(users))
	total := 0
	for i, u := range users {
		counts[i] = len(sol.UserAssignments(u.UserID))
		total += counts[i]
	}
	avg := float64(total) / float64(len(users))
	sum := 0.0
	for _, c := range counts {
		sum += math.Abs(float64(c) - avg)
	}
	return sum
}

// extraShiftRotationPenalty 本期超均值的人员若近期历史负担也偏高则加罚,
// 促使加班在人员间轮换
func (s *Scheduler) extraShiftRotationPenalty(sol *solution.Solution) float64 {
	users := s.constraints.UserConstraints
	if len(users) == 0 {
		return 0
	}
	counts := make([]int, len(users))
	total := 0
	for i, u := range users {
		counts[i] = len(sol.UserAssignments(u.UserID))
		total += counts[i]
	}
	avg := float64(total) / float64(len(users))

	penalty := 0.0
	for i, u := range users {
		if float64(counts[i]) <= avg+0.5 {
			continue
		}
		if extra := u.RecentTotalShifts - int(avg); extra > 0 {
			penalty += float64(extra)
		}
	}
	return penalty
}

// shiftLabelBalancePenalty 轮转人员早/中/晚分布偏离均分的绝对偏差之和
func (s *Scheduler) shiftLabelBalancePenalty(sol *solution.Solution) float64 {
	penalty := 0.0
	for _, u := range s.constraints.UserConstraints {
		if u.ShiftType != model.ShiftTypeRotating {
			continue
		}
		assignments := sol.UserAssignments(u.UserID)
		if len(assignments) == 0 {
			continue
		}
		fair := float64(len(assignments)) / 3.0
		var m, e, n int
		for _, a := range assignments {
			switch a.Label {
			case model.ShiftMorning:
				m++
			case model.ShiftEvening:
				e++
			case model.ShiftNight:
				n++
			}
		}
		penalty += math.Abs(float64(m)-fair) + math.Abs(float64(e)-fair) + math.Abs(float64(n)-fair)
	}
	return penalty
}
