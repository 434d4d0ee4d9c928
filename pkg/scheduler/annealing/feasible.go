package annealing

import (
	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/solution"
)

// IsFeasible 判断解是否满足全部启用的硬性规则。
// 不可行的解既不能作为最终输出,也不能被接受为邻居。
func (s *Scheduler) IsFeasible(sol *solution.Solution) bool {
	hard := s.constraints.HardRules

	if hard.ForbidUnavailableDates {
		for _, a := range sol.Assignments {
			u := s.constraints.UserByID(a.UserID)
			if u != nil && u.UnavailableDates[a.Date] {
				return false
			}
		}
	}

	if hard.ForbidDuplicateDailyAssignments || hard.EnforceMaxShiftsPerDay {
		daily := make(map[int]map[string]int)
		for _, a := range sol.Assignments {
			if daily[a.UserID] == nil {
				daily[a.UserID] = make(map[string]int)
			}
			daily[a.UserID][a.Date]++
		}
		for _, dates := range daily {
			for _, count := range dates {
				if hard.ForbidDuplicateDailyAssignments && count > 1 {
					return false
				}
				if hard.EnforceMaxShiftsPerDay && count > s.constraints.Global.MaxShiftsPerDay {
					return false
				}
			}
		}
	}

	for _, u := range s.constraints.UserConstraints {
		assignments := sol.UserAssignments(u.UserID)

		if hard.EnforceMinRestDays {
			for i := 1; i < len(assignments); i++ {
				gap := model.DaysBetween(assignments[i-1].Date, assignments[i].Date)
				if gap < u.MinRestDaysBetweenShifts+1 {
					return false
				}
			}
		}

		if hard.EnforceMaxConsecutiveShifts {
			consecutive := 1
			for i := 1; i < len(assignments); i++ {
				if model.DaysBetween(assignments[i-1].Date, assignments[i].Date) == 1 {
					consecutive++
					if consecutive > u.MaxConsecutiveShifts {
						return false
					}
				} else {
					consecutive = 1
				}
			}
		}

		if hard.EnforceProductivityHours && u.ProductivityRequiredHours != nil {
			if s.workedHours(assignments) > *u.ProductivityRequiredHours+model.ProductivityToleranceHours {
				return false
			}
		}
	}

	if hard.EnforceSpecialtyCapacity {
		for _, date := range s.constraints.Dates() {
			for _, shift := range s.constraints.ShiftRequirements {
				assignments := sol.ShiftAssignments(shift.ShiftID, date)
				if len(assignments) > shift.RequiredTotal() {
					return false
				}
				for _, sr := range shift.SpecialtyRequirements {
					assigned := 0
					for _, a := range assignments {
						if u := s.constraints.UserByID(a.UserID); u != nil && u.SpecialtyID == sr.SpecialtyID {
							assigned++
						}
					}
					if assigned > sr.RequiredTotalCount {
						return false
					}
				}
			}
		}
	}

	return true
}
