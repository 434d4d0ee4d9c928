package annealing

import (
	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/solution"
)

// moveType 邻域移动类型
type moveType int

const (
	moveSwap moveType = iota
	moveReassign
	moveAdd
	moveRemove
	numMoveTypes
)

// eligible 判断人员能否承担某日某班次:在岗、当日可用、
// 班段与排班模式匹配、专业在班次需求之内
func (s *Scheduler) eligible(u *model.UserConstraint, shift *model.ShiftRequirement, date string) bool {
	if !u.IsActive {
		return false
	}
	if u.UnavailableDates[date] {
		return false
	}
	if !u.AllowsLabel(shift.Label) {
		return false
	}
	if len(shift.SpecialtyRequirements) == 0 {
		return true
	}
	for _, sr := range shift.SpecialtyRequirements {
		if sr.SpecialtyID == u.SpecialtyID {
			return true
		}
	}
	return false
}

// neighbor 随机生成一个邻居解。每轮最多尝试 MaxNeighborsPerIteration 次,
// 产生不了有效变化时返回 nil。
func (s *Scheduler) neighbor(current *solution.Solution) *solution.Solution {
	for attempt := 0; attempt < s.params.MaxNeighborsPerIteration; attempt++ {
		candidate := current.Clone()
		var changed bool
		switch moveType(s.rng.Intn(int(numMoveTypes))) {
		case moveSwap:
			changed = s.applySwap(candidate)
		case moveReassign:
			changed = s.applyReassign(candidate)
		case moveAdd:
			changed = s.applyAdd(candidate)
		case moveRemove:
			changed = s.applyRemove(candidate)
		}
		if changed {
			return candidate
		}
	}
	return nil
}

// applySwap 交换两条分配的人员
func (s *Scheduler) applySwap(sol *solution.Solution) bool {
	assignments := sol.Sorted()
	if len(assignments) < 2 {
		return false
	}
	a := assignments[s.rng.Intn(len(assignments))]
	b := assignments[s.rng.Intn(len(assignments))]
	if a.UserID == b.UserID {
		return false
	}
	ua := s.constraints.UserByID(a.UserID)
	ub := s.constraints.UserByID(b.UserID)
	sa := s.constraints.ShiftByID(a.ShiftID)
	sb := s.constraints.ShiftByID(b.ShiftID)
	if ua == nil || ub == nil || sa == nil || sb == nil {
		return false
	}
	// 互换后双方仍需满足资格
	if !s.eligible(ua, sb, b.Date) || !s.eligible(ub, sa, a.Date) {
		return false
	}
	if sol.Has(a.UserID, b.ShiftID, b.Date) || sol.Has(b.UserID, a.ShiftID, a.Date) {
		return false
	}
	sol.Remove(a.UserID, a.ShiftID, a.Date)
	sol.Remove(b.UserID, b.ShiftID, b.Date)
	sol.Add(b.UserID, a.ShiftID, a.Date, sa.Label, a.OnCall)
	sol.Add(a.UserID, b.ShiftID, b.Date, sb.Label, b.OnCall)
	return true
}

// applyReassign 将一条分配改派给其他人员
func (s *Scheduler) applyReassign(sol *solution.Solution) bool {
	assignments := sol.Sorted()
	if len(assignments) == 0 {
		return false
	}
	a := assignments[s.rng.Intn(len(assignments))]
	shift := s.constraints.ShiftByID(a.ShiftID)
	if shift == nil {
		return false
	}
	var candidates []*model.UserConstraint
	for _, u := range s.constraints.UserConstraints {
		if u.UserID != a.UserID && s.eligible(u, shift, a.Date) && !sol.Has(u.UserID, a.ShiftID, a.Date) {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	target := candidates[s.rng.Intn(len(candidates))]
	sol.Remove(a.UserID, a.ShiftID, a.Date)
	sol.Add(target.UserID, a.ShiftID, a.Date, shift.Label, a.OnCall)
	return true
}

// applyAdd 随机补充一条分配
func (s *Scheduler) applyAdd(sol *solution.Solution) bool {
	dates := s.constraints.Dates()
	if len(dates) == 0 || len(s.constraints.ShiftRequirements) == 0 {
		return false
	}
	date := dates[s.rng.Intn(len(dates))]
	shift := s.constraints.ShiftRequirements[s.rng.Intn(len(s.constraints.ShiftRequirements))]
	var candidates []*model.UserConstraint
	for _, u := range s.constraints.UserConstraints {
		if s.eligible(u, shift, date) && !sol.Has(u.UserID, shift.ShiftID, date) {
			candidates = append(candidates, u)
		}
	}
	if len(candidates) == 0 {
		return false
	}
	target := candidates[s.rng.Intn(len(candidates))]
	sol.Add(target.UserID, shift.ShiftID, date, shift.Label, false)
	return true
}

// applyRemove 随机删除一条分配
func (s *Scheduler) applyRemove(sol *solution.Solution) bool {
	assignments := sol.Sorted()
	if len(assignments) == 0 {
		return false
	}
	a := assignments[s.rng.Intn(len(assignments))]
	sol.Remove(a.UserID, a.ShiftID, a.Date)
	return true
}

// generateInitial 随机贪心构造初始解:逐日逐班次打乱合格人员,
// 按专业需求人数依次指派
func (s *Scheduler) generateInitial() *solution.Solution {
	sol := solution.New()
	for _, date := range s.constraints.Dates() {
		for _, shift := range s.constraints.ShiftRequirements {
			for _, sr := range shift.SpecialtyRequirements {
				var eligible []*model.UserConstraint
				for _, u := range s.constraints.UserConstraints {
					if u.SpecialtyID == sr.SpecialtyID && s.eligible(u, shift, date) {
						eligible = append(eligible, u)
					}
				}
				s.rng.Shuffle(len(eligible), func(i, j int) {
					eligible[i], eligible[j] = eligible[j], eligible[i]
				})
				assigned := 0
				for _, u := range eligible {
					if assigned >= sr.RequiredTotalCount {
						break
					}
					if sol.Has(u.UserID, shift.ShiftID, date) {
						continue
					}
					sol.Add(u.UserID, shift.ShiftID, date, shift.Label, false)
					assigned++
				}
			}
		}
	}
	return sol
}
