// Package stats 提供排班结果的统计汇总与公平性度量
package stats

import (
	"sort"

	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/solution"
)

// ScheduleStatistics 一次排班结果的统计汇总
type ScheduleStatistics struct {
	TotalAssignments     int
	TotalUsers           int
	AverageShiftsPerUser float64

	ShiftsByLabel map[model.ShiftLabel]int
	ShiftsByUser  map[int]int

	WorkedHoursByUser          map[int]float64
	RequiredHoursByUser        map[int]float64
	OvertimeHoursByUser        map[int]float64
	TotalScheduledHours        float64
	ProductivityComplianceRate float64

	SoftViolationRate float64
	WorkloadGini      float64
}

// Compute 汇总解的统计信息
func Compute(constraints *model.ShiftConstraints, sol *solution.Solution) *ScheduleStatistics {
	s := &ScheduleStatistics{
		ShiftsByLabel:       make(map[model.ShiftLabel]int),
		ShiftsByUser:        make(map[int]int),
		WorkedHoursByUser:   make(map[int]float64),
		RequiredHoursByUser: make(map[int]float64),
		OvertimeHoursByUser: make(map[int]float64),
	}
	if sol == nil {
		return s
	}

	durations := make(map[int]float64, len(constraints.ShiftRequirements))
	for _, sr := range constraints.ShiftRequirements {
		durations[sr.ShiftID] = sr.DurationHours()
	}

	s.TotalAssignments = sol.Len()
	for _, a := range sol.Assignments {
		s.ShiftsByLabel[a.Label]++
		s.ShiftsByUser[a.UserID]++
		hours, ok := durations[a.ShiftID]
		if !ok {
			hours = model.DefaultShiftDurationHours
		}
		s.WorkedHoursByUser[a.UserID] += hours
		s.TotalScheduledHours += hours
	}

	users := constraints.ActiveUsers()
	s.TotalUsers = len(users)
	if s.TotalUsers > 0 {
		s.AverageShiftsPerUser = float64(s.TotalAssignments) / float64(s.TotalUsers)
	}

	capped, compliant := 0, 0
	workloads := make([]float64, 0, len(users))
	for _, u := range users {
		workloads = append(workloads, s.WorkedHoursByUser[u.UserID])
		if u.ProductivityRequiredHours == nil {
			continue
		}
		capped++
		required := *u.ProductivityRequiredHours
		worked := s.WorkedHoursByUser[u.UserID]
		s.RequiredHoursByUser[u.UserID] = required
		if worked <= required+model.ProductivityToleranceHours {
			compliant++
		} else {
			s.OvertimeHoursByUser[u.UserID] = worked - required
		}
	}
	if capped > 0 {
		s.ProductivityComplianceRate = float64(compliant) / float64(capped)
	} else {
		s.ProductivityComplianceRate = 1.0
	}

	if s.TotalAssignments > 0 {
		s.SoftViolationRate = float64(len(sol.Violations)) / float64(s.TotalAssignments)
	}

	s.WorkloadGini = giniCoefficient(workloads)
	return s
}

// giniCoefficient 工作量分布的基尼系数, 0 为完全均衡
func giniCoefficient(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	return (2*weighted - float64(n+1)*sum) / (float64(n) * sum)
}
