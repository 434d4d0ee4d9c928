// Package cpsat 基于 OR-Tools CP-SAT 实现排班的约束规划求解。
// 模型以 (人员, 班次, 日期) 的布尔变量为中心,硬性规则编码为线性约束,
// 软性规则通过惩罚变量进入目标函数。
package cpsat

import (
	"sort"

	"github.com/paiban/yipai/pkg/model"
)

// UserConstraint 索引化的人员约束
type UserConstraint struct {
	*model.UserConstraint

	// UserIndex 在变量空间中的连续下标
	UserIndex int
	// UnavailableDateIndices 不可用日期换算出的日期下标
	UnavailableDateIndices []int
}

// ShiftRequirement 索引化的班次需求
type ShiftRequirement struct {
	*model.ShiftRequirement

	ShiftIndex      int
	DurationMinutes int
}

// Constraints 索引归一化后的问题输入。
// 人员、班次、日期分别映射到 [0, N) 的连续下标空间。
type Constraints struct {
	DepartmentID int
	StartDate    string
	EndDate      string

	Users  []*UserConstraint
	Shifts []*ShiftRequirement
	Dates  []string

	Global      model.GlobalConstraints
	HardRules   model.HardRuleSet
	SoftWeights model.SoftRuleWeights

	// specialtyIndex 专业 ID 到连续下标的映射
	specialtyIndex map[int]int
}

// FromModel 由领域约束构造索引化输入
func FromModel(c *model.ShiftConstraints) *Constraints {
	dates := c.Dates()
	dateIndex := make(map[string]int, len(dates))
	for i, d := range dates {
		dateIndex[d] = i
	}

	out := &Constraints{
		DepartmentID:   c.DepartmentID,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		Dates:          dates,
		Global:         c.Global,
		HardRules:      c.HardRules,
		SoftWeights:    c.SoftWeights,
		specialtyIndex: make(map[int]int),
	}

	for i, u := range c.UserConstraints {
		iu := &UserConstraint{UserConstraint: u, UserIndex: i}
		for d := range u.UnavailableDates {
			if idx, ok := dateIndex[d]; ok {
				iu.UnavailableDateIndices = append(iu.UnavailableDateIndices, idx)
			}
		}
		sort.Ints(iu.UnavailableDateIndices)
		out.Users = append(out.Users, iu)
		out.specialty(u.SpecialtyID)
	}

	for i, s := range c.ShiftRequirements {
		out.Shifts = append(out.Shifts, &ShiftRequirement{
			ShiftRequirement: s,
			ShiftIndex:       i,
			DurationMinutes:  s.DurationMinutes(),
		})
		for _, sr := range s.SpecialtyRequirements {
			out.specialty(sr.SpecialtyID)
		}
	}

	return out
}

// specialty 取专业的连续下标,未见过的专业顺序分配
func (c *Constraints) specialty(specialtyID int) int {
	if idx, ok := c.specialtyIndex[specialtyID]; ok {
		return idx
	}
	idx := len(c.specialtyIndex)
	c.specialtyIndex[specialtyID] = idx
	return idx
}

// NumUsers 人员数
func (c *Constraints) NumUsers() int { return len(c.Users) }

// NumShifts 班次数
func (c *Constraints) NumShifts() int { return len(c.Shifts) }

// NumDays 天数
func (c *Constraints) NumDays() int { return len(c.Dates) }

// NumSpecialties 专业数
func (c *Constraints) NumSpecialties() int { return len(c.specialtyIndex) }

// TotalUnavailableDates 全员不可用日期条数,供复杂度估算
func (c *Constraints) TotalUnavailableDates() int {
	total := 0
	for _, u := range c.Users {
		total += len(u.UnavailableDateIndices)
	}
	return total
}
