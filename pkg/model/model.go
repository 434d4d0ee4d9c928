// Package model 定义排班引擎的核心领域模型:
// 约束输入、人员与班次需求、硬性规则开关和软性规则权重。
package model

// ShiftLabel 班次标签(早/中/晚)
type ShiftLabel string

const (
	ShiftMorning ShiftLabel = "morning" // 早班
	ShiftEvening ShiftLabel = "evening" // 中班
	ShiftNight   ShiftLabel = "night"   // 晚班
)

// Gender 人员性别
type Gender int

const (
	GenderMale   Gender = 1
	GenderFemale Gender = 2
)

// ShiftType 人员的排班模式
type ShiftType int

const (
	ShiftTypeRotating ShiftType = iota // 轮转:早/中/晚均可参与
	ShiftTypeFixed                     // 固定:只上固定班段
)

// ShiftSubType 固定排班模式下的固定班段
type ShiftSubType int

const (
	SubTypeNone    ShiftSubType = iota
	SubTypeMorning              // 固定早班
	SubTypeEvening              // 固定中班
	SubTypeNight                // 固定晚班
)

// TwoShiftRotationPattern 两班倒人员的轮转组合
type TwoShiftRotationPattern int

const (
	RotationMorningEvening TwoShiftRotationPattern = iota + 1 // 早+中
	RotationMorningNight                                      // 早+晚
	RotationEveningNight                                      // 中+晚
)

// Algorithm 排班求解算法
type Algorithm string

const (
	AlgorithmSimulatedAnnealing Algorithm = "simulated_annealing"
	AlgorithmCPSat              Algorithm = "cpsat"
	AlgorithmHybrid             Algorithm = "hybrid"
)

// Valid 判断算法取值是否受支持
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmSimulatedAnnealing, AlgorithmCPSat, AlgorithmHybrid:
		return true
	}
	return false
}

// AllowsLabel 判断人员在其排班模式下能否承担某个班次标签
func (u *UserConstraint) AllowsLabel(label ShiftLabel) bool {
	if u.ShiftType == ShiftTypeRotating {
		if u.RotationPattern == nil {
			return true
		}
		switch *u.RotationPattern {
		case RotationMorningEvening:
			return label == ShiftMorning || label == ShiftEvening
		case RotationMorningNight:
			return label == ShiftMorning || label == ShiftNight
		case RotationEveningNight:
			return label == ShiftEvening || label == ShiftNight
		}
		return true
	}
	switch u.ShiftSubType {
	case SubTypeMorning:
		return label == ShiftMorning
	case SubTypeEvening:
		return label == ShiftEvening
	case SubTypeNight:
		return label == ShiftNight
	}
	return true
}
