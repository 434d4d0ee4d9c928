// Package productivity 计算人员的法定月度工时上限。
// 上限由排班服务在约束装配阶段查询, 作为求解器的硬性工时约束输入。
package productivity

import "fmt"

// 全职人员的基准月度工时
const DefaultBaseMonthlyHours = 176.0

// Employment 人员的聘用信息
type Employment struct {
	UserID            int
	EmploymentPercent float64 // 聘用比例, 1.0 为全职
	DeductionHours    float64 // 政策性减免工时
}

// Snapshot 工时上限的计算快照
type Snapshot struct {
	BaseMonthlyHours   float64
	EmploymentPercent  float64
	TotalDeductions    float64
	FinalRequiredHours float64
}

// Calculator 计算某人员某月的法定工时上限
type Calculator interface {
	MonthlyRequiredHours(emp Employment, year, month int) (*Snapshot, error)
}

// CalculatorFunc 函数适配器
type CalculatorFunc func(emp Employment, year, month int) (*Snapshot, error)

// MonthlyRequiredHours 实现 Calculator
func (f CalculatorFunc) MonthlyRequiredHours(emp Employment, year, month int) (*Snapshot, error) {
	return f(emp, year, month)
}

// DefaultCalculator 基准工时 × 聘用比例 − 减免
type DefaultCalculator struct {
	BaseMonthlyHours float64
}

// NewDefaultCalculator 创建缺省计算器
func NewDefaultCalculator() *DefaultCalculator {
	return &DefaultCalculator{BaseMonthlyHours: DefaultBaseMonthlyHours}
}

// MonthlyRequiredHours 实现 Calculator
func (c *DefaultCalculator) MonthlyRequiredHours(emp Employment, year, month int) (*Snapshot, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("月份非法: %d", month)
	}
	percent := emp.EmploymentPercent
	if percent <= 0 || percent > 1 {
		percent = 1.0
	}
	base := c.BaseMonthlyHours
	if base <= 0 {
		base = DefaultBaseMonthlyHours
	}

	final := base*percent - emp.DeductionHours
	if final < 0 {
		final = 0
	}
	return &Snapshot{
		BaseMonthlyHours:   base,
		EmploymentPercent:  percent,
		TotalDeductions:    emp.DeductionHours,
		FinalRequiredHours: final,
	}, nil
}
