package model

import (
	"fmt"
	"strconv"
	"strings"
)

// 人员级约束的缺省值
const (
	DefaultMaxConsecutiveShifts     = 3
	DefaultMinRestDaysBetweenShifts = 1
	DefaultMaxShiftsPerWeek         = 5
	DefaultMaxNightShiftsPerMonth   = 8
)

// DefaultShiftDurationHours 班次缺少起止时间时的缺省时长
const DefaultShiftDurationHours = 8.0

// ProductivityToleranceHours 法定工时上限的容忍余量(小时)
const ProductivityToleranceHours = 0.25

// UserConstraint 单个人员的排班约束
type UserConstraint struct {
	UserID        int
	UserName      string
	Gender        Gender
	SpecialtyID   int
	SpecialtyName string
	IsActive      bool

	UnavailableDates map[string]bool     // 不可排班日期,键为 YYYY-MM-DD
	PreferredShifts  map[ShiftLabel]bool // 偏好班段
	UnwantedShifts   map[ShiftLabel]bool // 不愿意的班段

	MaxConsecutiveShifts     int
	MinRestDaysBetweenShifts int
	MaxShiftsPerWeek         int
	MaxNightShiftsPerMonth   int

	CanBeShiftManager bool
	ShiftType         ShiftType
	ShiftSubType      ShiftSubType
	RotationPattern   *TwoShiftRotationPattern

	// ProductivityRequiredHours 本排班周期内的法定工时上限,nil 表示不限
	ProductivityRequiredHours *float64

	// RecentTotalShifts 近期历史班次总数,用于加班轮换的公平性评估
	RecentTotalShifts int
}

// NewUserConstraint 构造带缺省限额的人员约束
func NewUserConstraint(userID int, name string) *UserConstraint {
	return &UserConstraint{
		UserID:                   userID,
		UserName:                 name,
		IsActive:                 true,
		UnavailableDates:         make(map[string]bool),
		PreferredShifts:          make(map[ShiftLabel]bool),
		UnwantedShifts:           make(map[ShiftLabel]bool),
		MaxConsecutiveShifts:     DefaultMaxConsecutiveShifts,
		MinRestDaysBetweenShifts: DefaultMinRestDaysBetweenShifts,
		MaxShiftsPerWeek:         DefaultMaxShiftsPerWeek,
		MaxNightShiftsPerMonth:   DefaultMaxNightShiftsPerMonth,
	}
}

// SpecialtyRequirement 班次对单个专业的人数要求
type SpecialtyRequirement struct {
	SpecialtyID        int
	SpecialtyName      string
	RequiredTotalCount int
	RequiredMaleCount  int
	RequiredFemaleCount int
	OnCallTotalCount   int
	OnCallMaleCount    int
	OnCallFemaleCount  int
}

// ShiftRequirement 单个班次的定义与人员需求
type ShiftRequirement struct {
	ShiftID   int
	ShiftName string
	Label     ShiftLabel
	StartTime string // HH:MM,可为空
	EndTime   string // HH:MM,可为空

	SpecialtyRequirements []*SpecialtyRequirement
}

// DurationMinutes 班次时长(分钟)。起止时间缺失或非法时取缺省 8 小时,
// 结束早于开始视为跨天,不足 1 小时的按 1 小时计。
func (s *ShiftRequirement) DurationMinutes() int {
	start, okStart := parseClock(s.StartTime)
	end, okEnd := parseClock(s.EndTime)
	if !okStart || !okEnd {
		return int(DefaultShiftDurationHours * 60)
	}
	minutes := end - start
	if minutes <= 0 {
		minutes += 24 * 60
	}
	if minutes < 60 {
		minutes = 60
	}
	return minutes
}

// DurationHours 班次时长(小时)
func (s *ShiftRequirement) DurationHours() float64 {
	return float64(s.DurationMinutes()) / 60.0
}

// RequiredTotal 该班次全部专业的总需求人数
func (s *ShiftRequirement) RequiredTotal() int {
	total := 0
	for _, sr := range s.SpecialtyRequirements {
		total += sr.RequiredTotalCount
	}
	return total
}

func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 3)
	if len(parts) < 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// GlobalConstraints 对全体人员生效的全局约束
type GlobalConstraints struct {
	MaxShiftsPerDay       int
	RequireGenderBalance  bool
	MinGenderBalanceRatio float64
	PreferSpecialtyMatch  bool
}

// DefaultGlobalConstraints 全局约束缺省值
func DefaultGlobalConstraints() GlobalConstraints {
	return GlobalConstraints{
		MaxShiftsPerDay:       1,
		RequireGenderBalance:  false,
		MinGenderBalanceRatio: 0.3,
		PreferSpecialtyMatch:  true,
	}
}

// HardRuleSet 硬性规则开关。关闭的硬性规则降级为软性罚分。
type HardRuleSet struct {
	ForbidUnavailableDates          bool
	ForbidDuplicateDailyAssignments bool
	EnforceMaxShiftsPerDay          bool
	EnforceMinRestDays              bool
	EnforceMaxConsecutiveShifts     bool
	EnforceMaxShiftsPerWeek         bool
	EnforceMaxNightShiftsPerMonth   bool
	EnforceSpecialtyCapacity        bool
	EnforceProductivityHours        bool
}

// DefaultHardRules 硬性规则缺省开关:周上限与月晚班上限默认走软性罚分
func DefaultHardRules() HardRuleSet {
	return HardRuleSet{
		ForbidUnavailableDates:          true,
		ForbidDuplicateDailyAssignments: true,
		EnforceMaxShiftsPerDay:          true,
		EnforceMinRestDays:              true,
		EnforceMaxConsecutiveShifts:     true,
		EnforceMaxShiftsPerWeek:         false,
		EnforceMaxNightShiftsPerMonth:   false,
		EnforceSpecialtyCapacity:        true,
		EnforceProductivityHours:        true,
	}
}

// SoftRuleWeights 软性规则权重,1.0 为基准
type SoftRuleWeights struct {
	GenderBalance         float64
	SpecialtyPreference   float64
	UserUnwantedShift     float64
	UserPreferredShift    float64
	WeeklyMax             float64
	MonthlyNightCap       float64
	ProductivityOvertime  float64
	FairShiftCountBalance float64
	ExtraShiftRotation    float64
	ShiftLabelBalance     float64
}

// DefaultSoftWeights 软性权重缺省值
func DefaultSoftWeights() SoftRuleWeights {
	return SoftRuleWeights{
		GenderBalance:         1.0,
		SpecialtyPreference:   1.0,
		UserUnwantedShift:     1.0,
		UserPreferredShift:    1.0,
		WeeklyMax:             1.0,
		MonthlyNightCap:       1.0,
		ProductivityOvertime:  1.0,
		FairShiftCountBalance: 1.0,
		ExtraShiftRotation:    1.0,
		ShiftLabelBalance:     1.0,
	}
}

// ShiftConstraints 一次排班求解的完整问题输入
type ShiftConstraints struct {
	DepartmentID int
	StartDate    string
	EndDate      string

	UserConstraints   []*UserConstraint
	ShiftRequirements []*ShiftRequirement

	Global      GlobalConstraints
	HardRules   HardRuleSet
	SoftWeights SoftRuleWeights
}

// NewShiftConstraints 构造带缺省规则的问题输入
func NewShiftConstraints(departmentID int, startDate, endDate string) *ShiftConstraints {
	return &ShiftConstraints{
		DepartmentID: departmentID,
		StartDate:    startDate,
		EndDate:      endDate,
		Global:       DefaultGlobalConstraints(),
		HardRules:    DefaultHardRules(),
		SoftWeights:  DefaultSoftWeights(),
	}
}

// Dates 展开排班区间内的全部日期
func (c *ShiftConstraints) Dates() []string {
	return DatesInRange(c.StartDate, c.EndDate)
}

// NumDays 排班区间天数
func (c *ShiftConstraints) NumDays() int {
	return DaysBetween(c.StartDate, c.EndDate) + 1
}

// UserByID 按人员 ID 查找约束,找不到返回 nil
func (c *ShiftConstraints) UserByID(userID int) *UserConstraint {
	for _, u := range c.UserConstraints {
		if u.UserID == userID {
			return u
		}
	}
	return nil
}

// ShiftByID 按班次 ID 查找需求,找不到返回 nil
func (c *ShiftConstraints) ShiftByID(shiftID int) *ShiftRequirement {
	for _, s := range c.ShiftRequirements {
		if s.ShiftID == shiftID {
			return s
		}
	}
	return nil
}

// ActiveUsers 过滤出参与排班的在岗人员
func (c *ShiftConstraints) ActiveUsers() []*UserConstraint {
	var active []*UserConstraint
	for _, u := range c.UserConstraints {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active
}

// Validate 校验问题输入的基本合法性
func (c *ShiftConstraints) Validate() error {
	start, err := ParseDate(c.StartDate)
	if err != nil {
		return fmt.Errorf("开始日期非法: %w", err)
	}
	end, err := ParseDate(c.EndDate)
	if err != nil {
		return fmt.Errorf("结束日期非法: %w", err)
	}
	if end.Before(start) {
		return fmt.Errorf("结束日期 %s 早于开始日期 %s", c.EndDate, c.StartDate)
	}
	if len(c.UserConstraints) == 0 {
		return fmt.Errorf("没有可排班人员")
	}
	if len(c.ShiftRequirements) == 0 {
		return fmt.Errorf("没有班次需求")
	}
	seen := make(map[int]bool, len(c.UserConstraints))
	for _, u := range c.UserConstraints {
		if seen[u.UserID] {
			return fmt.Errorf("人员 ID 重复: %d", u.UserID)
		}
		seen[u.UserID] = true
	}
	for _, s := range c.ShiftRequirements {
		for _, sr := range s.SpecialtyRequirements {
			if sr.RequiredTotalCount < 0 {
				return fmt.Errorf("班次 %d 专业 %d 的需求人数为负", s.ShiftID, sr.SpecialtyID)
			}
			if sr.RequiredMaleCount+sr.RequiredFemaleCount > sr.RequiredTotalCount {
				return fmt.Errorf("班次 %d 专业 %d 的性别下限之和超过总需求", s.ShiftID, sr.SpecialtyID)
			}
		}
	}
	return nil
}
