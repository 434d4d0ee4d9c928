package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// DepartmentSettings 科室排班规则设置。
// 所有字段可空,为空的字段按全局缺省处理。
type DepartmentSettings struct {
	DepartmentID int

	// 硬性规则开关
	ForbidDuplicateDailyAssignments *bool
	EnforceMaxShiftsPerDay          *bool
	EnforceMinRestDays              *bool
	EnforceMaxConsecutiveShifts     *bool
	EnforceWeeklyMaxShifts          *bool
	EnforceNightShiftMonthlyCap     *bool
	EnforceSpecialtyCapacity        *bool

	// 规则数值
	MinRestDaysBetweenShifts *int
	MaxConsecutiveShifts     *int
	MaxShiftsPerWeek         *int
	MaxNightShiftsPerMonth   *int
	MaxShiftsPerDay          *int

	// 软性规则权重
	GenderBalanceWeight       *float64
	SpecialtyPreferenceWeight *float64
	UserUnwantedShiftWeight   *float64
	UserPreferredShiftWeight  *float64
	WeeklyMaxWeight           *float64
	MonthlyNightCapWeight     *float64

	// 公平与轮换权重
	FairShiftCountBalanceWeight *float64
	ExtraShiftRotationWeight    *float64
	ShiftLabelBalanceWeight     *float64
	FairnessLookbackMonths      *int
}

// AlgorithmSettings 按科室与算法维度的求解器参数。
// DepartmentID 为空表示全局设置。
type AlgorithmSettings struct {
	DepartmentID *int
	Algorithm    string

	SAInitialTemperature              *float64
	SAFinalTemperature                *float64
	SACoolingRate                     *float64
	SAMaxIterations                   *int
	SAMaxIterationsWithoutImprovement *int

	CPMaxTimeSeconds    *float64
	CPNumSearchWorkers  *int
	CPMaxSolutions      *int
	CPRelativeGapLimit  *float64
	CPLogSearchProgress *bool

	HybridStrategy            *string
	HybridMaxIterations       *int
	HybridComplexityThreshold *float64
}

// SettingsRepository 排班设置仓储
type SettingsRepository struct {
	db DB
}

// NewSettingsRepository 创建排班设置仓储
func NewSettingsRepository(db DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetDepartmentSettings 获取科室排班设置,不存在返回 nil
func (r *SettingsRepository) GetDepartmentSettings(ctx context.Context, departmentID int) (*DepartmentSettings, error) {
	query := `
		SELECT department_id,
			forbid_duplicate_daily_assignments, enforce_max_shifts_per_day,
			enforce_min_rest_days, enforce_max_consecutive_shifts,
			enforce_weekly_max_shifts, enforce_night_shift_monthly_cap,
			enforce_specialty_capacity,
			min_rest_days_between_shifts, max_consecutive_shifts,
			max_shifts_per_week, max_night_shifts_per_month, max_shifts_per_day,
			gender_balance_weight, specialty_preference_weight,
			user_unwanted_shift_weight, user_preferred_shift_weight,
			weekly_max_weight, monthly_night_cap_weight,
			fair_shift_count_balance_weight, extra_shift_rotation_weight,
			shift_label_balance_weight, fairness_lookback_months
		FROM department_scheduling_settings
		WHERE department_id = $1
	`

	s := &DepartmentSettings{}
	err := r.db.QueryRowContext(ctx, query, departmentID).Scan(
		&s.DepartmentID,
		&s.ForbidDuplicateDailyAssignments, &s.EnforceMaxShiftsPerDay,
		&s.EnforceMinRestDays, &s.EnforceMaxConsecutiveShifts,
		&s.EnforceWeeklyMaxShifts, &s.EnforceNightShiftMonthlyCap,
		&s.EnforceSpecialtyCapacity,
		&s.MinRestDaysBetweenShifts, &s.MaxConsecutiveShifts,
		&s.MaxShiftsPerWeek, &s.MaxNightShiftsPerMonth, &s.MaxShiftsPerDay,
		&s.GenderBalanceWeight, &s.SpecialtyPreferenceWeight,
		&s.UserUnwantedShiftWeight, &s.UserPreferredShiftWeight,
		&s.WeeklyMaxWeight, &s.MonthlyNightCapWeight,
		&s.FairShiftCountBalanceWeight, &s.ExtraShiftRotationWeight,
		&s.ShiftLabelBalanceWeight, &s.FairnessLookbackMonths,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询科室排班设置失败: %w", err)
	}

	return s, nil
}

// GetAlgorithmSettings 按科室与算法获取求解器参数,
// 科室级记录不存在时退回全局记录,全局也不存在返回 nil。
func (r *SettingsRepository) GetAlgorithmSettings(ctx context.Context, departmentID int, algorithm string) (*AlgorithmSettings, error) {
	query := `
		SELECT department_id, algorithm,
			sa_initial_temperature, sa_final_temperature, sa_cooling_rate,
			sa_max_iterations, sa_max_iterations_without_improvement,
			cp_max_time_seconds, cp_num_search_workers, cp_max_solutions,
			cp_relative_gap_limit, cp_log_search_progress,
			hybrid_strategy, hybrid_max_iterations, hybrid_complexity_threshold
		FROM algorithm_settings
		WHERE (department_id = $1 OR department_id IS NULL) AND algorithm = $2
		ORDER BY department_id NULLS LAST
		LIMIT 1
	`

	s := &AlgorithmSettings{}
	err := r.db.QueryRowContext(ctx, query, departmentID, algorithm).Scan(
		&s.DepartmentID, &s.Algorithm,
		&s.SAInitialTemperature, &s.SAFinalTemperature, &s.SACoolingRate,
		&s.SAMaxIterations, &s.SAMaxIterationsWithoutImprovement,
		&s.CPMaxTimeSeconds, &s.CPNumSearchWorkers, &s.CPMaxSolutions,
		&s.CPRelativeGapLimit, &s.CPLogSearchProgress,
		&s.HybridStrategy, &s.HybridMaxIterations, &s.HybridComplexityThreshold,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询算法参数失败: %w", err)
	}

	return s, nil
}
