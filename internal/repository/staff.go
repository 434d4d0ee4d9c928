package repository

import (
	"context"
	"fmt"
)

// StaffRecord 参与排班的人员记录
type StaffRecord struct {
	ID                int
	Name              string
	Gender            int
	SpecialtyID       int
	SpecialtyName     string
	IsActive          bool
	CanBeShiftManager bool

	ShiftType       int
	ShiftSubType    int
	RotationPattern *int

	// 法定工时核算相关
	InProductivityPlan bool
	EmploymentPercent  float64
	DeductionHours     float64
}

// StaffRepository 人员仓储
type StaffRepository struct {
	db DB
}

// NewStaffRepository 创建人员仓储
func NewStaffRepository(db DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// ListActiveByDepartment 获取科室下所有在岗人员
func (r *StaffRepository) ListActiveByDepartment(ctx context.Context, departmentID int) ([]*StaffRecord, error) {
	query := `
		SELECT u.id, u.full_name, u.gender, u.specialty_id, COALESCE(s.name, ''),
			u.is_active, u.can_be_shift_manager,
			u.shift_type, u.shift_sub_type, u.rotation_pattern,
			u.in_productivity_plan, u.employment_percent, u.deduction_hours
		FROM staff u
		LEFT JOIN specialties s ON s.id = u.specialty_id
		WHERE u.department_id = $1 AND u.is_active = true AND u.deleted_at IS NULL
		ORDER BY u.id
	`

	rows, err := r.db.QueryContext(ctx, query, departmentID)
	if err != nil {
		return nil, fmt.Errorf("查询科室人员失败: %w", err)
	}
	defer rows.Close()

	var staff []*StaffRecord
	for rows.Next() {
		rec := &StaffRecord{}
		err := rows.Scan(
			&rec.ID, &rec.Name, &rec.Gender, &rec.SpecialtyID, &rec.SpecialtyName,
			&rec.IsActive, &rec.CanBeShiftManager,
			&rec.ShiftType, &rec.ShiftSubType, &rec.RotationPattern,
			&rec.InProductivityPlan, &rec.EmploymentPercent, &rec.DeductionHours,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描人员数据失败: %w", err)
		}
		staff = append(staff, rec)
	}

	return staff, rows.Err()
}

// CountRecentAssignments 统计回溯区间内每个人员的历史班次数,用于公平性评估
func (r *StaffRepository) CountRecentAssignments(ctx context.Context, departmentID int, start, end string) (map[int]int, error) {
	query := `
		SELECT a.user_id, COUNT(*)
		FROM schedule_assignments a
		JOIN schedules sc ON sc.id = a.schedule_id
		WHERE sc.department_id = $1 AND a.date >= $2 AND a.date <= $3
		GROUP BY a.user_id
	`

	rows, err := r.db.QueryContext(ctx, query, departmentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询历史班次失败: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var userID, count int
		if err := rows.Scan(&userID, &count); err != nil {
			return nil, fmt.Errorf("扫描历史班次失败: %w", err)
		}
		counts[userID] = count
	}

	return counts, rows.Err()
}
