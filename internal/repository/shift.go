package repository

import (
	"context"
	"fmt"
)

// ShiftRecord 班次定义记录
type ShiftRecord struct {
	ID        int
	Name      string
	Label     string // morning/evening/night
	StartTime string // HH:MM
	EndTime   string // HH:MM

	SpecialtyRequirements []*SpecialtyRequirementRecord
}

// SpecialtyRequirementRecord 班次对单个专业的人数要求记录
type SpecialtyRequirementRecord struct {
	SpecialtyID         int
	SpecialtyName       string
	RequiredTotalCount  int
	RequiredMaleCount   int
	RequiredFemaleCount int
	OnCallTotalCount    int
	OnCallMaleCount     int
	OnCallFemaleCount   int
}

// ShiftRepository 班次仓储
type ShiftRepository struct {
	db DB
}

// NewShiftRepository 创建班次仓储
func NewShiftRepository(db DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// ListByDepartment 获取科室下全部班次及其专业需求
func (r *ShiftRepository) ListByDepartment(ctx context.Context, departmentID int) ([]*ShiftRecord, error) {
	query := `
		SELECT id, name, label, start_time, end_time
		FROM shifts
		WHERE department_id = $1 AND deleted_at IS NULL
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, departmentID)
	if err != nil {
		return nil, fmt.Errorf("查询科室班次失败: %w", err)
	}
	defer rows.Close()

	var shifts []*ShiftRecord
	for rows.Next() {
		shift := &ShiftRecord{}
		err := rows.Scan(&shift.ID, &shift.Name, &shift.Label, &shift.StartTime, &shift.EndTime)
		if err != nil {
			return nil, fmt.Errorf("扫描班次数据失败: %w", err)
		}
		shifts = append(shifts, shift)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, shift := range shifts {
		reqs, err := r.listSpecialtyRequirements(ctx, shift.ID)
		if err != nil {
			return nil, err
		}
		shift.SpecialtyRequirements = reqs
	}

	return shifts, nil
}

// listSpecialtyRequirements 获取班次的专业需求
func (r *ShiftRepository) listSpecialtyRequirements(ctx context.Context, shiftID int) ([]*SpecialtyRequirementRecord, error) {
	query := `
		SELECT rs.specialty_id, COALESCE(s.name, ''),
			rs.required_total_count, rs.required_male_count, rs.required_female_count,
			rs.on_call_total_count, rs.on_call_male_count, rs.on_call_female_count
		FROM shift_required_specialties rs
		LEFT JOIN specialties s ON s.id = rs.specialty_id
		WHERE rs.shift_id = $1
		ORDER BY rs.specialty_id
	`

	rows, err := r.db.QueryContext(ctx, query, shiftID)
	if err != nil {
		return nil, fmt.Errorf("查询班次专业需求失败: %w", err)
	}
	defer rows.Close()

	var reqs []*SpecialtyRequirementRecord
	for rows.Next() {
		req := &SpecialtyRequirementRecord{}
		err := rows.Scan(
			&req.SpecialtyID, &req.SpecialtyName,
			&req.RequiredTotalCount, &req.RequiredMaleCount, &req.RequiredFemaleCount,
			&req.OnCallTotalCount, &req.OnCallMaleCount, &req.OnCallFemaleCount,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描专业需求失败: %w", err)
		}
		reqs = append(reqs, req)
	}

	return reqs, rows.Err()
}
