package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Department 科室记录
type Department struct {
	ID           int
	Name         string
	IsActive     bool
	IsNightLover *bool // nil 表示对晚班无偏好
}

// DepartmentRepository 科室仓储
type DepartmentRepository struct {
	db DB
}

// NewDepartmentRepository 创建科室仓储
func NewDepartmentRepository(db DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// GetByID 根据ID获取科室,不存在返回 nil
func (r *DepartmentRepository) GetByID(ctx context.Context, id int) (*Department, error) {
	query := `
		SELECT id, name, is_active, is_night_lover
		FROM departments
		WHERE id = $1 AND deleted_at IS NULL
	`

	dept := &Department{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&dept.ID, &dept.Name, &dept.IsActive, &dept.IsNightLover,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询科室失败: %w", err)
	}

	return dept, nil
}
