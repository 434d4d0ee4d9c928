package repository

import (
	"context"
	"fmt"
)

// 换班申请的动作类型
const (
	RequestActionOffShift = 1 // 申请当天不排班
	RequestActionOnShift  = 2 // 申请上某个班段
)

// ShiftRequestRecord 已审批的换班申请记录
type ShiftRequestRecord struct {
	UserID      int
	RequestDate string  // YYYY-MM-DD
	Action      int     // RequestActionOffShift / RequestActionOnShift
	ShiftLabel  *string // 申请的班段,整天申请时为 nil
	FullDay     bool
}

// RequestRepository 换班申请仓储
type RequestRepository struct {
	db DB
}

// NewRequestRepository 创建换班申请仓储
func NewRequestRepository(db DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// ListApprovedInRange 获取科室在区间内全部已批准的申请
func (r *RequestRepository) ListApprovedInRange(ctx context.Context, departmentID int, start, end string) ([]*ShiftRequestRecord, error) {
	query := `
		SELECT sr.user_id, sr.request_date, sr.action, sr.shift_label, sr.full_day
		FROM shift_requests sr
		JOIN staff u ON u.id = sr.user_id
		WHERE u.department_id = $1 AND sr.status = 'approved'
			AND sr.request_date >= $2 AND sr.request_date <= $3
		ORDER BY sr.request_date, sr.user_id
	`

	rows, err := r.db.QueryContext(ctx, query, departmentID, start, end)
	if err != nil {
		return nil, fmt.Errorf("查询已批准申请失败: %w", err)
	}
	defer rows.Close()

	var requests []*ShiftRequestRecord
	for rows.Next() {
		req := &ShiftRequestRecord{}
		err := rows.Scan(&req.UserID, &req.RequestDate, &req.Action, &req.ShiftLabel, &req.FullDay)
		if err != nil {
			return nil, fmt.Errorf("扫描申请数据失败: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// ExistsPendingInRange 检查科室在区间内是否存在待审批申请
func (r *RequestRepository) ExistsPendingInRange(ctx context.Context, departmentID int, start, end string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM shift_requests sr
			JOIN staff u ON u.id = sr.user_id
			WHERE u.department_id = $1 AND sr.status = 'pending'
				AND sr.request_date >= $2 AND sr.request_date <= $3
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, departmentID, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("查询待审批申请失败: %w", err)
	}

	return exists, nil
}
