package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScheduleRecord 一次排班求解的持久化记录
type ScheduleRecord struct {
	ID           uuid.UUID
	DepartmentID int
	StartDate    string
	EndDate      string
	Algorithm    string
	Score        float64
	Status       string
	CreatedAt    time.Time

	Assignments []*AssignmentRecord
}

// AssignmentRecord 单条排班分配记录
type AssignmentRecord struct {
	ID         uuid.UUID
	ScheduleID uuid.UUID
	UserID     int
	ShiftID    int
	Date       string
	Label      string
	IsOnCall   bool
}

// ScheduleRepository 排班结果仓储
type ScheduleRepository struct {
	db DB
}

// NewScheduleRepository 创建排班结果仓储
func NewScheduleRepository(db DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// txRunner 由 database 包的连接包装实现,用于把多条语句放进同一事务
type txRunner interface {
	Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// execer 能执行语句的最小能力,*sql.Tx 与连接池均满足
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Save 持久化排班结果,覆盖同科室同区间的旧分配。
// 底层支持事务时,清理与写入在同一事务内完成,避免写入失败后旧分配已被删除。
func (r *ScheduleRepository) Save(ctx context.Context, schedule *ScheduleRecord) error {
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now()
	}

	if runner, ok := r.db.(txRunner); ok {
		return runner.Transaction(ctx, func(tx *sql.Tx) error {
			return saveSchedule(ctx, tx, schedule)
		})
	}
	return saveSchedule(ctx, r.db, schedule)
}

func saveSchedule(ctx context.Context, e execer, schedule *ScheduleRecord) error {
	deleteQuery := `
		DELETE FROM schedule_assignments
		WHERE schedule_id IN (
			SELECT id FROM schedules
			WHERE department_id = $1 AND start_date = $2 AND end_date = $3
		)
	`
	if _, err := e.ExecContext(ctx, deleteQuery,
		schedule.DepartmentID, schedule.StartDate, schedule.EndDate); err != nil {
		return fmt.Errorf("清理旧排班分配失败: %w", err)
	}

	insertSchedule := `
		INSERT INTO schedules (id, department_id, start_date, end_date, algorithm, score, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := e.ExecContext(ctx, insertSchedule,
		schedule.ID, schedule.DepartmentID, schedule.StartDate, schedule.EndDate,
		schedule.Algorithm, schedule.Score, schedule.Status, schedule.CreatedAt); err != nil {
		return fmt.Errorf("保存排班记录失败: %w", err)
	}

	insertAssignment := `
		INSERT INTO schedule_assignments (id, schedule_id, user_id, shift_id, date, label, is_on_call)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, a := range schedule.Assignments {
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.ScheduleID = schedule.ID
		if _, err := e.ExecContext(ctx, insertAssignment,
			a.ID, a.ScheduleID, a.UserID, a.ShiftID, a.Date, a.Label, a.IsOnCall); err != nil {
			return fmt.Errorf("保存排班分配失败: %w", err)
		}
	}

	return nil
}
