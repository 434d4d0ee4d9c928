package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// recordDB 记录每次执行的语句,满足 DB 接口但不触达真实数据库
type recordDB struct {
	statements []string
	args       [][]interface{}
}

func (d *recordDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	d.statements = append(d.statements, query)
	d.args = append(d.args, args)
	return nil, nil
}

func (d *recordDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}

func (d *recordDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return nil
}

// txDB 支持事务的假连接,只记录 Transaction 是否被调用
type txDB struct {
	recordDB
	txCalls int
	txErr   error
}

func (d *txDB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	d.txCalls++
	return d.txErr
}

func sampleSchedule() *ScheduleRecord {
	return &ScheduleRecord{
		DepartmentID: 3,
		StartDate:    "2026-09-01",
		EndDate:      "2026-09-07",
		Algorithm:    "hybrid",
		Score:        -12.5,
		Status:       "completed",
		Assignments: []*AssignmentRecord{
			{UserID: 101, ShiftID: 1, Date: "2026-09-01", Label: "白班"},
			{UserID: 102, ShiftID: 2, Date: "2026-09-01", Label: "夜班", IsOnCall: true},
		},
	}
}

func TestScheduleSaveStatementOrder(t *testing.T) {
	db := &recordDB{}
	repo := NewScheduleRepository(db)

	schedule := sampleSchedule()
	if err := repo.Save(context.Background(), schedule); err != nil {
		t.Fatalf("保存失败: %v", err)
	}

	if len(db.statements) != 4 {
		t.Fatalf("期望执行 4 条语句(清理 + 排班 + 2 条分配),实际 %d 条", len(db.statements))
	}
	if !strings.Contains(db.statements[0], "DELETE FROM schedule_assignments") {
		t.Errorf("第一条语句应清理旧分配,实际: %s", db.statements[0])
	}
	if !strings.Contains(db.statements[1], "INSERT INTO schedules") {
		t.Errorf("第二条语句应写入排班记录,实际: %s", db.statements[1])
	}
	for i := 2; i < 4; i++ {
		if !strings.Contains(db.statements[i], "INSERT INTO schedule_assignments") {
			t.Errorf("第 %d 条语句应写入分配,实际: %s", i+1, db.statements[i])
		}
	}

	if schedule.ID == uuid.Nil {
		t.Error("保存后应生成排班记录 ID")
	}
	for i, a := range schedule.Assignments {
		if a.ID == uuid.Nil {
			t.Errorf("分配 %d 应生成 ID", i)
		}
		if a.ScheduleID != schedule.ID {
			t.Errorf("分配 %d 的排班 ID 应为 %s,实际 %s", i, schedule.ID, a.ScheduleID)
		}
	}
}

func TestScheduleSaveUsesTransactionWhenAvailable(t *testing.T) {
	sentinel := errors.New("事务中止")
	db := &txDB{txErr: sentinel}
	repo := NewScheduleRepository(db)

	err := repo.Save(context.Background(), sampleSchedule())
	if !errors.Is(err, sentinel) {
		t.Fatalf("期望透传事务错误,实际: %v", err)
	}
	if db.txCalls != 1 {
		t.Errorf("期望 Transaction 被调用 1 次,实际 %d 次", db.txCalls)
	}
	if len(db.statements) != 0 {
		t.Errorf("支持事务时不应直接在连接池上执行语句,实际执行 %d 条", len(db.statements))
	}
}
