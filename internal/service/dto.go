package service

import (
	"time"

	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/solution"
	"github.com/paiban/yipai/pkg/stats"
)

// Request 排班请求,日期为波斯历(YYYY/MM/DD)
type Request struct {
	DepartmentID int             `json:"department_id"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Algorithm    model.Algorithm `json:"algorithm"`
}

// InternalRequest 内部排班请求,日期为公历(YYYY-MM-DD)
type InternalRequest struct {
	DepartmentID int
	StartDate    string
	EndDate      string
	Algorithm    model.Algorithm
}

// AssignmentDTO 单条排班分配
type AssignmentDTO struct {
	UserID        int              `json:"user_id"`
	UserName      string           `json:"user_name"`
	ShiftID       int              `json:"shift_id"`
	Label         model.ShiftLabel `json:"label"`
	Date          string           `json:"date"`
	IsOnCall      bool             `json:"is_on_call"`
	SpecialtyID   int              `json:"specialty_id"`
	SpecialtyName string           `json:"specialty_name"`
}

// HybridResult 混合求解的子结果
type HybridResult struct {
	StrategyUsed string        `json:"strategy_used"`
	Complexity   float64       `json:"complexity"`
	TotalTime    time.Duration `json:"total_time"`
	Phase1Time   time.Duration `json:"phase1_time"`
	Phase2Time   time.Duration `json:"phase2_time"`
	FallbackUsed bool          `json:"fallback_used"`
	Iterations   int           `json:"iterations"`
	CPStatus     string        `json:"cp_status,omitempty"`
	CPScore      float64       `json:"cp_score,omitempty"`
	SAStatus     string        `json:"sa_status,omitempty"`
	SAScore      float64       `json:"sa_score,omitempty"`
	Errors       []string      `json:"errors,omitempty"`
}

// SchedulingResult 一次排班求解的完整结果
type SchedulingResult struct {
	DepartmentID int             `json:"department_id"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	Algorithm    model.Algorithm `json:"algorithm"`

	Status     solution.Status `json:"status"`
	Score      float64         `json:"score"`
	Violations []string        `json:"violations,omitempty"`

	Assignments []*AssignmentDTO          `json:"assignments"`
	Iterations  int                       `json:"iterations"`
	Duration    time.Duration             `json:"duration"`
	Statistics  *stats.ScheduleStatistics `json:"statistics,omitempty"`
	Hybrid      *HybridResult             `json:"hybrid,omitempty"`
}

// RescheduleRequest 应急重排请求,日期为波斯历(YYYY/MM/DD)
type RescheduleRequest struct {
	DepartmentID    int             `json:"department_id"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	WindowSizeDays  int             `json:"window_size_days"`
	OverlapDays     int             `json:"overlap_days"`
	ImpactedUserIDs []int           `json:"impacted_user_ids,omitempty"`
	Algorithm       model.Algorithm `json:"algorithm"`
}

// WindowResult 单个滚动窗口的求解摘要
type WindowResult struct {
	Index                      int             `json:"index"`
	StartDate                  string          `json:"start_date"`
	EndDate                    string          `json:"end_date"`
	Status                     solution.Status `json:"status"`
	AssignmentCount            int             `json:"assignment_count"`
	ProductivityComplianceRate float64         `json:"productivity_compliance_rate"`
	Violations                 []string        `json:"violations,omitempty"`
}

// RescheduleResult 应急重排的聚合结果
type RescheduleResult struct {
	Assignments    []*AssignmentDTO `json:"assignments"`
	Windows        []*WindowResult  `json:"windows"`
	TotalSolveTime time.Duration    `json:"total_solve_time"`
	HasConflicts   bool             `json:"has_conflicts"`
	Notes          []string         `json:"notes"`
}
