// Package solution 定义各求解器共享的排班解表示。
// 解是 (人员, 班次, 日期) 三元组的集合,附带统一口径的评分,分数越低越好。
package solution

import (
	"math"
	"sort"

	"github.com/paiban/yipai/pkg/model"
)

// WorstScore 未评分解的哨兵分数
const WorstScore = math.MaxFloat64

// Status 求解结论
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusFeasible   Status = "feasible"
	StatusInfeasible Status = "infeasible"
	StatusAbnormal   Status = "abnormal"
	StatusUnknown    Status = "unknown"
)

// Solved 判断结论是否带有可用解
func (s Status) Solved() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Key 唯一标识一条排班分配
type Key struct {
	UserID  int
	ShiftID int
	Date    string
}

// Assignment 一条排班分配
type Assignment struct {
	UserID  int
	ShiftID int
	Date    string
	Label   model.ShiftLabel
	OnCall  bool
}

// Solution 一次求解产出的排班解
type Solution struct {
	Assignments map[Key]*Assignment
	Score       float64
	Violations  []string
	Status      Status
}

// New 构造空解,分数为哨兵值
func New() *Solution {
	return &Solution{
		Assignments: make(map[Key]*Assignment),
		Score:       WorstScore,
		Status:      StatusUnknown,
	}
}

// Clone 深拷贝解,供邻域搜索在副本上变异
func (s *Solution) Clone() *Solution {
	c := &Solution{
		Assignments: make(map[Key]*Assignment, len(s.Assignments)),
		Score:       s.Score,
		Status:      s.Status,
	}
	for k, a := range s.Assignments {
		copied := *a
		c.Assignments[k] = &copied
	}
	if len(s.Violations) > 0 {
		c.Violations = append([]string(nil), s.Violations...)
	}
	return c
}

// Add 写入一条分配,同键覆盖
func (s *Solution) Add(userID, shiftID int, date string, label model.ShiftLabel, onCall bool) {
	k := Key{UserID: userID, ShiftID: shiftID, Date: date}
	s.Assignments[k] = &Assignment{
		UserID:  userID,
		ShiftID: shiftID,
		Date:    date,
		Label:   label,
		OnCall:  onCall,
	}
}

// Remove 删除一条分配
func (s *Solution) Remove(userID, shiftID int, date string) {
	delete(s.Assignments, Key{UserID: userID, ShiftID: shiftID, Date: date})
}

// Has 判断分配是否存在
func (s *Solution) Has(userID, shiftID int, date string) bool {
	_, ok := s.Assignments[Key{UserID: userID, ShiftID: shiftID, Date: date}]
	return ok
}

// Len 分配条数
func (s *Solution) Len() int {
	return len(s.Assignments)
}

// UserAssignments 某人员的全部分配,按日期升序
func (s *Solution) UserAssignments(userID int) []*Assignment {
	var out []*Assignment
	for _, a := range s.Assignments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ShiftID < out[j].ShiftID
	})
	return out
}

// ShiftAssignments 某班次在某日的全部分配
func (s *Solution) ShiftAssignments(shiftID int, date string) []*Assignment {
	var out []*Assignment
	for _, a := range s.Assignments {
		if a.ShiftID == shiftID && a.Date == date {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// DateAssignments 某人员在某日的全部分配
func (s *Solution) DateAssignments(userID int, date string) []*Assignment {
	var out []*Assignment
	for _, a := range s.Assignments {
		if a.UserID == userID && a.Date == date {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShiftID < out[j].ShiftID })
	return out
}

// Sorted 全部分配的稳定序副本,用于输出与断言
func (s *Solution) Sorted() []*Assignment {
	out := make([]*Assignment, 0, len(s.Assignments))
	for _, a := range s.Assignments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].ShiftID != out[j].ShiftID {
			return out[i].ShiftID < out[j].ShiftID
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
