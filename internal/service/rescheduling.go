package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/paiban/yipai/internal/metrics"
	apperrors "github.com/paiban/yipai/pkg/errors"
	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/solution"
)

// window 单个滚动窗口的公历区间
type window struct {
	start string
	end   string
}

// buildWindows 将排班区间切为带重叠的滚动窗口。
// 步长为窗口减去重叠天数,最后一个窗口裁剪到区间末尾。
func buildWindows(start, end string, sizeDays, overlapDays int) []window {
	step := sizeDays - overlapDays
	if step < 1 {
		step = 1
	}
	var windows []window
	for cur := start; cur <= end; cur = model.AddDays(cur, step) {
		winEnd := model.AddDays(cur, sizeDays-1)
		if winEnd > end {
			winEnd = end
		}
		windows = append(windows, window{start: cur, end: winEnd})
		if winEnd == end {
			break
		}
	}
	return windows
}

// Reschedule 应急重排:按滚动窗口逐段重新求解并聚合。
// 任一窗口失败立即中止,已求解的窗口结果不保留。
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) (*RescheduleResult, error) {
	start, err := model.ParseJalaliDate(req.StartDate)
	if err != nil {
		return nil, apperrors.InvalidInput("start_date", err.Error())
	}
	end, err := model.ParseJalaliDate(req.EndDate)
	if err != nil {
		return nil, apperrors.InvalidInput("end_date", err.Error())
	}
	if end < start {
		return nil, apperrors.New(apperrors.CodeInvalidTimeRange,
			fmt.Sprintf("结束日期 %s 早于开始日期 %s", end, start))
	}
	maxWindow := s.cfg.MaxWindowDays
	if maxWindow <= 0 {
		maxWindow = 21
	}
	if req.WindowSizeDays < 1 || req.WindowSizeDays > maxWindow {
		return nil, apperrors.InvalidInput("window_size_days",
			fmt.Sprintf("窗口天数必须位于 [1, %d]", maxWindow))
	}
	if req.OverlapDays < 0 || req.OverlapDays >= req.WindowSizeDays {
		return nil, apperrors.InvalidInput("overlap_days", "重叠天数必须小于窗口天数且不能为负")
	}
	algorithm := req.Algorithm
	if algorithm == "" {
		algorithm = model.AlgorithmSimulatedAnnealing
	}
	if !algorithm.Valid() {
		return nil, apperrors.UnknownAlgorithm(string(algorithm))
	}

	windows := buildWindows(start, end, req.WindowSizeDays, req.OverlapDays)
	impacted := make(map[int]bool, len(req.ImpactedUserIDs))
	for _, id := range req.ImpactedUserIDs {
		impacted[id] = true
	}

	result := &RescheduleResult{}
	merged := make(map[solution.Key]*AssignmentDTO)
	var totalSolve time.Duration

	for i, win := range windows {
		winResult, err := s.OptimizeInternal(ctx, InternalRequest{
			DepartmentID: req.DepartmentID,
			StartDate:    win.start,
			EndDate:      win.end,
			Algorithm:    algorithm,
		})
		if err != nil {
			metrics.RecordRescheduleWindow(false)
			return nil, apperrors.Wrap(err, apperrors.CodeNoFeasibleSolution,
				fmt.Sprintf("窗口 %d(%s 至 %s)求解失败", i+1, win.start, win.end))
		}
		metrics.RecordRescheduleWindow(winResult.Status.Solved())
		totalSolve += winResult.Duration

		summary := &WindowResult{
			Index:           i + 1,
			StartDate:       win.start,
			EndDate:         win.end,
			Status:          winResult.Status,
			AssignmentCount: len(winResult.Assignments),
			Violations:      winResult.Violations,
		}
		if winResult.Statistics != nil {
			summary.ProductivityComplianceRate = winResult.Statistics.ProductivityComplianceRate
		}
		result.Windows = append(result.Windows, summary)

		if !winResult.Status.Solved() {
			return nil, apperrors.New(apperrors.CodeNoFeasibleSolution,
				fmt.Sprintf("窗口 %d(%s 至 %s)无可行解", i+1, win.start, win.end))
		}

		result.absorbWindow(i+1, merged, winResult)
		s.log.WindowComplete(i+1, win.start, win.end, len(winResult.Assignments))
	}

	for _, a := range merged {
		if len(impacted) > 0 && !impacted[a.UserID] {
			continue
		}
		result.Assignments = append(result.Assignments, a)
	}
	sort.Slice(result.Assignments, func(i, j int) bool {
		if result.Assignments[i].Date != result.Assignments[j].Date {
			return result.Assignments[i].Date < result.Assignments[j].Date
		}
		if result.Assignments[i].UserID != result.Assignments[j].UserID {
			return result.Assignments[i].UserID < result.Assignments[j].UserID
		}
		return result.Assignments[i].ShiftID < result.Assignments[j].ShiftID
	})
	result.TotalSolveTime = totalSolve
	return result, nil
}

// absorbWindow 把一个已求解窗口并入聚合结果。
// 窗口自带违规即视为冲突;重叠日期取后一个窗口的分配,
// 待命标记不一致时追加说明。
func (r *RescheduleResult) absorbWindow(index int, merged map[solution.Key]*AssignmentDTO, winResult *SchedulingResult) {
	if len(winResult.Violations) > 0 {
		r.HasConflicts = true
	}
	for _, a := range winResult.Assignments {
		key := solution.Key{UserID: a.UserID, ShiftID: a.ShiftID, Date: a.Date}
		if prev, ok := merged[key]; ok && prev.IsOnCall != a.IsOnCall {
			r.HasConflicts = true
			r.Notes = append(r.Notes,
				fmt.Sprintf("人员 %d 在 %s 的班次 %d 在重叠窗口中取值不一致,采用窗口 %d 的结果",
					a.UserID, a.Date, a.ShiftID, index))
		}
		merged[key] = a
	}
}
