package cpsat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/or-tools/ortools/sat/go/cpmodel"
	"google.golang.org/protobuf/proto"

	cmpb "github.com/google/or-tools/ortools/sat/proto/cpmodel"
	sppb "github.com/google/or-tools/ortools/sat/proto/satparameters"

	"github.com/paiban/yipai/pkg/logger"
	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/scheduler"
	"github.com/paiban/yipai/pkg/solution"
)

// Statistics 一次 CP-SAT 求解的统计信息
type Statistics struct {
	Status         solution.Status
	SolveTime      time.Duration
	ObjectiveValue float64
	BestBound      float64
	NumVariables   int
	NumConstraints int
}

// Result CP-SAT 求解结果
type Result struct {
	Solution *solution.Solution
	Stats    Statistics
}

// Scheduler CP-SAT 排班求解器
type Scheduler struct {
	constraints *Constraints
	params      Parameters
	hint        *solution.Solution
	log         *logger.SchedulerLogger
}

// New 创建 CP-SAT 求解器
func New(constraints *Constraints, params Parameters) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("CP-SAT 参数非法: %w", err)
	}
	return &Scheduler{
		constraints: constraints,
		params:      params,
		log:         logger.NewSchedulerLogger(),
	}, nil
}

// Name 实现 scheduler.Solver
func (s *Scheduler) Name() string {
	return string(model.AlgorithmCPSat)
}

// SetHint 以已有解为求解提示,用于混合求解中以退火结果引导 CP 搜索
func (s *Scheduler) SetHint(sol *solution.Solution) {
	s.hint = sol
}

// Solve 实现 scheduler.Solver
func (s *Scheduler) Solve(ctx context.Context) (*scheduler.Result, error) {
	r, err := s.Optimize(ctx)
	if err != nil {
		return nil, err
	}
	return &scheduler.Result{
		Solution: r.Solution,
		Duration: r.Stats.SolveTime,
	}, nil
}

// Optimize 构建并求解 CP 模型。
// 求解器内部故障不上抛, 以 abnormal 状态返回。
func (s *Scheduler) Optimize(ctx context.Context) (result *Result, err error) {
	start := time.Now()
	s.log.StartOptimization(s.constraints.DepartmentID, s.Name(),
		s.constraints.NumUsers(), s.constraints.NumDays())

	defer func() {
		if r := recover(); r != nil {
			result = s.abnormal(start, fmt.Sprintf("构建或求解过程异常: %v", r))
			err = nil
		}
	}()

	b := s.buildModel()
	m, buildErr := b.builder.Model()
	if buildErr != nil {
		return s.abnormal(start, fmt.Sprintf("模型构建失败: %v", buildErr)), nil
	}

	response, solveErr := cpmodel.SolveCpModelWithParameters(m, s.satParameters(ctx))
	if solveErr != nil {
		return s.abnormal(start, fmt.Sprintf("求解失败: %v", solveErr)), nil
	}

	elapsed := time.Since(start)
	status := convertStatus(response.GetStatus())

	sol := solution.New()
	sol.Status = status
	stats := Statistics{
		Status:         status,
		SolveTime:      elapsed,
		ObjectiveValue: response.GetObjectiveValue(),
		BestBound:      response.GetBestObjectiveBound(),
		NumVariables:   b.numVariables,
		NumConstraints: b.numConstraints,
	}

	if status.Solved() {
		for key, v := range b.assign {
			if cpmodel.SolutionBooleanValue(response, v) {
				user := s.constraints.Users[key.user]
				shift := s.constraints.Shifts[key.shift]
				onCall := cpmodel.SolutionBooleanValue(response, b.onCall[key])
				sol.Add(user.UserID, shift.ShiftID, s.constraints.Dates[key.date], shift.Label, onCall)
			}
		}
		// 统一口径: 目标为最大化, 取负转成越低越好的分数
		sol.Score = -response.GetObjectiveValue()
	} else {
		sol.Violations = append(sol.Violations, fmt.Sprintf("求解器状态: %s", response.GetStatus()))
	}

	s.log.OptimizationComplete(s.Name(), string(status), elapsed, sol.Score)
	return &Result{Solution: sol, Stats: stats}, nil
}

func (s *Scheduler) abnormal(start time.Time, detail string) *Result {
	sol := solution.New()
	sol.Status = solution.StatusAbnormal
	sol.Violations = append(sol.Violations, detail)
	return &Result{
		Solution: sol,
		Stats: Statistics{
			Status:    solution.StatusAbnormal,
			SolveTime: time.Since(start),
		},
	}
}

// satParameters 组装求解参数, 时限取配置与上下文剩余时间的较小值
func (s *Scheduler) satParameters(ctx context.Context) *sppb.SatParameters {
	maxTime := s.params.MaxTimeSeconds
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline).Seconds(); remaining < maxTime {
			maxTime = remaining
		}
	}
	params := &sppb.SatParameters{
		MaxTimeInSeconds:  proto.Float64(maxTime),
		NumSearchWorkers:  proto.Int32(s.params.NumSearchWorkers),
		RelativeGapLimit:  proto.Float64(s.params.RelativeGapLimit),
		LogSearchProgress: proto.Bool(s.params.LogSearchProgress),
	}
	if s.params.LogSearchProgress {
		params.LogToStdout = proto.Bool(true)
	}
	if s.params.MaxSolutions > 1 {
		params.SolutionPoolSize = proto.Int32(s.params.MaxSolutions)
	}
	return params
}

// convertStatus 将 CP-SAT 原生状态映射到内部枚举
func convertStatus(status cmpb.CpSolverStatus) solution.Status {
	switch status {
	case cmpb.CpSolverStatus_OPTIMAL:
		return solution.StatusOptimal
	case cmpb.CpSolverStatus_FEASIBLE:
		return solution.StatusFeasible
	case cmpb.CpSolverStatus_INFEASIBLE:
		return solution.StatusInfeasible
	case cmpb.CpSolverStatus_MODEL_INVALID:
		return solution.StatusAbnormal
	default:
		return solution.StatusUnknown
	}
}
