package annealing

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/paiban/yipai/pkg/logger"
	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/scheduler"
	"github.com/paiban/yipai/pkg/solution"
)

// Statistics 一次退火运行的统计信息
type Statistics struct {
	TotalIterations  int
	AcceptedMoves    int
	RejectedMoves    int
	Regenerations    int
	BestScore        float64
	CurrentScore     float64
	FinalTemperature float64
	ExecutionTime    time.Duration
}

// Result 退火求解结果
type Result struct {
	Solution *solution.Solution
	Stats    Statistics
}

// Scheduler 模拟退火排班求解器
type Scheduler struct {
	constraints *model.ShiftConstraints
	params      Parameters
	rng         *rand.Rand
	log         *logger.SchedulerLogger

	// 班次时长缓存,键为班次 ID
	durations map[int]float64
}

// New 创建退火求解器。rng 由调用方注入以保证可复现。
func New(constraints *model.ShiftConstraints, params Parameters, rng *rand.Rand) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("退火参数非法: %w", err)
	}
	if err := constraints.Validate(); err != nil {
		return nil, fmt.Errorf("问题输入非法: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	durations := make(map[int]float64, len(constraints.ShiftRequirements))
	for _, s := range constraints.ShiftRequirements {
		durations[s.ShiftID] = s.DurationHours()
	}
	return &Scheduler{
		constraints: constraints,
		params:      params,
		rng:         rng,
		log:         logger.NewSchedulerLogger(),
		durations:   durations,
	}, nil
}

// Name 实现 scheduler.Solver
func (s *Scheduler) Name() string {
	return string(model.AlgorithmSimulatedAnnealing)
}

// Solve 实现 scheduler.Solver
func (s *Scheduler) Solve(ctx context.Context) (*scheduler.Result, error) {
	start := time.Now()
	r, err := s.Optimize(ctx)
	if err != nil {
		return nil, err
	}
	return &scheduler.Result{
		Solution:   r.Solution,
		Iterations: r.Stats.TotalIterations,
		Duration:   time.Since(start),
	}, nil
}

// Optimize 从随机贪心初始解开始退火
func (s *Scheduler) Optimize(ctx context.Context) (*Result, error) {
	start := time.Now()
	s.log.StartOptimization(s.constraints.DepartmentID, s.Name(),
		len(s.constraints.UserConstraints), s.constraints.NumDays())

	regenerations := 0
	initial := s.generateInitial()
	for !s.IsFeasible(initial) {
		regenerations++
		if regenerations >= maxInitialRetries {
			sol := solution.New()
			sol.Status = solution.StatusInfeasible
			sol.Violations = append(sol.Violations,
				fmt.Sprintf("连续 %d 次构造初始解均不可行", maxInitialRetries))
			return &Result{
				Solution: sol,
				Stats: Statistics{
					Regenerations: regenerations,
					BestScore:     solution.WorstScore,
					ExecutionTime: time.Since(start),
				},
			}, nil
		}
		initial = s.generateInitial()
	}
	initial.Score = s.Evaluate(initial)

	result, err := s.anneal(ctx, initial)
	if err != nil {
		return result, err
	}
	result.Stats.Regenerations = regenerations
	result.Stats.ExecutionTime = time.Since(start)
	s.log.OptimizationComplete(s.Name(), string(result.Solution.Status),
		result.Stats.ExecutionTime, result.Solution.Score)
	return result, nil
}

// OptimizeWithInitialSolution 以外部解为起点退火,用于混合求解的精炼阶段。
// 起点不可行时退回随机构造。
func (s *Scheduler) OptimizeWithInitialSolution(ctx context.Context, initial *solution.Solution) (*Result, error) {
	if initial == nil || initial.Len() == 0 || !s.IsFeasible(initial) {
		return s.Optimize(ctx)
	}
	start := time.Now()
	seed := initial.Clone()
	seed.Score = s.Evaluate(seed)

	result, err := s.anneal(ctx, seed)
	if err != nil {
		return result, err
	}
	result.Stats.ExecutionTime = time.Since(start)
	return result, nil
}

// anneal 退火主循环。current 必须可行且已评分。
func (s *Scheduler) anneal(ctx context.Context, current *solution.Solution) (*Result, error) {
	best := current.Clone()
	stats := Statistics{BestScore: best.Score, CurrentScore: current.Score}
	temperature := s.params.InitialTemperature
	noImprovement := 0

	for iter := 0; iter < s.params.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			stats.TotalIterations = iter
			stats.FinalTemperature = temperature
			best.Status = solution.StatusFeasible
			return &Result{Solution: best, Stats: stats}, ctx.Err()
		default:
		}
		stats.TotalIterations = iter + 1

		neighbor := s.neighbor(current)
		if neighbor == nil || !s.IsFeasible(neighbor) {
			stats.RejectedMoves++
			noImprovement++
		} else {
			neighbor.Score = s.Evaluate(neighbor)
			delta := neighbor.Score - current.Score
			if delta < 0 || s.rng.Float64() < acceptanceProbability(delta, temperature) {
				current = neighbor
				stats.AcceptedMoves++
				if current.Score < best.Score {
					best = current.Clone()
					stats.BestScore = best.Score
					noImprovement = 0
				} else {
					noImprovement++
				}
			} else {
				stats.RejectedMoves++
				noImprovement++
			}
		}

		temperature *= s.params.CoolingRate
		if temperature <= s.params.FinalTemperature ||
			noImprovement >= s.params.MaxIterationsWithoutImprovement {
			break
		}
	}

	stats.CurrentScore = current.Score
	stats.FinalTemperature = temperature
	best.Status = solution.StatusFeasible
	return &Result{Solution: best, Stats: stats}, nil
}

// acceptanceProbability Metropolis 接受概率
func acceptanceProbability(delta, temperature float64) float64 {
	if delta <= 0 {
		return 1.0
	}
	if temperature <= 0 {
		return 0.0
	}
	return math.Exp(-delta / temperature)
}
