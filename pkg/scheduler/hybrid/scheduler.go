package hybrid

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/paiban/yipai/pkg/logger"
	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/scheduler"
	"github.com/paiban/yipai/pkg/scheduler/annealing"
	"github.com/paiban/yipai/pkg/scheduler/cpsat"
	"github.com/paiban/yipai/pkg/solution"
)

// Solution 混合求解的完整产出, 保留两个阶段的中间解与耗时
type Solution struct {
	Final      *solution.Solution
	CPSolution *solution.Solution
	SASolution *solution.Solution

	StrategyUsed Strategy
	Complexity   float64

	TotalTime  time.Duration
	Phase1Time time.Duration
	Phase2Time time.Duration

	FallbackUsed bool
	Iterations   int
	// Improvements 迭代策略中每轮被接受的分数
	Improvements []float64
	Errors       []string
}

// Scheduler 混合排班求解器
type Scheduler struct {
	saConstraints *model.ShiftConstraints
	cpConstraints *cpsat.Constraints
	saParams      annealing.Parameters
	cpParams      cpsat.Parameters
	params        Parameters
	rng           *rand.Rand
	log           *logger.SchedulerLogger

	// last 最近一次求解的完整结果,通过 Solver 接口调用时由 Last 取回
	last *Solution
}

// New 创建混合求解器。两种表示由调用方分别提供, rng 注入以保证可复现。
func New(saConstraints *model.ShiftConstraints, cpConstraints *cpsat.Constraints,
	saParams annealing.Parameters, cpParams cpsat.Parameters,
	params Parameters, rng *rand.Rand) (*Scheduler, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("混合参数非法: %w", err)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{
		saConstraints: saConstraints,
		cpConstraints: cpConstraints,
		saParams:      saParams,
		cpParams:      cpParams,
		params:        params,
		rng:           rng,
		log:           logger.NewSchedulerLogger(),
	}, nil
}

// Name 实现 scheduler.Solver
func (s *Scheduler) Name() string {
	return string(model.AlgorithmHybrid)
}

// Solve 实现 scheduler.Solver
func (s *Scheduler) Solve(ctx context.Context) (*scheduler.Result, error) {
	r, err := s.Optimize(ctx)
	if err != nil {
		return nil, err
	}
	return &scheduler.Result{
		Solution:   r.Final,
		Iterations: r.Iterations,
		Duration:   r.TotalTime,
	}, nil
}

// Optimize 按配置的策略求解。每次调用都是独立的完整运行。
func (s *Scheduler) Optimize(ctx context.Context) (*Solution, error) {
	start := time.Now()
	result := &Solution{StrategyUsed: s.params.Strategy}

	var err error
	switch s.params.Strategy {
	case StrategyCPFirst:
		err = s.runCPFirst(ctx, result)
	case StrategySAFirst:
		err = s.runSAFirst(ctx, result)
	case StrategyParallel:
		err = s.runParallel(ctx, result)
	case StrategyIterative:
		err = s.runIterative(ctx, result)
	case StrategyAdaptive:
		err = s.runAdaptive(ctx, result)
	default:
		err = fmt.Errorf("未知的混合策略: %s", s.params.Strategy)
	}
	if err != nil {
		return nil, err
	}

	if result.Final == nil {
		result.Final = solution.New()
		result.Final.Status = solution.StatusInfeasible
	}
	result.TotalTime = time.Since(start)
	s.log.OptimizationComplete(s.Name(), string(result.Final.Status), result.TotalTime, result.Final.Score)
	s.last = result
	return result, nil
}

// Last 最近一次求解的完整结果,尚未求解过时为 nil
func (s *Scheduler) Last() *Solution {
	return s.last
}

// runCPFirst CP 先行: CP 求全局解, 退火做局部精炼, 失败则整体回退退火
func (s *Scheduler) runCPFirst(ctx context.Context, result *Solution) error {
	phase1 := time.Now()
	cpResult, err := s.runCP(ctx, nil)
	result.Phase1Time = time.Since(phase1)
	if err != nil {
		return err
	}
	result.CPSolution = cpResult.Solution

	if !cpResult.Solution.Status.Solved() {
		s.log.SolverFallback(string(model.AlgorithmCPSat), string(model.AlgorithmSimulatedAnnealing),
			fmt.Sprintf("CP 状态 %s", cpResult.Solution.Status))
		result.FallbackUsed = true
		result.Errors = append(result.Errors, fmt.Sprintf("CP 求解失败: %s", cpResult.Solution.Status))

		phase2 := time.Now()
		saResult, err := s.runSA(ctx, nil)
		result.Phase2Time = time.Since(phase2)
		if err != nil {
			return err
		}
		result.SASolution = saResult.Solution
		result.Final = saResult.Solution
		return nil
	}

	phase2 := time.Now()
	refined, err := s.refineSA(ctx, cpResult.Solution)
	result.Phase2Time = time.Since(phase2)
	if err != nil {
		return err
	}
	result.SASolution = refined.Solution
	result.Final = SelectBest(cpResult.Solution, refined.Solution)
	return nil
}

// runSAFirst 退火先行: 退火产出有效解后, 以其为提示再跑 CP
func (s *Scheduler) runSAFirst(ctx context.Context, result *Solution) error {
	phase1 := time.Now()
	saResult, err := s.runSA(ctx, nil)
	result.Phase1Time = time.Since(phase1)
	if err != nil {
		return err
	}
	result.SASolution = saResult.Solution

	if saResult.Solution.Score >= solution.WorstScore || len(saResult.Solution.Violations) > 0 {
		result.Final = saResult.Solution
		return nil
	}

	phase2 := time.Now()
	cpResult, err := s.runCP(ctx, saResult.Solution)
	result.Phase2Time = time.Since(phase2)
	if err != nil {
		return err
	}
	result.CPSolution = cpResult.Solution

	if cpResult.Solution.Status.Solved() {
		result.Final = SelectBest(saResult.Solution, cpResult.Solution)
	} else {
		result.Final = saResult.Solution
	}
	return nil
}

// runParallel 并行: 两个求解器同时独立运行, 全部结束后取分数更低者
func (s *Scheduler) runParallel(ctx context.Context, result *Solution) error {
	var wg sync.WaitGroup
	var cpResult *cpsat.Result
	var saResult *annealing.Result
	var cpErr, saErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		cpResult, cpErr = s.runCP(ctx, nil)
	}()
	go func() {
		defer wg.Done()
		saResult, saErr = s.runSA(ctx, nil)
	}()
	wg.Wait()

	if cpErr != nil && saErr != nil {
		return fmt.Errorf("并行求解全部失败: cp=%v sa=%v", cpErr, saErr)
	}
	if cpErr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("CP 求解失败: %v", cpErr))
		result.SASolution = saResult.Solution
		result.Final = saResult.Solution
		return nil
	}
	if saErr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("退火求解失败: %v", saErr))
		result.CPSolution = cpResult.Solution
		result.Final = cpResult.Solution
		return nil
	}

	result.CPSolution = cpResult.Solution
	result.SASolution = saResult.Solution
	result.Final = SelectBest(cpResult.Solution, saResult.Solution)
	return nil
}

// runIterative 迭代: 以 CP 解起步, 反复退火精炼, 首次无改进即停
func (s *Scheduler) runIterative(ctx context.Context, result *Solution) error {
	phase1 := time.Now()
	cpResult, err := s.runCP(ctx, nil)
	result.Phase1Time = time.Since(phase1)
	if err != nil {
		return err
	}
	result.CPSolution = cpResult.Solution

	if !cpResult.Solution.Status.Solved() {
		result.FallbackUsed = true
		phase2 := time.Now()
		saResult, err := s.runSA(ctx, nil)
		result.Phase2Time = time.Since(phase2)
		if err != nil {
			return err
		}
		result.SASolution = saResult.Solution
		result.Final = saResult.Solution
		return nil
	}

	best := cpResult.Solution
	phase2 := time.Now()
	for i := 0; i < s.params.MaxIterations; i++ {
		result.Iterations = i + 1
		refined, err := s.refineSA(ctx, best)
		if err != nil {
			return err
		}
		if refined.Solution.Score < best.Score {
			best = refined.Solution
			result.Improvements = append(result.Improvements, best.Score)
		} else {
			break
		}
	}
	result.Phase2Time = time.Since(phase2)
	result.SASolution = best
	result.Final = best
	return nil
}

// runAdaptive 自适应: 按复杂度估算选择 CP、退火或 CP 先行
func (s *Scheduler) runAdaptive(ctx context.Context, result *Solution) error {
	complexity := s.Complexity()
	result.Complexity = complexity

	switch {
	case complexity < s.params.ComplexityThreshold:
		phase1 := time.Now()
		cpResult, err := s.runCP(ctx, nil)
		result.Phase1Time = time.Since(phase1)
		if err != nil {
			return err
		}
		result.CPSolution = cpResult.Solution
		result.Final = cpResult.Solution
	case complexity > 2*s.params.ComplexityThreshold:
		phase1 := time.Now()
		saResult, err := s.runSA(ctx, nil)
		result.Phase1Time = time.Since(phase1)
		if err != nil {
			return err
		}
		result.SASolution = saResult.Solution
		result.Final = saResult.Solution
	default:
		return s.runCPFirst(ctx, result)
	}
	return nil
}

// Complexity 问题复杂度估算: 人数 × 班次数 × 天数 × 不可用日期数 / 1000
func (s *Scheduler) Complexity() float64 {
	c := s.cpConstraints
	return float64(c.NumUsers()*c.NumShifts()*c.NumDays()*c.TotalUnavailableDates()) / 1000.0
}

func (s *Scheduler) runCP(ctx context.Context, hint *solution.Solution) (*cpsat.Result, error) {
	solver, err := cpsat.New(s.cpConstraints, s.cpParams)
	if err != nil {
		return nil, err
	}
	if hint != nil {
		solver.SetHint(hint)
	}
	return solver.Optimize(ctx)
}

func (s *Scheduler) runSA(ctx context.Context, initial *solution.Solution) (*annealing.Result, error) {
	solver, err := annealing.New(s.saConstraints, s.saParams, s.rng)
	if err != nil {
		return nil, err
	}
	if initial != nil {
		return solver.OptimizeWithInitialSolution(ctx, initial)
	}
	return solver.Optimize(ctx)
}

// refineSA 以已有解为起点做收缩参数的快速退火
func (s *Scheduler) refineSA(ctx context.Context, seed *solution.Solution) (*annealing.Result, error) {
	params := s.saParams
	params.InitialTemperature = params.InitialTemperature / 2
	if params.InitialTemperature <= params.FinalTemperature {
		params.InitialTemperature = params.FinalTemperature * 10
	}
	params.MaxIterations = params.MaxIterations / 2
	if params.MaxIterations < 1 {
		params.MaxIterations = 1
	}
	params.MaxIterationsWithoutImprovement = params.MaxIterationsWithoutImprovement / 2
	if params.MaxIterationsWithoutImprovement < 1 {
		params.MaxIterationsWithoutImprovement = 1
	}

	solver, err := annealing.New(s.saConstraints, params, s.rng)
	if err != nil {
		return nil, err
	}
	return solver.OptimizeWithInitialSolution(ctx, seed)
}

// SelectBest 取分数更低的解, 持平偏向第一个参数
func SelectBest(a, b *solution.Solution) *solution.Solution {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.Score < a.Score {
		return b
	}
	return a
}
