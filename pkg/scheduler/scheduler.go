// Package scheduler 定义排班求解器的公共接口。
// 具体算法在 annealing、cpsat、hybrid 子包中实现。
package scheduler

import (
	"context"
	"time"

	"github.com/paiban/yipai/pkg/solution"
)

// Result 求解器的统一产出
type Result struct {
	Solution   *solution.Solution
	Iterations int
	Duration   time.Duration
}

// Solver 排班求解器
type Solver interface {
	// Solve 在给定上下文内求解,返回统一结果。
	// 无可行解不视为 error,通过 Solution.Status 表达。
	Solve(ctx context.Context) (*Result, error)
	// Name 求解器名称,用于日志与指标
	Name() string
}
