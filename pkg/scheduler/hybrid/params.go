// Package hybrid 组合退火与 CP-SAT 两种求解器,
// 提供 CP 先行、退火先行、并行、迭代精炼与自适应五种策略。
package hybrid

import "fmt"

// Strategy 混合求解策略
type Strategy string

const (
	StrategyCPFirst   Strategy = "cp_first"
	StrategySAFirst   Strategy = "sa_first"
	StrategyParallel  Strategy = "parallel"
	StrategyIterative Strategy = "iterative"
	StrategyAdaptive  Strategy = "adaptive"
)

// ParseStrategy 解析策略名
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyCPFirst, StrategySAFirst, StrategyParallel, StrategyIterative, StrategyAdaptive:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("未知的混合策略: %s", s)
}

// Parameters 混合求解参数
type Parameters struct {
	Strategy            Strategy
	MaxIterations       int
	ComplexityThreshold float64
}

// DefaultParameters 缺省参数
func DefaultParameters() Parameters {
	return Parameters{
		Strategy:            StrategyCPFirst,
		MaxIterations:       5,
		ComplexityThreshold: 100.0,
	}
}

// Validate 校验参数合法性
func (p Parameters) Validate() error {
	if _, err := ParseStrategy(string(p.Strategy)); err != nil {
		return err
	}
	if p.MaxIterations <= 0 {
		return fmt.Errorf("迭代上限必须为正: %d", p.MaxIterations)
	}
	if p.ComplexityThreshold <= 0 {
		return fmt.Errorf("复杂度阈值必须为正: %v", p.ComplexityThreshold)
	}
	return nil
}
