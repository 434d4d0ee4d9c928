// Package annealing 实现基于模拟退火的排班求解器。
// 从随机贪心构造的初始解出发,按几何降温接受邻域移动,
// 不可行邻居直接拒绝,记录历史最优解。
package annealing

import "fmt"

// 初始解构造失败时的重试上限
const maxInitialRetries = 10

// Parameters 模拟退火参数
type Parameters struct {
	InitialTemperature              float64
	FinalTemperature                float64
	CoolingRate                     float64
	MaxIterations                   int
	MaxIterationsWithoutImprovement int
	MaxNeighborsPerIteration        int
	PenaltyWeight                   float64
}

// DefaultParameters 缺省参数
func DefaultParameters() Parameters {
	return Parameters{
		InitialTemperature:              1000,
		FinalTemperature:                0.1,
		CoolingRate:                     0.95,
		MaxIterations:                   10000,
		MaxIterationsWithoutImprovement: 1000,
		MaxNeighborsPerIteration:        10,
		PenaltyWeight:                   1000,
	}
}

// Validate 校验参数合法性
func (p Parameters) Validate() error {
	if p.InitialTemperature <= 0 {
		return fmt.Errorf("初始温度必须为正: %v", p.InitialTemperature)
	}
	if p.FinalTemperature <= 0 || p.FinalTemperature >= p.InitialTemperature {
		return fmt.Errorf("终止温度必须为正且低于初始温度: %v", p.FinalTemperature)
	}
	if p.CoolingRate <= 0 || p.CoolingRate >= 1 {
		return fmt.Errorf("降温系数必须位于 (0,1): %v", p.CoolingRate)
	}
	if p.MaxIterations <= 0 {
		return fmt.Errorf("最大迭代次数必须为正: %d", p.MaxIterations)
	}
	if p.MaxIterationsWithoutImprovement <= 0 {
		return fmt.Errorf("无改进迭代上限必须为正: %d", p.MaxIterationsWithoutImprovement)
	}
	if p.MaxNeighborsPerIteration <= 0 {
		return fmt.Errorf("单轮邻域尝试上限必须为正: %d", p.MaxNeighborsPerIteration)
	}
	if p.PenaltyWeight < 0 {
		return fmt.Errorf("罚分权重不能为负: %v", p.PenaltyWeight)
	}
	return nil
}
