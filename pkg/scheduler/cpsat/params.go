package cpsat

import "fmt"

// Parameters CP-SAT 求解参数
type Parameters struct {
	MaxTimeSeconds    float64
	NumSearchWorkers  int32
	MaxSolutions      int32
	RelativeGapLimit  float64
	LogSearchProgress bool
}

// DefaultParameters 缺省参数
func DefaultParameters() Parameters {
	return Parameters{
		MaxTimeSeconds:    300,
		NumSearchWorkers:  4,
		MaxSolutions:      1,
		RelativeGapLimit:  0.01,
		LogSearchProgress: true,
	}
}

// Validate 校验参数合法性
func (p Parameters) Validate() error {
	if p.MaxTimeSeconds <= 0 {
		return fmt.Errorf("求解时限必须为正: %v", p.MaxTimeSeconds)
	}
	if p.NumSearchWorkers < 0 {
		return fmt.Errorf("搜索线程数不能为负: %d", p.NumSearchWorkers)
	}
	if p.MaxSolutions < 1 {
		return fmt.Errorf("解数量上限至少为 1: %d", p.MaxSolutions)
	}
	if p.RelativeGapLimit < 0 {
		return fmt.Errorf("相对间隙不能为负: %v", p.RelativeGapLimit)
	}
	return nil
}
