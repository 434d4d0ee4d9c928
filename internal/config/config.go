// Package config 提供配置管理
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `envPrefix:"APP_"`
	Database  DatabaseConfig  `envPrefix:"DB_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `env:"NAME" envDefault:"yipai"`
	Env      string `env:"ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"5432"`
	Name            string        `env:"NAME" envDefault:"yipai"`
	User            string        `env:"USER" envDefault:"yipai"`
	Password        string        `env:"PASSWORD" envDefault:"yipai123"`
	SSLMode         string        `env:"SSL_MODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// SchedulerConfig 排班引擎配置
type SchedulerConfig struct {
	Annealing AnnealingConfig `envPrefix:"SA_"`
	CPSat     CPSatConfig     `envPrefix:"CPSAT_"`
	Hybrid    HybridConfig    `envPrefix:"HYBRID_"`

	// MaxWindowDays 应急重排窗口天数上限
	MaxWindowDays int `env:"MAX_WINDOW_DAYS" envDefault:"21"`
}

// AnnealingConfig 模拟退火缺省参数
type AnnealingConfig struct {
	InitialTemperature              float64 `env:"INITIAL_TEMPERATURE" envDefault:"1000"`
	FinalTemperature                float64 `env:"FINAL_TEMPERATURE" envDefault:"0.1"`
	CoolingRate                     float64 `env:"COOLING_RATE" envDefault:"0.95"`
	MaxIterations                   int     `env:"MAX_ITERATIONS" envDefault:"10000"`
	MaxIterationsWithoutImprovement int     `env:"MAX_STALL_ITERATIONS" envDefault:"1000"`
	MaxNeighborsPerIteration        int     `env:"MAX_NEIGHBORS" envDefault:"10"`
	PenaltyWeight                   float64 `env:"PENALTY_WEIGHT" envDefault:"1000"`
}

// CPSatConfig CP-SAT 缺省参数
type CPSatConfig struct {
	MaxTimeSeconds    float64 `env:"MAX_TIME_SECONDS" envDefault:"300"`
	NumSearchWorkers  int32   `env:"NUM_WORKERS" envDefault:"4"`
	MaxSolutions      int32   `env:"MAX_SOLUTIONS" envDefault:"1"`
	RelativeGapLimit  float64 `env:"RELATIVE_GAP" envDefault:"0.01"`
	LogSearchProgress bool    `env:"LOG_SEARCH" envDefault:"true"`
}

// HybridConfig 混合策略缺省参数
type HybridConfig struct {
	Strategy            string  `env:"STRATEGY" envDefault:"cp_first"`
	MaxIterations       int     `env:"MAX_ITERATIONS" envDefault:"5"`
	ComplexityThreshold float64 `env:"COMPLEXITY_THRESHOLD" envDefault:"100"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("解析环境变量配置失败: %w", err)
	}
	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// IsTest 检查是否为测试环境
func (c *Config) IsTest() bool {
	return c.App.Env == "test"
}
