package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("加载默认配置失败: %v", err)
	}

	if cfg.App.Name != "yipai" {
		t.Errorf("应用名默认值错误: got %s", cfg.App.Name)
	}
	if !cfg.IsDevelopment() {
		t.Error("默认应为开发环境")
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("数据库端口默认值错误: got %d", cfg.Database.Port)
	}
	if cfg.Scheduler.Annealing.InitialTemperature != 1000 {
		t.Errorf("初始温度默认值错误: got %f", cfg.Scheduler.Annealing.InitialTemperature)
	}
	if cfg.Scheduler.CPSat.MaxTimeSeconds != 300 {
		t.Errorf("求解时限默认值错误: got %f", cfg.Scheduler.CPSat.MaxTimeSeconds)
	}
	if cfg.Scheduler.Hybrid.Strategy != "cp_first" {
		t.Errorf("混合策略默认值错误: got %s", cfg.Scheduler.Hybrid.Strategy)
	}
	if cfg.Scheduler.MaxWindowDays != 21 {
		t.Errorf("窗口天数上限默认值错误: got %d", cfg.Scheduler.MaxWindowDays)
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Clearenv()
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("SCHEDULER_SA_COOLING_RATE", "0.9")
	t.Setenv("SCHEDULER_HYBRID_STRATEGY", "parallel")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if !cfg.IsProduction() {
		t.Error("应为生产环境")
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("数据库主机错误: got %s", cfg.Database.Host)
	}
	if cfg.Scheduler.Annealing.CoolingRate != 0.9 {
		t.Errorf("降温系数错误: got %f", cfg.Scheduler.Annealing.CoolingRate)
	}
	if cfg.Scheduler.Hybrid.Strategy != "parallel" {
		t.Errorf("混合策略错误: got %s", cfg.Scheduler.Hybrid.Strategy)
	}
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Name:     "yipai",
		User:     "yipai",
		Password: "secret",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=yipai password=secret dbname=yipai sslmode=disable"
	if got := db.DSN(); got != want {
		t.Errorf("DSN 错误:\ngot  %s\nwant %s", got, want)
	}
}
