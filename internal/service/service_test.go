package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/paiban/yipai/internal/config"
	"github.com/paiban/yipai/internal/repository"
	apperrors "github.com/paiban/yipai/pkg/errors"
	"github.com/paiban/yipai/pkg/logger"
	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/productivity"
)

type fakeDepartments struct {
	dep *repository.Department
}

func (f *fakeDepartments) GetByID(_ context.Context, id int) (*repository.Department, error) {
	if f.dep != nil && f.dep.ID == id {
		return f.dep, nil
	}
	return nil, nil
}

type fakeStaff struct {
	records []*repository.StaffRecord
	recent  map[int]int
}

func (f *fakeStaff) ListActiveByDepartment(_ context.Context, _ int) ([]*repository.StaffRecord, error) {
	return f.records, nil
}

func (f *fakeStaff) CountRecentAssignments(_ context.Context, _ int, _, _ string) (map[int]int, error) {
	return f.recent, nil
}

type fakeShifts struct {
	records []*repository.ShiftRecord
}

func (f *fakeShifts) ListByDepartment(_ context.Context, _ int) ([]*repository.ShiftRecord, error) {
	return f.records, nil
}

type fakeRequests struct {
	approved []*repository.ShiftRequestRecord
	pending  bool
}

func (f *fakeRequests) ListApprovedInRange(_ context.Context, _ int, _, _ string) ([]*repository.ShiftRequestRecord, error) {
	return f.approved, nil
}

func (f *fakeRequests) ExistsPendingInRange(_ context.Context, _ int, _, _ string) (bool, error) {
	return f.pending, nil
}

type fakeSettings struct {
	department *repository.DepartmentSettings
	algorithm  *repository.AlgorithmSettings
}

func (f *fakeSettings) GetDepartmentSettings(_ context.Context, _ int) (*repository.DepartmentSettings, error) {
	return f.department, nil
}

func (f *fakeSettings) GetAlgorithmSettings(_ context.Context, _ int, _ string) (*repository.AlgorithmSettings, error) {
	return f.algorithm, nil
}

type fakeSchedules struct {
	saved []*repository.ScheduleRecord
}

func (f *fakeSchedules) Save(_ context.Context, schedule *repository.ScheduleRecord) error {
	f.saved = append(f.saved, schedule)
	return nil
}

func testSchedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Annealing: config.AnnealingConfig{
			InitialTemperature:              1000,
			FinalTemperature:                0.1,
			CoolingRate:                     0.95,
			MaxIterations:                   2000,
			MaxIterationsWithoutImprovement: 300,
			MaxNeighborsPerIteration:        10,
			PenaltyWeight:                   1000,
		},
		CPSat: config.CPSatConfig{
			MaxTimeSeconds:    10,
			NumSearchWorkers:  1,
			MaxSolutions:      1,
			RelativeGapLimit:  0.01,
			LogSearchProgress: false,
		},
		Hybrid: config.HybridConfig{
			Strategy:            "cp_first",
			MaxIterations:       5,
			ComplexityThreshold: 100,
		},
		MaxWindowDays: 21,
	}
}

func newTestService(deps *fakeDepartments, staff *fakeStaff, shifts *fakeShifts,
	requests *fakeRequests, settings *fakeSettings, schedules *fakeSchedules) *Service {
	return &Service{
		departments: deps,
		staff:       staff,
		shifts:      shifts,
		requests:    requests,
		settings:    settings,
		schedules:   schedules,
		calc:        productivity.NewDefaultCalculator(),
		cfg:         testSchedulerConfig(),
		rng:         rand.New(rand.NewSource(42)),
		log:         logger.NewSchedulerLogger(),
	}
}

// 单人单班次的最小可排班场景
func singleUserFixture() (*fakeDepartments, *fakeStaff, *fakeShifts, *fakeRequests, *fakeSettings, *fakeSchedules) {
	deps := &fakeDepartments{dep: &repository.Department{ID: 1, Name: "内科", IsActive: true}}
	staff := &fakeStaff{
		records: []*repository.StaffRecord{
			{ID: 10, Name: "张三", Gender: int(model.GenderMale), SpecialtyID: 1, SpecialtyName: "护理", IsActive: true},
		},
		recent: map[int]int{},
	}
	shifts := &fakeShifts{
		records: []*repository.ShiftRecord{
			{
				ID: 100, Name: "白班", Label: "morning", StartTime: "08:00", EndTime: "16:00",
				SpecialtyRequirements: []*repository.SpecialtyRequirementRecord{
					{SpecialtyID: 1, SpecialtyName: "护理", RequiredTotalCount: 1},
				},
			},
		},
	}
	// 设置行存在但全为空:除重复排班禁止外的硬性规则全部降级
	settings := &fakeSettings{department: &repository.DepartmentSettings{DepartmentID: 1}}
	return deps, staff, shifts, &fakeRequests{}, settings, &fakeSchedules{}
}

func jalali(t *testing.T, date string) string {
	t.Helper()
	j, err := model.FormatJalaliDate(date)
	if err != nil {
		t.Fatalf("日期转换失败: %v", err)
	}
	return j
}

func TestOptimizeInternalSingleUser(t *testing.T) {
	svc := newTestService(singleUserFixture())

	result, err := svc.OptimizeInternal(context.Background(), InternalRequest{
		DepartmentID: 1,
		StartDate:    "2025-03-01",
		EndDate:      "2025-03-03",
		Algorithm:    model.AlgorithmSimulatedAnnealing,
	})
	if err != nil {
		t.Fatalf("排班失败: %v", err)
	}
	if !result.Status.Solved() {
		t.Fatalf("期望求解成功,实际状态 %s", result.Status)
	}
	if len(result.Assignments) != 3 {
		t.Fatalf("期望 3 条分配,实际 %d", len(result.Assignments))
	}
	for _, a := range result.Assignments {
		if a.UserID != 10 {
			t.Errorf("分配到了未知人员 %d", a.UserID)
		}
		if a.UserName != "张三" || a.SpecialtyName != "护理" {
			t.Errorf("分配缺少人员信息: %+v", a)
		}
	}
	if result.Score >= 0 {
		t.Errorf("满排期望负分,实际 %v", result.Score)
	}
	if result.Statistics == nil || result.Statistics.TotalAssignments != 3 {
		t.Errorf("统计信息不完整: %+v", result.Statistics)
	}
}

func TestOptimizeDefaultsToAnnealing(t *testing.T) {
	svc := newTestService(singleUserFixture())

	result, err := svc.OptimizeInternal(context.Background(), InternalRequest{
		DepartmentID: 1,
		StartDate:    "2025-03-01",
		EndDate:      "2025-03-02",
	})
	if err != nil {
		t.Fatalf("排班失败: %v", err)
	}
	if result.Algorithm != model.AlgorithmSimulatedAnnealing {
		t.Errorf("缺省算法期望模拟退火,实际 %s", result.Algorithm)
	}
}

func TestOptimizeRejectsPendingRequests(t *testing.T) {
	deps, staff, shifts, requests, settings, schedules := singleUserFixture()
	requests.pending = true
	svc := newTestService(deps, staff, shifts, requests, settings, schedules)

	_, err := svc.Optimize(context.Background(), Request{
		DepartmentID: 1,
		StartDate:    jalali(t, "2025-03-01"),
		EndDate:      jalali(t, "2025-03-03"),
		Algorithm:    model.AlgorithmSimulatedAnnealing,
	})
	if !apperrors.Is(err, apperrors.CodePendingShiftRequests) {
		t.Fatalf("期望待审批申请错误,实际 %v", err)
	}
}

func TestOptimizeInternalUnknownAlgorithm(t *testing.T) {
	svc := newTestService(singleUserFixture())

	_, err := svc.OptimizeInternal(context.Background(), InternalRequest{
		DepartmentID: 1,
		StartDate:    "2025-03-01",
		EndDate:      "2025-03-03",
		Algorithm:    "genetic",
	})
	if !apperrors.Is(err, apperrors.CodeUnknownAlgorithm) {
		t.Fatalf("期望未知算法错误,实际 %v", err)
	}
}

func TestOptimizeInternalInvalidRange(t *testing.T) {
	svc := newTestService(singleUserFixture())

	_, err := svc.OptimizeInternal(context.Background(), InternalRequest{
		DepartmentID: 1,
		StartDate:    "2025-03-10",
		EndDate:      "2025-03-01",
		Algorithm:    model.AlgorithmSimulatedAnnealing,
	})
	if !apperrors.Is(err, apperrors.CodeInvalidTimeRange) {
		t.Fatalf("期望时间区间错误,实际 %v", err)
	}

	_, err = svc.OptimizeInternal(context.Background(), InternalRequest{
		DepartmentID: 1,
		StartDate:    "2025-01-01",
		EndDate:      "2025-06-30",
		Algorithm:    model.AlgorithmSimulatedAnnealing,
	})
	if !apperrors.Is(err, apperrors.CodeInvalidTimeRange) {
		t.Fatalf("超长区间期望时间区间错误,实际 %v", err)
	}
}

func TestOptimizeInternalDepartmentNotFound(t *testing.T) {
	_, staff, shifts, requests, settings, schedules := singleUserFixture()
	svc := newTestService(&fakeDepartments{}, staff, shifts, requests, settings, schedules)

	_, err := svc.OptimizeInternal(context.Background(), InternalRequest{
		DepartmentID: 99,
		StartDate:    "2025-03-01",
		EndDate:      "2025-03-03",
		Algorithm:    model.AlgorithmSimulatedAnnealing,
	})
	if !apperrors.Is(err, apperrors.CodeNotFound) {
		t.Fatalf("期望科室不存在错误,实际 %v", err)
	}
}

func TestLoadConstraintsAppliesSettings(t *testing.T) {
	deps, staff, shifts, requests, settings, schedules := singleUserFixture()

	nightLover := true
	deps.dep.IsNightLover = &nightLover

	enforceRest := true
	minRest := -1
	weight := 2.5
	lookback := 2
	settings.department = &repository.DepartmentSettings{
		DepartmentID:             1,
		EnforceMinRestDays:       &enforceRest,
		MinRestDaysBetweenShifts: &minRest,
		GenderBalanceWeight:      &weight,
		FairnessLookbackMonths:   &lookback,
	}

	label := "night"
	requests.approved = []*repository.ShiftRequestRecord{
		{UserID: 10, RequestDate: "2025-03-02", Action: repository.RequestActionOffShift},
		{UserID: 10, RequestDate: "2025-03-03", Action: repository.RequestActionOnShift, ShiftLabel: &label},
		{UserID: 10, RequestDate: "2025-03-04", Action: repository.RequestActionOnShift, FullDay: true},
	}
	staff.recent = map[int]int{10: 7}

	svc := newTestService(deps, staff, shifts, requests, settings, schedules)
	constraints, err := svc.loadConstraints(context.Background(), 1, "2025-03-01", "2025-03-07")
	if err != nil {
		t.Fatalf("装配约束失败: %v", err)
	}

	if constraints.SoftWeights.MonthlyNightCap != 0.5 {
		t.Errorf("偏好晚班的科室期望权重 0.5,实际 %v", constraints.SoftWeights.MonthlyNightCap)
	}
	if constraints.SoftWeights.GenderBalance != 2.5 {
		t.Errorf("性别均衡权重期望 2.5,实际 %v", constraints.SoftWeights.GenderBalance)
	}
	if constraints.SoftWeights.SpecialtyPreference != 1.0 {
		t.Errorf("未填写的权重期望回落到 1.0,实际 %v", constraints.SoftWeights.SpecialtyPreference)
	}
	if !constraints.HardRules.ForbidDuplicateDailyAssignments {
		t.Error("重复排班禁止应保持开启")
	}
	if constraints.HardRules.EnforceMaxConsecutiveShifts {
		t.Error("未填写的连班硬性规则应降级为软性")
	}

	u := constraints.UserByID(10)
	if u == nil {
		t.Fatal("缺少人员约束")
	}
	if u.MinRestDaysBetweenShifts != 0 {
		t.Errorf("负的休息天数应钳制为 0,实际 %d", u.MinRestDaysBetweenShifts)
	}
	if !u.UnavailableDates["2025-03-02"] {
		t.Error("停班申请应转为不可用日期")
	}
	if !u.PreferredShifts[model.ShiftNight] {
		t.Error("指定班段申请应转为偏好班段")
	}
	if !u.PreferredShifts[model.ShiftMorning] || !u.PreferredShifts[model.ShiftEvening] {
		t.Error("整天申请应展开为全部班段偏好")
	}
	if u.RecentTotalShifts != 7 {
		t.Errorf("历史班次数期望 7,实际 %d", u.RecentTotalShifts)
	}
}

func TestLoadConstraintsWithoutSettingsKeepsDefaults(t *testing.T) {
	deps, staff, shifts, requests, settings, schedules := singleUserFixture()
	settings.department = nil
	svc := newTestService(deps, staff, shifts, requests, settings, schedules)

	constraints, err := svc.loadConstraints(context.Background(), 1, "2025-03-01", "2025-03-07")
	if err != nil {
		t.Fatalf("装配约束失败: %v", err)
	}
	defaults := model.DefaultHardRules()
	if constraints.HardRules != defaults {
		t.Errorf("无设置行时硬性规则应保持缺省: %+v", constraints.HardRules)
	}
}

func TestSAParametersOverrides(t *testing.T) {
	deps, staff, shifts, requests, settings, schedules := singleUserFixture()
	temp := 500.0
	iters := 123
	settings.algorithm = &repository.AlgorithmSettings{
		Algorithm:            string(model.AlgorithmSimulatedAnnealing),
		SAInitialTemperature: &temp,
		SAMaxIterations:      &iters,
	}
	svc := newTestService(deps, staff, shifts, requests, settings, schedules)

	p, err := svc.saParameters(context.Background(), 1)
	if err != nil {
		t.Fatalf("获取参数失败: %v", err)
	}
	if p.InitialTemperature != 500 {
		t.Errorf("初始温度期望 500,实际 %v", p.InitialTemperature)
	}
	if p.MaxIterations != 123 {
		t.Errorf("迭代上限期望 123,实际 %d", p.MaxIterations)
	}
	if p.CoolingRate != 0.95 {
		t.Errorf("未覆盖的降温系数应保持配置值,实际 %v", p.CoolingRate)
	}
}

func TestValidateConstraintsCollectsIssues(t *testing.T) {
	deps := &fakeDepartments{dep: &repository.Department{ID: 1, Name: "内科", IsActive: false}}
	svc := newTestService(deps, &fakeStaff{}, &fakeShifts{}, &fakeRequests{}, &fakeSettings{}, &fakeSchedules{})

	issues, err := svc.ValidateConstraints(context.Background(), Request{
		DepartmentID: 1,
		StartDate:    jalali(t, "2030-01-10"),
		EndDate:      jalali(t, "2030-01-01"),
	})
	if err != nil {
		t.Fatalf("校验失败: %v", err)
	}
	if len(issues) < 2 {
		t.Fatalf("期望汇报多个问题,实际 %v", issues)
	}
}

func TestSaveSchedule(t *testing.T) {
	deps, staff, shifts, requests, settings, schedules := singleUserFixture()
	svc := newTestService(deps, staff, shifts, requests, settings, schedules)

	result, err := svc.OptimizeInternal(context.Background(), InternalRequest{
		DepartmentID: 1,
		StartDate:    "2025-03-01",
		EndDate:      "2025-03-03",
		Algorithm:    model.AlgorithmSimulatedAnnealing,
	})
	if err != nil {
		t.Fatalf("排班失败: %v", err)
	}
	if err := svc.SaveSchedule(context.Background(), result); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if len(schedules.saved) != 1 {
		t.Fatalf("期望保存 1 条记录,实际 %d", len(schedules.saved))
	}
	saved := schedules.saved[0]
	if saved.DepartmentID != 1 || len(saved.Assignments) != 3 {
		t.Errorf("保存的记录不完整: %+v", saved)
	}
}

func TestSaveScheduleRejectsUnsolved(t *testing.T) {
	svc := newTestService(singleUserFixture())
	if err := svc.SaveSchedule(context.Background(), nil); err == nil {
		t.Fatal("空结果应拒绝保存")
	}
}
