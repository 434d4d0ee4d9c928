// Package service 组合仓储与求解器,实现排班业务流程。
package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/paiban/yipai/internal/config"
	"github.com/paiban/yipai/internal/metrics"
	"github.com/paiban/yipai/internal/repository"
	apperrors "github.com/paiban/yipai/pkg/errors"
	"github.com/paiban/yipai/pkg/logger"
	"github.com/paiban/yipai/pkg/model"
	"github.com/paiban/yipai/pkg/productivity"
	"github.com/paiban/yipai/pkg/scheduler"
	"github.com/paiban/yipai/pkg/scheduler/annealing"
	"github.com/paiban/yipai/pkg/scheduler/cpsat"
	"github.com/paiban/yipai/pkg/scheduler/hybrid"
	"github.com/paiban/yipai/pkg/solution"
	"github.com/paiban/yipai/pkg/stats"
)

// 单次排班区间的天数上限
const maxScheduleRangeDays = 90

type departmentStore interface {
	GetByID(ctx context.Context, id int) (*repository.Department, error)
}

type staffStore interface {
	ListActiveByDepartment(ctx context.Context, departmentID int) ([]*repository.StaffRecord, error)
	CountRecentAssignments(ctx context.Context, departmentID int, start, end string) (map[int]int, error)
}

type shiftStore interface {
	ListByDepartment(ctx context.Context, departmentID int) ([]*repository.ShiftRecord, error)
}

type requestStore interface {
	ListApprovedInRange(ctx context.Context, departmentID int, start, end string) ([]*repository.ShiftRequestRecord, error)
	ExistsPendingInRange(ctx context.Context, departmentID int, start, end string) (bool, error)
}

type settingsStore interface {
	GetDepartmentSettings(ctx context.Context, departmentID int) (*repository.DepartmentSettings, error)
	GetAlgorithmSettings(ctx context.Context, departmentID int, algorithm string) (*repository.AlgorithmSettings, error)
}

type scheduleStore interface {
	Save(ctx context.Context, schedule *repository.ScheduleRecord) error
}

// Service 排班服务
type Service struct {
	departments departmentStore
	staff       staffStore
	shifts      shiftStore
	requests    requestStore
	settings    settingsStore
	schedules   scheduleStore

	calc productivity.Calculator
	cfg  config.SchedulerConfig
	rng  *rand.Rand
	log  *logger.SchedulerLogger
}

// New 创建排班服务。rng 为空时使用时间种子。
func New(db repository.DB, cfg config.SchedulerConfig, calc productivity.Calculator, rng *rand.Rand) *Service {
	if calc == nil {
		calc = productivity.NewDefaultCalculator()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		departments: repository.NewDepartmentRepository(db),
		staff:       repository.NewStaffRepository(db),
		shifts:      repository.NewShiftRepository(db),
		requests:    repository.NewRequestRepository(db),
		settings:    repository.NewSettingsRepository(db),
		schedules:   repository.NewScheduleRepository(db),
		calc:        calc,
		cfg:         cfg,
		rng:         rng,
		log:         logger.NewSchedulerLogger(),
	}
}

// Optimize 按波斯历日期请求执行排班。
// 区间内存在待审批的换班申请时拒绝排班,避免结果刚生成就作废。
func (s *Service) Optimize(ctx context.Context, req Request) (*SchedulingResult, error) {
	internal, err := s.toInternal(req)
	if err != nil {
		return nil, err
	}
	pending, err := s.requests.ExistsPendingInRange(ctx, internal.DepartmentID, internal.StartDate, internal.EndDate)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询待审批换班申请失败")
	}
	if pending {
		return nil, apperrors.PendingShiftRequests(internal.DepartmentID, req.StartDate, req.EndDate)
	}
	return s.OptimizeInternal(ctx, internal)
}

// OptimizeInternal 按公历日期执行排班,不做待审批申请检查。
// 应急重排的滚动窗口直接走此入口。
func (s *Service) OptimizeInternal(ctx context.Context, req InternalRequest) (result *SchedulingResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = apperrors.New(apperrors.CodeInternal, fmt.Sprintf("排班求解发生未预期异常: %v", p))
		}
	}()

	if req.Algorithm == "" {
		req.Algorithm = model.AlgorithmSimulatedAnnealing
	}
	if !req.Algorithm.Valid() {
		return nil, apperrors.UnknownAlgorithm(string(req.Algorithm))
	}
	if err := validateRange(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	constraints, err := s.loadConstraints(ctx, req.DepartmentID, req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := constraints.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConstraintViolation, "排班约束不完整")
	}

	s.log.StartOptimization(req.DepartmentID, string(req.Algorithm), len(constraints.UserConstraints), constraints.NumDays())

	began := time.Now()
	sol, iterations, hybridResult, err := s.solve(ctx, req, constraints)
	elapsed := time.Since(began)
	if err != nil {
		metrics.RecordOptimization(string(req.Algorithm), "error", elapsed, iterations)
		return nil, err
	}

	result = &SchedulingResult{
		DepartmentID: req.DepartmentID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Algorithm:    req.Algorithm,
		Status:       sol.Status,
		Score:        sol.Score,
		Violations:   sol.Violations,
		Assignments:  convertAssignments(constraints, sol),
		Iterations:   iterations,
		Duration:     elapsed,
		Hybrid:       hybridResult,
	}
	if sol.Status.Solved() {
		result.Statistics = stats.Compute(constraints, sol)
	}

	metrics.RecordOptimization(string(req.Algorithm), string(sol.Status), elapsed, iterations)
	metrics.SetSolutionScore(req.DepartmentID, sol.Score)
	if result.Statistics != nil {
		metrics.SetFairnessGini(req.DepartmentID, result.Statistics.WorkloadGini)
	}
	s.log.OptimizationComplete(string(req.Algorithm), string(sol.Status), elapsed, sol.Score)
	return result, nil
}

// solve 按算法组装求解器,统一经由 scheduler.Solver 接口执行
func (s *Service) solve(ctx context.Context, req InternalRequest, constraints *model.ShiftConstraints) (*solution.Solution, int, *HybridResult, error) {
	solver, err := s.buildSolver(ctx, req.Algorithm, req.DepartmentID, constraints)
	if err != nil {
		return nil, 0, nil, err
	}

	r, err := solver.Solve(ctx)
	if err != nil {
		return nil, 0, nil, apperrors.SolverAbnormal(solver.Name(), err.Error())
	}

	var hybridResult *HybridResult
	if hy, ok := solver.(*hybrid.Scheduler); ok {
		if last := hy.Last(); last != nil {
			hybridResult = convertHybrid(last)
		}
	}
	return r.Solution, r.Iterations, hybridResult, nil
}

// buildSolver 按算法与科室设置构造求解器
func (s *Service) buildSolver(ctx context.Context, algorithm model.Algorithm, departmentID int, constraints *model.ShiftConstraints) (scheduler.Solver, error) {
	switch algorithm {
	case model.AlgorithmSimulatedAnnealing:
		params, err := s.saParameters(ctx, departmentID)
		if err != nil {
			return nil, err
		}
		solver, err := annealing.New(constraints, params, s.rng)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "退火求解器初始化失败")
		}
		return solver, nil

	case model.AlgorithmCPSat:
		params, err := s.cpParameters(ctx, departmentID)
		if err != nil {
			return nil, err
		}
		solver, err := cpsat.New(cpsat.FromModel(constraints), params)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "CP-SAT 求解器初始化失败")
		}
		return solver, nil

	case model.AlgorithmHybrid:
		saParams, err := s.saParameters(ctx, departmentID)
		if err != nil {
			return nil, err
		}
		cpParams, err := s.cpParameters(ctx, departmentID)
		if err != nil {
			return nil, err
		}
		hyParams, err := s.hybridParameters(ctx, departmentID)
		if err != nil {
			return nil, err
		}
		solver, err := hybrid.New(constraints, cpsat.FromModel(constraints), saParams, cpParams, hyParams, s.rng)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "混合求解器初始化失败")
		}
		return solver, nil
	}
	return nil, apperrors.UnknownAlgorithm(string(algorithm))
}

// GetAlgorithmStatistics 以退火算法试算一次,返回求解过程统计。
func (s *Service) GetAlgorithmStatistics(ctx context.Context, req Request) (*annealing.Statistics, error) {
	internal, err := s.toInternal(req)
	if err != nil {
		return nil, err
	}
	constraints, err := s.loadConstraints(ctx, internal.DepartmentID, internal.StartDate, internal.EndDate)
	if err != nil {
		return nil, err
	}
	if err := constraints.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConstraintViolation, "排班约束不完整")
	}
	params, err := s.saParameters(ctx, internal.DepartmentID)
	if err != nil {
		return nil, err
	}
	solver, err := annealing.New(constraints, params, s.rng)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, "退火求解器初始化失败")
	}
	r, err := solver.Optimize(ctx)
	if err != nil {
		return nil, apperrors.SolverAbnormal(string(model.AlgorithmSimulatedAnnealing), err.Error())
	}
	return &r.Stats, nil
}

// ValidateConstraints 排班前置校验,返回全部问题描述而非遇错即停。
func (s *Service) ValidateConstraints(ctx context.Context, req Request) ([]string, error) {
	var issues []string

	start, err := model.ParseJalaliDate(req.StartDate)
	if err != nil {
		issues = append(issues, fmt.Sprintf("开始日期非法: %s", req.StartDate))
	}
	end, err := model.ParseJalaliDate(req.EndDate)
	if err != nil {
		issues = append(issues, fmt.Sprintf("结束日期非法: %s", req.EndDate))
	}
	if len(issues) > 0 {
		return issues, nil
	}

	startT, _ := model.ParseDate(start)
	endT, _ := model.ParseDate(end)
	if !startT.Before(endT) {
		issues = append(issues, "开始日期必须早于结束日期")
	}
	today := time.Now().Format("2006-01-02")
	if end < today {
		issues = append(issues, "结束日期不能早于今天")
	}
	if model.DaysBetween(start, end)+1 > maxScheduleRangeDays {
		issues = append(issues, fmt.Sprintf("排班区间不能超过 %d 天", maxScheduleRangeDays))
	}

	dep, err := s.departments.GetByID(ctx, req.DepartmentID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询科室失败")
	}
	switch {
	case dep == nil:
		issues = append(issues, fmt.Sprintf("科室 %d 不存在", req.DepartmentID))
	case !dep.IsActive:
		issues = append(issues, fmt.Sprintf("科室 %s 已停用", dep.Name))
	}
	if dep != nil {
		staff, err := s.staff.ListActiveByDepartment(ctx, req.DepartmentID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询科室人员失败")
		}
		if len(staff) == 0 {
			issues = append(issues, "科室没有可排班人员")
		}
		shifts, err := s.shifts.ListByDepartment(ctx, req.DepartmentID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询科室班次失败")
		}
		if len(shifts) == 0 {
			issues = append(issues, "科室没有定义班次")
		}
	}
	return issues, nil
}

// SaveSchedule 持久化排班结果,覆盖同科室同区间的既有排班。
func (s *Service) SaveSchedule(ctx context.Context, result *SchedulingResult) error {
	if result == nil || !result.Status.Solved() {
		return apperrors.New(apperrors.CodeInvalidInput, "只有求解成功的排班结果可以保存")
	}
	record := &repository.ScheduleRecord{
		DepartmentID: result.DepartmentID,
		StartDate:    result.StartDate,
		EndDate:      result.EndDate,
		Algorithm:    string(result.Algorithm),
		Score:        result.Score,
		Status:       string(result.Status),
	}
	for _, a := range result.Assignments {
		record.Assignments = append(record.Assignments, &repository.AssignmentRecord{
			UserID:   a.UserID,
			ShiftID:  a.ShiftID,
			Date:     a.Date,
			Label:    string(a.Label),
			IsOnCall: a.IsOnCall,
		})
	}
	if err := s.schedules.Save(ctx, record); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "保存排班结果失败")
	}
	metrics.RecordScheduleSaved()
	return nil
}

func (s *Service) toInternal(req Request) (InternalRequest, error) {
	start, err := model.ParseJalaliDate(req.StartDate)
	if err != nil {
		return InternalRequest{}, apperrors.InvalidInput("start_date", err.Error())
	}
	end, err := model.ParseJalaliDate(req.EndDate)
	if err != nil {
		return InternalRequest{}, apperrors.InvalidInput("end_date", err.Error())
	}
	return InternalRequest{
		DepartmentID: req.DepartmentID,
		StartDate:    start,
		EndDate:      end,
		Algorithm:    req.Algorithm,
	}, nil
}

func validateRange(start, end string) error {
	startT, err := model.ParseDate(start)
	if err != nil {
		return apperrors.New(apperrors.CodeInvalidTimeRange, fmt.Sprintf("开始日期非法: %s", start))
	}
	endT, err := model.ParseDate(end)
	if err != nil {
		return apperrors.New(apperrors.CodeInvalidTimeRange, fmt.Sprintf("结束日期非法: %s", end))
	}
	if endT.Before(startT) {
		return apperrors.New(apperrors.CodeInvalidTimeRange, fmt.Sprintf("结束日期 %s 早于开始日期 %s", end, start))
	}
	if model.DaysBetween(start, end)+1 > maxScheduleRangeDays {
		return apperrors.New(apperrors.CodeInvalidTimeRange, fmt.Sprintf("排班区间不能超过 %d 天", maxScheduleRangeDays))
	}
	return nil
}

// loadConstraints 从仓储装配一次求解的完整问题输入
func (s *Service) loadConstraints(ctx context.Context, departmentID int, start, end string) (*model.ShiftConstraints, error) {
	dep, err := s.departments.GetByID(ctx, departmentID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询科室失败")
	}
	if dep == nil {
		return nil, apperrors.NotFound("department", strconv.Itoa(departmentID))
	}
	if !dep.IsActive {
		return nil, apperrors.InvalidInput("department_id", fmt.Sprintf("科室 %s 已停用", dep.Name))
	}

	constraints := model.NewShiftConstraints(departmentID, start, end)

	staffRecords, err := s.staff.ListActiveByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询科室人员失败")
	}
	userByID := make(map[int]*model.UserConstraint, len(staffRecords))
	for _, rec := range staffRecords {
		u := model.NewUserConstraint(rec.ID, rec.Name)
		u.Gender = model.Gender(rec.Gender)
		u.SpecialtyID = rec.SpecialtyID
		u.SpecialtyName = rec.SpecialtyName
		u.CanBeShiftManager = rec.CanBeShiftManager
		u.ShiftType = model.ShiftType(rec.ShiftType)
		u.ShiftSubType = model.ShiftSubType(rec.ShiftSubType)
		if rec.RotationPattern != nil {
			pattern := model.TwoShiftRotationPattern(*rec.RotationPattern)
			u.RotationPattern = &pattern
		}
		constraints.UserConstraints = append(constraints.UserConstraints, u)
		userByID[rec.ID] = u
	}

	settings, err := s.settings.GetDepartmentSettings(ctx, departmentID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询科室排班设置失败")
	}
	applyDepartmentSettings(constraints, settings)

	// 科室夜班偏好直接调节月度晚班上限的罚分权重:
	// 偏好晚班的科室放松约束,反之加重。
	if dep.IsNightLover != nil {
		if *dep.IsNightLover {
			constraints.SoftWeights.MonthlyNightCap = 0.5
		} else {
			constraints.SoftWeights.MonthlyNightCap = 2.0
		}
	}

	approved, err := s.requests.ListApprovedInRange(ctx, departmentID, start, end)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询已审批换班申请失败")
	}
	for _, req := range approved {
		u := userByID[req.UserID]
		if u == nil {
			continue
		}
		switch req.Action {
		case repository.RequestActionOffShift:
			u.UnavailableDates[req.RequestDate] = true
		case repository.RequestActionOnShift:
			if req.FullDay {
				u.PreferredShifts[model.ShiftMorning] = true
				u.PreferredShifts[model.ShiftEvening] = true
				u.PreferredShifts[model.ShiftNight] = true
			} else if req.ShiftLabel != nil {
				u.PreferredShifts[parseLabel(*req.ShiftLabel)] = true
			}
		}
	}

	startT, err := model.ParseDate(start)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeInvalidTimeRange, fmt.Sprintf("开始日期非法: %s", start))
	}
	for _, rec := range staffRecords {
		if !rec.InProductivityPlan {
			continue
		}
		snap, err := s.calc.MonthlyRequiredHours(productivity.Employment{
			UserID:            rec.ID,
			EmploymentPercent: rec.EmploymentPercent,
			DeductionHours:    rec.DeductionHours,
		}, startT.Year(), int(startT.Month()))
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidInput, fmt.Sprintf("人员 %d 法定工时核算失败", rec.ID))
		}
		required := snap.FinalRequiredHours
		userByID[rec.ID].ProductivityRequiredHours = &required
	}

	lookback := 1
	if settings != nil && settings.FairnessLookbackMonths != nil && *settings.FairnessLookbackMonths > 0 {
		lookback = *settings.FairnessLookbackMonths
	}
	historyStart := model.FormatDate(startT.AddDate(0, -lookback, 0))
	historyEnd := model.AddDays(start, -1)
	recent, err := s.staff.CountRecentAssignments(ctx, departmentID, historyStart, historyEnd)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询历史排班数量失败")
	}
	for userID, count := range recent {
		if u := userByID[userID]; u != nil {
			u.RecentTotalShifts = count
		}
	}

	shiftRecords, err := s.shifts.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询科室班次失败")
	}
	for _, rec := range shiftRecords {
		req := &model.ShiftRequirement{
			ShiftID:   rec.ID,
			ShiftName: rec.Name,
			Label:     parseLabel(rec.Label),
			StartTime: rec.StartTime,
			EndTime:   rec.EndTime,
		}
		for _, sr := range rec.SpecialtyRequirements {
			req.SpecialtyRequirements = append(req.SpecialtyRequirements, &model.SpecialtyRequirement{
				SpecialtyID:         sr.SpecialtyID,
				SpecialtyName:       sr.SpecialtyName,
				RequiredTotalCount:  sr.RequiredTotalCount,
				RequiredMaleCount:   sr.RequiredMaleCount,
				RequiredFemaleCount: sr.RequiredFemaleCount,
				OnCallTotalCount:    sr.OnCallTotalCount,
				OnCallMaleCount:     sr.OnCallMaleCount,
				OnCallFemaleCount:   sr.OnCallFemaleCount,
			})
		}
		constraints.ShiftRequirements = append(constraints.ShiftRequirements, req)
	}

	return constraints, nil
}

// applyDepartmentSettings 按科室设置覆盖缺省规则。
// 设置行存在时,未填写的开关按保守缺省处理:重复排班禁止,其余硬性规则降级为软性;
// 设置行不存在时保持模型缺省。人员数值限额只在对应硬性规则开启时生效,并做下限保护。
func applyDepartmentSettings(c *model.ShiftConstraints, s *repository.DepartmentSettings) {
	if s == nil {
		return
	}

	c.HardRules.ForbidDuplicateDailyAssignments = boolOr(s.ForbidDuplicateDailyAssignments, true)
	c.HardRules.EnforceMaxShiftsPerDay = boolOr(s.EnforceMaxShiftsPerDay, false)
	c.HardRules.EnforceMinRestDays = boolOr(s.EnforceMinRestDays, false)
	c.HardRules.EnforceMaxConsecutiveShifts = boolOr(s.EnforceMaxConsecutiveShifts, false)
	c.HardRules.EnforceMaxShiftsPerWeek = boolOr(s.EnforceWeeklyMaxShifts, false)
	c.HardRules.EnforceMaxNightShiftsPerMonth = boolOr(s.EnforceNightShiftMonthlyCap, false)
	c.HardRules.EnforceSpecialtyCapacity = boolOr(s.EnforceSpecialtyCapacity, false)

	c.SoftWeights.GenderBalance = floatOr(s.GenderBalanceWeight, 1.0)
	c.SoftWeights.SpecialtyPreference = floatOr(s.SpecialtyPreferenceWeight, 1.0)
	c.SoftWeights.UserUnwantedShift = floatOr(s.UserUnwantedShiftWeight, 1.0)
	c.SoftWeights.UserPreferredShift = floatOr(s.UserPreferredShiftWeight, 1.0)
	c.SoftWeights.WeeklyMax = floatOr(s.WeeklyMaxWeight, 1.0)
	c.SoftWeights.MonthlyNightCap = floatOr(s.MonthlyNightCapWeight, 1.0)
	c.SoftWeights.FairShiftCountBalance = floatOr(s.FairShiftCountBalanceWeight, 1.0)
	c.SoftWeights.ExtraShiftRotation = floatOr(s.ExtraShiftRotationWeight, 1.0)
	c.SoftWeights.ShiftLabelBalance = floatOr(s.ShiftLabelBalanceWeight, 1.0)

	if c.HardRules.EnforceMaxShiftsPerDay && s.MaxShiftsPerDay != nil {
		c.Global.MaxShiftsPerDay = clampInt(*s.MaxShiftsPerDay, 1, 3)
	}

	for _, u := range c.UserConstraints {
		if c.HardRules.EnforceMinRestDays && s.MinRestDaysBetweenShifts != nil {
			u.MinRestDaysBetweenShifts = maxInt(0, *s.MinRestDaysBetweenShifts)
		}
		if c.HardRules.EnforceMaxConsecutiveShifts && s.MaxConsecutiveShifts != nil {
			u.MaxConsecutiveShifts = maxInt(1, *s.MaxConsecutiveShifts)
		}
		if c.HardRules.EnforceMaxShiftsPerWeek && s.MaxShiftsPerWeek != nil {
			u.MaxShiftsPerWeek = clampInt(*s.MaxShiftsPerWeek, 1, 7)
		}
		if c.HardRules.EnforceMaxNightShiftsPerMonth && s.MaxNightShiftsPerMonth != nil {
			u.MaxNightShiftsPerMonth = maxInt(0, *s.MaxNightShiftsPerMonth)
		}
	}
}

// saParameters 退火参数:配置缺省值叠加科室级算法设置覆盖
func (s *Service) saParameters(ctx context.Context, departmentID int) (annealing.Parameters, error) {
	p := annealing.Parameters{
		InitialTemperature:              s.cfg.Annealing.InitialTemperature,
		FinalTemperature:                s.cfg.Annealing.FinalTemperature,
		CoolingRate:                     s.cfg.Annealing.CoolingRate,
		MaxIterations:                   s.cfg.Annealing.MaxIterations,
		MaxIterationsWithoutImprovement: s.cfg.Annealing.MaxIterationsWithoutImprovement,
		MaxNeighborsPerIteration:        s.cfg.Annealing.MaxNeighborsPerIteration,
		PenaltyWeight:                   s.cfg.Annealing.PenaltyWeight,
	}
	as, err := s.settings.GetAlgorithmSettings(ctx, departmentID, string(model.AlgorithmSimulatedAnnealing))
	if err != nil {
		return p, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询算法设置失败")
	}
	if as != nil {
		if as.SAInitialTemperature != nil {
			p.InitialTemperature = *as.SAInitialTemperature
		}
		if as.SAFinalTemperature != nil {
			p.FinalTemperature = *as.SAFinalTemperature
		}
		if as.SACoolingRate != nil {
			p.CoolingRate = *as.SACoolingRate
		}
		if as.SAMaxIterations != nil {
			p.MaxIterations = *as.SAMaxIterations
		}
		if as.SAMaxIterationsWithoutImprovement != nil {
			p.MaxIterationsWithoutImprovement = *as.SAMaxIterationsWithoutImprovement
		}
	}
	return p, nil
}

// cpParameters CP-SAT 参数:配置缺省值叠加科室级算法设置覆盖
func (s *Service) cpParameters(ctx context.Context, departmentID int) (cpsat.Parameters, error) {
	p := cpsat.Parameters{
		MaxTimeSeconds:    s.cfg.CPSat.MaxTimeSeconds,
		NumSearchWorkers:  s.cfg.CPSat.NumSearchWorkers,
		MaxSolutions:      s.cfg.CPSat.MaxSolutions,
		RelativeGapLimit:  s.cfg.CPSat.RelativeGapLimit,
		LogSearchProgress: s.cfg.CPSat.LogSearchProgress,
	}
	as, err := s.settings.GetAlgorithmSettings(ctx, departmentID, string(model.AlgorithmCPSat))
	if err != nil {
		return p, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询算法设置失败")
	}
	if as != nil {
		if as.CPMaxTimeSeconds != nil {
			p.MaxTimeSeconds = *as.CPMaxTimeSeconds
		}
		if as.CPNumSearchWorkers != nil {
			p.NumSearchWorkers = int32(*as.CPNumSearchWorkers)
		}
		if as.CPMaxSolutions != nil {
			p.MaxSolutions = int32(*as.CPMaxSolutions)
		}
		if as.CPRelativeGapLimit != nil {
			p.RelativeGapLimit = *as.CPRelativeGapLimit
		}
		if as.CPLogSearchProgress != nil {
			p.LogSearchProgress = *as.CPLogSearchProgress
		}
	}
	return p, nil
}

// hybridParameters 混合策略参数:配置缺省值叠加科室级算法设置覆盖
func (s *Service) hybridParameters(ctx context.Context, departmentID int) (hybrid.Parameters, error) {
	p := hybrid.Parameters{
		MaxIterations:       s.cfg.Hybrid.MaxIterations,
		ComplexityThreshold: s.cfg.Hybrid.ComplexityThreshold,
	}
	strategy, err := hybrid.ParseStrategy(s.cfg.Hybrid.Strategy)
	if err != nil {
		strategy = hybrid.StrategyCPFirst
	}
	p.Strategy = strategy

	as, err := s.settings.GetAlgorithmSettings(ctx, departmentID, string(model.AlgorithmHybrid))
	if err != nil {
		return p, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询算法设置失败")
	}
	if as != nil {
		if as.HybridStrategy != nil {
			if parsed, err := hybrid.ParseStrategy(*as.HybridStrategy); err == nil {
				p.Strategy = parsed
			}
		}
		if as.HybridMaxIterations != nil {
			p.MaxIterations = *as.HybridMaxIterations
		}
		if as.HybridComplexityThreshold != nil {
			p.ComplexityThreshold = *as.HybridComplexityThreshold
		}
	}
	return p, nil
}

// convertAssignments 将解转为输出格式,补全人员姓名与专业信息
func convertAssignments(constraints *model.ShiftConstraints, sol *solution.Solution) []*AssignmentDTO {
	if sol == nil {
		return nil
	}
	userByID := make(map[int]*model.UserConstraint, len(constraints.UserConstraints))
	for _, u := range constraints.UserConstraints {
		userByID[u.UserID] = u
	}
	dtos := make([]*AssignmentDTO, 0, sol.Len())
	for _, a := range sol.Sorted() {
		dto := &AssignmentDTO{
			UserID:   a.UserID,
			ShiftID:  a.ShiftID,
			Label:    a.Label,
			Date:     a.Date,
			IsOnCall: a.OnCall,
		}
		if u := userByID[a.UserID]; u != nil {
			dto.UserName = u.UserName
			dto.SpecialtyID = u.SpecialtyID
			dto.SpecialtyName = u.SpecialtyName
		}
		dtos = append(dtos, dto)
	}
	return dtos
}

func convertHybrid(r *hybrid.Solution) *HybridResult {
	h := &HybridResult{
		StrategyUsed: string(r.StrategyUsed),
		Complexity:   r.Complexity,
		TotalTime:    r.TotalTime,
		Phase1Time:   r.Phase1Time,
		Phase2Time:   r.Phase2Time,
		FallbackUsed: r.FallbackUsed,
		Iterations:   r.Iterations,
		Errors:       r.Errors,
	}
	if r.CPSolution != nil {
		h.CPStatus = string(r.CPSolution.Status)
		h.CPScore = r.CPSolution.Score
	}
	if r.SASolution != nil {
		h.SAStatus = string(r.SASolution.Status)
		h.SAScore = r.SASolution.Score
	}
	return h
}

func parseLabel(s string) model.ShiftLabel {
	switch model.ShiftLabel(s) {
	case model.ShiftEvening:
		return model.ShiftEvening
	case model.ShiftNight:
		return model.ShiftNight
	}
	return model.ShiftMorning
}

func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}

func floatOr(p *float64, def float64) float64 {
	if p != nil {
		return *p
	}
	return def
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
