package service

import (
	"errors"

	"runsight_backend/internal/model"
	"runsight_backend/internal/repository"
	"runsight_backend/internal/util"

	"gorm.io/gorm"
)

// AnalysisService 负荷分析的读取入口：取记录、定"今天"、调计算
type AnalysisService struct {
	RecordRepo *repository.DailyRecordRepository
	Workload   *WorkloadService
}

func NewAnalysisService(recordRepo *repository.DailyRecordRepository, workload *WorkloadService) *AnalysisService {
	return &AnalysisService{
		RecordRepo: recordRepo,
		Workload:   workload,
	}
}

// ACWR 指定日期（缺省为今天）的急慢性负荷比，数据不足时返回 nil
func (s *AnalysisService) ACWR(user *model.User, dateStr string) (*model.ACWRResult, error) {
	day := s.Workload.Today(user.Location())
	if dateStr != "" {
		parsed, err := util.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		day = parsed
	}

	records, err := s.RecordRepo.FindAllByUser(user.ID)
	if err != nil {
		return nil, err
	}
	return s.Workload.CalculateACWR(records, day), nil
}

// Recovery 指定日期（缺省为今天）的恢复分，无数据时返回 nil
func (s *AnalysisService) Recovery(user *model.User, dateStr string) (*model.RecoveryResult, error) {
	day := s.Workload.Today(user.Location())
	if dateStr != "" {
		parsed, err := util.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		day = parsed
	}

	record, err := s.RecordRepo.FindByUserAndDate(user.ID, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 没有记录不是错误，恢复分就是不可得
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Workload.CalculateRecoveryScore(record.SleepScore, record.ReadinessScore), nil
}

// Recommendation 指定日期（缺省为今天）的训练建议
func (s *AnalysisService) Recommendation(user *model.User, dateStr string) (*model.DailyRecommendation, error) {
	day := s.Workload.Today(user.Location())
	if dateStr != "" {
		parsed, err := util.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		day = parsed
	}

	records, err := s.RecordRepo.FindRange(user.ID, day, day)
	if err != nil {
		return nil, err
	}
	rec := s.Workload.DailyRecommendation(records, day)
	return &rec, nil
}

// Calendar [start, end] 每天的建议，跨度限制在 92 天以内
func (s *AnalysisService) Calendar(user *model.User, startStr, endStr string) ([]model.DailyRecommendation, error) {
	start, err := util.ParseDate(startStr)
	if err != nil {
		return nil, err
	}
	end, err := util.ParseDate(endStr)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, util.ErrInvalidDateRange
	}
	if int(end.Sub(start).Hours()/24)+1 > util.MaxCalendarRangeDays {
		return nil, util.ErrRangeTooLarge
	}

	records, err := s.RecordRepo.FindRange(user.ID, start, end)
	if err != nil {
		return nil, err
	}
	return s.Workload.CalendarRecommendations(records, start, end), nil
}

// Full 仪表盘用的汇总分析，没有任何记录时返回 nil
func (s *AnalysisService) Full(user *model.User) (*model.FullAnalysis, error) {
	records, err := s.RecordRepo.FindAllByUser(user.ID)
	if err != nil {
		return nil, err
	}
	today := s.Workload.Today(user.Location())
	return s.Workload.FullAnalysis(records, today), nil
}

// OptimalRunDay 指定日期（缺省为今天）是否适合跑步的三态判断
func (s *AnalysisService) OptimalRunDay(user *model.User, dateStr string) (*bool, error) {
	day := s.Workload.Today(user.Location())
	if dateStr != "" {
		parsed, err := util.ParseDate(dateStr)
		if err != nil {
			return nil, err
		}
		day = parsed
	}

	record, err := s.RecordRepo.FindByUserAndDate(user.ID, day)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Workload.IsOptimalRunDay(record.SleepScore, record.ReadinessScore), nil
}
